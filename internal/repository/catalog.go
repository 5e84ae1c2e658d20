package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/aishifts/internal/domain"
)

// CatalogRepository reads feed content and records comments in Postgres.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, category_id, name, image_link
		FROM categories
		ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.CategoryID, &c.Name, &c.ImageLink); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *CatalogRepository) Items(ctx context.Context) ([]domain.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, item_id, head, category_id, description, username,
		       user_avatar, likes, time_ago, images, chat_bot
		FROM items
		ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	index := make(map[string]int)
	for rows.Next() {
		var (
			it      domain.Item
			images  []byte
			chatBot []byte
		)
		if err := rows.Scan(&it.ID, &it.ItemID, &it.Head, &it.CategoryID, &it.Description, &it.Username,
			&it.UserAvatar, &it.Likes, &it.TimeAgo, &images, &chatBot); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if err := decodeJSONB(images, &it.Images); err != nil {
			return nil, fmt.Errorf("item %s images: %w", it.ItemID, err)
		}
		if err := decodeJSONB(chatBot, &it.ChatBot); err != nil {
			return nil, fmt.Errorf("item %s chat bot: %w", it.ItemID, err)
		}
		it.Comments = []domain.Comment{}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	if len(items) == 0 {
		return items, nil
	}
	if err := r.attachComments(ctx, items, index); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CatalogRepository) attachComments(ctx context.Context, items []domain.Item, index map[string]int) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, item_id::text, username, text, created_at
		FROM comments
		ORDER BY created_at, id`)
	if err != nil {
		return fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c         domain.Comment
			itemID    string
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&c.ID, &itemID, &c.Username, &c.Text, &createdAt); err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt = pgTimestamptzToTime(createdAt)
		if i, ok := index[itemID]; ok {
			items[i].Comments = append(items[i].Comments, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate comments: %w", err)
	}
	return nil
}

// ResolveItemID maps a public item_id to the item's uuid.
func (r *CatalogRepository) ResolveItemID(ctx context.Context, itemID string) (uuid.UUID, error) {
	var raw string
	err := r.pool.QueryRow(ctx, `SELECT id::text FROM items WHERE item_id = $1`, itemID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, domain.ErrItemNotFound
		}
		return uuid.Nil, fmt.Errorf("query item id: %w", err)
	}
	return uuid.Parse(raw)
}

// AppendComment stores c under itemID. Returns domain.ErrItemNotFound when the item does not exist.
func (r *CatalogRepository) AppendComment(ctx context.Context, itemID, identity uuid.UUID, c domain.Comment) (*domain.Comment, error) {
	id := uuid.New()
	var createdAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, `
		INSERT INTO comments (id, item_id, identity_id, username, text)
		SELECT $1::uuid, $2::uuid, $3::uuid, $4::text, $5::text
		WHERE EXISTS (SELECT 1 FROM items WHERE id = $2::uuid)
		RETURNING created_at`,
		id.String(), itemID.String(), identity.String(), c.Username, c.Text,
	).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	return &domain.Comment{
		ID:        id.String(),
		Username:  c.Username,
		Text:      c.Text,
		CreatedAt: pgTimestamptzToTime(createdAt),
	}, nil
}

// CreateAnonymousIdentity registers a new anonymous writer.
func (r *CatalogRepository) CreateAnonymousIdentity(ctx context.Context) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := r.pool.Exec(ctx, `INSERT INTO anonymous_identities (id) VALUES ($1::uuid)`, id.String()); err != nil {
		return uuid.Nil, fmt.Errorf("insert anonymous identity: %w", err)
	}
	return id, nil
}
