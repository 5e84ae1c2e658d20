package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/set-night/aishifts/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultCommentUsername is used when a comment arrives without a username.
const DefaultCommentUsername = "sen"

// CatalogStore is the persistence layer behind the feed.
type CatalogStore interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Items(ctx context.Context) ([]domain.Item, error)
	ResolveItemID(ctx context.Context, itemID string) (uuid.UUID, error)
	AppendComment(ctx context.Context, itemID, identity uuid.UUID, c domain.Comment) (*domain.Comment, error)
	CreateAnonymousIdentity(ctx context.Context) (uuid.UUID, error)
}

// Feed is the full catalog as rendered by the client.
type Feed struct {
	Categories []domain.Category `json:"categories"`
	Items      []domain.Item     `json:"items"`
}

// CatalogService serves the feed from the store, falling back to the bundled
// sample content when the store is missing, empty or failing.
type CatalogService struct {
	store      CatalogStore
	sample     *Feed
	categories *ttlCache[[]domain.Category]
	items      *ttlCache[[]domain.Item]

	identityMu sync.Mutex
	identity   uuid.UUID
}

// NewCatalogService builds the service. A nil store serves sample content only.
func NewCatalogService(store CatalogStore, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		store:      store,
		sample:     SampleFeed(),
		categories: newTTLCache[[]domain.Category](cacheTTL),
		items:      newTTLCache[[]domain.Item](cacheTTL),
	}
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.storeCategories(ctx)
	if err != nil {
		slog.Warn("catalog store unavailable, serving sample categories", "error", err)
		return s.sample.Categories, nil
	}
	if len(categories) == 0 {
		slog.Warn("catalog store has no categories, serving sample categories")
		return s.sample.Categories, nil
	}
	return categories, nil
}

func (s *CatalogService) Items(ctx context.Context) ([]domain.Item, error) {
	items, err := s.storeItems(ctx)
	if err != nil {
		slog.Warn("catalog store unavailable, serving sample items", "error", err)
		return s.sample.Items, nil
	}
	if len(items) == 0 {
		slog.Warn("catalog store has no items, serving sample items")
		return s.sample.Items, nil
	}
	return items, nil
}

// Feed loads categories and items concurrently. The sample feed replaces the
// store's content when either read fails or both come back empty.
func (s *CatalogService) Feed(ctx context.Context) (*Feed, error) {
	var feed Feed
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := s.storeCategories(gctx)
		feed.Categories = categories
		return err
	})
	g.Go(func() error {
		items, err := s.storeItems(gctx)
		feed.Items = items
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Warn("catalog store unavailable, serving sample feed", "error", err)
		return s.sample, nil
	}
	if len(feed.Categories) == 0 && len(feed.Items) == 0 {
		slog.Warn("catalog store empty, serving sample feed")
		return s.sample, nil
	}
	return &feed, nil
}

func (s *CatalogService) storeCategories(ctx context.Context) ([]domain.Category, error) {
	if s.store == nil {
		return nil, domain.ErrCatalogDisabled
	}
	if cached, ok := s.categories.Get(); ok {
		return cached, nil
	}
	categories, err := s.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	s.categories.Set(categories)
	slog.Debug("categories loaded", "count", len(categories))
	return categories, nil
}

func (s *CatalogService) storeItems(ctx context.Context) ([]domain.Item, error) {
	if s.store == nil {
		return nil, domain.ErrCatalogDisabled
	}
	if cached, ok := s.items.Get(); ok {
		return cached, nil
	}
	items, err := s.store.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}
	if items == nil {
		items = []domain.Item{}
	}
	s.items.Set(items)
	slog.Debug("items loaded", "count", len(items))
	return items, nil
}

// AddComment appends a sanitized comment to an item using the process's anonymous identity.
// itemID is either the item's uuid or its public itemId.
func (s *CatalogService) AddComment(ctx context.Context, itemID string, c domain.Comment) (*domain.Comment, error) {
	text, err := plainText(c.Text)
	if err != nil {
		return nil, fmt.Errorf("sanitize comment: %w", err)
	}
	if text == "" {
		return nil, domain.ErrEmptyComment
	}
	username, err := plainText(c.Username)
	if err != nil {
		return nil, fmt.Errorf("sanitize username: %w", err)
	}
	if username == "" {
		username = DefaultCommentUsername
	}

	if s.store == nil {
		return nil, domain.ErrCatalogDisabled
	}
	id, err := s.resolveItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	identity, err := s.anonymousIdentity(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.AppendComment(ctx, id, identity, domain.Comment{Username: username, Text: text})
	if err != nil {
		return nil, fmt.Errorf("append comment: %w", err)
	}
	s.items.Invalidate()
	slog.Info("comment added", "item_id", itemID)
	return stored, nil
}

func (s *CatalogService) resolveItemID(ctx context.Context, itemID string) (uuid.UUID, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return uuid.Nil, domain.ErrItemNotFound
	}
	if id, err := uuid.Parse(itemID); err == nil {
		return id, nil
	}
	id, err := s.store.ResolveItemID(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("resolve item: %w", err)
	}
	return id, nil
}

// anonymousIdentity acquires the writer identity on first use and keeps it for the process lifetime.
// A failed acquisition is retried by the next caller.
func (s *CatalogService) anonymousIdentity(ctx context.Context) (uuid.UUID, error) {
	s.identityMu.Lock()
	defer s.identityMu.Unlock()

	if s.identity != uuid.Nil {
		return s.identity, nil
	}
	id, err := s.store.CreateAnonymousIdentity(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("acquire anonymous identity: %w", err)
	}
	s.identity = id
	slog.Info("anonymous identity acquired")
	return id, nil
}

// plainText strips markup from user supplied text.
func plainText(s string) (string, error) {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s), nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Text()), nil
}
