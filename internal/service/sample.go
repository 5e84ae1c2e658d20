package service

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/set-night/aishifts/internal/domain"
)

//go:embed sample_catalog.json
var sampleCatalogJSON []byte

// SampleFeed decodes the bundled demo catalog. Each call returns a fresh copy.
func SampleFeed() *Feed {
	feed, err := parseFeed(sampleCatalogJSON)
	if err != nil {
		panic(fmt.Sprintf("bundled sample catalog: %v", err))
	}
	return feed
}

func parseFeed(data []byte) (*Feed, error) {
	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if feed.Categories == nil {
		feed.Categories = []domain.Category{}
	}
	if feed.Items == nil {
		feed.Items = []domain.Item{}
	}
	for i := range feed.Items {
		if feed.Items[i].Comments == nil {
			feed.Items[i].Comments = []domain.Comment{}
		}
	}
	return &feed, nil
}
