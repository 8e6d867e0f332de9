package memory

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// PredictionCache implements PredictionCache using a bounded LRU
type PredictionCache struct {
	entries *lru.Cache[string, float64]
}

// NewPredictionCache creates a new in-memory prediction cache holding up to size entries
func NewPredictionCache(size int) (*PredictionCache, error) {
	entries, err := lru.New[string, float64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	return &PredictionCache{entries: entries}, nil
}

// Get returns the cached prediction for key
func (c *PredictionCache) Get(ctx context.Context, key string) (float64, bool, error) {
	v, ok := c.entries.Get(key)
	return v, ok, nil
}

// Set stores a prediction
func (c *PredictionCache) Set(ctx context.Context, key string, value float64) error {
	c.entries.Add(key, value)
	return nil
}

// Len returns the number of cached predictions
func (c *PredictionCache) Len() int {
	return c.entries.Len()
}

// Close drops all entries
func (c *PredictionCache) Close() error {
	c.entries.Purge()
	return nil
}
