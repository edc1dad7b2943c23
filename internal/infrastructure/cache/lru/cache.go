// Package lru is the in-process answer cache.
package lru

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

type Cache struct {
	entries *expirable.LRU[string, domain.Answer]
}

// New builds a cache holding up to size answers for ttl. ttl <= 0 disables expiry.
func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 1000
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{entries: expirable.NewLRU[string, domain.Answer](size, nil, ttl)}
}

// Get returns a copy so callers can flag it without touching the stored value.
func (c *Cache) Get(_ context.Context, key string) (*domain.Answer, bool) {
	answer, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	answer.Sources = append([]domain.Candidate(nil), answer.Sources...)
	return &answer, true
}

func (c *Cache) Set(_ context.Context, key string, answer *domain.Answer) error {
	if answer == nil {
		return nil
	}
	stored := *answer
	stored.Sources = append([]domain.Candidate(nil), answer.Sources...)
	c.entries.Add(key, stored)
	return nil
}

func (c *Cache) Purge(_ context.Context) error {
	c.entries.Purge()
	return nil
}

func (c *Cache) Len() int {
	return c.entries.Len()
}
