// Package redis shares the answer cache between API replicas.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

const (
	keyPrefix     = "faq:answer:"
	purgeScanSize = 500
)

type Cache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewClient(addr string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

func New(client *goredis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get treats Redis failures as misses; the answer is recomputed instead.
func (c *Cache) Get(ctx context.Context, key string) (*domain.Answer, bool) {
	raw, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.Warn("answer_cache_get_failed", "error", err)
		}
		return nil, false
	}
	var answer domain.Answer
	if err := json.Unmarshal(raw, &answer); err != nil {
		slog.Warn("answer_cache_decode_failed", "error", err)
		return nil, false
	}
	return &answer, true
}

func (c *Cache) Set(ctx context.Context, key string, answer *domain.Answer) error {
	if answer == nil {
		return nil
	}
	raw, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("marshal cached answer: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(key), raw, c.ttl).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "redis set", err)
	}
	return nil
}

// Purge deletes every answer key. Other keys in the database are left alone.
func (c *Cache) Purge(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", purgeScanSize).Result()
		if err != nil {
			return domain.WrapError(domain.ErrTemporary, "redis scan", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return domain.WrapError(domain.ErrTemporary, "redis del", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func cacheKey(key string) string {
	return keyPrefix + key
}
