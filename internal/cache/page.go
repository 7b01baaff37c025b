package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"yatube/internal/observability"

	"github.com/redis/go-redis/v9"
)

// PageCache stores rendered pages under a prefix for a fixed TTL.
//
// Every key embeds a generation number; Invalidate bumps the generation so all
// pages written before it become unreachable and expire on their own.
// A PageCache with a nil client or a zero TTL never stores anything.
type PageCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewPageCache returns a page cache backed by rdb.
func NewPageCache(rdb *redis.Client, prefix string, ttl time.Duration) *PageCache {
	return &PageCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Enabled reports whether lookups can hit.
func (p *PageCache) Enabled() bool {
	return p != nil && p.rdb != nil && p.ttl > 0
}

// TTL is how long a stored page stays valid.
func (p *PageCache) TTL() time.Duration {
	return p.ttl
}

func (p *PageCache) generationKey() string {
	return p.prefix + ":gen"
}

func (p *PageCache) key(ctx context.Context, variant string) (string, error) {
	gen, err := p.rdb.Get(ctx, p.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	sum := sha256.Sum256([]byte(variant))
	return fmt.Sprintf("%s:g%d:%s", p.prefix, gen, hex.EncodeToString(sum[:16])), nil
}

// Get returns the stored page for variant, if any.
func (p *PageCache) Get(ctx context.Context, variant string) ([]byte, bool) {
	if !p.Enabled() {
		observability.PageCacheRequests.WithLabelValues("bypass").Inc()
		return nil, false
	}
	key, err := p.key(ctx, variant)
	if err != nil {
		observability.PageCacheRequests.WithLabelValues("bypass").Inc()
		return nil, false
	}
	body, err := p.rdb.Get(ctx, key).Bytes()
	if err != nil {
		observability.PageCacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}
	observability.PageCacheRequests.WithLabelValues("hit").Inc()
	return body, true
}

// Set stores body for variant for the cache TTL.
func (p *PageCache) Set(ctx context.Context, variant string, body []byte) error {
	if !p.Enabled() {
		return nil
	}
	key, err := p.key(ctx, variant)
	if err != nil {
		return err
	}
	return p.rdb.Set(ctx, key, body, p.ttl).Err()
}

// Invalidate drops every page stored so far.
func (p *PageCache) Invalidate(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	if err := p.rdb.Incr(ctx, p.generationKey()).Err(); err != nil {
		return err
	}
	observability.PageCacheInvalidations.Inc()
	return nil
}
