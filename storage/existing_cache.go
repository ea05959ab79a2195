package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"asin-lister/models"
	"asin-lister/utils"
)

const existingKeyPrefix = "lister:existing:"

// ExistenceChecker mirrors services.ExistenceChecker so the cache can wrap any
// implementation without importing services.
type ExistenceChecker interface {
	Existing(ctx context.Context, asins []string) ([]string, error)
}

// ExistingCache remembers identifiers known to be listed on the destination
// in Redis and only asks the wrapped checker about the rest.
type ExistingCache struct {
	rdb    *redis.Client
	next   ExistenceChecker
	ttl    time.Duration
	logger *utils.Logger
}

// NewExistingCache wraps next with a Redis-backed cache.
func NewExistingCache(rdb *redis.Client, next ExistenceChecker, ttl time.Duration, logger *utils.Logger) *ExistingCache {
	return &ExistingCache{rdb: rdb, next: next, ttl: ttl, logger: logger}
}

// Existing answers from Redis where possible. Redis errors fall through to
// the wrapped checker; errors of the wrapped checker are returned.
func (c *ExistingCache) Existing(ctx context.Context, asins []string) ([]string, error) {
	cached, missing := c.lookup(ctx, asins)
	if len(missing) == 0 {
		return cached, nil
	}

	fresh, err := c.next.Existing(ctx, missing)
	if err != nil {
		return nil, err
	}
	_ = c.remember(ctx, fresh)

	return append(cached, fresh...), nil
}

// RecordListed adds freshly listed identifiers to the cache.
func (c *ExistingCache) RecordListed(ctx context.Context, listed []models.ListingOutcome) error {
	asins := make([]string, 0, len(listed))
	for _, o := range listed {
		asins = append(asins, o.ASIN)
	}
	return c.remember(ctx, asins)
}

func (c *ExistingCache) lookup(ctx context.Context, asins []string) (cached, missing []string) {
	if len(asins) == 0 {
		return nil, nil
	}

	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.IntCmd, len(asins))
	for i, a := range asins {
		cmds[i] = pipe.Exists(ctx, existingKeyPrefix+a)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("[cache] Redis lookup failed, asking listing service for all %d: %v", len(asins), err)
		return nil, asins
	}

	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			cached = append(cached, asins[i])
		} else {
			missing = append(missing, asins[i])
		}
	}
	c.logger.Debug("[cache] %d cached as existing, %d to check", len(cached), len(missing))
	return cached, missing
}

func (c *ExistingCache) remember(ctx context.Context, asins []string) error {
	if len(asins) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for _, a := range asins {
		pipe.Set(ctx, existingKeyPrefix+a, 1, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("[cache] Redis write failed for %d identifiers: %v", len(asins), err)
		return fmt.Errorf("cache: remember: %w", err)
	}
	return nil
}
