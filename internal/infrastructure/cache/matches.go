package cache

import (
	"context"
	"fmt"
	"time"

	"skill-radar/internal/domain/matching"

	"github.com/google/uuid"
)

// MatchCache keeps computed fit lists. The key carries the analysis timestamp, so a new
// analysis never reads a list computed from an older one.
type MatchCache struct {
	redis *Redis
	ttl   time.Duration
}

func NewMatchCache(r *Redis, ttl time.Duration) *MatchCache {
	return &MatchCache{redis: r, ttl: ttl}
}

func matchKey(id uuid.UUID, analyzedAt time.Time) string {
	return fmt.Sprintf("matches:%s:%d", id, analyzedAt.UnixNano())
}

func (c *MatchCache) Get(ctx context.Context, id uuid.UUID, analyzedAt time.Time) ([]matching.FitResult, bool) {
	var out []matching.FitResult
	ok, err := c.redis.GetJSON(ctx, matchKey(id, analyzedAt), &out)
	if err != nil || !ok {
		return nil, false
	}
	return out, true
}

func (c *MatchCache) Put(ctx context.Context, id uuid.UUID, analyzedAt time.Time, results []matching.FitResult) {
	_ = c.redis.SetJSON(ctx, matchKey(id, analyzedAt), results, c.ttl)
}

// Invalidate drops every cached list of the subject.
func (c *MatchCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.redis.DeleteByPattern(ctx, fmt.Sprintf("matches:%s:*", id))
}
