package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const lockKeyPrefix = "sync:lock:"

// SubjectLocker grants one pipeline run per subject at a time. With Redis available the
// lock is a SET NX key with a TTL so it holds across processes; otherwise it is an
// in-process set.
type SubjectLocker struct {
	redis *Redis
	ttl   time.Duration

	mu    sync.Mutex
	local map[uuid.UUID]struct{}
}

func NewSubjectLocker(r *Redis, ttl time.Duration) *SubjectLocker {
	return &SubjectLocker{redis: r, ttl: ttl, local: map[uuid.UUID]struct{}{}}
}

// TryLock returns acquired=false when another run holds the subject. The returned
// release func is non-nil only when acquired.
func (l *SubjectLocker) TryLock(ctx context.Context, id uuid.UUID) (bool, func(), error) {
	if l.redis.Available() {
		key := lockKeyPrefix + id.String()
		token := uuid.NewString()
		ok, err := l.redis.SetIfNotExists(ctx, key, token, l.ttl)
		if err == nil {
			if !ok {
				return false, nil, nil
			}
			return true, func() {
				if err := l.redis.DeleteIfValue(context.Background(), key, token); err != nil {
					l.redis.logger.Warn("release subject lock failed", zap.String("subject_id", id.String()), zap.Error(err))
				}
			}, nil
		}
		l.redis.logger.Warn("redis lock failed, using in-process lock", zap.String("subject_id", id.String()), zap.Error(err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.local[id]; held {
		return false, nil, nil
	}
	l.local[id] = struct{}{}

	var once sync.Once
	return true, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.local, id)
			l.mu.Unlock()
		})
	}, nil
}
