// Package ratelimit implements fixed-window request limits per key.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (model.RateLimitInfo, bool, error)
}

func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}

func info(limit, count int, start time.Time, window time.Duration) model.RateLimitInfo {
	return model.RateLimitInfo{
		Limit:     limit,
		Remaining: max(0, limit-count),
		ResetAt:   start.Add(window),
	}
}

type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	counts map[string]counter
}

type counter struct {
	start time.Time
	n     int
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{limit: limit, window: window, now: time.Now, counts: make(map[string]counter)}
}

func (m *Memory) Allow(_ context.Context, key string) (model.RateLimitInfo, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := windowStart(m.now(), m.window)
	c := m.counts[key]
	if !c.start.Equal(start) {
		c = counter{start: start}
	}
	c.n++
	m.counts[key] = c

	if len(m.counts) > 4096 {
		for k, v := range m.counts {
			if v.start.Before(start) {
				delete(m.counts, k)
			}
		}
	}
	return info(m.limit, c.n, start, m.window), c.n <= m.limit, nil
}

// Redis shares the counters between server instances.
type Redis struct {
	rdb    redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedis(rdb redis.UniversalClient, limit int, window time.Duration) *Redis {
	return &Redis{rdb: rdb, limit: limit, window: window, prefix: "commenttree:rl", now: time.Now}
}

func (r *Redis) Allow(ctx context.Context, key string) (model.RateLimitInfo, bool, error) {
	start := windowStart(r.now(), r.window)
	k := fmt.Sprintf("%s:%s:%d", r.prefix, key, start.Unix())

	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, r.window)
		return nil
	})
	if err != nil {
		return model.RateLimitInfo{}, true, fmt.Errorf("rate limit %s: %w", key, err)
	}

	n := int(incr.Val())
	return info(r.limit, n, start, r.window), n <= r.limit, nil
}
