package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 5, 0, time.UTC)
	m := NewMemory(2, time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, ok, err := m.Allow(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	info, ok, _ := m.Allow(ctx, "u1")
	assert.False(t, ok)
	assert.Zero(t, info.Remaining)
	assert.Equal(t, 2, info.Limit)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 1, 0, 0, time.UTC), info.ResetAt)

	_, ok, _ = m.Allow(ctx, "u2")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute)
	info, ok, _ = m.Allow(ctx, "u1")
	assert.True(t, ok)
	assert.Equal(t, 1, info.Remaining)
}

// Needs a running redis, e.g. COMMENTTREE_TEST_REDIS=localhost:6379.
func TestRedisWindow(t *testing.T) {
	addr := os.Getenv("COMMENTTREE_TEST_REDIS")
	if addr == "" {
		t.Skip("COMMENTTREE_TEST_REDIS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	r := NewRedis(rdb, 1, time.Minute)
	key := uuid.NewString()
	ctx := context.Background()

	_, ok, err := r.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	info, ok, err := r.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, info.Remaining)
}
