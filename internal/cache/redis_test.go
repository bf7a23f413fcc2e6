package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	c, err := NewRedisCache(Config{Addr: mr.Addr(), DefaultTTL: time.Minute})
	require.NoError(t, err)

	t.Cleanup(func() {
		c.Close()
		mr.Close()
	})
	return mr, c
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	c, err := NewRedisCache(Config{Addr: addr})
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestRedisCache_SetAndGet(t *testing.T) {
	_, c := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "tr:en:abc", []byte("hello"), 0))

	got, err := c.Get(ctx, "tr:en:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestRedisCache_GetMissing(t *testing.T) {
	_, c := setupMiniredis(t)

	got, err := c.Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_DefaultTTLApplied(t *testing.T) {
	mr, c := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	require.NoError(t, c.Set(ctx, "k2", []byte("v"), 5*time.Second))
	assert.Equal(t, 5*time.Second, mr.TTL("k2"))

	mr.FastForward(2 * time.Minute)
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_Ping(t *testing.T) {
	_, c := setupMiniredis(t)
	assert.NoError(t, c.Ping(context.Background()))
}
