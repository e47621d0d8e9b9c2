package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute, MaxItems: 10})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = c.Get(ctx, "missing")
	require.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute, MaxItems: 10})
	defer c.Close()
	ctx := context.Background()

	c.SetWithTTL(ctx, "a", 1, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get(ctx, "a")
	require.False(t, ok)
}

func TestCacheEvictsWhenFull(t *testing.T) {
	evicted := []string{}
	c := New(Config{
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Minute,
		MaxItems:        2,
		OnEviction:      func(key string, _ any) { evicted = append(evicted, key) },
	})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	time.Sleep(time.Millisecond)
	c.Set(ctx, "b", 2)
	time.Sleep(time.Millisecond)
	c.Get(ctx, "a") // refresh a so b becomes the eviction candidate
	time.Sleep(time.Millisecond)
	c.Set(ctx, "c", 3)

	require.Equal(t, []string{"b"}, evicted)
	require.Equal(t, 2, c.Size())
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute, MaxItems: 10})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Delete(ctx, "a")
	_, ok := c.Get(ctx, "a")
	require.False(t, ok)

	c.Set(ctx, "b", 2)
	c.Clear(ctx)
	require.Equal(t, 0, c.Size())
}
