package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestJSONRoundTripAndMiss(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	var got map[string]int
	ok, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))
	ok, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, got["a"])

	mr.FastForward(2 * time.Minute)
	ok, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Get(ctx, "k")
	assert.True(t, IsMiss(err))
}

func TestPushRecent(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	for _, v := range []string{"a", "b", "c", "a", "d"} {
		require.NoError(t, c.PushRecent(ctx, "h", v, 3))
	}
	got, err := c.Range(ctx, "h", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a", "c"}, got)

	require.NoError(t, c.Del(ctx, "h"))
	got, err = c.Range(ctx, "h", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSetNX(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	ok, err := c.SetNX(ctx, "lock", "1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.SetNX(ctx, "lock", "1", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}
