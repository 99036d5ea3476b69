package prefs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/domus-api/internal/redisx"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	return &Store{Redis: redisx.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))}, mr
}

func TestPreferences(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	p, err := s.Get(ctx, "ama@domus.co")
	require.NoError(t, err)
	assert.False(t, p.DarkMode)

	require.NoError(t, s.Put(ctx, "ama@domus.co", Preferences{DarkMode: true}))
	p, err = s.Get(ctx, "ama@domus.co")
	require.NoError(t, err)
	assert.True(t, p.DarkMode)
	assert.Zero(t, mr.TTL("prefs:ama@domus.co"))

	require.NoError(t, s.Put(ctx, "guest:1", Preferences{DarkMode: true}))
	assert.Equal(t, 24*time.Hour, mr.TTL("prefs:guest:1"))
}

func TestHistory(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		require.NoError(t, s.AddSearch(ctx, "u", fmt.Sprintf("City %d", i)))
	}
	require.NoError(t, s.AddSearch(ctx, "u", "City 5"))
	require.NoError(t, s.AddSearch(ctx, "u", "  "))

	h, err := s.History(ctx, "u")
	require.NoError(t, err)
	require.Len(t, h, HistoryLimit)
	assert.Equal(t, "City 5", h[0])
	assert.Equal(t, "City 11", h[1])
	assert.NotContains(t, h[1:], "City 5")

	require.NoError(t, s.ClearHistory(ctx, "u"))
	h, err = s.History(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestDeleteAll(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "u", Preferences{DarkMode: true}))
	require.NoError(t, s.AddSearch(ctx, "u", "Accra"))
	require.NoError(t, s.DeleteAll(ctx, "u"))
	assert.False(t, mr.Exists("prefs:u"))
	assert.False(t, mr.Exists("history:u"))
}
