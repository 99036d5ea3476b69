package redisx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON_Errors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewFromClient(rdb)
	ctx := context.Background()

	mock.ExpectGet("down").SetErr(errors.New("connection refused"))
	var dst map[string]any
	ok, err := c.GetJSON(ctx, "down", &dst)
	assert.False(t, ok)
	assert.EqualError(t, err, "connection refused")

	mock.ExpectGet("garbled").SetVal("{not json")
	ok, err = c.GetJSON(ctx, "garbled", &dst)
	assert.False(t, ok)
	assert.Error(t, err)

	mock.ExpectGet("gone").RedisNil()
	ok, err = c.GetJSON(ctx, "gone", &dst)
	assert.False(t, ok)
	assert.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetNX_Held(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewFromClient(rdb)

	mock.ExpectSetNX("search:lock:accra", "1", 45*time.Second).SetVal(false)
	ok, err := c.SetNX(context.Background(), "search:lock:accra", "1", 45*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
