package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct{ Rdb *redis.Client }

func New(addr string, password string, db int) *Client {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &Client{Rdb: rdb}
}

// NewFromClient wraps an existing connection, e.g. one pointed at miniredis.
func NewFromClient(rdb *redis.Client) *Client { return &Client{Rdb: rdb} }

// IsMiss reports whether err means the key does not exist.
func IsMiss(err error) bool { return errors.Is(err, redis.Nil) }

func (c *Client) Ping(ctx context.Context) error {
	return c.Rdb.Ping(ctx).Err()
}

func (c *Client) Close() error { return c.Rdb.Close() }

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.Rdb.Get(ctx, key).Result()
}

func (c *Client) Set(ctx context.Context, key string, val string, ttl time.Duration) error {
	return c.Rdb.Set(ctx, key, val, ttl).Err()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.Rdb.Del(ctx, keys...).Err()
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.Rdb.Exists(ctx, key).Result()
	return n == 1, err
}

func (c *Client) SetNX(ctx context.Context, key string, val string, ttl time.Duration) (bool, error) {
	return c.Rdb.SetNX(ctx, key, val, ttl).Result()
}

// GetJSON decodes the value at key into dst. ok is false on a miss.
func (c *Client) GetJSON(ctx context.Context, key string, dst any) (ok bool, err error) {
	b, err := c.Rdb.Get(ctx, key).Bytes()
	if IsMiss(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v encoded as JSON. A zero ttl keeps the key forever.
func (c *Client) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Rdb.Set(ctx, key, b, ttl).Err()
}

// PushRecent moves val to the head of the list at key, removing earlier
// copies, and trims the list to limit entries.
func (c *Client) PushRecent(ctx context.Context, key, val string, limit int64) error {
	_, err := c.Rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, key, 0, val)
		p.LPush(ctx, key, val)
		p.LTrim(ctx, key, 0, limit-1)
		return nil
	})
	return err
}

func (c *Client) Range(ctx context.Context, key string, limit int64) ([]string, error) {
	return c.Rdb.LRange(ctx, key, 0, limit-1).Result()
}
