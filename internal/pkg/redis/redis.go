// Package redis wraps the go-redis client behind the small Cache interface
// the moderation core depends on.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Nil is re-exported so callers can test for missing keys without importing
// go-redis directly.
const Nil = redis.Nil

// NewScript wraps a Lua script for ScriptRun.
func NewScript(script string) *redis.Script {
	return redis.NewScript(script)
}

// Redis implements Cache over a go-redis client.
type Redis struct {
	client *redis.Client
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) SetBytes(ctx context.Context, key string, value []byte, exp time.Duration) error {
	return r.client.Set(ctx, key, value, exp).Err()
}

func (r *Redis) GetBytes(ctx context.Context, key string) ([]byte, error) {
	return r.client.Get(ctx, key).Bytes()
}

func (r *Redis) ScriptRun(ctx context.Context, script *redis.Script, keys []string, args ...any) (any, error) {
	conn := r.client.Conn()
	defer conn.Close()
	return script.Run(ctx, conn, keys, args...).Result()
}

func (r *Redis) Del(ctx context.Context, keys ...string) (int64, error) {
	return r.client.Del(ctx, keys...).Result()
}

func (r *Redis) Expire(ctx context.Context, key string, seconds int) (bool, error) {
	return r.client.Expire(ctx, key, time.Duration(seconds)*time.Second).Result()
}
