package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
)

// Redis cache compartido entre instancias. Todas las claves llevan prefix.
type Redis struct {
	c      *redis.Client
	prefix string
}

// NewRedis envuelve un cliente existente.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{c: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, k string) ([]byte, bool, error) {
	b, err := r.c.Get(ctx, r.prefix+k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, k string, v []byte, ttl time.Duration) error {
	return r.c.Set(ctx, r.prefix+k, v, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, k string) error {
	return r.c.Del(ctx, r.prefix+k).Err()
}

var _ ports.Cache = (*Redis)(nil)
