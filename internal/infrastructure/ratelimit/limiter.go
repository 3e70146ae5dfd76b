// Package ratelimit limita intentos por clave con ventana fija (INCR + EXPIRE en Redis,
// contador con expiración en memoria).
package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
)

// New elige el limitador: Redis si hay cliente, memoria en otro caso.
func New(client *redis.Client, prefix string, max int, window time.Duration) ports.RateLimiter {
	if client != nil {
		return NewRedisLimiter(client, prefix, max, window)
	}
	return NewMemoryLimiter(max, window)
}

// RedisLimiter fixed window sencillo. La ventana empieza en el primer intento.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	max    int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix + "rl:", max: int64(max), window: window}
}

func (l *RedisLimiter) key(k string) string {
	return l.prefix + strings.ReplaceAll(k, " ", "_")
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	rk := l.key(key)
	hits, err := l.client.Incr(ctx, rk).Result()
	if err != nil {
		return false, err
	}
	// expiración solo en el primer intento de la ventana
	if hits == 1 {
		if err := l.client.Expire(ctx, rk, l.window).Err(); err != nil {
			return false, err
		}
	}
	return hits <= l.max, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}

// MemoryLimiter equivalente en proceso para despliegues de una sola instancia.
type MemoryLimiter struct {
	mu     sync.Mutex
	c      *gocache.Cache
	max    int
	window time.Duration
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{c: gocache.New(window, time.Minute), max: max, window: window}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.c.Add(key, 1, l.window); err == nil {
		return true, nil
	}
	hits, err := l.c.IncrementInt(key, 1)
	if err != nil {
		// la entrada expiró entre Add e IncrementInt
		l.c.Set(key, 1, l.window)
		return true, nil
	}
	return hits <= l.max, nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.c.Delete(key)
	return nil
}

var (
	_ ports.RateLimiter = (*RedisLimiter)(nil)
	_ ports.RateLimiter = (*MemoryLimiter)(nil)
)
