// Package cache implementa ports.Cache en memoria (go-cache) y en Redis, más la
// denylist de tokens construida sobre cualquiera de los dos.
package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/pkg/config"
)

// NewRedisClient construye el cliente Redis a partir de la configuración.
func NewRedisClient(cfg config.CacheConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// New devuelve el cache del driver configurado. Con driver redis se requiere client.
func New(cfg config.CacheConfig, client *redis.Client) ports.Cache {
	if cfg.Driver == "redis" && client != nil {
		return NewRedis(client, cfg.Prefix)
	}
	return NewMemory(cfg.TTL)
}
