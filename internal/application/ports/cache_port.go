package ports

import (
	"context"
	"time"
)

// Cache define el puerto de salida para un almacén clave/valor con expiración.
// Adaptadores: memoria (go-cache) y Redis. Get devuelve ok=false si la clave no existe o expiró.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TokenDenylist registra los jti de tokens revocados (logout) hasta su expiración natural.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RateLimiter limita intentos por clave en una ventana fija.
type RateLimiter interface {
	// Allow registra un intento y devuelve false si se superó el máximo de la ventana.
	Allow(ctx context.Context, key string) (bool, error)
	// Reset borra el contador (ej. tras un login correcto).
	Reset(ctx context.Context, key string) error
}

// DashboardCacheKey clave del resumen del dashboard. La invalidan las altas de usuarios, los
// cambios de libros, ediciones y copias, y los préstamos.
const DashboardCacheKey = "dashboard:summary"

// InvalidateDashboard borra el resumen cacheado. c puede ser nil.
func InvalidateDashboard(ctx context.Context, c Cache) error {
	if c == nil {
		return nil
	}
	return c.Delete(ctx, DashboardCacheKey)
}
