package cache

import (
	"context"
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
)

const denylistPrefix = "jwt:revoked:"

// Denylist guarda los jti revocados en el cache hasta que el token expiraría.
type Denylist struct {
	cache ports.Cache
	now   func() time.Time
}

// NewDenylist construye la denylist sobre un cache.
func NewDenylist(c ports.Cache) *Denylist {
	return &Denylist{cache: c, now: time.Now}
}

// Revoke marca jti como revocado. Un token ya expirado no necesita entrada.
func (d *Denylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.cache.Set(ctx, denylistPrefix+jti, []byte{1}, ttl)
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok, err := d.cache.Get(ctx, denylistPrefix+jti)
	return ok, err
}

var _ ports.TokenDenylist = (*Denylist)(nil)
