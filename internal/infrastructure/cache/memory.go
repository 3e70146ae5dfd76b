package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
)

// Memory cache en proceso. Válido para una sola instancia del API.
type Memory struct{ c *gocache.Cache }

// NewMemory crea el cache con TTL por defecto y limpieza cada minuto.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *Memory) Get(_ context.Context, k string) ([]byte, bool, error) {
	v, ok := m.c.Get(k)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	return b, true, nil
}

func (m *Memory) Set(_ context.Context, k string, v []byte, ttl time.Duration) error {
	m.c.Set(k, v, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, k string) error {
	m.c.Delete(k)
	return nil
}

var _ ports.Cache = (*Memory)(nil)
