package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Biblioteca-api/pkg/config"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_Expira(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	require.NoError(t, m.Set(ctx, "k", []byte("v"), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	_, ok, _ := m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestDenylist(t *testing.T) {
	ctx := context.Background()
	d := NewDenylist(NewMemory(time.Minute))

	require.NoError(t, d.Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	revoked, err := d.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, d.Revoke(ctx, "viejo", time.Now().Add(-time.Minute)))
	revoked, err = d.IsRevoked(ctx, "viejo")
	require.NoError(t, err)
	assert.False(t, revoked, "un token ya expirado no se guarda")
}

func TestNew_SinClienteRedisUsaMemoria(t *testing.T) {
	c := New(config.CacheConfig{Driver: "redis", TTL: time.Second}, nil)
	_, isMem := c.(*Memory)
	assert.True(t, isMem)
}
