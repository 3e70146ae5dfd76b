package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "biblioteca", cfg.DB.DBName)
	assert.Equal(t, 10, cfg.DB.MaxConns)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 5, cfg.Auth.LoginMaxAttempts)
	assert.False(t, cfg.Auth.LegacyCILogin)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 10, cfg.Reports.TopBorrowersLimit)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("DB_PORT", "6543")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092,")
	v.Set("AUTH_LEGACY_CI_LOGIN", "true")
	v.Set("CACHE_DRIVER", "Redis")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Auth.LegacyCILogin)
	assert.Equal(t, "redis", cfg.Cache.Driver)
}

func TestFromViper_CacheDriverInvalido(t *testing.T) {
	v := viper.New()
	v.Set("CACHE_DRIVER", "memcached")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "postgres", Password: "p@ss/word", DBName: "biblioteca", SSLMode: "disable"}
	assert.Equal(t, "postgres://postgres:p%40ss%2Fword@db:5432/biblioteca?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
