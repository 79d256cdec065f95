package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "TOKEN_TTL_MINUTES", "RECOMMENDATIONS_PER_USER", "KAFKA_BROKERS", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "local", cfg.Server.Env)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 60, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, 3, cfg.Business.RecommendationsPerUser)
	assert.Equal(t, "USD", cfg.Business.DefaultCurrency)
	assert.Equal(t, 24*time.Hour, cfg.Business.IdempotencyTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFromEnvFile(t *testing.T) {
	// godotenv never overrides variables that are already set, even empty ones.
	for _, key := range []string{"APP_ENV", "TOKEN_TTL_MINUTES", "KAFKA_BROKERS"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("APP_ENV=test\nTOKEN_TTL_MINUTES=15\nKAFKA_BROKERS=a:9092, b:9092\n"), 0o600))

	cfg := Load(envPath)

	assert.Equal(t, "test", cfg.Server.Env)
	assert.Equal(t, 15, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestEnvironmentOverridesEnvFile(t *testing.T) {
	t.Setenv("APP_ENV", "ci")

	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("APP_ENV=test\n"), 0o600))

	cfg := Load(envPath)

	assert.Equal(t, "ci", cfg.Server.Env)
}

func TestZeroRecommendationsPassThrough(t *testing.T) {
	t.Setenv("RECOMMENDATIONS_PER_USER", "0")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	// the service treats 0 as "use the default"
	assert.Equal(t, 0, cfg.Business.RecommendationsPerUser)
}
