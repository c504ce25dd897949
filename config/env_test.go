package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadFrom("does-not-exist.json", "does-not-exist.env")
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "")

	cfg, err := LoadFrom("does-not-exist.json", "does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "mongo", cfg.DBDriver)
	assert.Equal(t, "8000", cfg.AppPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.True(t, cfg.SeedEnabled)
	assert.Equal(t, "http://localhost:8000/storage", cfg.StorageURL)
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"app_port":"9000","db_driver":"sqlite","rate_limit":50}`), 0o600))
	require.NoError(t, os.WriteFile(envPath, []byte("DB_DRIVER=memory\nJWT_SECRET=from-dotenv\nCORS_ORIGINS=https://a.test, https://b.test\n"), 0o600))

	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("RATE_LIMIT", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("JWT_TTL", "2h")

	cfg, err := LoadFrom(jsonPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, 50, cfg.RateLimit)
	assert.Equal(t, "from-dotenv", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSOrigins)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "cassandra")

	_, err := LoadFrom("does-not-exist.json", "does-not-exist.env")
	assert.Error(t, err)
}

func TestLoadS3RequiresBucket(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("STORAGE_DISK", "s3")
	t.Setenv("S3_BUCKET", "")

	_, err := LoadFrom("does-not-exist.json", "does-not-exist.env")
	assert.Error(t, err)
}
