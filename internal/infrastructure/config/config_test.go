package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearActEnv unsets every ACT_ variable for the duration of the test
func clearActEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "ACT_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearActEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "actdesk", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "data/actdesk.db", cfg.Database.Path)
		assert.Equal(t, 10, cfg.Database.MaxOpenConns)
		assert.Equal(t, "memory", cfg.Cache.Backend)
		assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, "local", cfg.Storage.Backend)
		assert.Equal(t, "data/templates", cfg.Documents.TemplatesDir)
		assert.Equal(t, "data/defaults.json", cfg.Documents.DefaultsFile)
		assert.Equal(t, "pdftoppm", cfg.Rendering.PdftoppmPath)
		assert.Equal(t, 96, cfg.Rendering.PreviewDPI)
		assert.True(t, cfg.Rendering.Compress)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.False(t, cfg.Telemetry.Enabled)
	})

	t.Run("loads values from environment variables with ACT prefix", func(t *testing.T) {
		clearActEnv(t)
		t.Setenv("ACT_APP_PORT", "9000")
		t.Setenv("ACT_DATABASE_DRIVER", "postgres")
		t.Setenv("ACT_DATABASE_HOST", "db.local")
		t.Setenv("ACT_DATABASE_PORT", "5433")
		t.Setenv("ACT_CACHE_BACKEND", "redis")
		t.Setenv("ACT_DOCUMENTS_TEMPLATES_DIR", "/srv/templates")
		t.Setenv("ACT_RENDERING_PREVIEW_DPI", "150")
		t.Setenv("ACT_RENDERING_DISABLE_COMPRESSION", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "db.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "redis", cfg.Cache.Backend)
		assert.Equal(t, "/srv/templates", cfg.Documents.TemplatesDir)
		assert.Equal(t, 150, cfg.Rendering.PreviewDPI)
		assert.False(t, cfg.Rendering.Compress)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearActEnv(t)
		t.Setenv("ACT_DATABASE_MAX_OPEN_CONNS", "3")
		t.Setenv("ACT_DATABASE_MAX_IDLE_CONNS", "5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown backends", func(t *testing.T) {
		tests := map[string]string{
			"ACT_DATABASE_DRIVER": "database.driver",
			"ACT_CACHE_BACKEND":   "cache.backend",
			"ACT_STORAGE_BACKEND": "storage.backend",
		}
		for env, key := range tests {
			clearActEnv(t)
			t.Setenv(env, "bogus")

			_, err := Load()
			require.Error(t, err, env)
			assert.Contains(t, err.Error(), key)
		}
	})

	t.Run("s3 storage requires a bucket", func(t *testing.T) {
		clearActEnv(t)
		t.Setenv("ACT_STORAGE_BACKEND", "s3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})

	t.Run("preview dpi must be sane", func(t *testing.T) {
		clearActEnv(t)
		t.Setenv("ACT_RENDERING_PREVIEW_DPI", "5000")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "preview_dpi")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("rejects wildcard CORS in production", func(t *testing.T) {
		clearActEnv(t)
		t.Setenv("ACT_APP_ENV", "production")
		t.Setenv("ACT_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins")
	})

	t.Run("requires SSL for postgres in production", func(t *testing.T) {
		clearActEnv(t)
		t.Setenv("ACT_APP_ENV", "production")
		t.Setenv("ACT_DATABASE_DRIVER", "postgres")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("sqlite production config passes", func(t *testing.T) {
		clearActEnv(t)
		t.Setenv("ACT_APP_ENV", "production")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestDatabaseConfig_MigrateURL(t *testing.T) {
	sqlite := DatabaseConfig{Driver: "sqlite", Path: "data/actdesk.db"}
	assert.Equal(t, "sqlite3://data/actdesk.db", sqlite.MigrateURL())

	pg := DatabaseConfig{Driver: "postgres", Host: "h", Port: 1, User: "u", DBName: "d", SSLMode: "require"}
	assert.True(t, strings.HasPrefix(pg.MigrateURL(), "postgres://u"))
}
