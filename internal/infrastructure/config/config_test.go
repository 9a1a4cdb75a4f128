package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"URLSYNC_APP_NAME",
	"URLSYNC_APP_ENV",
	"URLSYNC_APP_PORT",
	"URLSYNC_DATABASE_DRIVER",
	"URLSYNC_DATABASE_HOST",
	"URLSYNC_DATABASE_PORT",
	"URLSYNC_DATABASE_PASSWORD",
	"URLSYNC_DATABASE_DBNAME",
	"URLSYNC_DATABASE_SSLMODE",
	"URLSYNC_DATABASE_MAX_OPEN_CONNS",
	"URLSYNC_DATABASE_MAX_IDLE_CONNS",
	"URLSYNC_REDIS_HOST",
	"URLSYNC_REGENERATION_WORKERS",
	"URLSYNC_REGENERATION_BATCH_TIMEOUT",
	"URLSYNC_REGENERATION_CATEGORY_URL_SUFFIX",
	"URLSYNC_REGENERATION_EVENT_DEDUP_TTL",
	"URLSYNC_REGENERATION_EVENT_DEDUP_ENABLED",
	"URLSYNC_REGENERATION_LOCK_TTL",
	"URLSYNC_TELEMETRY_SAMPLING_RATIO",
	"URLSYNC_TELEMETRY_DB_LOG_FULL_SQL",
}

// clearEnv blanks every key; viper treats empty variables as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "urlsync", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "urlsync", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled())
		assert.Equal(t, 1, cfg.Regeneration.Workers)
		assert.Equal(t, time.Duration(0), cfg.Regeneration.BatchTimeout)
		assert.Equal(t, ".html", cfg.Regeneration.CategoryURLSuffix)
		assert.Equal(t, 24*time.Hour, cfg.Regeneration.EventDedupTTL)
		assert.True(t, cfg.Regeneration.EventDedupEnabled)
		assert.Equal(t, 10*time.Minute, cfg.Regeneration.LockTTL)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	})

	t.Run("loads values from environment variables with URLSYNC prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("URLSYNC_APP_NAME", "urlsync-test")
		t.Setenv("URLSYNC_DATABASE_DRIVER", "sqlite")
		t.Setenv("URLSYNC_DATABASE_DBNAME", ":memory:")
		t.Setenv("URLSYNC_REDIS_HOST", "cache.local")
		t.Setenv("URLSYNC_REGENERATION_WORKERS", "4")
		t.Setenv("URLSYNC_REGENERATION_BATCH_TIMEOUT", "90s")
		t.Setenv("URLSYNC_REGENERATION_CATEGORY_URL_SUFFIX", ".htm")
		t.Setenv("URLSYNC_REGENERATION_EVENT_DEDUP_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "urlsync-test", cfg.App.Name)
		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, ":memory:", cfg.Database.DSN())
		assert.True(t, cfg.Redis.Enabled())
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
		assert.Equal(t, 4, cfg.Regeneration.Workers)
		assert.Equal(t, 90*time.Second, cfg.Regeneration.BatchTimeout)
		assert.Equal(t, ".htm", cfg.Regeneration.CategoryURLSuffix)
		assert.False(t, cfg.Regeneration.EventDedupEnabled)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("URLSYNC_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects idle connections above open connections", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("URLSYNC_DATABASE_MAX_OPEN_CONNS", "5")
		t.Setenv("URLSYNC_DATABASE_MAX_IDLE_CONNS", "10")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects negative workers", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("URLSYNC_REGENERATION_WORKERS", "-2")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "regeneration.workers")
	})

	t.Run("rejects lock ttl shorter than the batch timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("URLSYNC_REGENERATION_BATCH_TIMEOUT", "5m")
		t.Setenv("URLSYNC_REGENERATION_LOCK_TTL", "1m")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "regeneration.lock_ttl")
	})

	t.Run("rejects suffix with a slash", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("URLSYNC_REGENERATION_CATEGORY_URL_SUFFIX", "/index.html")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "category_url_suffix")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("URLSYNC_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("URLSYNC_APP_ENV", "production")
		t.Setenv("URLSYNC_DATABASE_PASSWORD", "secure-password")
		t.Setenv("URLSYNC_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("URLSYNC_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("URLSYNC_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects sqlite in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("URLSYNC_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite is not supported in production")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("URLSYNC_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   DriverPostgres,
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
		cfg := DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("sqlite uses the database name as file", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: DriverSQLite, DBName: "urlsync.db"}
		assert.Equal(t, "urlsync.db", cfg.DSN())
	})
}
