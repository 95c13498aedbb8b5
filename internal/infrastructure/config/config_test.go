package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var posEnvKeys = []string{
	"POS_APP_NAME",
	"POS_APP_ENV",
	"POS_APP_PORT",
	"POS_DATABASE_HOST",
	"POS_DATABASE_PORT",
	"POS_DATABASE_USER",
	"POS_DATABASE_PASSWORD",
	"POS_DATABASE_DBNAME",
	"POS_DATABASE_SSLMODE",
	"POS_DATABASE_MAX_OPEN_CONNS",
	"POS_DATABASE_MAX_IDLE_CONNS",
	"POS_INVENTORY_DEFAULT_PAGE_SIZE",
	"POS_INVENTORY_STOCK_CACHE_TTL",
	"POS_INVENTORY_IDEMPOTENCY_TTL",
	"POS_INVENTORY_RECONCILE_ENABLED",
	"POS_INVENTORY_RECONCILE_SCHEDULE",
	"POS_HTTP_CORS_ALLOW_ORIGINS",
	"POS_TELEMETRY_SAMPLING_RATIO",
	"POS_JWT_SECRET",
	"POS_JWT_ISSUER",
	"POS_SWAGGER_ENABLED",
	"POS_PROFILING_ENABLED",
	"POS_PROFILING_SERVER_ADDRESS",
}

const testJWTSecret = "0123456789abcdef0123456789abcdef"

// clearEnv blanks every POS_ variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range posEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "pos-inventory", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "pos", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 20, cfg.Inventory.DefaultPageSize)
		assert.Equal(t, 5*time.Minute, cfg.Inventory.StockCacheTTL)
		assert.Equal(t, 24*time.Hour, cfg.Inventory.IdempotencyTTL)
		assert.Equal(t, time.Minute, cfg.Inventory.LowStockCheckInterval)
		assert.False(t, cfg.Inventory.ReconcileEnabled)
		assert.Equal(t, "0 3 * * *", cfg.Inventory.ReconcileSchedule)
		assert.Contains(t, cfg.HTTP.CORSAllowHeaders, "Idempotency-Key")
		assert.Contains(t, cfg.HTTP.CORSAllowHeaders, "Authorization")
		assert.False(t, cfg.JWT.Enabled())
		assert.Equal(t, "pos-inventory", cfg.JWT.Issuer)
		assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiration)
		assert.False(t, cfg.Swagger.Enabled)
		assert.False(t, cfg.Profiling.Enabled)
		assert.Equal(t, "http://localhost:4040", cfg.Profiling.ServerAddress)
	})

	t.Run("loads values from environment variables with POS prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_APP_NAME", "test-app")
		t.Setenv("POS_APP_PORT", "9000")
		t.Setenv("POS_DATABASE_HOST", "testdb.local")
		t.Setenv("POS_DATABASE_PORT", "5433")
		t.Setenv("POS_DATABASE_PASSWORD", "testpass")
		t.Setenv("POS_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("POS_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("POS_INVENTORY_STOCK_CACHE_TTL", "30s")
		t.Setenv("POS_INVENTORY_DEFAULT_PAGE_SIZE", "50")
		t.Setenv("POS_INVENTORY_RECONCILE_ENABLED", "true")
		t.Setenv("POS_INVENTORY_RECONCILE_SCHEDULE", "30 1 * * *")
		t.Setenv("POS_JWT_SECRET", testJWTSecret)
		t.Setenv("POS_SWAGGER_ENABLED", "true")
		t.Setenv("POS_PROFILING_ENABLED", "true")
		t.Setenv("POS_PROFILING_SERVER_ADDRESS", "http://pyroscope:4040")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 30*time.Second, cfg.Inventory.StockCacheTTL)
		assert.Equal(t, 50, cfg.Inventory.DefaultPageSize)
		assert.True(t, cfg.Inventory.ReconcileEnabled)
		assert.Equal(t, "30 1 * * *", cfg.Inventory.ReconcileSchedule)
		assert.True(t, cfg.JWT.Enabled())
		assert.True(t, cfg.Swagger.Enabled)
		assert.True(t, cfg.Profiling.Enabled)
		assert.Equal(t, "http://pyroscope:4040", cfg.Profiling.ServerAddress)
	})

	t.Run("rejects short jwt secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_JWT_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("POS_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects page size above the listing maximum", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_INVENTORY_DEFAULT_PAGE_SIZE", "500")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "default_page_size")
	})

	t.Run("rejects sampling ratio outside range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_APP_ENV", "production")
		t.Setenv("POS_DATABASE_PASSWORD", "secure-password")
		t.Setenv("POS_DATABASE_SSLMODE", "require")
		t.Setenv("POS_JWT_SECRET", testJWTSecret)
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("POS_JWT_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("rejects swagger in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("POS_SWAGGER_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger must be disabled in production")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("POS_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("POS_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects wildcard CORS in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("POS_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

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
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", cfg.Addr())
}
