package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "DB_DRIVER", "DB_NAME", "SESSION_TTL", "QUOTE_CACHE_TTL", "CORS_ORIGINS", "RATE_LIMIT_PER_MINUTE"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8000", cfg.AppPort)
	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, "finance_portfolio", cfg.DBName)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.QuoteCacheTTL)
	assert.Equal(t, 20, cfg.RateLimitPerMinute)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_NAME", "/tmp/finance.db")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("IS_PROD", "true")

	cfg := LoadConfig()

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "/tmp/finance.db", cfg.DSN())
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.IsProd)
}

func TestValidate(t *testing.T) {
	valid := Config{AppPort: "8000", DBDriver: DriverSQLite, DBName: "x.db", JWTSecret: "secret", SessionTTL: time.Hour, RateLimitPerMinute: 5}
	require.NoError(t, valid.Validate())

	broken := Config{AppPort: "http", DBDriver: "oracle", SessionTTL: 0}
	err := broken.Validate()
	require.Error(t, err)
	for _, want := range []string{"APP_PORT", "DB_DRIVER", "DB_NAME", "JWT_SECRET", "SESSION_TTL", "RATE_LIMIT_PER_MINUTE"} {
		assert.Contains(t, err.Error(), want)
	}

	prod := valid
	prod.IsProd = true
	assert.ErrorContains(t, prod.Validate(), "at least 32 characters")
}

func TestDSN(t *testing.T) {
	mysql := Config{DBDriver: DriverMySQL, DBUser: "u", DBPassword: "p", DBHost: "db", DBName: "fin"}
	assert.Equal(t, "u:p@tcp(db:3306)/fin?parseTime=true&loc=UTC", mysql.DSN())

	pg := Config{DBDriver: DriverPostgres, DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "6543", DBName: "fin"}
	assert.Equal(t, "host=db user=u password=p dbname=fin port=6543 sslmode=disable TimeZone=UTC", pg.DSN())
}
