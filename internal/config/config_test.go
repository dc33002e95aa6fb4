package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "sales_routing_db", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 5, cfg.Database.ConnectRetries)
	assert.Equal(t, 2*time.Second, cfg.Database.ConnectDelay)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, "br", cfg.Geocoder.CountryCodes)
	assert.Empty(t, cfg.Geocoder.GoogleKey)
	assert.Equal(t, 7*time.Second, cfg.Geocoder.Timeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "routing_test")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GEOCODER_COUNTRY_CODES", "br,py")

	cfg := Load()

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "routing_test", cfg.Database.Database)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "br,py", cfg.Geocoder.CountryCodes)
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")

	cfg := Load()
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Database: "sales_routing_db",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=sales_routing_db sslmode=disable",
		cfg.DSN())
}
