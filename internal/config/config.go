package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int

	// Connection retry policy used at startup; transient failures are
	// retried with exponential backoff.
	ConnectRetries int
	ConnectDelay   time.Duration
	ConnectBackoff float64
}

// DSN renders the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// GeocoderConfig holds the forward-geocoding providers used to label
// cluster centers. Google is an optional fallback and only consulted when
// a key is configured.
type GeocoderConfig struct {
	NominatimURL string
	GoogleURL    string
	GoogleKey    string
	UserAgent    string
	Timeout      time.Duration
	CountryCodes string
}

// Config salesrouter-data configuration, loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Geocoder GeocoderConfig
}

func Load() *Config {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "sales_routing_db")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)
	cfg.Database.ConnectRetries = parseInt(getEnv("DB_CONNECT_RETRIES", "5"), 5)
	cfg.Database.ConnectDelay = time.Duration(parseInt(getEnv("DB_CONNECT_DELAY_SECONDS", "2"), 2)) * time.Second
	cfg.Database.ConnectBackoff = 1.5

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Geocoder.NominatimURL = getEnv("GEOCODER_NOMINATIM_URL", "https://nominatim.openstreetmap.org/search")
	cfg.Geocoder.GoogleURL = getEnv("GEOCODER_GOOGLE_URL", "https://maps.googleapis.com/maps/api/geocode/json")
	cfg.Geocoder.GoogleKey = getEnv("GEOCODER_GOOGLE_KEY", "")
	cfg.Geocoder.UserAgent = getEnv("GEOCODER_USER_AGENT", "SalesRouter-Geocoder/1.0")
	cfg.Geocoder.Timeout = time.Duration(parseInt(getEnv("GEOCODER_TIMEOUT_SECONDS", "7"), 7)) * time.Second
	cfg.Geocoder.CountryCodes = getEnv("GEOCODER_COUNTRY_CODES", "br")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
