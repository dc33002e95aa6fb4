package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"salesrouter-data/internal/config"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// NewPostgresDB opens a PostgreSQL connection pool and verifies it with a
// single ping.
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Connect opens the pool with bounded retries and exponential backoff.
// Intended for startup paths where the database container may still be
// coming up.
func Connect(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = 1
	}
	delay := cfg.ConnectDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	backoff := cfg.ConnectBackoff
	if backoff < 1 {
		backoff = 1.5
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		db, err := NewPostgresDB(cfg)
		if err == nil {
			logger.Debug("postgres connection established", zap.Int("attempt", attempt))
			return db, nil
		}
		lastErr = err

		if attempt == retries {
			break
		}
		logger.Warn("postgres connection failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("retries", retries),
			zap.Duration("wait", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * backoff)
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", retries, lastErr)
}

// HealthCheck runs a trivial query to confirm the database answers.
func HealthCheck(ctx context.Context, db *sql.DB) error {
	var now time.Time
	if err := db.QueryRowContext(ctx, "SELECT now()").Scan(&now); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close closes the pool, tolerating a nil handle.
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
