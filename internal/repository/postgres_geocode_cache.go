package repository

import (
	"context"
	"database/sql"

	"salesrouter-data/internal/domain"
)

// PostgresGeocodeCacheRepository is the geocode_cache repository backed by
// PostgreSQL.
type PostgresGeocodeCacheRepository struct {
	db *sql.DB
}

func NewPostgresGeocodeCacheRepository(db *sql.DB) *PostgresGeocodeCacheRepository {
	return &PostgresGeocodeCacheRepository{db: db}
}

var _ GeocodeCacheRepository = (*PostgresGeocodeCacheRepository)(nil)

func (r *PostgresGeocodeCacheRepository) Lookup(ctx context.Context, endereco string) (*domain.GeocodeEntry, error) {
	query := `
		SELECT endereco, lat, lon, origem, criado_em
		FROM geocode_cache
		WHERE endereco = $1
	`

	var entry domain.GeocodeEntry
	err := r.db.QueryRowContext(ctx, query, endereco).Scan(
		&entry.Endereco,
		&entry.Lat,
		&entry.Lon,
		&entry.Origem,
		&entry.CriadoEm,
	)
	if err != nil {
		return nil, wrapDBError("failed to lookup geocode cache", err)
	}
	return &entry, nil
}

func (r *PostgresGeocodeCacheRepository) Save(ctx context.Context, entry *domain.GeocodeEntry) error {
	query := `
		INSERT INTO geocode_cache (endereco, lat, lon, origem)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (endereco)
		DO UPDATE SET lat = EXCLUDED.lat,
		              lon = EXCLUDED.lon,
		              origem = EXCLUDED.origem
	`

	if _, err := r.db.ExecContext(ctx, query, entry.Endereco, entry.Lat, entry.Lon, entry.Origem); err != nil {
		return wrapDBError("failed to save geocode cache", err)
	}
	return nil
}
