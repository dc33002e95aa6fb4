package repository

import (
	"context"

	"salesrouter-data/internal/domain"
)

// GeocodeCacheRepository is the durable tier of the geocoding cache.
type GeocodeCacheRepository interface {
	// Lookup returns the cached entry for an address, or ErrNotFound.
	Lookup(ctx context.Context, endereco string) (*domain.GeocodeEntry, error)

	// Save upserts an entry; a later result for the same address wins.
	Save(ctx context.Context, entry *domain.GeocodeEntry) error
}
