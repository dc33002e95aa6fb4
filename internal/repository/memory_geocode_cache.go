package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"salesrouter-data/internal/domain"
)

// MemoryGeocodeCacheRepo is the in-memory GeocodeCacheRepository used by
// unit tests.
type MemoryGeocodeCacheRepo struct {
	mu      sync.RWMutex
	entries map[string]*domain.GeocodeEntry
}

func NewMemoryGeocodeCacheRepo() *MemoryGeocodeCacheRepo {
	return &MemoryGeocodeCacheRepo{entries: map[string]*domain.GeocodeEntry{}}
}

var _ GeocodeCacheRepository = (*MemoryGeocodeCacheRepo)(nil)

func (r *MemoryGeocodeCacheRepo) Lookup(_ context.Context, endereco string) (*domain.GeocodeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[endereco]
	if !ok {
		return nil, fmt.Errorf("failed to lookup geocode entry: %w", ErrNotFound)
	}
	c := *entry
	return &c, nil
}

func (r *MemoryGeocodeCacheRepo) Save(_ context.Context, entry *domain.GeocodeEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *entry
	if stored.CriadoEm.IsZero() {
		stored.CriadoEm = time.Now()
	}
	r.entries[stored.Endereco] = &stored
	return nil
}
