package domain

import "time"

// Geocoding result origins, recorded so cache hits can be traced back to
// the provider that produced them.
const (
	GeocodeOriginCache     = "cache"
	GeocodeOriginNominatim = "nominatim"
	GeocodeOriginGoogle    = "google"
)

// GeocodeEntry is a cached forward-geocoding result (geocode_cache table),
// keyed by the normalized address string.
type GeocodeEntry struct {
	Endereco string    `db:"endereco"` // PRIMARY KEY
	Lat      float64   `db:"lat"`      // NOT NULL
	Lon      float64   `db:"lon"`      // NOT NULL
	Origem   string    `db:"origem"`   // NOT NULL
	CriadoEm time.Time `db:"criado_em"`
}
