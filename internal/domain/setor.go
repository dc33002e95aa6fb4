package domain

import "encoding/json"

// Setor is a macro-cluster (sales territory) produced by one run
// (cluster_setor table). Rows are immutable after insert; removal happens
// only through the run-scoped ordered delete.
type Setor struct {
	ID           int64           `db:"id"`            // BIGSERIAL, PRIMARY KEY
	RunID        int64           `db:"run_id"`        // BIGINT, NOT NULL, FK to cluster_run
	ClusterLabel int             `db:"cluster_label"` // NOT NULL, unique within the run
	Nome         *string         `db:"nome"`          // nullable - display name
	CentroLat    *float64        `db:"centro_lat"`    // nullable - centroid latitude
	CentroLon    *float64        `db:"centro_lon"`    // nullable - centroid longitude
	NPDVs        int             `db:"n_pdvs"`        // NOT NULL - member point count
	Metrics      json.RawMessage `db:"metrics"`       // JSONB, nullable
}

// SetorMetrics is the shape the clustering pipeline writes into
// cluster_setor.metrics. Consumers must tolerate extra keys.
type SetorMetrics struct {
	RaioMedKm float64 `json:"raio_med_km"`
	RaioP95Km float64 `json:"raio_p95_km"`
}
