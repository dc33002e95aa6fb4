package domain

// SetorPDV assigns one point of sale to one setor within a run
// (cluster_setor_pdv table). The composite key (run_id, pdv_id) guarantees
// a PDV has exactly one assignment per run. Coordinates and locality are
// denormalized at assignment time; pdv_id is an opaque external reference
// with no declared FK.
type SetorPDV struct {
	RunID     int64   `db:"run_id"`     // BIGINT, NOT NULL, PK part, FK to cluster_run
	PDVID     int64   `db:"pdv_id"`     // BIGINT, NOT NULL, PK part
	ClusterID int64   `db:"cluster_id"` // BIGINT, NOT NULL, FK to cluster_setor
	Lat       float64 `db:"lat"`        // NOT NULL
	Lon       float64 `db:"lon"`        // NOT NULL
	Cidade    string  `db:"cidade"`     // NOT NULL
	UF        string  `db:"uf"`         // NOT NULL
}
