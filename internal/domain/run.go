package domain

import (
	"encoding/json"
	"time"
)

// Run status values. A run is created as StatusRunning and mutated exactly
// once, by FinishRun, into StatusDone or StatusError.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Run is the audit record of one clustering execution (cluster_run table).
type Run struct {
	ID         int64           `db:"id"`          // BIGSERIAL, PRIMARY KEY
	StartedAt  time.Time       `db:"started_at"`  // TIMESTAMPTZ, NOT NULL
	FinishedAt *time.Time      `db:"finished_at"` // TIMESTAMPTZ, nullable while running
	UF         *string         `db:"uf"`          // nullable - state scope, nil means all states
	Cidade     *string         `db:"cidade"`      // nullable - city scope, nil means all cities
	KFinal     *int            `db:"k_final"`     // nullable - final cluster count, set on finish
	Algo       *string         `db:"algo"`        // nullable - algorithm name
	Params     json.RawMessage `db:"params"`      // JSONB, nullable - opaque algorithm parameters
	Status     string          `db:"status"`      // NOT NULL, DEFAULT 'running'
	Error      *string         `db:"error"`       // nullable - failure detail when status is 'error'
}

// Finished reports whether the run has left the running state.
func (r *Run) Finished() bool {
	return r.FinishedAt != nil
}
