package domain

import (
	"encoding/json"
	"time"
)

// Pipeline step status values (historico_pipeline_jobs.status).
const (
	StepRunning = "running"
	StepDone    = "done"
	StepError   = "error"
)

// PipelineEvent is one step transition of an asynchronous pipeline job
// (historico_pipeline_jobs table). Append-only.
type PipelineEvent struct {
	ID       int64           `db:"id"`        // BIGSERIAL, PRIMARY KEY
	JobID    string          `db:"job_id"`    // NOT NULL - UUID of the pipeline job
	Etapa    string          `db:"etapa"`     // NOT NULL - step name, e.g. "clusterization"
	Status   string          `db:"status"`    // NOT NULL - running/done/error
	Mensagem *string         `db:"mensagem"`  // nullable - human-readable detail
	Metadata json.RawMessage `db:"metadata"`  // JSONB, nullable
	CriadoEm time.Time       `db:"criado_em"` // NOT NULL
}
