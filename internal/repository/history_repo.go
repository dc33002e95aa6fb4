package repository

import (
	"context"

	"salesrouter-data/internal/domain"
)

// HistoryRepository appends to the pipeline step audit log
// (historico_pipeline_jobs). Rows are never updated or deleted.
type HistoryRepository interface {
	// Append records one step transition. CriadoEm defaults to now()
	// when zero.
	Append(ctx context.Context, event *domain.PipelineEvent) error

	// ListByJob returns a job's events in insertion order.
	ListByJob(ctx context.Context, jobID string) ([]*domain.PipelineEvent, error)
}
