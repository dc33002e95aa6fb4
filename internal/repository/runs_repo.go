package repository

import (
	"context"
	"time"

	"salesrouter-data/internal/domain"
)

// RunFilters narrows ListRuns. Zero values mean "no filter".
type RunFilters struct {
	Status        string
	UF            string
	Cidade        string
	StartedAfter  *time.Time
	StartedBefore *time.Time
}

// RunFinish carries the single allowed mutation of a run record.
type RunFinish struct {
	KFinal int
	Status string // done/error
	Error  *string
}

// RunsRepository persists cluster_run rows.
type RunsRepository interface {
	// CreateRun inserts a run with status 'running' and returns its id.
	// StartedAt defaults to now() when zero; FinishedAt must be nil.
	CreateRun(ctx context.Context, run *domain.Run) (int64, error)

	// GetRun fetches one run. Returns ErrNotFound when missing.
	GetRun(ctx context.Context, id int64) (*domain.Run, error)

	// ListRuns returns runs matching the filters, most recent first,
	// with the total count before paging.
	ListRuns(ctx context.Context, filters *RunFilters, page, size int) ([]*domain.Run, int, error)

	// FinishRun sets finished_at, k_final, status and error. It is the
	// only mutation a run record ever receives.
	FinishRun(ctx context.Context, id int64, fin RunFinish) error

	// DeleteRun removes a run and its dependents in FK-safe order
	// (assignments, setores, run) inside one transaction.
	DeleteRun(ctx context.Context, id int64) error
}
