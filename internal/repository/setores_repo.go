package repository

import (
	"context"

	"salesrouter-data/internal/domain"
)

// SetoresRepository persists cluster_setor rows.
type SetoresRepository interface {
	// SaveSetores bulk-inserts the setores of a finalized run inside one
	// transaction and returns the cluster_label -> setor id mapping the
	// assignment writer needs.
	SaveSetores(ctx context.Context, runID int64, setores []*domain.Setor) (map[int]int64, error)

	// GetSetor fetches one setor. Returns ErrNotFound when missing.
	GetSetor(ctx context.Context, id int64) (*domain.Setor, error)

	// ListSetoresByRun returns the run's setores ordered by cluster_label.
	ListSetoresByRun(ctx context.Context, runID int64) ([]*domain.Setor, error)
}
