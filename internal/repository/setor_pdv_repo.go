package repository

import (
	"context"

	"salesrouter-data/internal/domain"
)

// SetorPDVRepository persists cluster_setor_pdv rows.
type SetorPDVRepository interface {
	// SaveAssignments bulk-loads the PDV -> setor mapping of a run. An
	// empty batch is a no-op. A PDV already assigned in the same run
	// fails the whole batch with ErrDuplicate.
	SaveAssignments(ctx context.Context, assignments []*domain.SetorPDV) error

	// ListAssignmentsByCluster is the "list PDVs for a cluster" query
	// backed by idx_cluster_setor_pdv_cluster.
	ListAssignmentsByCluster(ctx context.Context, clusterID int64) ([]*domain.SetorPDV, error)

	// ListAssignmentsByRun returns every assignment of a run ordered by
	// cluster then PDV id.
	ListAssignmentsByRun(ctx context.Context, runID int64) ([]*domain.SetorPDV, error)

	// CountAssignmentsBySetor returns assignment counts per setor id for
	// a run.
	CountAssignmentsBySetor(ctx context.Context, runID int64) (map[int64]int, error)
}
