package repository

import (
	"context"
	"database/sql"

	"salesrouter-data/internal/domain"

	"github.com/lib/pq"
)

// PostgresSetorPDVRepository is the cluster_setor_pdv repository backed by
// PostgreSQL. Writes go through COPY, since a run can assign hundreds of
// thousands of PDVs at once.
type PostgresSetorPDVRepository struct {
	db *sql.DB
}

func NewPostgresSetorPDVRepository(db *sql.DB) *PostgresSetorPDVRepository {
	return &PostgresSetorPDVRepository{db: db}
}

var _ SetorPDVRepository = (*PostgresSetorPDVRepository)(nil)

func (r *PostgresSetorPDVRepository) SaveAssignments(ctx context.Context, assignments []*domain.SetorPDV) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("failed to begin save assignments", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("cluster_setor_pdv",
		"run_id", "pdv_id", "cluster_id", "lat", "lon", "cidade", "uf"))
	if err != nil {
		return wrapDBError("failed to prepare copy", err)
	}

	for _, a := range assignments {
		if _, err := stmt.ExecContext(ctx, a.RunID, a.PDVID, a.ClusterID, a.Lat, a.Lon, a.Cidade, a.UF); err != nil {
			stmt.Close()
			return wrapDBError("failed to buffer assignment", err)
		}
	}
	// Flush; constraint violations surface here, not per row.
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return wrapDBError("failed to copy assignments", err)
	}
	if err := stmt.Close(); err != nil {
		return wrapDBError("failed to close copy", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapDBError("failed to commit save assignments", err)
	}
	return nil
}

const setorPDVColumns = `run_id, pdv_id, cluster_id, lat, lon, cidade, uf`

func scanSetorPDV(row interface{ Scan(...any) error }) (*domain.SetorPDV, error) {
	var a domain.SetorPDV
	err := row.Scan(&a.RunID, &a.PDVID, &a.ClusterID, &a.Lat, &a.Lon, &a.Cidade, &a.UF)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresSetorPDVRepository) ListAssignmentsByCluster(ctx context.Context, clusterID int64) ([]*domain.SetorPDV, error) {
	query := `SELECT ` + setorPDVColumns + `
		FROM cluster_setor_pdv
		WHERE cluster_id = $1
		ORDER BY pdv_id`

	return r.queryAssignments(ctx, query, clusterID)
}

func (r *PostgresSetorPDVRepository) ListAssignmentsByRun(ctx context.Context, runID int64) ([]*domain.SetorPDV, error) {
	query := `SELECT ` + setorPDVColumns + `
		FROM cluster_setor_pdv
		WHERE run_id = $1
		ORDER BY cluster_id, pdv_id`

	return r.queryAssignments(ctx, query, runID)
}

func (r *PostgresSetorPDVRepository) queryAssignments(ctx context.Context, query string, arg any) ([]*domain.SetorPDV, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, wrapDBError("failed to list assignments", err)
	}
	defer rows.Close()

	assignments := []*domain.SetorPDV{}
	for rows.Next() {
		a, err := scanSetorPDV(rows)
		if err != nil {
			return nil, wrapDBError("failed to scan assignment", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("failed to list assignments", err)
	}
	return assignments, nil
}

func (r *PostgresSetorPDVRepository) CountAssignmentsBySetor(ctx context.Context, runID int64) (map[int64]int, error) {
	query := `
		SELECT cluster_id, COUNT(*)
		FROM cluster_setor_pdv
		WHERE run_id = $1
		GROUP BY cluster_id
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, wrapDBError("failed to count assignments", err)
	}
	defer rows.Close()

	counts := map[int64]int{}
	for rows.Next() {
		var clusterID int64
		var n int
		if err := rows.Scan(&clusterID, &n); err != nil {
			return nil, wrapDBError("failed to scan assignment count", err)
		}
		counts[clusterID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("failed to count assignments", err)
	}
	return counts, nil
}
