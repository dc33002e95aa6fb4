package repository

import (
	"context"
	"database/sql"
	"fmt"

	"salesrouter-data/internal/domain"
)

// PostgresSetoresRepository is the cluster_setor repository backed by
// PostgreSQL.
type PostgresSetoresRepository struct {
	db *sql.DB
}

func NewPostgresSetoresRepository(db *sql.DB) *PostgresSetoresRepository {
	return &PostgresSetoresRepository{db: db}
}

var _ SetoresRepository = (*PostgresSetoresRepository)(nil)

const setorColumns = `
	id,
	run_id,
	cluster_label,
	nome,
	centro_lat,
	centro_lon,
	n_pdvs,
	metrics
`

func scanSetor(row interface{ Scan(...any) error }) (*domain.Setor, error) {
	var setor domain.Setor
	var nome sql.NullString
	var lat, lon sql.NullFloat64
	var metrics []byte

	err := row.Scan(
		&setor.ID,
		&setor.RunID,
		&setor.ClusterLabel,
		&nome,
		&lat,
		&lon,
		&setor.NPDVs,
		&metrics,
	)
	if err != nil {
		return nil, err
	}

	if nome.Valid {
		setor.Nome = &nome.String
	}
	if lat.Valid {
		setor.CentroLat = &lat.Float64
	}
	if lon.Valid {
		setor.CentroLon = &lon.Float64
	}
	setor.Metrics = rawOrNil(metrics)
	return &setor, nil
}

// SaveSetores inserts all setores of a run in one transaction. Labels must
// be unique within the run; a duplicate rolls the whole batch back with
// ErrDuplicate.
func (r *PostgresSetoresRepository) SaveSetores(ctx context.Context, runID int64, setores []*domain.Setor) (map[int]int64, error) {
	mapping := make(map[int]int64, len(setores))
	if len(setores) == 0 {
		return mapping, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapDBError("failed to begin save setores", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cluster_setor
			(run_id, cluster_label, nome, centro_lat, centro_lon, n_pdvs, metrics)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`)
	if err != nil {
		return nil, wrapDBError("failed to prepare save setores", err)
	}
	defer stmt.Close()

	for _, s := range setores {
		var id int64
		err := stmt.QueryRowContext(ctx,
			runID,
			s.ClusterLabel,
			s.Nome,
			s.CentroLat,
			s.CentroLon,
			s.NPDVs,
			nullJSON(s.Metrics),
		).Scan(&id)
		if err != nil {
			return nil, wrapDBError(fmt.Sprintf("failed to save setor label %d", s.ClusterLabel), err)
		}
		mapping[s.ClusterLabel] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapDBError("failed to commit save setores", err)
	}
	return mapping, nil
}

func (r *PostgresSetoresRepository) GetSetor(ctx context.Context, id int64) (*domain.Setor, error) {
	query := `SELECT ` + setorColumns + ` FROM cluster_setor WHERE id = $1`

	setor, err := scanSetor(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapDBError("failed to get setor", err)
	}
	return setor, nil
}

// ListSetoresByRun is the "list clusters for a run" query backed by
// idx_cluster_setor_run.
func (r *PostgresSetoresRepository) ListSetoresByRun(ctx context.Context, runID int64) ([]*domain.Setor, error) {
	query := `SELECT ` + setorColumns + `
		FROM cluster_setor
		WHERE run_id = $1
		ORDER BY cluster_label`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, wrapDBError("failed to list setores", err)
	}
	defer rows.Close()

	setores := []*domain.Setor{}
	for rows.Next() {
		setor, err := scanSetor(rows)
		if err != nil {
			return nil, wrapDBError("failed to scan setor", err)
		}
		setores = append(setores, setor)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("failed to list setores", err)
	}
	return setores, nil
}

