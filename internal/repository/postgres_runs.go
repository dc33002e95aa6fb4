package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"salesrouter-data/internal/domain"
)

// PostgresRunsRepository is the cluster_run repository backed by PostgreSQL.
type PostgresRunsRepository struct {
	db *sql.DB
}

func NewPostgresRunsRepository(db *sql.DB) *PostgresRunsRepository {
	return &PostgresRunsRepository{db: db}
}

var _ RunsRepository = (*PostgresRunsRepository)(nil)

const runColumns = `
	id,
	started_at,
	finished_at,
	uf,
	cidade,
	k_final,
	algo,
	params,
	status,
	error
`

func scanRun(row interface{ Scan(...any) error }) (*domain.Run, error) {
	var run domain.Run
	var finishedAt sql.NullTime
	var uf, cidade, algo, errText sql.NullString
	var kFinal sql.NullInt64
	var params []byte

	err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&finishedAt,
		&uf,
		&cidade,
		&kFinal,
		&algo,
		&params,
		&run.Status,
		&errText,
	)
	if err != nil {
		return nil, err
	}

	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	if uf.Valid {
		run.UF = &uf.String
	}
	if cidade.Valid {
		run.Cidade = &cidade.String
	}
	if kFinal.Valid {
		k := int(kFinal.Int64)
		run.KFinal = &k
	}
	if algo.Valid {
		run.Algo = &algo.String
	}
	if errText.Valid {
		run.Error = &errText.String
	}
	run.Params = rawOrNil(params)
	return &run, nil
}

// CreateRun inserts the audit row for a starting execution. Status is
// forced to 'running' and finished_at left NULL regardless of the input.
func (r *PostgresRunsRepository) CreateRun(ctx context.Context, run *domain.Run) (int64, error) {
	query := `
		INSERT INTO cluster_run (started_at, uf, cidade, algo, params, status)
		VALUES (COALESCE($1, now()), $2, $3, $4, $5, 'running')
		RETURNING id
	`

	var startedAt *time.Time
	if !run.StartedAt.IsZero() {
		startedAt = &run.StartedAt
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		startedAt,
		run.UF,
		run.Cidade,
		run.Algo,
		nullJSON(run.Params),
	).Scan(&id)
	if err != nil {
		return 0, wrapDBError("failed to create run", err)
	}
	return id, nil
}

func (r *PostgresRunsRepository) GetRun(ctx context.Context, id int64) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM cluster_run WHERE id = $1`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapDBError("failed to get run", err)
	}
	return run, nil
}

func (r *PostgresRunsRepository) ListRuns(ctx context.Context, filters *RunFilters, page, size int) ([]*domain.Run, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	argN := 1

	if filters != nil {
		if filters.Status != "" {
			where = append(where, fmt.Sprintf("status = $%d", argN))
			args = append(args, filters.Status)
			argN++
		}
		if filters.UF != "" {
			where = append(where, fmt.Sprintf("UPPER(uf) = UPPER($%d)", argN))
			args = append(args, filters.UF)
			argN++
		}
		if filters.Cidade != "" {
			where = append(where, fmt.Sprintf("UPPER(cidade) = UPPER($%d)", argN))
			args = append(args, filters.Cidade)
			argN++
		}
		if filters.StartedAfter != nil {
			where = append(where, fmt.Sprintf("started_at >= $%d", argN))
			args = append(args, *filters.StartedAfter)
			argN++
		}
		if filters.StartedBefore != nil {
			where = append(where, fmt.Sprintf("started_at <= $%d", argN))
			args = append(args, *filters.StartedBefore)
			argN++
		}
	}

	queryCount := `SELECT COUNT(*) FROM cluster_run WHERE ` + strings.Join(where, " AND ")
	var total int
	if err := r.db.QueryRowContext(ctx, queryCount, args...).Scan(&total); err != nil {
		return nil, 0, wrapDBError("failed to count runs", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	query := `SELECT ` + runColumns + `
		FROM cluster_run
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY started_at DESC, id DESC
		LIMIT $` + fmt.Sprint(argN) + ` OFFSET $` + fmt.Sprint(argN+1)
	args = append(args, size, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapDBError("failed to list runs", err)
	}
	defer rows.Close()

	runs := []*domain.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, wrapDBError("failed to scan run", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapDBError("failed to list runs", err)
	}
	return runs, total, nil
}

// FinishRun closes the run record. finished_at is stamped server-side so
// wall clocks of workers never disagree with the database.
func (r *PostgresRunsRepository) FinishRun(ctx context.Context, id int64, fin RunFinish) error {
	query := `
		UPDATE cluster_run
		SET finished_at = now(),
		    k_final = $1,
		    status = $2,
		    error = $3
		WHERE id = $4
	`

	res, err := r.db.ExecContext(ctx, query, fin.KFinal, fin.Status, fin.Error, id)
	if err != nil {
		return wrapDBError("failed to finish run", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteRun removes the run and everything under it. The schema declares
// no cascades, so order matters: assignments, then setores, then the run.
func (r *PostgresRunsRepository) DeleteRun(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("failed to begin delete run", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cluster_setor_pdv WHERE run_id = $1`, id); err != nil {
		return wrapDBError("failed to delete run assignments", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cluster_setor WHERE run_id = $1`, id); err != nil {
		return wrapDBError("failed to delete run setores", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM cluster_run WHERE id = $1`, id)
	if err != nil {
		return wrapDBError("failed to delete run", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to delete run %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return wrapDBError("failed to commit delete run", err)
	}
	return nil
}
