package repository

import (
	"context"
	"database/sql"
	"time"

	"salesrouter-data/internal/domain"
)

// PostgresHistoryRepository is the historico_pipeline_jobs repository
// backed by PostgreSQL.
type PostgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

var _ HistoryRepository = (*PostgresHistoryRepository)(nil)

func (r *PostgresHistoryRepository) Append(ctx context.Context, event *domain.PipelineEvent) error {
	query := `
		INSERT INTO historico_pipeline_jobs
			(job_id, etapa, status, mensagem, metadata, criado_em)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`

	var criadoEm *time.Time
	if !event.CriadoEm.IsZero() {
		criadoEm = &event.CriadoEm
	}

	_, err := r.db.ExecContext(ctx, query,
		event.JobID,
		event.Etapa,
		event.Status,
		event.Mensagem,
		nullJSON(event.Metadata),
		criadoEm,
	)
	if err != nil {
		return wrapDBError("failed to append pipeline event", err)
	}
	return nil
}

func (r *PostgresHistoryRepository) ListByJob(ctx context.Context, jobID string) ([]*domain.PipelineEvent, error) {
	query := `
		SELECT id, job_id, etapa, status, mensagem, metadata, criado_em
		FROM historico_pipeline_jobs
		WHERE job_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, wrapDBError("failed to list pipeline events", err)
	}
	defer rows.Close()

	events := []*domain.PipelineEvent{}
	for rows.Next() {
		var ev domain.PipelineEvent
		var mensagem sql.NullString
		var metadata []byte
		if err := rows.Scan(&ev.ID, &ev.JobID, &ev.Etapa, &ev.Status, &mensagem, &metadata, &ev.CriadoEm); err != nil {
			return nil, wrapDBError("failed to scan pipeline event", err)
		}
		if mensagem.Valid {
			ev.Mensagem = &mensagem.String
		}
		ev.Metadata = rawOrNil(metadata)
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("failed to list pipeline events", err)
	}
	return events, nil
}
