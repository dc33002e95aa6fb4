package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CleanupService removes operational clustering data. Snapshots, history
// and caches are never touched. Every purge runs inside one transaction
// and deletes in FK-safe order: assignments, setores, runs.
type CleanupService struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewCleanupService(db *sql.DB, logger *zap.Logger) *CleanupService {
	return &CleanupService{db: db, logger: logger}
}

// PurgeAll empties the three clustering result tables.
func (s *CleanupService) PurgeAll(ctx context.Context) error {
	return s.purge(ctx, "", nil)
}

// PurgeFinishedBefore removes every run that finished before the cutoff,
// along with its setores and assignments. Runs still in flight are kept.
func (s *CleanupService) PurgeFinishedBefore(ctx context.Context, cutoff time.Time) error {
	cond := "run_id IN (SELECT id FROM cluster_run WHERE finished_at IS NOT NULL AND finished_at < $1)"
	return s.purge(ctx, cond, []any{cutoff})
}

func (s *CleanupService) purge(ctx context.Context, runCond string, args []any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cleanup: %w", err)
	}
	defer tx.Rollback()

	statements := []struct {
		table string
		query string
	}{
		{"cluster_setor_pdv", "DELETE FROM cluster_setor_pdv"},
		{"cluster_setor", "DELETE FROM cluster_setor"},
		{"cluster_run", "DELETE FROM cluster_run"},
	}

	total := int64(0)
	for _, stmt := range statements {
		query := stmt.query
		if runCond != "" {
			cond := runCond
			if stmt.table == "cluster_run" {
				cond = "id IN (SELECT id FROM cluster_run WHERE finished_at IS NOT NULL AND finished_at < $1)"
			}
			query += " WHERE " + cond
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to clean table %s: %w", stmt.table, err)
		}
		n, _ := res.RowsAffected()
		total += n
		s.logger.Debug("table cleaned", zap.String("table", stmt.table), zap.Int64("rows", n))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cleanup: %w", err)
	}
	s.logger.Info("cleanup finished", zap.Int64("rows_removed", total))
	return nil
}
