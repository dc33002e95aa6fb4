package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Sentinel errors for the constraint violations the schema can raise.
// Callers branch on these with errors.Is; the wrapped pq error keeps the
// constraint name for logging.
var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate key")
	ErrForeignKey = errors.New("foreign key violation")
	ErrNotNull    = errors.New("not-null violation")
)

// wrapDBError maps driver errors onto the sentinel taxonomy.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w: %v", op, ErrDuplicate, err)
		case "23503":
			return fmt.Errorf("%s: %w: %v", op, ErrForeignKey, err)
		case "23502":
			return fmt.Errorf("%s: %w: %v", op, ErrNotNull, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
