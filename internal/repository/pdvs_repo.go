package repository

import (
	"context"

	"salesrouter-data/internal/domain"
)

// PDVFilters narrows ListPDVs. Matching is case-insensitive; empty values
// mean "all".
type PDVFilters struct {
	UF     string
	Cidade string
}

// PDVRepository reads the point-of-sale catalog the clustering pipeline
// consumes. Read-only: the catalog is owned by the preprocessing stage.
type PDVRepository interface {
	// ListPDVs returns candidate PDVs with both coordinates present,
	// optionally scoped by state and city.
	ListPDVs(ctx context.Context, filters *PDVFilters) ([]*domain.PDV, error)
}
