package repository

import (
	"context"
	"database/sql"

	"salesrouter-data/internal/domain"
)

// PostgresPDVRepository reads the pdvs catalog from PostgreSQL.
type PostgresPDVRepository struct {
	db *sql.DB
}

func NewPostgresPDVRepository(db *sql.DB) *PostgresPDVRepository {
	return &PostgresPDVRepository{db: db}
}

var _ PDVRepository = (*PostgresPDVRepository)(nil)

func (r *PostgresPDVRepository) ListPDVs(ctx context.Context, filters *PDVFilters) ([]*domain.PDV, error) {
	query := `
		SELECT id, cnpj, nome, bairro, cidade, uf, pdv_lat, pdv_lon
		FROM pdvs
		WHERE pdv_lat IS NOT NULL
		  AND pdv_lon IS NOT NULL
		  AND ($1 = '' OR UPPER(uf) = UPPER($1))
		  AND ($2 = '' OR UPPER(cidade) = UPPER($2))
		ORDER BY id
	`

	uf, cidade := "", ""
	if filters != nil {
		uf = filters.UF
		cidade = filters.Cidade
	}

	rows, err := r.db.QueryContext(ctx, query, uf, cidade)
	if err != nil {
		return nil, wrapDBError("failed to list pdvs", err)
	}
	defer rows.Close()

	pdvs := []*domain.PDV{}
	for rows.Next() {
		var pdv domain.PDV
		var cnpj, nome, bairro, cidadeCol, ufCol sql.NullString
		if err := rows.Scan(&pdv.ID, &cnpj, &nome, &bairro, &cidadeCol, &ufCol, &pdv.Lat, &pdv.Lon); err != nil {
			return nil, wrapDBError("failed to scan pdv", err)
		}
		if cnpj.Valid {
			pdv.CNPJ = &cnpj.String
		}
		if nome.Valid {
			pdv.Nome = &nome.String
		}
		if bairro.Valid {
			pdv.Bairro = &bairro.String
		}
		if cidadeCol.Valid {
			pdv.Cidade = &cidadeCol.String
		}
		if ufCol.Valid {
			pdv.UF = &ufCol.String
		}
		pdvs = append(pdvs, &pdv)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("failed to list pdvs", err)
	}
	return pdvs, nil
}
