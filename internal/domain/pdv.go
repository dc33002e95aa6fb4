package domain

// PDV is a point of sale loaded from the preprocessing catalog (pdvs table).
// The clustering pipeline only considers rows with both coordinates present,
// so Lat/Lon are plain floats here.
type PDV struct {
	ID     int64   `db:"id"`      // BIGSERIAL, PRIMARY KEY
	CNPJ   *string `db:"cnpj"`    // nullable
	Nome   *string `db:"nome"`    // nullable
	Bairro *string `db:"bairro"`  // nullable
	Cidade *string `db:"cidade"`  // nullable
	UF     *string `db:"uf"`      // nullable
	Lat    float64 `db:"pdv_lat"`
	Lon    float64 `db:"pdv_lon"`
}
