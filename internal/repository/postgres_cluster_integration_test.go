//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"testing"

	"salesrouter-data/internal/config"
	"salesrouter-data/internal/database"
	"salesrouter-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestDB(t *testing.T) *sql.DB {
	cfg := &config.DatabaseConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOrInt("TEST_DB_PORT", 5432),
		User:     envOr("TEST_DB_USER", "postgres"),
		Password: envOr("TEST_DB_PASSWORD", "postgres"),
		Database: envOr("TEST_DB_NAME", "sales_routing_db"),
		SSLMode:  envOr("TEST_DB_SSLMODE", "disable"),
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}
	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil
	}
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func cleanupRun(t *testing.T, db *sql.DB, runID int64) {
	t.Helper()
	db.Exec(`DELETE FROM cluster_setor_pdv WHERE run_id = $1`, runID)
	db.Exec(`DELETE FROM cluster_setor WHERE run_id = $1`, runID)
	db.Exec(`DELETE FROM cluster_run WHERE id = $1`, runID)
}

func TestPostgresRunsRepository_CreateRunMinimal(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresRunsRepository(db)
	ctx := context.Background()

	id, err := repo.CreateRun(ctx, &domain.Run{})
	require.NoError(t, err)
	defer cleanupRun(t, db, id)

	run, err := repo.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, run.Status)
	assert.False(t, run.StartedAt.IsZero())
	assert.Nil(t, run.FinishedAt)
	assert.Nil(t, run.UF)
	assert.Nil(t, run.KFinal)
	assert.Nil(t, run.Params)
}

func TestPostgresRunsRepository_FinishRun(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresRunsRepository(db)
	ctx := context.Background()

	id, err := repo.CreateRun(ctx, &domain.Run{})
	require.NoError(t, err)
	defer cleanupRun(t, db, id)

	msg := "solver did not converge"
	require.NoError(t, repo.FinishRun(ctx, id, RunFinish{KFinal: 4, Status: domain.StatusError, Error: &msg}))

	run, err := repo.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, run.Status)
	require.NotNil(t, run.FinishedAt)
	require.NotNil(t, run.KFinal)
	assert.Equal(t, 4, *run.KFinal)
	require.NotNil(t, run.Error)
	assert.Equal(t, msg, *run.Error)

	require.ErrorIs(t, repo.FinishRun(ctx, -1, RunFinish{Status: domain.StatusDone}), ErrNotFound)
}

func TestPostgresSetoresRepository_ForeignKey(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresSetoresRepository(db)

	// No cluster_run row with this id exists.
	_, err := repo.SaveSetores(context.Background(), -1, []*domain.Setor{
		{ClusterLabel: 0, NPDVs: 1},
	})
	require.ErrorIs(t, err, ErrForeignKey)
}

func TestPostgresClusterRepositories_RoundTrip(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	runs := NewPostgresRunsRepository(db)
	setores := NewPostgresSetoresRepository(db)
	pdvs := NewPostgresSetorPDVRepository(db)
	ctx := context.Background()

	uf, cidade := "SP", "Limeira"
	runID, err := runs.CreateRun(ctx, &domain.Run{
		UF:     &uf,
		Cidade: &cidade,
		Params: json.RawMessage(`{"k": 2, "capacidade_max": 150}`),
	})
	require.NoError(t, err)
	defer cleanupRun(t, db, runID)

	mapping, err := setores.SaveSetores(ctx, runID, []*domain.Setor{
		{ClusterLabel: 0, NPDVs: 2, Metrics: json.RawMessage(`{"raio_med_km": 1.2}`)},
		{ClusterLabel: 1, NPDVs: 1},
	})
	require.NoError(t, err)
	require.Len(t, mapping, 2)

	err = pdvs.SaveAssignments(ctx, []*domain.SetorPDV{
		{RunID: runID, PDVID: 9001, ClusterID: mapping[0], Lat: -22.56, Lon: -47.40, Cidade: "Limeira", UF: "SP"},
		{RunID: runID, PDVID: 9002, ClusterID: mapping[0], Lat: -22.57, Lon: -47.41, Cidade: "Limeira", UF: "SP"},
		{RunID: runID, PDVID: 9003, ClusterID: mapping[1], Lat: -22.58, Lon: -47.42, Cidade: "Limeira", UF: "SP"},
	})
	require.NoError(t, err)

	// Duplicate (run_id, pdv_id) must hit the composite primary key.
	err = pdvs.SaveAssignments(ctx, []*domain.SetorPDV{
		{RunID: runID, PDVID: 9001, ClusterID: mapping[1], Lat: 0, Lon: 0, Cidade: "Limeira", UF: "SP"},
	})
	require.ErrorIs(t, err, ErrDuplicate)

	counts, err := pdvs.CountAssignmentsBySetor(ctx, runID)
	require.NoError(t, err)
	list, err := setores.ListSetoresByRun(ctx, runID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, s := range list {
		assert.Equal(t, s.NPDVs, counts[s.ID])
	}

	require.NoError(t, runs.FinishRun(ctx, runID, RunFinish{KFinal: 2, Status: domain.StatusDone}))

	found, total, err := runs.ListRuns(ctx, &RunFilters{UF: "sp", Status: domain.StatusDone}, 1, 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, total, 1)
	seen := false
	for _, r := range found {
		if r.ID == runID {
			seen = true
		}
	}
	assert.True(t, seen)

	// FK-safe ordered delete removes all three levels.
	require.NoError(t, runs.DeleteRun(ctx, runID))
	_, err = runs.GetRun(ctx, runID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresHistoryRepository_AppendAndList(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresHistoryRepository(db)
	ctx := context.Background()
	jobID := fmt.Sprintf("it-%d", os.Getpid())
	defer db.Exec(`DELETE FROM historico_pipeline_jobs WHERE job_id = $1`, jobID)

	require.NoError(t, repo.Append(ctx, &domain.PipelineEvent{JobID: jobID, Etapa: "clusterization", Status: domain.StepRunning}))
	require.NoError(t, repo.Append(ctx, &domain.PipelineEvent{JobID: jobID, Etapa: "clusterization", Status: domain.StepDone, Metadata: json.RawMessage(`{"duracao_segundos": 1.5}`)}))

	events, err := repo.ListByJob(ctx, jobID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.StepRunning, events[0].Status)
	assert.Equal(t, domain.StepDone, events[1].Status)
}

func TestPostgresGeocodeCacheRepository_Upsert(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresGeocodeCacheRepository(db)
	ctx := context.Background()
	addr := "Rua Teste, 1, Limeira, SP"
	defer db.Exec(`DELETE FROM geocode_cache WHERE endereco = $1`, addr)

	_, err := repo.Lookup(ctx, addr)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Save(ctx, &domain.GeocodeEntry{Endereco: addr, Lat: -22.5, Lon: -47.4, Origem: domain.GeocodeOriginNominatim}))
	require.NoError(t, repo.Save(ctx, &domain.GeocodeEntry{Endereco: addr, Lat: -22.6, Lon: -47.5, Origem: domain.GeocodeOriginGoogle}))

	entry, err := repo.Lookup(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, -22.6, entry.Lat)
	assert.Equal(t, domain.GeocodeOriginGoogle, entry.Origem)
}

func TestPostgresPDVRepository_ListPDVsFilters(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresPDVRepository(db)
	ctx := context.Background()

	var withCoords, withoutCoords int64
	err := db.QueryRow(
		`INSERT INTO pdvs (nome, cidade, uf, pdv_lat, pdv_lon) VALUES ('Mercado A', 'Limeira', 'SP', -22.56, -47.40) RETURNING id`,
	).Scan(&withCoords)
	require.NoError(t, err)
	err = db.QueryRow(
		`INSERT INTO pdvs (nome, cidade, uf) VALUES ('Mercado B', 'Limeira', 'SP') RETURNING id`,
	).Scan(&withoutCoords)
	require.NoError(t, err)
	defer db.Exec(`DELETE FROM pdvs WHERE id IN ($1, $2)`, withCoords, withoutCoords)

	pdvs, err := repo.ListPDVs(ctx, &PDVFilters{UF: "sp", Cidade: "LIMEIRA"})
	require.NoError(t, err)

	ids := map[int64]bool{}
	for _, p := range pdvs {
		ids[p.ID] = true
	}
	assert.True(t, ids[withCoords])
	assert.False(t, ids[withoutCoords], "rows missing coordinates must be filtered out")
}
