package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"salesrouter-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClusterStore_CreateRunMinimal(t *testing.T) {
	store := NewMemoryClusterStore()
	ctx := context.Background()

	id, err := store.CreateRun(ctx, &domain.Run{})
	require.NoError(t, err)
	require.NotZero(t, id)

	run, err := store.GetRun(ctx, id)
	require.NoError(t, err)

	// Optional fields stay unset until FinishRun.
	assert.Equal(t, domain.StatusRunning, run.Status)
	assert.False(t, run.StartedAt.IsZero())
	assert.Nil(t, run.FinishedAt)
	assert.Nil(t, run.UF)
	assert.Nil(t, run.Cidade)
	assert.Nil(t, run.KFinal)
	assert.Nil(t, run.Algo)
	assert.Nil(t, run.Params)
	assert.Nil(t, run.Error)
	assert.False(t, run.Finished())
}

func TestMemoryClusterStore_GetRunNotFound(t *testing.T) {
	store := NewMemoryClusterStore()

	_, err := store.GetRun(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryClusterStore_FinishRun(t *testing.T) {
	store := NewMemoryClusterStore()
	ctx := context.Background()

	id, err := store.CreateRun(ctx, &domain.Run{})
	require.NoError(t, err)

	require.NoError(t, store.FinishRun(ctx, id, RunFinish{KFinal: 7, Status: domain.StatusDone}))

	run, err := store.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, run.Status)
	require.NotNil(t, run.KFinal)
	assert.Equal(t, 7, *run.KFinal)
	assert.True(t, run.Finished())

	require.ErrorIs(t, store.FinishRun(ctx, 999, RunFinish{Status: domain.StatusDone}), ErrNotFound)
}

func TestMemoryClusterStore_SaveSetoresRequiresRun(t *testing.T) {
	store := NewMemoryClusterStore()

	_, err := store.SaveSetores(context.Background(), 123, []*domain.Setor{
		{ClusterLabel: 0, NPDVs: 10},
	})
	require.ErrorIs(t, err, ErrForeignKey)
}

func TestMemoryClusterStore_SaveSetoresDuplicateLabel(t *testing.T) {
	store := NewMemoryClusterStore()
	ctx := context.Background()

	runID, err := store.CreateRun(ctx, &domain.Run{})
	require.NoError(t, err)

	_, err = store.SaveSetores(ctx, runID, []*domain.Setor{{ClusterLabel: 1, NPDVs: 5}})
	require.NoError(t, err)

	_, err = store.SaveSetores(ctx, runID, []*domain.Setor{{ClusterLabel: 1, NPDVs: 3}})
	require.ErrorIs(t, err, ErrDuplicate)

	// The failed batch must not have written anything.
	setores, err := store.ListSetoresByRun(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, setores, 1)
	assert.Equal(t, 5, setores[0].NPDVs)
}

func TestMemoryClusterStore_SaveAssignmentsDuplicatePDV(t *testing.T) {
	store := NewMemoryClusterStore()
	ctx := context.Background()

	runID, err := store.CreateRun(ctx, &domain.Run{})
	require.NoError(t, err)
	mapping, err := store.SaveSetores(ctx, runID, []*domain.Setor{{ClusterLabel: 0, NPDVs: 1}})
	require.NoError(t, err)
	clusterID := mapping[0]

	a := &domain.SetorPDV{RunID: runID, PDVID: 100, ClusterID: clusterID, Lat: -22.9, Lon: -47.06, Cidade: "Campinas", UF: "SP"}
	require.NoError(t, store.SaveAssignments(ctx, []*domain.SetorPDV{a}))

	// Same (run_id, pdv_id) pair again violates the composite key.
	err = store.SaveAssignments(ctx, []*domain.SetorPDV{a})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryClusterStore_SaveAssignmentsEmptyIsNoop(t *testing.T) {
	store := NewMemoryClusterStore()
	require.NoError(t, store.SaveAssignments(context.Background(), nil))
}

func TestMemoryClusterStore_RoundTrip(t *testing.T) {
	store := NewMemoryClusterStore()
	ctx := context.Background()

	uf := "SP"
	algo := "kmeans_capacitado"
	runID, err := store.CreateRun(ctx, &domain.Run{
		UF:     &uf,
		Algo:   &algo,
		Params: json.RawMessage(`{"k": 2}`),
	})
	require.NoError(t, err)

	mapping, err := store.SaveSetores(ctx, runID, []*domain.Setor{
		{ClusterLabel: 0, NPDVs: 2},
		{ClusterLabel: 1, NPDVs: 1},
	})
	require.NoError(t, err)
	require.Len(t, mapping, 2)

	assignments := []*domain.SetorPDV{
		{RunID: runID, PDVID: 10, ClusterID: mapping[0], Lat: -23.55, Lon: -46.63, Cidade: "Sao Paulo", UF: "SP"},
		{RunID: runID, PDVID: 11, ClusterID: mapping[0], Lat: -23.56, Lon: -46.64, Cidade: "Sao Paulo", UF: "SP"},
		{RunID: runID, PDVID: 12, ClusterID: mapping[1], Lat: -22.90, Lon: -47.06, Cidade: "Campinas", UF: "SP"},
	}
	require.NoError(t, store.SaveAssignments(ctx, assignments))

	// Rows per cluster sum to each setor's n_pdvs.
	counts, err := store.CountAssignmentsBySetor(ctx, runID)
	require.NoError(t, err)
	setores, err := store.ListSetoresByRun(ctx, runID)
	require.NoError(t, err)
	for _, setor := range setores {
		assert.Equal(t, setor.NPDVs, counts[setor.ID], "setor label %d", setor.ClusterLabel)
	}

	byCluster, err := store.ListAssignmentsByCluster(ctx, mapping[0])
	require.NoError(t, err)
	assert.Len(t, byCluster, 2)

	byRun, err := store.ListAssignmentsByRun(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, byRun, 3)
}

func TestMemoryClusterStore_DeleteRun(t *testing.T) {
	store := NewMemoryClusterStore()
	ctx := context.Background()

	runID, err := store.CreateRun(ctx, &domain.Run{})
	require.NoError(t, err)
	mapping, err := store.SaveSetores(ctx, runID, []*domain.Setor{{ClusterLabel: 0, NPDVs: 1}})
	require.NoError(t, err)
	require.NoError(t, store.SaveAssignments(ctx, []*domain.SetorPDV{
		{RunID: runID, PDVID: 1, ClusterID: mapping[0], Lat: 1, Lon: 1, Cidade: "X", UF: "SP"},
	}))

	require.NoError(t, store.DeleteRun(ctx, runID))

	_, err = store.GetRun(ctx, runID)
	require.ErrorIs(t, err, ErrNotFound)
	setores, err := store.ListSetoresByRun(ctx, runID)
	require.NoError(t, err)
	assert.Empty(t, setores)
	assignments, err := store.ListAssignmentsByRun(ctx, runID)
	require.NoError(t, err)
	assert.Empty(t, assignments)

	require.ErrorIs(t, store.DeleteRun(ctx, runID), ErrNotFound)
}

func TestMemoryClusterStore_ListRunsFilters(t *testing.T) {
	store := NewMemoryClusterStore()
	ctx := context.Background()

	sp, mg := "SP", "MG"
	id1, err := store.CreateRun(ctx, &domain.Run{UF: &sp, StartedAt: time.Now().Add(-2 * time.Hour)})
	require.NoError(t, err)
	id2, err := store.CreateRun(ctx, &domain.Run{UF: &mg, StartedAt: time.Now().Add(-1 * time.Hour)})
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(ctx, id1, RunFinish{KFinal: 3, Status: domain.StatusDone}))

	runs, total, err := store.ListRuns(ctx, &RunFilters{UF: "sp"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, runs, 1)
	assert.Equal(t, id1, runs[0].ID)

	runs, total, err = store.ListRuns(ctx, &RunFilters{Status: domain.StatusRunning}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, id2, runs[0].ID)

	// Most recent first.
	runs, total, err = store.ListRuns(ctx, nil, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, runs, 2)
	assert.Equal(t, id2, runs[0].ID)

	// Paging.
	runs, total, err = store.ListRuns(ctx, nil, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, runs, 1)
	assert.Equal(t, id1, runs[0].ID)
}
