package repository

import (
	"context"
	"testing"

	"salesrouter-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHistoryRepo_AppendAndList(t *testing.T) {
	repo := NewMemoryHistoryRepo()
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, &domain.PipelineEvent{JobID: "job-a", Etapa: "clusterization", Status: domain.StepRunning}))
	require.NoError(t, repo.Append(ctx, &domain.PipelineEvent{JobID: "job-b", Etapa: "report", Status: domain.StepRunning}))
	require.NoError(t, repo.Append(ctx, &domain.PipelineEvent{JobID: "job-a", Etapa: "clusterization", Status: domain.StepDone}))

	events, err := repo.ListByJob(ctx, "job-a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.StepRunning, events[0].Status)
	assert.Equal(t, domain.StepDone, events[1].Status)
	assert.False(t, events[0].CriadoEm.IsZero())
	assert.Less(t, events[0].ID, events[1].ID)

	none, err := repo.ListByJob(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
