package repository

import (
	"context"
	"sync"
	"time"

	"salesrouter-data/internal/domain"
)

// MemoryHistoryRepo is the in-memory HistoryRepository used by unit tests.
type MemoryHistoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	events []*domain.PipelineEvent
}

func NewMemoryHistoryRepo() *MemoryHistoryRepo {
	return &MemoryHistoryRepo{}
}

var _ HistoryRepository = (*MemoryHistoryRepo)(nil)

func (r *MemoryHistoryRepo) Append(_ context.Context, event *domain.PipelineEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := *event
	stored.ID = r.nextID
	if stored.CriadoEm.IsZero() {
		stored.CriadoEm = time.Now()
	}
	r.events = append(r.events, &stored)
	return nil
}

func (r *MemoryHistoryRepo) ListByJob(_ context.Context, jobID string) ([]*domain.PipelineEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.PipelineEvent{}
	for _, ev := range r.events {
		if ev.JobID == jobID {
			c := *ev
			out = append(out, &c)
		}
	}
	return out, nil
}
