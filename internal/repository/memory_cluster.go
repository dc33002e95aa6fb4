package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"salesrouter-data/internal/domain"
)

// MemoryClusterStore implements RunsRepository, SetoresRepository and
// SetorPDVRepository against process memory. It enforces the same
// constraints the schema declares (composite PK, per-run label uniqueness,
// FK existence) so unit tests exercise the contract without a database.
type MemoryClusterStore struct {
	mu          sync.RWMutex
	nextRunID   int64
	nextSetorID int64
	runs        map[int64]*domain.Run
	setores     map[int64]*domain.Setor
	assignments map[int64]map[int64]*domain.SetorPDV // runID -> pdvID -> row
}

func NewMemoryClusterStore() *MemoryClusterStore {
	return &MemoryClusterStore{
		runs:        map[int64]*domain.Run{},
		setores:     map[int64]*domain.Setor{},
		assignments: map[int64]map[int64]*domain.SetorPDV{},
	}
}

var (
	_ RunsRepository     = (*MemoryClusterStore)(nil)
	_ SetoresRepository  = (*MemoryClusterStore)(nil)
	_ SetorPDVRepository = (*MemoryClusterStore)(nil)
)

func cloneRun(r *domain.Run) *domain.Run {
	c := *r
	return &c
}

func cloneSetor(s *domain.Setor) *domain.Setor {
	c := *s
	return &c
}

// --- RunsRepository ---

func (m *MemoryClusterStore) CreateRun(_ context.Context, run *domain.Run) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextRunID++
	stored := cloneRun(run)
	stored.ID = m.nextRunID
	if stored.StartedAt.IsZero() {
		stored.StartedAt = time.Now()
	}
	stored.FinishedAt = nil
	stored.KFinal = nil
	stored.Error = nil
	stored.Status = domain.StatusRunning
	m.runs[stored.ID] = stored
	return stored.ID, nil
}

func (m *MemoryClusterStore) GetRun(_ context.Context, id int64) (*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("failed to get run: %w", ErrNotFound)
	}
	return cloneRun(run), nil
}

func (m *MemoryClusterStore) ListRuns(_ context.Context, filters *RunFilters, page, size int) ([]*domain.Run, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := []*domain.Run{}
	for _, run := range m.runs {
		if filters != nil {
			if filters.Status != "" && run.Status != filters.Status {
				continue
			}
			if filters.UF != "" && (run.UF == nil || !strings.EqualFold(*run.UF, filters.UF)) {
				continue
			}
			if filters.Cidade != "" && (run.Cidade == nil || !strings.EqualFold(*run.Cidade, filters.Cidade)) {
				continue
			}
			if filters.StartedAfter != nil && run.StartedAt.Before(*filters.StartedAfter) {
				continue
			}
			if filters.StartedBefore != nil && run.StartedAt.After(*filters.StartedBefore) {
				continue
			}
		}
		all = append(all, cloneRun(run))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartedAt.Equal(all[j].StartedAt) {
			return all[i].StartedAt.After(all[j].StartedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := len(all)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *MemoryClusterStore) FinishRun(_ context.Context, id int64, fin RunFinish) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[id]
	if !ok {
		return fmt.Errorf("failed to finish run %d: %w", id, ErrNotFound)
	}
	now := time.Now()
	run.FinishedAt = &now
	k := fin.KFinal
	run.KFinal = &k
	run.Status = fin.Status
	run.Error = fin.Error
	return nil
}

func (m *MemoryClusterStore) DeleteRun(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[id]; !ok {
		return fmt.Errorf("failed to delete run %d: %w", id, ErrNotFound)
	}
	delete(m.assignments, id)
	for sid, s := range m.setores {
		if s.RunID == id {
			delete(m.setores, sid)
		}
	}
	delete(m.runs, id)
	return nil
}

// --- SetoresRepository ---

func (m *MemoryClusterStore) SaveSetores(_ context.Context, runID int64, setores []*domain.Setor) (map[int]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[runID]; !ok {
		return nil, fmt.Errorf("failed to save setores: %w", ErrForeignKey)
	}

	seen := map[int]bool{}
	for _, s := range m.setores {
		if s.RunID == runID {
			seen[s.ClusterLabel] = true
		}
	}

	// All-or-nothing, matching the transactional Postgres path.
	for _, s := range setores {
		if seen[s.ClusterLabel] {
			return nil, fmt.Errorf("failed to save setor label %d: %w", s.ClusterLabel, ErrDuplicate)
		}
		seen[s.ClusterLabel] = true
	}

	mapping := make(map[int]int64, len(setores))
	for _, s := range setores {
		m.nextSetorID++
		stored := cloneSetor(s)
		stored.ID = m.nextSetorID
		stored.RunID = runID
		m.setores[stored.ID] = stored
		mapping[s.ClusterLabel] = stored.ID
	}
	return mapping, nil
}

func (m *MemoryClusterStore) GetSetor(_ context.Context, id int64) (*domain.Setor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	setor, ok := m.setores[id]
	if !ok {
		return nil, fmt.Errorf("failed to get setor: %w", ErrNotFound)
	}
	return cloneSetor(setor), nil
}

func (m *MemoryClusterStore) ListSetoresByRun(_ context.Context, runID int64) ([]*domain.Setor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	setores := []*domain.Setor{}
	for _, s := range m.setores {
		if s.RunID == runID {
			setores = append(setores, cloneSetor(s))
		}
	}
	sort.Slice(setores, func(i, j int) bool {
		return setores[i].ClusterLabel < setores[j].ClusterLabel
	})
	return setores, nil
}

// --- SetorPDVRepository ---

func (m *MemoryClusterStore) SaveAssignments(_ context.Context, assignments []*domain.SetorPDV) error {
	if len(assignments) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate the whole batch before writing anything.
	pending := map[int64]map[int64]bool{}
	for _, a := range assignments {
		if _, ok := m.runs[a.RunID]; !ok {
			return fmt.Errorf("failed to copy assignments: %w", ErrForeignKey)
		}
		if _, ok := m.setores[a.ClusterID]; !ok {
			return fmt.Errorf("failed to copy assignments: %w", ErrForeignKey)
		}
		if m.assignments[a.RunID][a.PDVID] != nil || pending[a.RunID][a.PDVID] {
			return fmt.Errorf("failed to copy assignments: %w", ErrDuplicate)
		}
		if pending[a.RunID] == nil {
			pending[a.RunID] = map[int64]bool{}
		}
		pending[a.RunID][a.PDVID] = true
	}

	for _, a := range assignments {
		if m.assignments[a.RunID] == nil {
			m.assignments[a.RunID] = map[int64]*domain.SetorPDV{}
		}
		c := *a
		m.assignments[a.RunID][a.PDVID] = &c
	}
	return nil
}

func (m *MemoryClusterStore) ListAssignmentsByCluster(_ context.Context, clusterID int64) ([]*domain.SetorPDV, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*domain.SetorPDV{}
	for _, byPDV := range m.assignments {
		for _, a := range byPDV {
			if a.ClusterID == clusterID {
				c := *a
				out = append(out, &c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PDVID < out[j].PDVID })
	return out, nil
}

func (m *MemoryClusterStore) ListAssignmentsByRun(_ context.Context, runID int64) ([]*domain.SetorPDV, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*domain.SetorPDV{}
	for _, a := range m.assignments[runID] {
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClusterID != out[j].ClusterID {
			return out[i].ClusterID < out[j].ClusterID
		}
		return out[i].PDVID < out[j].PDVID
	})
	return out, nil
}

func (m *MemoryClusterStore) CountAssignmentsBySetor(_ context.Context, runID int64) (map[int64]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := map[int64]int{}
	for _, a := range m.assignments[runID] {
		counts[a.ClusterID]++
	}
	return counts, nil
}
