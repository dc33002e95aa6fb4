package service

import (
	"context"
	"encoding/json"
	"fmt"

	"salesrouter-data/internal/domain"
	"salesrouter-data/internal/repository"
	"salesrouter-data/internal/store"

	"go.uber.org/zap"
)

// ResultService owns the run lifecycle and the only write path for
// clustering results: create run -> persist setores and assignments ->
// finish run. It enforces the consistency the schema cannot (each setor's
// n_pdvs equals its assignment count) before anything is written.
type ResultService struct {
	runs    repository.RunsRepository
	setores repository.SetoresRepository
	mapping repository.SetorPDVRepository
	status  *store.StatusCache // optional
	logger  *zap.Logger
}

func NewResultService(
	runs repository.RunsRepository,
	setores repository.SetoresRepository,
	mapping repository.SetorPDVRepository,
	status *store.StatusCache,
	logger *zap.Logger,
) *ResultService {
	return &ResultService{
		runs:    runs,
		setores: setores,
		mapping: mapping,
		status:  status,
		logger:  logger,
	}
}

// StartRunRequest scopes and parameterizes a new execution. UF and Cidade
// empty mean "all".
type StartRunRequest struct {
	UF     string
	Cidade string
	Algo   string
	Params any // marshaled into cluster_run.params
}

// SetorResult is one macro-cluster produced by the algorithm, keyed by its
// label. NPDVs must match the number of assignments carrying the label.
type SetorResult struct {
	ClusterLabel int
	Nome         string // defaults to "CL-<label>" when empty
	CentroLat    float64
	CentroLon    float64
	NPDVs        int
	Metrics      domain.SetorMetrics
}

// Assignment maps one PDV to a cluster label; the setor id is resolved
// during persistence.
type Assignment struct {
	PDVID        int64
	ClusterLabel int
	Lat          float64
	Lon          float64
	Cidade       string
	UF           string
}

// StartRun creates the audit row for an execution and returns the run id.
func (s *ResultService) StartRun(ctx context.Context, req StartRunRequest) (int64, error) {
	run := &domain.Run{Status: domain.StatusRunning}
	if req.UF != "" {
		run.UF = &req.UF
	}
	if req.Cidade != "" {
		run.Cidade = &req.Cidade
	}
	if req.Algo != "" {
		run.Algo = &req.Algo
	}
	if req.Params != nil {
		b, err := json.Marshal(req.Params)
		if err != nil {
			return 0, fmt.Errorf("failed to encode run params: %w", err)
		}
		run.Params = b
	}

	id, err := s.runs.CreateRun(ctx, run)
	if err != nil {
		return 0, err
	}

	s.logger.Info("run created",
		zap.Int64("run_id", id),
		zap.String("uf", orAll(req.UF)),
		zap.String("cidade", orAll(req.Cidade)),
		zap.String("algo", req.Algo))

	s.putStatus(ctx, store.RunStatus{RunID: id, Status: domain.StatusRunning})
	return id, nil
}

// PersistResult writes the setores of a run and the PDV assignments under
// them. Setores first (their ids are needed), assignments second; the
// label -> id mapping never leaves this method.
func (s *ResultService) PersistResult(ctx context.Context, runID int64, setores []SetorResult, assignments []Assignment) error {
	if err := validateResult(setores, assignments); err != nil {
		return err
	}

	rows := make([]*domain.Setor, 0, len(setores))
	for i := range setores {
		rows = append(rows, setorRow(runID, &setores[i]))
	}

	mapping, err := s.setores.SaveSetores(ctx, runID, rows)
	if err != nil {
		return err
	}
	s.logger.Info("setores saved", zap.Int64("run_id", runID), zap.Int("count", len(mapping)))

	assignmentRows := make([]*domain.SetorPDV, 0, len(assignments))
	for _, a := range assignments {
		assignmentRows = append(assignmentRows, &domain.SetorPDV{
			RunID:     runID,
			PDVID:     a.PDVID,
			ClusterID: mapping[a.ClusterLabel],
			Lat:       a.Lat,
			Lon:       a.Lon,
			Cidade:    a.Cidade,
			UF:        a.UF,
		})
	}
	if err := s.mapping.SaveAssignments(ctx, assignmentRows); err != nil {
		return err
	}
	s.logger.Info("pdvs mapped to setores", zap.Int64("run_id", runID), zap.Int("count", len(assignmentRows)))
	return nil
}

// CompleteRun closes the run as done with its final cluster count.
func (s *ResultService) CompleteRun(ctx context.Context, runID int64, kFinal int) error {
	fin := repository.RunFinish{KFinal: kFinal, Status: domain.StatusDone}
	if err := s.runs.FinishRun(ctx, runID, fin); err != nil {
		return err
	}
	s.logger.Info("run finished", zap.Int64("run_id", runID), zap.String("status", domain.StatusDone), zap.Int("k_final", kFinal))
	s.putStatus(ctx, store.RunStatus{RunID: runID, Status: domain.StatusDone, KFinal: &kFinal})
	return nil
}

// FailRun closes the run as errored, recording the failure text.
func (s *ResultService) FailRun(ctx context.Context, runID int64, cause string) error {
	fin := repository.RunFinish{Status: domain.StatusError, Error: &cause}
	if err := s.runs.FinishRun(ctx, runID, fin); err != nil {
		return err
	}
	s.logger.Warn("run failed", zap.Int64("run_id", runID), zap.String("error", cause))
	s.putStatus(ctx, store.RunStatus{RunID: runID, Status: domain.StatusError, Error: &cause})
	return nil
}

// RunStatus answers cheap status polls from the cache, falling back to the
// database and refreshing the cache on a miss.
func (s *ResultService) RunStatus(ctx context.Context, runID int64) (*store.RunStatus, error) {
	if s.status != nil {
		if st, err := s.status.Get(ctx, runID); err == nil {
			return st, nil
		}
	}

	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	st := store.RunStatus{
		RunID:      run.ID,
		Status:     run.Status,
		KFinal:     run.KFinal,
		Error:      run.Error,
		FinishedAt: run.FinishedAt,
	}
	s.putStatus(ctx, st)
	return &st, nil
}

func (s *ResultService) putStatus(ctx context.Context, st store.RunStatus) {
	if s.status == nil {
		return
	}
	if err := s.status.Put(ctx, st); err != nil {
		// Cache trouble must not fail the write path.
		s.logger.Warn("failed to cache run status", zap.Int64("run_id", st.RunID), zap.Error(err))
	}
}

func setorRow(runID int64, res *SetorResult) *domain.Setor {
	nome := res.Nome
	if nome == "" {
		nome = fmt.Sprintf("CL-%d", res.ClusterLabel)
	}
	lat, lon := res.CentroLat, res.CentroLon
	metrics, _ := json.Marshal(res.Metrics)
	return &domain.Setor{
		RunID:        runID,
		ClusterLabel: res.ClusterLabel,
		Nome:         &nome,
		CentroLat:    &lat,
		CentroLon:    &lon,
		NPDVs:        res.NPDVs,
		Metrics:      metrics,
	}
}

func validateResult(setores []SetorResult, assignments []Assignment) error {
	counts := map[int]int{}
	for _, a := range assignments {
		counts[a.ClusterLabel]++
	}

	labels := map[int]bool{}
	for _, s := range setores {
		if labels[s.ClusterLabel] {
			return fmt.Errorf("duplicate cluster label %d in result", s.ClusterLabel)
		}
		labels[s.ClusterLabel] = true
		if got := counts[s.ClusterLabel]; got != s.NPDVs {
			return fmt.Errorf("setor label %d declares n_pdvs=%d but has %d assignments", s.ClusterLabel, s.NPDVs, got)
		}
	}
	for label := range counts {
		if !labels[label] {
			return fmt.Errorf("assignment references unknown cluster label %d", label)
		}
	}
	return nil
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}
