package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"salesrouter-data/internal/domain"
	"salesrouter-data/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StepRecorder writes the pipeline step audit log. A job groups the steps
// of one asynchronous pipeline execution under a shared UUID.
type StepRecorder struct {
	history repository.HistoryRepository
	logger  *zap.Logger
}

func NewStepRecorder(history repository.HistoryRepository, logger *zap.Logger) *StepRecorder {
	return &StepRecorder{history: history, logger: logger}
}

// NewJobID mints the identifier shared by all steps of one pipeline job.
func (r *StepRecorder) NewJobID() string {
	return uuid.NewString()
}

// Record appends a single step transition.
func (r *StepRecorder) Record(ctx context.Context, jobID, etapa, status, mensagem string, metadata map[string]any) error {
	event := &domain.PipelineEvent{
		JobID:  jobID,
		Etapa:  etapa,
		Status: status,
	}
	if mensagem != "" {
		event.Mensagem = &mensagem
	}
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to encode step metadata: %w", err)
		}
		event.Metadata = b
	}

	if err := r.history.Append(ctx, event); err != nil {
		return err
	}
	r.logger.Info("pipeline step recorded",
		zap.String("job_id", jobID),
		zap.String("etapa", etapa),
		zap.String("status", status))
	return nil
}

// Step wraps a pipeline step: it records the running event, executes fn,
// and records done or error with the elapsed seconds. The fn error is
// returned unchanged; recording failures only log.
func (r *StepRecorder) Step(ctx context.Context, jobID, etapa string, fn func(context.Context) error) error {
	start := time.Now()
	if err := r.Record(ctx, jobID, etapa, domain.StepRunning, fmt.Sprintf("starting step %s", etapa), nil); err != nil {
		r.logger.Warn("failed to record step start", zap.String("etapa", etapa), zap.Error(err))
	}

	stepErr := fn(ctx)

	elapsed := time.Since(start).Round(10 * time.Millisecond).Seconds()
	metadata := map[string]any{"duracao_segundos": elapsed}

	status := domain.StepDone
	mensagem := "step finished"
	if stepErr != nil {
		status = domain.StepError
		mensagem = fmt.Sprintf("error: %v", stepErr)
	}
	if err := r.Record(ctx, jobID, etapa, status, mensagem, metadata); err != nil {
		r.logger.Warn("failed to record step end", zap.String("etapa", etapa), zap.Error(err))
	}
	return stepErr
}
