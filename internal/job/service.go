package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/platform/logger"
	"github.com/phrazzld/spellbook-variants/internal/store"
	"github.com/phrazzld/spellbook-variants/internal/variants"
)

// ErrJobNotRunnable is returned when Run is asked to start a job that has
// already been started.
var ErrJobNotRunnable = errors.New("job is not pending")

// Generator is the variant generation entry point run by a job.
type Generator interface {
	GenerateVariants(ctx context.Context) (variants.Result, error)
}

// Service runs variant generation and keeps the job record up to date.
type Service struct {
	jobs      store.JobStore
	generator Generator
	logger    *slog.Logger
	nowFn     func() time.Time
}

// NewService creates a Service.
func NewService(jobs store.JobStore, generator Generator, logger *slog.Logger) *Service {
	if jobs == nil {
		panic("job store cannot be nil")
	}
	if generator == nil {
		panic("generator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		jobs:      jobs,
		generator: generator,
		logger:    logger.With(slog.String("component", "job_service")),
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue creates a pending generation job.
func (s *Service) Enqueue(ctx context.Context, startedBy string) (*domain.Job, error) {
	job, err := domain.NewJob(domain.JobNameGenerateVariants, startedBy)
	if err != nil {
		return nil, err
	}
	job.CreatedAt = s.nowFn()

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("job enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("started_by", startedBy))
	return job, nil
}

// Run generates variants. When jobID is nil no job is recorded. Otherwise the
// job must exist and be pending; it is marked RUNNING for the duration of the
// run and finishes as SUCCESS with the result message or FAILURE with the
// error text.
func (s *Service) Run(ctx context.Context, jobID *uuid.UUID) (variants.Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if jobID == nil {
		res, err := s.generator.GenerateVariants(ctx)
		if err != nil {
			log.Error("variant generation failed", slog.String("error", err.Error()))
			return variants.Result{}, err
		}
		log.Info(res.Message())
		return res, nil
	}

	log = log.With(slog.String("job_id", jobID.String()))
	ctx = logger.WithLogger(ctx, log)

	job, err := s.jobs.GetByID(ctx, *jobID)
	if err != nil {
		return variants.Result{}, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.Status != domain.JobStatusPending {
		return variants.Result{}, fmt.Errorf("%w: job %s is %s", ErrJobNotRunnable, jobID, job.Status)
	}

	started := s.nowFn()
	job.Status = domain.JobStatusRunning
	job.StartedAt = &started
	if err := s.jobs.Update(ctx, job); err != nil {
		return variants.Result{}, fmt.Errorf("failed to mark job %s running: %w", jobID, err)
	}
	log.Info("job started")

	res, genErr := s.generator.GenerateVariants(ctx)

	terminated := s.nowFn()
	job.Termination = &terminated
	if genErr != nil {
		job.Status = domain.JobStatusFailure
		job.Message = FailureMessage(genErr)
		log.Error("job failed", slog.String("error", genErr.Error()))
	} else {
		job.Status = domain.JobStatusSuccess
		job.Message = res.Message()
		log.Info("job succeeded", slog.String("message", job.Message))
	}

	// The run context may be cancelled already; the outcome is still recorded.
	if err := s.jobs.Update(context.WithoutCancel(ctx), job); err != nil {
		log.Error("failed to record job outcome", slog.String("error", err.Error()))
		return res, errors.Join(genErr, fmt.Errorf("failed to record outcome of job %s: %w", jobID, err))
	}
	if genErr != nil {
		return variants.Result{}, genErr
	}
	return res, nil
}

// FailureMessage renders the message stored on a failed job.
func FailureMessage(err error) string {
	return fmt.Sprintf("Failed to generate variants: %v", err)
}
