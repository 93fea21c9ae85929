package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/spellbook-variants/internal/config"
	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/store"
)

// InterruptedMessage is recorded on jobs found RUNNING for longer than the
// configured stuck job age.
const InterruptedMessage = "Failed to generate variants: interrupted before completion"

// SchedulerStartedBy is the StartedBy value of periodically enqueued jobs.
const SchedulerStartedBy = "scheduler"

// Runner executes pending jobs in the background, one at a time.
type Runner struct {
	service *Service
	jobs    store.JobStore
	config  config.SchedulerConfig
	logger  *slog.Logger
	nowFn   func() time.Time

	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewRunner creates a Runner.
func NewRunner(service *Service, jobs store.JobStore, cfg config.SchedulerConfig, logger *slog.Logger) *Runner {
	if service == nil {
		panic("job service cannot be nil")
	}
	if jobs == nil {
		panic("job store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		service: service,
		jobs:    jobs,
		config:  cfg,
		logger:  logger.With(slog.String("component", "job_runner")),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Start fails stuck jobs left behind by a previous process and starts the
// polling loop. The loop runs until Stop is called or ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	if _, err := r.FailStuckJobs(ctx); err != nil {
		return fmt.Errorf("failed to recover stuck jobs: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancelFunc = cancel

	r.wg.Add(1)
	go r.loop(ctx)

	r.logger.Info("job runner started",
		slog.Duration("poll_interval", r.config.PollInterval),
		slog.Duration("generate_every", r.config.GenerateEvery))
	return nil
}

// Stop cancels the polling loop and waits for the current job to finish.
func (r *Runner) Stop() {
	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	r.wg.Wait()
	r.logger.Info("job runner stopped")
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()

	poll := time.NewTicker(r.config.PollInterval)
	defer poll.Stop()

	var generate <-chan time.Time
	if r.config.GenerateEvery > 0 {
		ticker := time.NewTicker(r.config.GenerateEvery)
		defer ticker.Stop()
		generate = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-generate:
			if _, err := r.service.Enqueue(ctx, SchedulerStartedBy); err != nil {
				r.logger.Error("failed to enqueue scheduled job", slog.String("error", err.Error()))
			}
		case <-poll.C:
			r.RunPending(ctx)
		}
	}
}

// RunPending runs every pending job in creation order and returns how many
// were run. Failures are recorded on the jobs themselves.
func (r *Runner) RunPending(ctx context.Context) int {
	pending, err := r.jobs.GetPending(ctx)
	if err != nil {
		r.logger.Error("failed to get pending jobs", slog.String("error", err.Error()))
		return 0
	}

	ran := 0
	for _, job := range pending {
		if ctx.Err() != nil {
			break
		}
		id := job.ID
		if _, err := r.service.Run(ctx, &id); err != nil {
			r.logger.Warn("job finished with error",
				slog.String("job_id", id.String()),
				slog.String("error", err.Error()))
		}
		ran++
	}
	return ran
}

// FailStuckJobs marks jobs RUNNING for longer than the stuck job age as failed.
func (r *Runner) FailStuckJobs(ctx context.Context) (int, error) {
	stuck, err := r.jobs.GetRunning(ctx, r.config.StuckJobAge)
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, job := range stuck {
		terminated := r.nowFn()
		job.Status = domain.JobStatusFailure
		job.Message = InterruptedMessage
		job.Termination = &terminated
		if err := r.jobs.Update(ctx, job); err != nil {
			r.logger.Error("failed to fail stuck job",
				slog.String("job_id", job.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		failed++
	}

	if failed > 0 {
		r.logger.Warn("failed stuck jobs", slog.Int("count", failed))
	}
	return failed, nil
}
