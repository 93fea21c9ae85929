package job

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/spellbook-variants/internal/config"
	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/store/memstore"
	"github.com/phrazzld/spellbook-variants/internal/variants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchedulerConfig = config.SchedulerConfig{
	PollInterval: 10 * time.Millisecond,
	StuckJobAge:  2 * time.Hour,
}

func TestRunner_RunPending(t *testing.T) {
	t.Parallel()

	jobs := memstore.New()
	gen := &fakeGenerator{}
	runner := NewRunner(NewService(jobs, gen, discardLogger), jobs, testSchedulerConfig, discardLogger)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := enqueueAt(t, jobs, base)
	second := enqueueAt(t, jobs, base.Add(time.Minute))

	ran := runner.RunPending(context.Background())

	assert.Equal(t, 2, ran)
	assert.Equal(t, 2, gen.Calls())
	for _, job := range []*domain.Job{first, second} {
		stored, err := jobs.GetByID(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusSuccess, stored.Status)
		assert.Equal(t, "Variants are already synced with all combos", stored.Message)
	}

	assert.Zero(t, runner.RunPending(context.Background()))
}

func TestRunner_FailStuckJobs(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	jobs := memstore.New(memstore.WithClock(func() time.Time { return now }))
	runner := NewRunner(NewService(jobs, &fakeGenerator{}, discardLogger), jobs, testSchedulerConfig, discardLogger)

	stuck := enqueueAt(t, jobs, now.Add(-5*time.Hour))
	stuckStart := now.Add(-3 * time.Hour)
	stuck.Status = domain.JobStatusRunning
	stuck.StartedAt = &stuckStart
	require.NoError(t, jobs.Update(context.Background(), stuck))

	fresh := enqueueAt(t, jobs, now.Add(-time.Hour))
	freshStart := now.Add(-30 * time.Minute)
	fresh.Status = domain.JobStatusRunning
	fresh.StartedAt = &freshStart
	require.NoError(t, jobs.Update(context.Background(), fresh))

	failed, err := runner.FailStuckJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	stored, err := jobs.GetByID(context.Background(), stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailure, stored.Status)
	assert.Equal(t, InterruptedMessage, stored.Message)
	assert.NotNil(t, stored.Termination)

	stored, err = jobs.GetByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, stored.Status)
}

func TestRunner_StartProcessesPendingJobs(t *testing.T) {
	t.Parallel()

	jobs := memstore.New()
	gen := &fakeGenerator{result: variants.Result{Added: 1}}
	svc := NewService(jobs, gen, discardLogger)
	runner := NewRunner(svc, jobs, testSchedulerConfig, discardLogger)

	require.NoError(t, runner.Start(context.Background()))
	t.Cleanup(runner.Stop)

	job, err := svc.Enqueue(context.Background(), "api")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		stored, err := jobs.GetByID(context.Background(), job.ID)
		return err == nil && stored.Status == domain.JobStatusSuccess
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunner_GenerateEveryEnqueuesJobs(t *testing.T) {
	t.Parallel()

	jobs := memstore.New()
	gen := &fakeGenerator{}
	cfg := testSchedulerConfig
	cfg.GenerateEvery = 20 * time.Millisecond
	runner := NewRunner(NewService(jobs, gen, discardLogger), jobs, cfg, discardLogger)

	require.NoError(t, runner.Start(context.Background()))
	t.Cleanup(runner.Stop)

	assert.Eventually(t, func() bool {
		return gen.Calls() > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunner_StopWithoutStart(t *testing.T) {
	t.Parallel()

	jobs := memstore.New()
	runner := NewRunner(NewService(jobs, &fakeGenerator{}, discardLogger), jobs, testSchedulerConfig, discardLogger)
	assert.NotPanics(t, runner.Stop)
}
