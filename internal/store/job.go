package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/spellbook-variants/internal/domain"
)

// JobStore persists job bookkeeping records.
type JobStore interface {
	// Create saves a new job. Returns ErrJobExists if the id is already taken.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// Update saves the status, message, start and termination time of a job.
	// Returns ErrJobNotFound if the job does not exist.
	Update(ctx context.Context, job *domain.Job) error

	// GetPending returns the jobs with PENDING status, oldest first.
	GetPending(ctx context.Context) ([]*domain.Job, error)

	// GetRunning returns the jobs with RUNNING status. If olderThan is
	// non-zero, only jobs started more than olderThan ago are returned.
	GetRunning(ctx context.Context, olderThan time.Duration) ([]*domain.Job, error)
}
