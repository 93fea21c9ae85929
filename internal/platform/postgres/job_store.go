package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/platform/logger"
	"github.com/phrazzld/spellbook-variants/internal/store"
)

const jobColumns = `id, name, status, message, started_by, created_at, started_at, termination`

// PostgresJobStore implements store.JobStore using PostgreSQL.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
	nowFn  func() time.Time
}

var _ store.JobStore = (*PostgresJobStore)(nil)

// NewPostgresJobStore creates a job store on db.
// If logger is nil, a default logger will be used.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Create implements store.JobStore.Create.
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("job validation failed during create",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.Name,
		string(job.Status),
		job.Message,
		job.StartedBy,
		job.CreatedAt,
		job.StartedAt,
		job.Termination,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return MapUniqueViolation(err, store.ErrJobExists)
		}
		log.Error("failed to create job",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Info("job created",
		slog.String("job_id", job.ID.String()),
		slog.String("name", job.Name))
	return nil
}

// GetByID implements store.JobStore.GetByID.
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("job not found", slog.String("job_id", id.String()))
			return nil, store.ErrJobNotFound
		}
		log.Error("failed to get job",
			slog.String("job_id", id.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return job, nil
}

// Update implements store.JobStore.Update.
func (s *PostgresJobStore) Update(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE jobs
		SET status = $1, message = $2, started_at = $3, termination = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query,
		string(job.Status),
		job.Message,
		job.StartedAt,
		job.Termination,
		job.ID,
	)
	if err != nil {
		log.Error("failed to update job",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrJobNotFound); err != nil {
		log.Warn("no job found to update", slog.String("job_id", job.ID.String()))
		return err
	}

	log.Debug("job updated",
		slog.String("job_id", job.ID.String()),
		slog.String("status", string(job.Status)))
	return nil
}

// GetPending implements store.JobStore.GetPending.
func (s *PostgresJobStore) GetPending(ctx context.Context) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 ORDER BY created_at ASC`
	return s.queryJobs(ctx, query, string(domain.JobStatusPending))
}

// GetRunning implements store.JobStore.GetRunning.
func (s *PostgresJobStore) GetRunning(ctx context.Context, olderThan time.Duration) ([]*domain.Job, error) {
	if olderThan > 0 {
		query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 AND started_at < $2 ORDER BY created_at ASC`
		return s.queryJobs(ctx, query, string(domain.JobStatusRunning), s.nowFn().Add(-olderThan))
	}
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 ORDER BY created_at ASC`
	return s.queryJobs(ctx, query, string(domain.JobStatusRunning))
}

func (s *PostgresJobStore) queryJobs(ctx context.Context, query string, args ...any) ([]*domain.Job, error) {
	jobs, err := queryRows(ctx, s.db, query, func(rows *sql.Rows) (*domain.Job, error) {
		return scanJob(rows)
	}, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query jobs",
			slog.String("error", err.Error()))
		return nil, err
	}
	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var status string
	var startedAt, termination sql.NullTime

	if err := row.Scan(
		&job.ID,
		&job.Name,
		&status,
		&job.Message,
		&job.StartedBy,
		&job.CreatedAt,
		&startedAt,
		&termination,
	); err != nil {
		return nil, err
	}

	job.Status = domain.JobStatus(status)
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if termination.Valid {
		job.Termination = &termination.Time
	}
	return &job, nil
}
