package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the execution state of a job
type JobStatus string

// Possible job status values
const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailure JobStatus = "FAILURE"
)

// JobNameGenerateVariants is the name of the variant generation job.
const JobNameGenerateVariants = "generate_variants"

// Job validation errors
var (
	ErrEmptyJobID   = errors.New("job ID cannot be empty")
	ErrEmptyJobName = errors.New("job name cannot be empty")
)

// Job records one invocation of a batch operation, such as variant
// generation, together with its outcome.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Status      JobStatus  `json:"status"`
	Message     string     `json:"message"`
	StartedBy   string     `json:"started_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	Termination *time.Time `json:"termination,omitempty"`
}

// NewJob creates a pending job with the given name.
func NewJob(name, startedBy string) (*Job, error) {
	job := &Job{
		ID:        uuid.New(),
		Name:      name,
		Status:    JobStatusPending,
		StartedBy: startedBy,
		CreatedAt: time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the Job has valid data.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.Name == "" {
		return ErrEmptyJobName
	}

	if !IsValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	return nil
}

// IsTerminal reports whether the job has finished, successfully or not.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusSuccess || j.Status == JobStatusFailure
}

// IsValidJobStatus reports whether status is one of the known values.
func IsValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusPending, JobStatusRunning, JobStatusSuccess, JobStatusFailure:
		return true
	default:
		return false
	}
}
