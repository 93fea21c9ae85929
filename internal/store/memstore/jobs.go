package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/store"
)

// Create implements store.JobStore.
func (s *Store) Create(ctx context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return store.ErrJobExists
	}
	s.jobs[job.ID] = cloneJob(*job)
	return nil
}

// GetByID implements store.JobStore.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	s.jobMu.RLock()
	defer s.jobMu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	out := cloneJob(job)
	return &out, nil
}

// Update implements store.JobStore.
func (s *Store) Update(ctx context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return store.ErrJobNotFound
	}
	s.jobs[job.ID] = cloneJob(*job)
	return nil
}

// GetPending implements store.JobStore.
func (s *Store) GetPending(ctx context.Context) ([]*domain.Job, error) {
	return s.filterJobs(func(j domain.Job) bool {
		return j.Status == domain.JobStatusPending
	}), nil
}

// GetRunning implements store.JobStore.
func (s *Store) GetRunning(ctx context.Context, olderThan time.Duration) ([]*domain.Job, error) {
	cutoff := s.nowFn().Add(-olderThan)
	return s.filterJobs(func(j domain.Job) bool {
		if j.Status != domain.JobStatusRunning {
			return false
		}
		if olderThan == 0 {
			return true
		}
		return j.StartedAt != nil && j.StartedAt.Before(cutoff)
	}), nil
}

func (s *Store) filterJobs(keep func(domain.Job) bool) []*domain.Job {
	s.jobMu.RLock()
	defer s.jobMu.RUnlock()
	var out []*domain.Job
	for _, j := range s.jobs {
		if keep(j) {
			c := cloneJob(j)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID.String() < out[k].ID.String()
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out
}

func cloneJob(j domain.Job) domain.Job {
	if j.StartedAt != nil {
		t := *j.StartedAt
		j.StartedAt = &t
	}
	if j.Termination != nil {
		t := *j.Termination
		j.Termination = &t
	}
	return j
}
