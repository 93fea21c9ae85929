package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/spellbook-variants/internal/api/shared"
	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/store"
)

// EnqueueJobRequest is the optional body of POST /jobs.
type EnqueueJobRequest struct {
	StartedBy string `json:"started_by" validate:"max=150"`
}

// JobResponse is the JSON rendering of a job.
type JobResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Message     string     `json:"message"`
	StartedBy   string     `json:"started_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	Termination *time.Time `json:"termination,omitempty"`
}

// JobEnqueuer creates pending generation jobs.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, startedBy string) (*domain.Job, error)
}

// JobHandler serves the job endpoints.
type JobHandler struct {
	enqueuer JobEnqueuer
	jobs     store.JobStore
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(enqueuer JobEnqueuer, jobs store.JobStore) *JobHandler {
	return &JobHandler{enqueuer: enqueuer, jobs: jobs}
}

// Enqueue handles POST /jobs. The job is picked up by the runner; the
// response is 202 Accepted with the pending job.
func (h *JobHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	job, err := h.enqueuer.Enqueue(r.Context(), req.StartedBy)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(job))
}

// Get handles GET /jobs/{id}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

func jobToResponse(job *domain.Job) JobResponse {
	return JobResponse{
		ID:          job.ID.String(),
		Name:        job.Name,
		Status:      string(job.Status),
		Message:     job.Message,
		StartedBy:   job.StartedBy,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		Termination: job.Termination,
	}
}
