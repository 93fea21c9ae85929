package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestVariantValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		variant Variant
		wantErr error
	}{
		{
			name:    "valid",
			variant: Variant{ID: "abc", Status: VariantStatusNew, Includes: []int{1}, Identity: "UB"},
		},
		{
			name:    "template only",
			variant: Variant{ID: "abc", Status: VariantStatusOK, Requires: []int{1}},
		},
		{
			name:    "missing id",
			variant: Variant{Status: VariantStatusNew, Includes: []int{1}},
			wantErr: ErrEmptyVariantID,
		},
		{
			name:    "no cards",
			variant: Variant{ID: "abc", Status: VariantStatusNew},
			wantErr: ErrEmptyVariantCards,
		},
		{
			name:    "unknown status",
			variant: Variant{ID: "abc", Status: "BROKEN", Includes: []int{1}},
			wantErr: ErrInvalidVariantStatus,
		},
		{
			name:    "bad identity",
			variant: Variant{ID: "abc", Status: VariantStatusNew, Includes: []int{1}, Identity: "BU"},
			wantErr: ErrInvalidIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.variant.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewJob(t *testing.T) {
	t.Parallel()

	job, err := NewJob(JobNameGenerateVariants, "admin")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if job.ID == uuid.Nil {
		t.Error("Expected non-nil UUID")
	}
	if job.Status != JobStatusPending {
		t.Errorf("Expected status %s, got %s", JobStatusPending, job.Status)
	}
	if job.IsTerminal() {
		t.Error("A pending job must not be terminal")
	}
	if job.StartedAt != nil || job.Termination != nil {
		t.Error("A new job must not have start or termination times")
	}

	if _, err := NewJob("", ""); !errors.Is(err, ErrEmptyJobName) {
		t.Errorf("Expected ErrEmptyJobName, got %v", err)
	}
}

func TestJobValidate(t *testing.T) {
	t.Parallel()

	job := Job{ID: uuid.New(), Name: JobNameGenerateVariants, Status: "DONE"}
	if err := job.Validate(); !errors.Is(err, ErrInvalidJobStatus) {
		t.Errorf("Expected ErrInvalidJobStatus, got %v", err)
	}

	job.Status = JobStatusFailure
	if err := job.Validate(); err != nil {
		t.Errorf("Expected valid job, got %v", err)
	}
	if !job.IsTerminal() {
		t.Error("A failed job must be terminal")
	}
}
