package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mvirta/eqcraft/pkg/models"
)

// JobRepository defines the interface for EQ job data operations
type JobRepository interface {
	Create(ctx context.Context, job *models.EQJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.EQJob, error)
	GetByModel(ctx context.Context, model string) ([]*models.EQJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
	StoreResults(ctx context.Context, results *models.JobResults) error
	GetResults(ctx context.Context, jobID uuid.UUID) (*models.JobResults, error)
}
