package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mvirta/eqcraft/internal/repository"
	"github.com/mvirta/eqcraft/pkg/models"
)

// PostgresJobRepository implements JobRepository for PostgreSQL
type PostgresJobRepository struct {
	db *sql.DB
}

// NewPostgresJobRepository creates a new PostgreSQL job repository
func NewPostgresJobRepository(db *sql.DB) repository.JobRepository {
	return &PostgresJobRepository{db: db}
}

// Create inserts a new EQ job record
func (r *PostgresJobRepository) Create(ctx context.Context, job *models.EQJob) error {
	query := `
		INSERT INTO eq_jobs (id, model, status, progress, measurement_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.Model,
		job.Status,
		job.Progress,
		job.MeasurementKey,
		job.CreatedAt,
		job.UpdatedAt)

	return err
}

// GetByID retrieves an EQ job by ID
func (r *PostgresJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EQJob, error) {
	query := `
		SELECT id, model, status, progress, measurement_key, error_message, created_at, updated_at, completed_at
		FROM eq_jobs
		WHERE id = $1`

	return scanJob(r.db.QueryRowContext(ctx, query, id))
}

// GetByModel retrieves EQ jobs for a headphone model, newest first
func (r *PostgresJobRepository) GetByModel(ctx context.Context, model string) ([]*models.EQJob, error) {
	query := `
		SELECT id, model, status, progress, measurement_key, error_message, created_at, updated_at, completed_at
		FROM eq_jobs
		WHERE model = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, model)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.EQJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.EQJob, error) {
	var job models.EQJob
	var measurementKey, errorMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&job.ID,
		&job.Model,
		&job.Status,
		&job.Progress,
		&measurementKey,
		&errorMsg,
		&job.CreatedAt,
		&job.UpdatedAt,
		&completedAt)

	if err != nil {
		return nil, err
	}

	if measurementKey.Valid {
		job.MeasurementKey = &measurementKey.String
	}
	if errorMsg.Valid {
		job.ErrorMsg = &errorMsg.String
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}

// UpdateStatus updates the status and progress of an EQ job
func (r *PostgresJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	query := `
		UPDATE eq_jobs
		SET status = $1, progress = $2, updated_at = NOW(),
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $3`

	_, err := r.db.ExecContext(ctx, query, status, progress, id)
	return err
}

// UpdateError marks an EQ job as failed with an error message
func (r *PostgresJobRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	query := `
		UPDATE eq_jobs
		SET status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, errorMsg, id)
	return err
}

// StoreResults stores generation results
func (r *PostgresJobRepository) StoreResults(ctx context.Context, results *models.JobResults) error {
	equalization, err := json.Marshal(results.Equalization)
	if err != nil {
		return fmt.Errorf("failed to marshal equalization: %w", err)
	}

	filters, err := json.Marshal(results.Filters)
	if err != nil {
		return fmt.Errorf("failed to marshal filters: %w", err)
	}

	params, err := json.Marshal(results.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	query := `
		INSERT INTO eq_job_results (id, job_id, equalization, filters, graphic_preamp, parametric_preamp, graphic_eq, parametric_eq, params, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.ExecContext(ctx, query,
		results.ID,
		results.JobID,
		string(equalization),
		string(filters),
		results.GraphicPreamp,
		results.ParametricPreamp,
		results.GraphicEQ,
		results.ParametricEQ,
		string(params),
		results.CreatedAt)

	return err
}

// GetResults retrieves generation results for a job
func (r *PostgresJobRepository) GetResults(ctx context.Context, jobID uuid.UUID) (*models.JobResults, error) {
	query := `
		SELECT id, job_id, equalization, filters, graphic_preamp, parametric_preamp, graphic_eq, parametric_eq, params, created_at
		FROM eq_job_results
		WHERE job_id = $1`

	var results models.JobResults
	var equalizationStr, filtersStr, paramsStr string

	err := r.db.QueryRowContext(ctx, query, jobID).Scan(
		&results.ID,
		&results.JobID,
		&equalizationStr,
		&filtersStr,
		&results.GraphicPreamp,
		&results.ParametricPreamp,
		&results.GraphicEQ,
		&results.ParametricEQ,
		&paramsStr,
		&results.CreatedAt)

	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(equalizationStr), &results.Equalization); err != nil {
		return nil, fmt.Errorf("failed to unmarshal equalization: %w", err)
	}
	if err := json.Unmarshal([]byte(filtersStr), &results.Filters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filters: %w", err)
	}
	if err := json.Unmarshal([]byte(paramsStr), &results.Params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}

	return &results, nil
}
