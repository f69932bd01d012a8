package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mvirta/eqcraft/internal/cache"
	"github.com/mvirta/eqcraft/internal/processing"
	"github.com/mvirta/eqcraft/internal/repository"
	"github.com/mvirta/eqcraft/internal/storage"
	"github.com/mvirta/eqcraft/pkg/models"
)

// JobHandler handles EQ generation job HTTP requests
type JobHandler struct {
	repo          repository.JobRepository
	s3Service     storage.S3Service
	processingSvc processing.ProcessingService
	cache         cache.ConfigCache
}

// NewJobHandler creates a new job handler
func NewJobHandler(repo repository.JobRepository, s3Service storage.S3Service, processingSvc processing.ProcessingService, configCache cache.ConfigCache) *JobHandler {
	return &JobHandler{
		repo:          repo,
		s3Service:     s3Service,
		processingSvc: processingSvc,
		cache:         configCache,
	}
}

// CreateJob creates a new EQ generation job and returns an upload URL
func (h *JobHandler) CreateJob(ctx context.Context, req *models.CreateJobRequest) (*models.CreateJobResponse, error) {
	log.Info().Int64("fileSize", req.Body.FileSize).Str("model", req.Body.Model).Msg("Creating new EQ job")

	// Generate unique job ID
	jobID := uuid.New()

	// Generate S3 key for the measurement file
	measurementKey := fmt.Sprintf("measurements/%s.csv", jobID)

	// Validate file size explicitly
	if req.Body.FileSize < 10 {
		return nil, huma.Error400BadRequest("Measurement file is empty.", nil)
	}
	if req.Body.FileSize > 10*1024*1024 {
		return nil, huma.Error400BadRequest("Measurement file too large. CSV measurements are expected.", nil)
	}

	// Generate upload URL
	uploadURL, err := h.s3Service.GenerateUploadURL(ctx, measurementKey, req.Body.MimeType)
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "invalid content type") {
			return nil, huma.Error400BadRequest("Measurement format not supported. Upload a CSV file.", err)
		}
		return nil, huma.Error400BadRequest("Failed to prepare upload. Please try again.", err)
	}

	// Create job record in database
	job := &models.EQJob{
		ID:             jobID.String(),
		Model:          req.Body.Model,
		Status:         "pending",
		Progress:       0,
		MeasurementKey: &measurementKey,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := h.repo.Create(ctx, job); err != nil {
		return nil, huma.Error500InternalServerError("Failed to create job", err)
	}

	log.Info().Str("jobID", job.ID).Str("model", job.Model).Msg("EQ job created, returning upload URL")
	return &models.CreateJobResponse{
		Body: models.CreateJobResponseBody{
			ID:        job.ID,
			UploadURL: uploadURL,
			ExpiresIn: int((15 * time.Minute).Seconds()),
		},
	}, nil
}

// GetJobStatus returns the current status of a job
func (h *JobHandler) GetJobStatus(ctx context.Context, req *models.GetJobStatusRequest) (*models.GetJobStatusResponse, error) {
	jobID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid job ID", err)
	}

	job, err := h.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, huma.Error404NotFound("Job not found", err)
	}

	// Generate human-readable message based on status and progress
	message := h.generateStatusMessage(job.Status, job.Progress)

	var resultsID *string
	if job.Status == "completed" {
		results, err := h.repo.GetResults(ctx, jobID)
		if err == nil && results != nil {
			resultsID = &results.ID
		}
	}

	return &models.GetJobStatusResponse{
		Body: models.GetJobStatusResponseBody{
			ID:        job.ID,
			Model:     job.Model,
			Status:    job.Status,
			Progress:  job.Progress,
			Message:   message,
			ResultsID: resultsID,
		},
	}, nil
}

// GetJobResults returns the generation results
func (h *JobHandler) GetJobResults(ctx context.Context, req *models.GetJobResultsRequest) (*models.GetJobResultsResponse, error) {
	jobID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid job ID", err)
	}

	// Get job to verify it exists and is completed
	job, err := h.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, huma.Error404NotFound("Job not found", err)
	}

	if job.Status != "completed" {
		return nil, huma.Error409Conflict("Job not yet completed",
			fmt.Errorf("job status is %s", job.Status))
	}

	results, err := h.repo.GetResults(ctx, jobID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get results", err)
	}

	return &models.GetJobResultsResponse{
		Body: models.GetJobResultsResponseBody{
			ID:               results.ID,
			Model:            job.Model,
			Equalization:     results.Equalization,
			Filters:          results.Filters,
			GraphicPreamp:    results.GraphicPreamp,
			ParametricPreamp: results.ParametricPreamp,
			Params:           results.Params,
			CreatedAt:        results.CreatedAt,
		},
	}, nil
}

// GetGraphicEQ returns the rendered EqualizerAPO config for a completed job,
// served from the config cache when possible.
func (h *JobHandler) GetGraphicEQ(ctx context.Context, req *models.GetGraphicEQRequest) (*models.GetGraphicEQResponse, error) {
	jobID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid job ID", err)
	}

	job, err := h.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, huma.Error404NotFound("Job not found", err)
	}
	if job.Status != "completed" {
		return nil, huma.Error409Conflict("Job not yet completed",
			fmt.Errorf("job status is %s", job.Status))
	}

	resp := &models.GetGraphicEQResponse{}

	cached, err := h.cache.Get(ctx, job.ID)
	if err == nil && cached != "" {
		results, err := h.repo.GetResults(ctx, jobID)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to get results", err)
		}
		resp.Body.Preamp = results.GraphicPreamp
		resp.Body.Config = cached
		resp.Body.Cached = true
		return resp, nil
	}

	results, err := h.repo.GetResults(ctx, jobID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get results", err)
	}

	if err := h.cache.Set(ctx, job.ID, results.GraphicEQ); err != nil {
		log.Warn().Err(err).Str("jobID", job.ID).Msg("Failed to cache graphic EQ config")
	}

	resp.Body.Preamp = results.GraphicPreamp
	resp.Body.Config = results.GraphicEQ
	resp.Body.Cached = false
	return resp, nil
}

// StartProcessing starts processing an uploaded measurement
func (h *JobHandler) StartProcessing(ctx context.Context, req *models.StartProcessingRequest) (*models.StartProcessingResponse, error) {
	log.Info().Str("jobID", req.ID).Msg("Processing start request received")
	jobID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid job ID", err)
	}

	// Verify job exists
	_, err = h.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, huma.Error404NotFound("Job not found", err)
	}

	// Start processing in background (don't wait for completion)
	go func() {
		err := h.processingSvc.ProcessJob(context.Background(), jobID)
		if err != nil {
			// Update status to failed
			h.repo.UpdateError(context.Background(), jobID, fmt.Sprintf("Processing failed: %v", err))
		}
	}()

	return &models.StartProcessingResponse{
		Body: struct {
			Message string `json:"message" doc:"Confirmation message"`
		}{
			Message: "Processing started successfully",
		},
	}, nil
}

// generateStatusMessage creates a human-readable status message
func (h *JobHandler) generateStatusMessage(status string, progress int) string {
	switch status {
	case "pending":
		return "Job queued for processing..."
	case "processing":
		if progress < 25 {
			return "Starting generation..."
		} else if progress < 50 {
			return "Downloading measurement file..."
		} else if progress < 90 {
			return "Equalizing frequency response..."
		} else {
			return "Finalizing results..."
		}
	case "completed":
		return "EQ generation complete!"
	case "failed":
		return "EQ generation failed. Please try again."
	default:
		return "Unknown status"
	}
}
