// Package processing turns uploaded measurement CSVs into equalization
// results: it runs the generation chain and stores rendered configs and
// fitted filters for a job.
package processing

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mvirta/eqcraft/internal/cache"
	"github.com/mvirta/eqcraft/internal/pipeline"
	"github.com/mvirta/eqcraft/internal/repository"
	"github.com/mvirta/eqcraft/internal/response"
	"github.com/mvirta/eqcraft/internal/storage"
	"github.com/mvirta/eqcraft/pkg/models"
)

type ProcessingService interface {
	ProcessJob(ctx context.Context, jobID uuid.UUID) error
}

type processingService struct {
	s3           storage.S3Service
	repository   repository.JobRepository
	cache        cache.ConfigCache
	opts         pipeline.Options
	calibration  *response.FrequencyResponse
	compensation *response.FrequencyResponse
}

// NewProcessingService wires the generation chain to job storage. The
// calibration and compensation curves may be nil; opts carries the
// server-wide generation defaults.
func NewProcessingService(s3Service storage.S3Service, repo repository.JobRepository, configCache cache.ConfigCache,
	opts pipeline.Options, calibration, compensation *response.FrequencyResponse) ProcessingService {
	return &processingService{
		s3:           s3Service,
		repository:   repo,
		cache:        configCache,
		opts:         opts,
		calibration:  calibration,
		compensation: compensation,
	}
}

// ProcessJob runs the equalization chain for an uploaded measurement. Domain
// failures (bad measurement data, missing upload) mark the job failed and
// return nil; infrastructure failures are returned to the caller.
func (s *processingService) ProcessJob(ctx context.Context, jobID uuid.UUID) error {
	// Step 1: Update to processing status
	if err := s.repository.UpdateStatus(ctx, jobID, "processing", 10); err != nil {
		return err
	}

	// Step 2: Get job details
	job, err := s.repository.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	// Step 3: Download measurement from S3
	if err := s.repository.UpdateStatus(ctx, jobID, "processing", 20); err != nil {
		return err
	}

	if job.MeasurementKey == nil {
		s.repository.UpdateError(ctx, jobID, "No measurement file uploaded")
		return nil
	}
	measurementData, err := s.s3.DownloadFile(ctx, *job.MeasurementKey)
	if err != nil {
		log.Error().Err(err).Str("jobID", jobID.String()).Str("key", *job.MeasurementKey).Msg("Measurement download failed")
		s.repository.UpdateError(ctx, jobID, "Failed to download measurement file")
		return nil
	}

	// Step 4: Parse the measurement CSV
	fr, err := response.ParseCSV(job.Model, bytes.NewReader(measurementData))
	if err != nil {
		s.repository.UpdateError(ctx, jobID, fmt.Sprintf("Invalid measurement file: %v", err))
		return nil
	}

	// Step 5: Run the equalization chain
	if err := s.repository.UpdateStatus(ctx, jobID, "processing", 50); err != nil {
		return err
	}

	result, err := pipeline.Process(fr, s.calibration, s.compensation, s.opts)
	if err != nil {
		s.repository.UpdateError(ctx, jobID, fmt.Sprintf("Equalization failed: %v", err))
		return nil
	}

	// Step 6: Upload generated artifacts
	if err := s.repository.UpdateStatus(ctx, jobID, "processing", 80); err != nil {
		return err
	}
	if err := s.uploadArtifacts(ctx, jobID, fr, result); err != nil {
		return err
	}

	// Step 7: Store results
	if err := s.repository.UpdateStatus(ctx, jobID, "processing", 90); err != nil {
		return err
	}

	equalization := make([]models.FrequencyPoint, len(fr.Frequency))
	for i := range fr.Frequency {
		equalization[i] = models.FrequencyPoint{
			Frequency: fr.Frequency[i],
			Gain:      fr.Equalization[i],
		}
	}

	results := &models.JobResults{
		ID:               uuid.New().String(),
		JobID:            job.ID,
		Equalization:     equalization,
		Filters:          result.Filters,
		GraphicPreamp:    result.GraphicPreamp,
		ParametricPreamp: result.ParametricPreamp,
		GraphicEQ:        result.GraphicEQ,
		ParametricEQ:     result.ParametricEQ,
		Params: models.GenerationParams{
			BassBoost:     s.opts.BassBoost,
			Tilt:          s.opts.Tilt,
			MaxGain:       s.opts.MaxGain,
			TrebleFLower:  s.opts.TrebleFLower,
			TrebleFUpper:  s.opts.TrebleFUpper,
			TrebleMaxGain: s.opts.TrebleMaxGain,
			TrebleGainK:   s.opts.TrebleGainK,
			MaxFilters:    s.opts.MaxFilters,
		},
		CreatedAt: time.Now(),
	}

	if err := s.repository.StoreResults(ctx, results); err != nil {
		return err
	}

	// Warm the config cache; failures are not fatal, the handler re-renders.
	if err := s.cache.Set(ctx, job.ID, result.GraphicEQ); err != nil {
		log.Warn().Err(err).Str("jobID", job.ID).Msg("Failed to cache graphic EQ config")
	}

	// Step 8: Mark complete
	if err := s.repository.UpdateStatus(ctx, jobID, "completed", 100); err != nil {
		return err
	}

	log.Info().Str("jobID", job.ID).Str("model", job.Model).Int("filters", len(result.Filters)).Msg("Job processed")
	return nil
}

// uploadArtifacts stores the result CSV and rendered configs next to the
// measurement under results/<jobID>/.
func (s *processingService) uploadArtifacts(ctx context.Context, jobID uuid.UUID, fr *response.FrequencyResponse, result *pipeline.Result) error {
	prefix := fmt.Sprintf("results/%s/", jobID)

	var csvBuf bytes.Buffer
	if err := fr.WriteCSVTo(&csvBuf); err != nil {
		return err
	}
	if err := s.s3.UploadFile(ctx, prefix+fr.Name+".csv", csvBuf.Bytes(), "text/csv"); err != nil {
		return err
	}

	if result.GraphicEQ != "" {
		if err := s.s3.UploadFile(ctx, prefix+fr.Name+" GraphicEQ.txt", []byte(result.GraphicEQ), "text/plain"); err != nil {
			return err
		}
	}
	if result.ParametricEQ != "" {
		if err := s.s3.UploadFile(ctx, prefix+fr.Name+" ParametricEQ.txt", []byte(result.ParametricEQ), "text/plain"); err != nil {
			return err
		}
	}
	return nil
}
