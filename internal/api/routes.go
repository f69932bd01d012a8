package api

import (
	"database/sql"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/mvirta/eqcraft/internal/api/handlers"
	"github.com/mvirta/eqcraft/internal/cache"
	"github.com/mvirta/eqcraft/internal/processing"
	"github.com/mvirta/eqcraft/internal/repository"
	"github.com/mvirta/eqcraft/internal/storage"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(router *chi.Mux, api huma.API, db *sql.DB, s3Service storage.S3Service, jobRepo repository.JobRepository, processingSvc processing.ProcessingService, configCache cache.ConfigCache) {
	// Initialize handlers
	jobHandler := handlers.NewJobHandler(jobRepo, s3Service, processingSvc, configCache)

	// Register job routes
	huma.Register(api, huma.Operation{
		OperationID: "createJob",
		Method:      http.MethodPost,
		Path:        "/api/jobs",
		Summary:     "Create a new EQ job",
		Description: "Creates a new EQ generation job and returns an upload URL for the measurement CSV",
		Tags:        []string{"Jobs"},
	}, jobHandler.CreateJob)

	huma.Register(api, huma.Operation{
		OperationID: "getJobStatus",
		Method:      http.MethodGet,
		Path:        "/api/jobs/{id}/status",
		Summary:     "Get job status",
		Description: "Returns the current status and progress of an EQ generation job",
		Tags:        []string{"Jobs"},
	}, jobHandler.GetJobStatus)

	huma.Register(api, huma.Operation{
		OperationID: "getJobResults",
		Method:      http.MethodGet,
		Path:        "/api/jobs/{id}/results",
		Summary:     "Get job results",
		Description: "Returns the complete generation results including the equalization curve and fitted filters",
		Tags:        []string{"Jobs"},
	}, jobHandler.GetJobResults)

	huma.Register(api, huma.Operation{
		OperationID: "startProcessing",
		Method:      http.MethodPost,
		Path:        "/api/jobs/{id}/process",
		Summary:     "Start processing a job",
		Description: "Starts processing an uploaded measurement file",
		Tags:        []string{"Jobs"},
	}, jobHandler.StartProcessing)

	huma.Register(api, huma.Operation{
		OperationID: "getGraphicEQ",
		Method:      http.MethodGet,
		Path:        "/api/jobs/{id}/graphiceq",
		Summary:     "Get the rendered graphic EQ config",
		Description: "Returns the rendered EqualizerAPO GraphicEQ configuration for a completed job",
		Tags:        []string{"Jobs"},
	}, jobHandler.GetGraphicEQ)
}
