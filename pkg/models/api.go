package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// CreateJobRequest represents a request to create a new EQ generation job
type CreateJobRequest struct {
	Body struct {
		Model    string `json:"model" minLength:"2" maxLength:"100" required:"true" doc:"Headphone model name"`
		FileSize int64  `json:"file_size" minimum:"10" maximum:"10485760" required:"true" doc:"Measurement CSV size in bytes"`
		MimeType string `json:"mime_type" enum:"text/csv,application/octet-stream" required:"true" doc:"Measurement file MIME type"`
	}
}

// CreateJobResponseBody is the body of the create job response
type CreateJobResponseBody struct {
	ID        string `json:"id" doc:"Job unique identifier"`
	UploadURL string `json:"upload_url" doc:"Pre-signed S3 URL for measurement upload"`
	ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
}

// CreateJobResponse represents the response from creating a job
type CreateJobResponse struct {
	Body CreateJobResponseBody
}

// GetJobStatusRequest represents a request to get job status
type GetJobStatusRequest struct {
	ID string `path:"id" doc:"Job ID"`
}

// GetJobStatusResponseBody is the body of the status response
type GetJobStatusResponseBody struct {
	ID        string  `json:"id" doc:"Job ID"`
	Model     string  `json:"model" doc:"Headphone model name"`
	Status    string  `json:"status" enum:"pending,processing,completed,failed" doc:"Job status"`
	Progress  int     `json:"progress" minimum:"0" maximum:"100" doc:"Job progress percentage"`
	Message   string  `json:"message,omitempty" doc:"Human-readable status message"`
	ResultsID *string `json:"results_id,omitempty" doc:"Results ID when the job completes"`
}

// GetJobStatusResponse represents the current status of a job
type GetJobStatusResponse struct {
	Body GetJobStatusResponseBody
}

// GetJobResultsRequest represents a request to get job results
type GetJobResultsRequest struct {
	ID string `path:"id" doc:"Job ID"`
}

// GetJobResultsResponseBody is the body of the results response
type GetJobResultsResponseBody struct {
	ID               string           `json:"id" doc:"Results ID"`
	Model            string           `json:"model" doc:"Headphone model name"`
	Equalization     []FrequencyPoint `json:"equalization" doc:"Equalization curve control points"`
	Filters          []Filter         `json:"filters,omitempty" doc:"Fitted parametric EQ filters"`
	GraphicPreamp    float64          `json:"graphic_preamp" doc:"Preamp in dB for the graphic EQ configuration"`
	ParametricPreamp float64          `json:"parametric_preamp,omitempty" doc:"Preamp in dB for the parametric EQ configuration"`
	Params           GenerationParams `json:"params" doc:"Generation parameters used for this run"`
	CreatedAt        time.Time        `json:"created_at" doc:"Job creation timestamp"`
}

// GetJobResultsResponse represents the complete generation results
type GetJobResultsResponse struct {
	Body GetJobResultsResponseBody
}

// GetGraphicEQRequest represents a request for the rendered EqualizerAPO config
type GetGraphicEQRequest struct {
	ID string `path:"id" doc:"Job ID"`
}

// GetGraphicEQResponse carries the rendered EqualizerAPO graphic EQ config
type GetGraphicEQResponse struct {
	Body struct {
		Preamp float64 `json:"preamp" doc:"Preamp in dB"`
		Config string  `json:"config" doc:"EqualizerAPO config file contents"`
		Cached bool    `json:"cached" doc:"Whether the config was served from cache"`
	}
}

// StartProcessingRequest represents a request to start processing an uploaded measurement
type StartProcessingRequest struct {
	ID string `path:"id" doc:"Job ID"`
}

// StartProcessingResponse represents the response from starting processing
type StartProcessingResponse struct {
	Body struct {
		Message string `json:"message" doc:"Confirmation message"`
	}
}
