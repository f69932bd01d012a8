package models

import (
	"time"
)

// EQJob represents the core EQ generation job entity (for internal use)
type EQJob struct {
	ID             string     `json:"id"`
	Model          string     `json:"model"` // Headphone model name
	Status         string     `json:"status"`
	Progress       int        `json:"progress"`
	MeasurementKey *string    `json:"measurement_key,omitempty"`
	ErrorMsg       *string    `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// GenerationParams holds the numeric tuning knobs of one generation run
type GenerationParams struct {
	BassBoost     float64 `json:"bass_boost" doc:"Target gain for sub-bass in dB"`
	Tilt          float64 `json:"tilt" doc:"Target tilt in dB/octave"`
	MaxGain       float64 `json:"max_gain" doc:"Maximum positive gain in dB"`
	TrebleFLower  float64 `json:"treble_f_lower" doc:"Lower bound of the treble transition region in Hz"`
	TrebleFUpper  float64 `json:"treble_f_upper" doc:"Upper bound of the treble transition region in Hz"`
	TrebleMaxGain float64 `json:"treble_max_gain" doc:"Maximum positive gain in the treble region in dB"`
	TrebleGainK   float64 `json:"treble_gain_k" doc:"Coefficient for treble gain, positive and negative"`
	MaxFilters    int     `json:"max_filters,omitempty" doc:"Maximum number of parametric EQ filters"`
}

// JobResults represents the stored results of a completed generation job
type JobResults struct {
	ID               string           `json:"id"`
	JobID            string           `json:"job_id"`
	Equalization     []FrequencyPoint `json:"equalization"`
	Filters          []Filter         `json:"filters,omitempty"`
	GraphicPreamp    float64          `json:"graphic_preamp"`
	ParametricPreamp float64          `json:"parametric_preamp,omitempty"`
	GraphicEQ        string           `json:"graphic_eq"`
	ParametricEQ     string           `json:"parametric_eq,omitempty"`
	Params           GenerationParams `json:"params"`
	CreatedAt        time.Time        `json:"created_at"`
}
