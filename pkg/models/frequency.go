package models

// FrequencyPoint represents a single point on a frequency response or
// equalization curve
type FrequencyPoint struct {
	Frequency float64 `json:"frequency" doc:"Frequency in Hz"`
	Gain      float64 `json:"gain" doc:"Gain in dB"`
}

// Filter represents a single parametric EQ peaking filter
type Filter struct {
	Fc   float64 `json:"fc" doc:"Center frequency in Hz"`
	Q    float64 `json:"q" doc:"Quality factor"`
	Gain float64 `json:"gain" doc:"Gain in dB"`
}
