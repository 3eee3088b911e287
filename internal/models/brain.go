package models

import "time"

type BrainInfo struct {
	Name             string             `json:"name"`
	Configuration    BrainConfiguration `json:"configuration"`
	Features         []string           `json:"features"`
	TrainingDataSize int                `json:"training_data_size"`
	Score            float64            `json:"score"`
	TrainedAt        *time.Time         `json:"trained_at"`
	Versions         Versions           `json:"versions"`
	ActualVersions   bool               `json:"actual_versions"`
}

// SensorsData maps sensor names to bool, number, string or null values.
type SensorsData map[string]any

type TrainingRequest struct {
	DependentValue any         `json:"dependent_value"`
	SensorsData    SensorsData `json:"sensors_data"`
}

type PredictionResult struct {
	Brain        BrainInfo      `json:"brain"`
	Preprocessed map[string]any `json:"preprocessed"`
	Prediction   any            `json:"prediction"`
	Confidence   *float64       `json:"confidence,omitempty"`
}
