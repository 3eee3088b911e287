package models

import "time"

type JobType string

const (
	JobTypeTraining   JobType = "training"
	JobTypePrediction JobType = "prediction"
)

func (t JobType) Valid() bool {
	return t == JobTypeTraining || t == JobTypePrediction
}

type JobStatus string

const (
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job is a queued brain operation executed by the worker.
type Job struct {
	ID          string      `json:"id"`
	Type        JobType     `json:"type"`
	Brain       string      `json:"brain"`
	SensorsData SensorsData `json:"sensorsData,omitempty"`
	RequestedBy string      `json:"requestedBy"`
	EnqueuedAt  time.Time   `json:"enqueuedAt"`
}

// JobRun records the outcome of a processed job.
type JobRun struct {
	ID          string    `json:"id"`
	JobID       string    `json:"jobId"`
	Type        JobType   `json:"type"`
	Brain       string    `json:"brain"`
	Status      JobStatus `json:"status"`
	Score       *float64  `json:"score,omitempty"`
	DataSize    *int      `json:"dataSize,omitempty"`
	ArchiveKey  string    `json:"archiveKey,omitempty"`
	Error       string    `json:"error,omitempty"`
	RequestedBy string    `json:"requestedBy"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}
