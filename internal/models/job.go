package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// AnalysisJob tracks one uploaded crop image through the disease detector.
type AnalysisJob struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Status       string          `json:"status"`
	ImagePath    string          `json:"-"`
	ResultJSON   json.RawMessage `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSAnalysisCompleted = "analysis_completed"
	WSAnalysisFailed    = "analysis_failed"
	WSMarketTick        = "market_tick"
)

type AnalysisCompletedEvent struct {
	JobID  uuid.UUID       `json:"job_id"`
	Result json.RawMessage `json:"result"`
}

type AnalysisFailedEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorMessage string    `json:"error_message"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

const (
	DiseaseQueue       = "queue:disease-analysis"
	MarketTicksChannel = "market_ticks"
)

// FarmerChannel is the pub/sub channel carrying one farmer's job events.
func FarmerChannel(userID uuid.UUID) string {
	return "farmer_updates:" + userID.String()
}

// AnalysisTask is the queue payload for one disease-analysis job.
type AnalysisTask struct {
	JobID     uuid.UUID `json:"job_id"`
	UserID    uuid.UUID `json:"user_id"`
	ImagePath string    `json:"image_path"`
	Attempt   int       `json:"attempt"`
}
