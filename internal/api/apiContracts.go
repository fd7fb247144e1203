package api

import (
	"time"

	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type QueryResponse struct {
	Question string                   `json:"question"`
	Results  []cardModel.SearchResult `json:"results"`
}

type IngestResponse struct {
	Report *cardModel.IngestReport `json:"report"`
}

type Result struct {
	Status         string          `json:"status"`
	QueryResponse  *QueryResponse  `json:"query_response,omitempty"`
	IngestResponse *IngestResponse `json:"ingest_response,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

// requests---------------------

type QueryRequest struct {
	Question string         `json:"question" validate:"required"`
	TopK     int            `json:"top_k,omitempty"`
	Filter   map[string]any `json:"filter,omitempty"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}
