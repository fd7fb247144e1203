package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	QueryInit        InternalStatus = "Init"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"
	VectorDBCall     InternalStatus = "VectorDB"

	IngestInit     InternalStatus = "IngestInit"
	IngestParsing  InternalStatus = "IngestParsing"
	IngestClassify InternalStatus = "IngestClassify"
	IngestEmbed    InternalStatus = "IngestEmbed"
	Error          InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeQuery  JobType = "Query"
	JobTypeIngest JobType = "Ingest"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	//query jobs
	Question string                    `json:"question,omitempty"`
	TopK     int                       `json:"top_k,omitempty"`
	Filter   cardModel.Filter          `json:"filter,omitempty"`
	Results  []cardModel.SearchResult  `json:"results,omitempty"`

	//ingest jobs
	IngestFileName string                  `json:"ingest_file_name,omitempty"`
	IngestURL      string                  `json:"ingest_url,omitempty"`
	Report         *cardModel.IngestReport `json:"report,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// CheckpointStore remembers, per source file, how many embedding batches
// have already been upserted so a re-run resumes instead of re-embedding.
type CheckpointStore interface {
	GetCheckpoint(ctx context.Context, sourceFile string) (int, bool)
	SaveCheckpoint(ctx context.Context, sourceFile string, batchesDone int) error
	ClearCheckpoint(ctx context.Context, sourceFile string)
}
