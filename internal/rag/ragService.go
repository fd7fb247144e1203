package rag

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/akolanti/FlashRAG/internal/domain/jobModel"
	"github.com/akolanti/FlashRAG/internal/metrics"
	"github.com/akolanti/FlashRAG/internal/rag/embedding"
	"github.com/akolanti/FlashRAG/internal/rag/ingest"
	"github.com/akolanti/FlashRAG/internal/rag/vectorDB"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
)

// Service is the only surface the worker sees. The private struct below
// holds the actual clients; keeping it unexported means the worker cannot
// reach into the vector store or embedder directly, and tests swap mocks
// in through NewService without touching worker code.
type Service interface {
	ProcessQuery(ctx context.Context, job jobModel.Job) jobModel.Job
	IngestFile(ctx context.Context, job jobModel.Job) jobModel.Job
}

type service struct {
	vectorDB vectorDB.DataStore
	embedder embedding.Embedder
	deps     ingest.Dependencies
	logger   *logger_i.Logger
}

func NewService(deps ingest.Dependencies) Service {
	return &service{
		vectorDB: deps.VectorDB,
		embedder: deps.Embedder,
		deps:     deps,
		logger:   logger_i.NewLogger("RAG Service"),
	}
}

// ProcessQuery embeds the question, verifies the collection dimension
// still matches the configured embedder, and runs the similarity search.
func (s *service) ProcessQuery(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "jobId", job.Id)

	processCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	vector, err := s.executeEmbeddingStep(processCtx, log, &job)
	if err != nil {
		return s.jobError(job, err, "EMBEDDING_FAILURE", true)
	}

	if err := s.executeDimensionCheck(processCtx, log, vector); err != nil {
		if errors.Is(err, cardModel.ErrDimensionMismatch) {
			// a dimension mismatch needs re-ingestion, not a retry
			return s.jobError(job, err, "DIMENSION_MISMATCH", false)
		}
		return s.jobError(job, err, "VECTOR_DB_FAILURE", true)
	}

	matches, err := s.executeVectorSearchStep(processCtx, log, &job, vector)
	if err != nil {
		return s.jobError(job, err, "VECTOR_DB_FAILURE", true)
	}

	job.JobPayload.Results = matches
	job.CurrentStep = jobModel.Complete
	return job
}

func (s *service) IngestFile(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("file_ingestion", time.Since(start)) }()
	return ingest.ProcessFileIngestion(ctx, job, s.deps)
}
