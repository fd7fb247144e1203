package rag

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/akolanti/FlashRAG/internal/domain/jobModel"
	"github.com/akolanti/FlashRAG/internal/metrics"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
)

func logStep(job *jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) {
	job.CurrentStep = status
	log.Debug("ProcessQuery", "Current Status", job.CurrentStep)
}

func (s *service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "error", err)

	job.Error = jobModel.JobError{
		Code:    http.StatusInternalServerError,
		Message: message,
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	return job
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job) ([]float32, error) {
	logStep(job, jobModel.EmbeddingAPICall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("query_embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, job.JobPayload.Question)
}

// executeDimensionCheck refuses to query a collection built with a
// different embedding configuration.
func (s *service) executeDimensionCheck(ctx context.Context, log *logger_i.Logger, vector []float32) error {
	stored, err := s.vectorDB.CollectionDimension(ctx, s.deps.Pipeline.CollectionName)
	if err != nil {
		return err
	}
	if stored != len(vector) {
		log.Error("Embedding dimension mismatch", "collection", stored, "query", len(vector))
		return fmt.Errorf("%w: collection has %d, query produced %d",
			cardModel.ErrDimensionMismatch, stored, len(vector))
	}
	return nil
}

func (s *service) executeVectorSearchStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, vector []float32) ([]cardModel.SearchResult, error) {
	logStep(job, jobModel.VectorDBCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.vectorDB.Query(ctx, s.deps.Pipeline.CollectionName, vector, job.JobPayload.TopK, job.JobPayload.Filter)
}
