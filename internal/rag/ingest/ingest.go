package ingest

import (
	"context"
	"errors"
	"os"

	"github.com/akolanti/FlashRAG/internal/classify"
	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/akolanti/FlashRAG/internal/domain/jobModel"
	"github.com/akolanti/FlashRAG/internal/loader"
	"github.com/akolanti/FlashRAG/internal/metrics"
	"github.com/akolanti/FlashRAG/internal/rag/chunking"
	"github.com/akolanti/FlashRAG/internal/rag/embedding"
	"github.com/akolanti/FlashRAG/internal/rag/enrich"
	"github.com/akolanti/FlashRAG/internal/rag/vectorDB"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
)

var logger = logger_i.NewLogger("File Ingestion")

// Dependencies carries everything one ingestion run needs. The cleaner is
// shared across runs so corpus-scope dedupe can see previous files.
type Dependencies struct {
	Cascade     *classify.Cascade
	Embedder    embedding.Embedder
	VectorDB    vectorDB.DataStore
	Checkpoints jobModel.CheckpointStore
	Cleaner     *loader.Cleaner
	Pipeline    *config.PipelineConfig
}

// ProcessFileIngestion runs one flashcard export through the full
// pipeline: detect, parse, clean, classify, enrich, chunk, embed, upsert.
// The returned job carries the ingestion report or the first fatal error.
func ProcessFileIngestion(ctx context.Context, job jobModel.Job, deps Dependencies) jobModel.Job {
	log := logger.With("traceId", job.TraceId, "jobId", job.Id)

	fileName := job.JobPayload.IngestFileName
	filePath := job.JobPayload.IngestURL
	log.Debug("Processing flashcard file", "filename", fileName, "path", filePath)

	job.CurrentStep = jobModel.IngestInit
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fail(job, "could not read uploaded file: "+err.Error())
	}

	report := &cardModel.IngestReport{SourceFile: fileName}

	job.CurrentStep = jobModel.IngestParsing
	format, err := loader.DetectFormat(content, fileName)
	if err != nil {
		// unsupported format is terminal for the file, nothing was written
		return fail(job, err.Error())
	}
	report.Format = string(format)

	parsed, err := loader.Parse(content, format)
	if err != nil {
		return fail(job, err.Error())
	}
	report.RecordsParsed = len(parsed.Records)
	report.ParseWarnings = parsed.Warnings
	if parsed.Warnings > 0 {
		log.Warn("Skipped malformed records", "count", parsed.Warnings)
	}

	cleaned := deps.Cleaner.CleanFile(parsed.Records)
	report.RecordsDropped = cleaned.Dropped
	report.DuplicatesRemoved = cleaned.Duped

	job.CurrentStep = jobModel.IngestClassify
	cards := classifyAndEnrich(ctx, cleaned.Records, fileName, deps, report)

	docs := enrich.BuildDocuments(cards, fileName, enrich.Granularity(deps.Pipeline.Granularity))
	chunker, err := chunking.ForName(deps.Pipeline.ChunkStrategy)
	if err != nil {
		return fail(job, err.Error())
	}
	var chunks []cardModel.Chunk
	for _, doc := range docs {
		chunks = append(chunks, chunker.Split(doc)...)
	}
	log.Debug("Prepared chunks", "documents", len(docs), "chunks", len(chunks))

	job.CurrentStep = jobModel.IngestEmbed
	if err := deps.VectorDB.EnsureCollection(ctx, deps.Pipeline.CollectionName, deps.Embedder.Dimension()); err != nil {
		return fail(job, err.Error())
	}

	upserted, err := BatchIngest(ctx, fileName, chunks, deps)
	report.ChunksUpserted = upserted
	if err != nil {
		// checkpoint stays in place so the retry resumes mid-file
		job.JobPayload.Report = report
		if errors.Is(err, cardModel.ErrEmbeddingUnavailable) {
			return fail(job, "embedding provider unavailable: "+err.Error())
		}
		return fail(job, err.Error())
	}

	metrics.AddChunksUpserted(upserted)

	if err := os.Remove(filePath); err != nil {
		log.Error("Error removing uploaded file", "error", err)
	}

	job.JobPayload.Report = report
	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	return job
}

// classifyAndEnrich runs the cascade over the cleaned records and builds
// the immutable flashcards, counting label provenance into the report.
func classifyAndEnrich(ctx context.Context, records []cardModel.RawRecord, sourceFile string, deps Dependencies, report *cardModel.IngestReport) []cardModel.Flashcard {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = cardModel.Flashcard{Term: rec.Term, Definition: rec.Definition}.Text()
	}
	results := deps.Cascade.ClassifyAll(ctx, texts)

	cards := make([]cardModel.Flashcard, len(records))
	for i, rec := range records {
		cards[i] = enrich.NewFlashcard(rec, results[i], sourceFile, i)
		report.CountSource(results[i].Source)
		metrics.CountClassification(string(results[i].Source))
	}
	return cards
}

func fail(job jobModel.Job, message string) jobModel.Job {
	logger.Error("Ingestion failed", "jobId", job.Id, "reason", message)
	job.Status = jobModel.JobStatusError
	job.Error.Message = message
	return job
}
