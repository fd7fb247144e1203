package ingest

import (
	"context"
	"fmt"

	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/akolanti/FlashRAG/internal/rag/enrich"
)

// BatchIngest embeds and upserts chunks in fixed-size batches, saving a
// per-file checkpoint after each committed batch. A re-run after a crash
// skips the batches already written; deterministic chunk ids make any
// overlap an in-place overwrite. Returns the number of chunks written in
// this run.
func BatchIngest(ctx context.Context, sourceFile string, chunks []cardModel.Chunk, deps Dependencies) (int, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	startBatch := 0
	if deps.Checkpoints != nil {
		if done, found := deps.Checkpoints.GetCheckpoint(ctx, sourceFile); found {
			startBatch = done
			log.Info("Resuming ingestion from checkpoint", "sourceFile", sourceFile, "batchesDone", done)
		}
	}

	batchSize := config.EmbeddingBatchSize
	upserted := 0
	batchIndex := 0

	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		currentBatch := chunks[i:end]
		batchIndex++

		if batchIndex <= startBatch {
			continue
		}

		texts := make([]string, len(currentBatch))
		for j, c := range currentBatch {
			texts[j] = c.Text
		}

		log.Debug("Embedding batch", "batch", batchIndex, "size", len(texts))
		vectors, err := deps.Embedder.BatchEmbedding(ctx, texts)
		if err != nil {
			return upserted, fmt.Errorf("embedding batch %d failed: %w", batchIndex, err)
		}

		records := make([]cardModel.VectorRecord, len(currentBatch))
		for j, c := range currentBatch {
			records[j] = cardModel.VectorRecord{
				Id:       enrich.ChunkID(c.ParentDocumentID, c.ChunkIndex),
				Vector:   vectors[j],
				Metadata: c.Metadata,
				Text:     c.Text,
			}
		}

		if err := deps.VectorDB.UpsertBatch(ctx, deps.Pipeline.CollectionName, records); err != nil {
			return upserted, fmt.Errorf("upserting batch %d failed: %w", batchIndex, err)
		}
		upserted += len(records)

		if deps.Checkpoints != nil {
			if err := deps.Checkpoints.SaveCheckpoint(ctx, sourceFile, batchIndex); err != nil {
				log.Error("Could not save checkpoint", "error", err)
			}
		}
	}

	if deps.Checkpoints != nil {
		deps.Checkpoints.ClearCheckpoint(ctx, sourceFile)
	}
	return upserted, nil
}
