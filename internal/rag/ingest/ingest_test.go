package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/akolanti/FlashRAG/internal/classify"
	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/data/store"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/akolanti/FlashRAG/internal/domain/jobModel"
	"github.com/akolanti/FlashRAG/internal/loader"
	"github.com/akolanti/FlashRAG/internal/rag/vectorDB/memoryDB"
)

// keywordEmbedder maps texts onto fixed axes so similarity is predictable
// without a live embedding provider.
type keywordEmbedder struct {
	batchCalls int32
	failBatch  int32 //1-based call number that errors, 0 disables
}

func (k *keywordEmbedder) Dimension() int { return 3 }

func (k *keywordEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return k.vectorFor(query), nil
}

func (k *keywordEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	call := atomic.AddInt32(&k.batchCalls, 1)
	if k.failBatch != 0 && call == k.failBatch {
		return nil, fmt.Errorf("%w: synthetic outage", cardModel.ErrEmbeddingUnavailable)
	}
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		vectors[i] = k.vectorFor(c)
	}
	return vectors, nil
}

func (k *keywordEmbedder) vectorFor(text string) []float32 {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "divi"): //division, divides
		return []float32{1, 0, 0}
	case strings.Contains(lower, "water"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func testDeps(t *testing.T, embedder *keywordEmbedder) Dependencies {
	t.Helper()
	pipeline := &config.PipelineConfig{
		Granularity:    "per_flashcard",
		ChunkStrategy:  "no_split",
		CollectionName: "flashcards-test",
	}
	return Dependencies{
		Cascade:     classify.NewCascade(nil, classify.CascadeOptions{}),
		Embedder:    embedder,
		VectorDB:    memoryDB.NewStore(),
		Checkpoints: store.InitInMemoryCheckpointStore(),
		Cleaner:     loader.NewCleaner(loader.DedupePerFile),
		Pipeline:    pipeline,
	}
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bio.tsv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("could not write export: %v", err)
	}
	return path
}

func ingestJob(path string) jobModel.Job {
	return ingestJobFor("bio.tsv", path)
}

func ingestJobFor(sourceFile, path string) jobModel.Job {
	return jobModel.Job{
		Id:      "ingest-" + sourceFile,
		TraceId: "trace-" + sourceFile,
		JobType: jobModel.JobTypeIngest,
		JobPayload: jobModel.JobPayload{
			IngestFileName: sourceFile,
			IngestURL:      path,
		},
	}
}

func TestProcessFileIngestion_Report(t *testing.T) {
	content := strings.Join([]string{
		"Term\tDefinition",
		"Mitosis\tThe process of cell division",
		"Mitosis\tThe process of cell division", //duplicate
		"True or False: Mitosis produces four daughter cells\tFalse",
		"malformed line without a tab",
		"Osmosis\tWater diffusion through a membrane",
	}, "\n")

	deps := testDeps(t, &keywordEmbedder{})
	result := ProcessFileIngestion(context.Background(), ingestJob(writeExport(t, content)), deps)

	if result.Status != jobModel.JobStatusComplete {
		t.Fatalf("ingestion failed: %s", result.Error.Message)
	}
	report := result.JobPayload.Report
	if report == nil {
		t.Fatal("no report attached")
	}

	if report.Format != string(loader.FormatTab) {
		t.Errorf("format got %s", report.Format)
	}
	if report.RecordsParsed != 4 {
		t.Errorf("records parsed got %d, want 4", report.RecordsParsed)
	}
	if report.ParseWarnings != 1 {
		t.Errorf("parse warnings got %d, want 1", report.ParseWarnings)
	}
	if report.DuplicatesRemoved != 1 {
		t.Errorf("duplicates got %d, want 1", report.DuplicatesRemoved)
	}
	if report.ChunksUpserted != 3 {
		t.Errorf("chunks upserted got %d, want 3", report.ChunksUpserted)
	}
	// rule-only run: the true/false card via rule, the rest default
	if report.ClassifiedByRule != 1 || report.ClassifiedByDefault != 2 {
		t.Errorf("classification counts wrong: %+v", report)
	}
}

func TestProcessFileIngestion_Idempotent(t *testing.T) {
	content := "Mitosis\tThe process of cell division\nOsmosis\tWater diffusion through a membrane"

	deps := testDeps(t, &keywordEmbedder{})
	memStore := deps.VectorDB.(*memoryDB.Store)

	first := ProcessFileIngestion(context.Background(), ingestJob(writeExport(t, content)), deps)
	if first.Status != jobModel.JobStatusComplete {
		t.Fatalf("first ingestion failed: %s", first.Error.Message)
	}
	countAfterFirst := memStore.Count("flashcards-test")

	second := ProcessFileIngestion(context.Background(), ingestJob(writeExport(t, content)), deps)
	if second.Status != jobModel.JobStatusComplete {
		t.Fatalf("second ingestion failed: %s", second.Error.Message)
	}

	if got := memStore.Count("flashcards-test"); got != countAfterFirst {
		t.Errorf("re-ingestion grew the store from %d to %d", countAfterFirst, got)
	}
}

func TestProcessFileIngestion_RetrievalRoundTrip(t *testing.T) {
	content := "Mitosis\tThe process of cell division\nOsmosis\tWater diffusion through a membrane"

	embedder := &keywordEmbedder{}
	deps := testDeps(t, embedder)

	result := ProcessFileIngestion(context.Background(), ingestJob(writeExport(t, content)), deps)
	if result.Status != jobModel.JobStatusComplete {
		t.Fatalf("ingestion failed: %s", result.Error.Message)
	}

	queryVec, _ := embedder.GetEmbedding(context.Background(), "what process divides a cell?")
	hits, err := deps.VectorDB.Query(context.Background(), "flashcards-test", queryVec, 1, nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if !strings.Contains(hits[0].Text, "Mitosis") {
		t.Errorf("top hit should be the mitosis card, got %q", hits[0].Text)
	}
	if hits[0].Metadata["source_file"] != "bio.tsv" {
		t.Errorf("hit metadata missing provenance: %+v", hits[0].Metadata)
	}
}

// Ingest jobs run on a worker pool that grows with every upload, so the
// shared dependency set must hold up under parallel files.
func TestProcessFileIngestion_ConcurrentFiles(t *testing.T) {
	deps := testDeps(t, &keywordEmbedder{})
	memStore := deps.VectorDB.(*memoryDB.Store)

	const jobs = 4
	dir := t.TempDir()
	results := make([]jobModel.Job, jobs)

	var wg sync.WaitGroup
	for j := 0; j < jobs; j++ {
		content := strings.Join([]string{
			fmt.Sprintf("Term %d-a\tDefinition for card a of file %d", j, j),
			fmt.Sprintf("Term %d-b\tDefinition for card b of file %d", j, j),
			fmt.Sprintf("Term %d-a\tDefinition for card a of file %d", j, j), //duplicate
			fmt.Sprintf("Term %d-c\tDefinition for card c of file %d", j, j),
		}, "\n")
		path := filepath.Join(dir, fmt.Sprintf("deck%d.tsv", j))
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		wg.Add(1)
		go func(j int, path string) {
			defer wg.Done()
			results[j] = ProcessFileIngestion(context.Background(),
				ingestJobFor(fmt.Sprintf("deck%d.tsv", j), path), deps)
		}(j, path)
	}
	wg.Wait()

	for j, result := range results {
		if result.Status != jobModel.JobStatusComplete {
			t.Fatalf("job %d failed: %s", j, result.Error.Message)
		}
		report := result.JobPayload.Report
		if report.SourceFile != fmt.Sprintf("deck%d.tsv", j) {
			t.Errorf("job %d got report for %s", j, report.SourceFile)
		}
		if report.RecordsParsed != 4 || report.DuplicatesRemoved != 1 || report.ChunksUpserted != 3 {
			t.Errorf("job %d report contaminated by a sibling job: %+v", j, report)
		}
	}

	if got := memStore.Count("flashcards-test"); got != jobs*3 {
		t.Errorf("store holds %d records, want %d", got, jobs*3)
	}
}

func TestBatchIngest_CheckpointResume(t *testing.T) {
	ctx := context.Background()

	pipeline := &config.PipelineConfig{CollectionName: "resume-test"}
	embedder := &keywordEmbedder{failBatch: 2} //second batch of the first run fails
	deps := Dependencies{
		Embedder:    embedder,
		VectorDB:    memoryDB.NewStore(),
		Checkpoints: store.InitInMemoryCheckpointStore(),
		Pipeline:    pipeline,
	}
	if err := deps.VectorDB.EnsureCollection(ctx, "resume-test", 3); err != nil {
		t.Fatal(err)
	}

	total := config.EmbeddingBatchSize + 50 //two batches
	chunks := make([]cardModel.Chunk, total)
	for i := range chunks {
		chunks[i] = cardModel.Chunk{
			Text:             fmt.Sprintf("card %d about cell division", i),
			Metadata:         map[string]any{"position": i},
			ParentDocumentID: "parent-doc",
			ChunkIndex:       i,
		}
	}

	upserted, err := BatchIngest(ctx, "bio.tsv", chunks, deps)
	if !errors.Is(err, cardModel.ErrEmbeddingUnavailable) {
		t.Fatalf("expected embedding failure, got %v", err)
	}
	if upserted != config.EmbeddingBatchSize {
		t.Fatalf("first run should have committed one batch, got %d", upserted)
	}
	if done, found := deps.Checkpoints.GetCheckpoint(ctx, "bio.tsv"); !found || done != 1 {
		t.Fatalf("checkpoint after failure: done=%d found=%v", done, found)
	}

	// retry: batch one must be skipped, only the remainder embedded
	callsBefore := atomic.LoadInt32(&embedder.batchCalls)
	upserted, err = BatchIngest(ctx, "bio.tsv", chunks, deps)
	if err != nil {
		t.Fatalf("resume run failed: %v", err)
	}
	if upserted != 50 {
		t.Errorf("resume should write only the remaining chunks, got %d", upserted)
	}
	if got := atomic.LoadInt32(&embedder.batchCalls); got != callsBefore+1 {
		t.Errorf("resume re-embedded skipped batches: %d calls", got-callsBefore)
	}
	if _, found := deps.Checkpoints.GetCheckpoint(ctx, "bio.tsv"); found {
		t.Error("checkpoint not cleared after completed run")
	}

	memStore := deps.VectorDB.(*memoryDB.Store)
	if got := memStore.Count("resume-test"); got != total {
		t.Errorf("store holds %d records, want %d", got, total)
	}
}
