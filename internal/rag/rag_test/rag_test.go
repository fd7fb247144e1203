package rag_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/akolanti/FlashRAG/internal/classify"
	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/akolanti/FlashRAG/internal/domain/jobModel"
	"github.com/akolanti/FlashRAG/internal/loader"
	"github.com/akolanti/FlashRAG/internal/rag"
	"github.com/akolanti/FlashRAG/internal/rag/ingest"
)

func testService(vec *MockVectorDB, emb *MockEmbedder) rag.Service {
	pipeline := &config.PipelineConfig{}
	pipeline.Granularity = "per_flashcard"
	pipeline.ChunkStrategy = "no_split"
	pipeline.CollectionName = "flashcards"

	return rag.NewService(ingest.Dependencies{
		Cascade:  classify.NewCascade(nil, classify.CascadeOptions{}),
		Embedder: emb,
		VectorDB: vec,
		Cleaner:  loader.NewCleaner(loader.DedupePerFile),
		Pipeline: pipeline,
	})
}

func TestProcessQuery_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, v *MockVectorDB)
		expectedStep   jobModel.InternalStatus
		expectedStatus jobModel.JobStatus
		expectedErr    string
		expectRetry    bool
		expectResults  int
	}{
		{
			name: "Success_Full_Flow",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB) {
				v.OnQuery = func(ctx context.Context, coll string, vec []float32, k int, f cardModel.Filter) ([]cardModel.SearchResult, error) {
					return []cardModel.SearchResult{
						{Id: "a", Text: "Term: Mitosis", Score: 0.99},
						{Id: "b", Text: "Term: Osmosis", Score: 0.42},
					}, nil
				}
			},
			expectedStep:  jobModel.Complete,
			expectResults: 2,
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedErr:    "EMBEDDING_FAILURE",
			expectRetry:    true,
		},
		{
			name: "Failure_Dimension_Mismatch",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB) {
				v.OnCollectionDimension = func(ctx context.Context, coll string) (int, error) {
					return 1536, nil //query embedder produces 3
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedErr:    "DIMENSION_MISMATCH",
			expectRetry:    false,
		},
		{
			name: "Failure_Vector_Search",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB) {
				v.OnQuery = func(ctx context.Context, coll string, vec []float32, k int, f cardModel.Filter) ([]cardModel.SearchResult, error) {
					return nil, errors.New("db timeout")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedErr:    "VECTOR_DB_FAILURE",
			expectRetry:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mVec := &MockVectorDB{}
			tt.setupMocks(mEmbed, mVec)

			s := testService(mVec, mEmbed)

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			job := jobModel.Job{
				Id:      "test-job",
				JobType: jobModel.JobTypeQuery,
				JobPayload: jobModel.JobPayload{
					Question: "what process divides cells?",
					TopK:     5,
				},
			}

			result := s.ProcessQuery(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if tt.expectedStep != "" && result.CurrentStep != tt.expectedStep {
				t.Errorf("Step got %v, want %v", result.CurrentStep, tt.expectedStep)
			}
			if tt.expectResults > 0 && len(result.JobPayload.Results) != tt.expectResults {
				t.Errorf("Results got %d, want %d", len(result.JobPayload.Results), tt.expectResults)
			}
			if tt.expectedErr != "" {
				if result.Error.Code != http.StatusInternalServerError {
					t.Errorf("Error code got %d for %s", result.Error.Code, tt.expectedErr)
				}
				if result.Error.Message != tt.expectedErr {
					t.Errorf("Error message got %s, want %s", result.Error.Message, tt.expectedErr)
				}
				if result.Error.Retry != tt.expectRetry {
					t.Errorf("Retry got %v, want %v", result.Error.Retry, tt.expectRetry)
				}
			}
		})
	}
}

func TestProcessQuery_PassesFilterAndK(t *testing.T) {
	var gotK int
	var gotFilter cardModel.Filter

	mVec := &MockVectorDB{
		OnQuery: func(ctx context.Context, coll string, vec []float32, k int, f cardModel.Filter) ([]cardModel.SearchResult, error) {
			gotK = k
			gotFilter = f
			return nil, nil
		},
	}
	s := testService(mVec, &MockEmbedder{})

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	job := jobModel.Job{
		Id:      "test-job",
		JobType: jobModel.JobTypeQuery,
		JobPayload: jobModel.JobPayload{
			Question: "mitosis",
			TopK:     7,
			Filter:   cardModel.Filter{"type": "term_definition"},
		},
	}
	s.ProcessQuery(ctx, job)

	if gotK != 7 {
		t.Errorf("k got %d, want 7", gotK)
	}
	if gotFilter["type"] != "term_definition" {
		t.Errorf("filter not forwarded: %+v", gotFilter)
	}
}

func TestIngestFile_Scenarios(t *testing.T) {
	writeExport := func(t *testing.T) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "bio.tsv")
		content := "Mitosis\tThe process of cell division\nOsmosis\tWater diffusion through a membrane"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("could not write test export: %v", err)
		}
		return path
	}

	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, v *MockVectorDB)
		expectedStatus jobModel.JobStatus
	}{
		{
			name:           "Ingestion_Success",
			setupMocks:     func(e *MockEmbedder, v *MockVectorDB) {},
			expectedStatus: jobModel.JobStatusComplete,
		},
		{
			name: "Failure_Collection_Creation",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB) {
				v.OnEnsureCollection = func(ctx context.Context, coll string, dim int) error {
					return errors.New("connection refused")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
		{
			name: "Failure_Embedding_Fatal",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB) {
				e.OnBatchEmbedding = func(ctx context.Context, chunks []string) ([][]float32, error) {
					return nil, cardModel.ErrEmbeddingUnavailable
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
		{
			name: "Failure_Batch_Upsert",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB) {
				v.OnUpsertBatch = func(ctx context.Context, coll string, records []cardModel.VectorRecord) error {
					return errors.New("disk full")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mVec := &MockVectorDB{}
			tt.setupMocks(mEmbed, mVec)

			s := testService(mVec, mEmbed)

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			job := jobModel.Job{
				Id:      "ingest-job",
				JobType: jobModel.JobTypeIngest,
				JobPayload: jobModel.JobPayload{
					IngestFileName: "bio.tsv",
					IngestURL:      writeExport(t),
				},
			}

			result := s.IngestFile(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v (error: %s)", result.Status, tt.expectedStatus, result.Error.Message)
			}
			if tt.expectedStatus == jobModel.JobStatusComplete {
				if result.JobPayload.Report == nil {
					t.Fatal("completed ingest carries no report")
				}
				if result.JobPayload.Report.RecordsParsed != 2 || result.JobPayload.Report.ChunksUpserted != 2 {
					t.Errorf("report wrong: %+v", result.JobPayload.Report)
				}
			}
		})
	}
}

func TestIngestFile_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("prose without any structure at all"), 0644); err != nil {
		t.Fatal(err)
	}

	s := testService(&MockVectorDB{}, &MockEmbedder{})
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	job := jobModel.Job{
		Id:      "bad-format",
		JobType: jobModel.JobTypeIngest,
		JobPayload: jobModel.JobPayload{
			IngestFileName: "notes.txt",
			IngestURL:      path,
		},
	}

	result := s.IngestFile(ctx, job)
	if result.Status != jobModel.JobStatusError {
		t.Fatalf("unsupported format should fail the job, got %v", result.Status)
	}
}
