package rag_test

import (
	"context"

	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
)

// MockVectorDB implements vectorDB.DataStore
type MockVectorDB struct {
	OnEnsureCollection    func(ctx context.Context, collection string, dimension int) error
	OnUpsertBatch         func(ctx context.Context, collection string, records []cardModel.VectorRecord) error
	OnQuery               func(ctx context.Context, collection string, vector []float32, k int, filter cardModel.Filter) ([]cardModel.SearchResult, error)
	OnDelete              func(ctx context.Context, collection string, filter cardModel.Filter) error
	OnCollectionDimension func(ctx context.Context, collection string) (int, error)
}

func (m *MockVectorDB) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if m.OnEnsureCollection != nil {
		return m.OnEnsureCollection(ctx, collection, dimension)
	}
	return nil
}

func (m *MockVectorDB) UpsertBatch(ctx context.Context, collection string, records []cardModel.VectorRecord) error {
	if m.OnUpsertBatch != nil {
		return m.OnUpsertBatch(ctx, collection, records)
	}
	return nil
}

func (m *MockVectorDB) Query(ctx context.Context, collection string, vector []float32, k int, filter cardModel.Filter) ([]cardModel.SearchResult, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, collection, vector, k, filter)
	}
	return []cardModel.SearchResult{}, nil
}

func (m *MockVectorDB) Delete(ctx context.Context, collection string, filter cardModel.Filter) error {
	if m.OnDelete != nil {
		return m.OnDelete(ctx, collection, filter)
	}
	return nil
}

func (m *MockVectorDB) CollectionDimension(ctx context.Context, collection string) (int, error) {
	if m.OnCollectionDimension != nil {
		return m.OnCollectionDimension(ctx, collection)
	}
	return 3, nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks)
	}
	vectors := make([][]float32, len(chunks))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func (m *MockEmbedder) Dimension() int { return 3 }
