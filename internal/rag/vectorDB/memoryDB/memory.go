package memoryDB

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
)

// Store is a brute-force cosine-similarity store keyed by record id. It
// backs tests and zero-infrastructure runs; Qdrant is the persistent
// production store. Readers overlap freely, writers are serialized by the
// collection lock.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	dimension int
	records   map[string]cardModel.VectorRecord
}

func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", cardModel.ErrVectorStore, dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.collections[name]; ok {
		if existing.dimension != dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, want %d",
				cardModel.ErrVectorStore, name, existing.dimension, dimension)
		}
		return nil
	}
	s.collections[name] = &collection{
		dimension: dimension,
		records:   make(map[string]cardModel.VectorRecord),
	}
	return nil
}

// UpsertBatch validates the whole batch before touching the map so a
// failed call leaves no partial write visible.
func (s *Store) UpsertBatch(ctx context.Context, name string, records []cardModel.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: unknown collection %s", cardModel.ErrVectorStore, name)
	}
	for _, rec := range records {
		if len(rec.Vector) != coll.dimension {
			return fmt.Errorf("%w: record %s has dimension %d, want %d",
				cardModel.ErrVectorStore, rec.Id, len(rec.Vector), coll.dimension)
		}
	}
	for _, rec := range records {
		coll.records[rec.Id] = rec
	}
	return nil
}

func (s *Store) Query(ctx context.Context, name string, vector []float32, k int, filter cardModel.Filter) ([]cardModel.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown collection %s", cardModel.ErrVectorStore, name)
	}
	if len(vector) != coll.dimension {
		return nil, fmt.Errorf("%w: got %d, store has %d", cardModel.ErrDimensionMismatch, len(vector), coll.dimension)
	}
	if k <= 0 {
		k = 5
	}

	results := make([]cardModel.SearchResult, 0, len(coll.records))
	for id, rec := range coll.records {
		if filter != nil && !filter.Matches(rec.Metadata) {
			continue
		}
		results = append(results, cardModel.SearchResult{
			Id:       id,
			Text:     rec.Text,
			Metadata: rec.Metadata,
			Score:    cosine(vector, rec.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Id < results[j].Id
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *Store) Delete(ctx context.Context, name string, filter cardModel.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: unknown collection %s", cardModel.ErrVectorStore, name)
	}
	for id, rec := range coll.records {
		if filter == nil || filter.Matches(rec.Metadata) {
			delete(coll.records, id)
		}
	}
	return nil
}

func (s *Store) CollectionDimension(ctx context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown collection %s", cardModel.ErrVectorStore, name)
	}
	return coll.dimension, nil
}

// Count is a test helper.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if coll, ok := s.collections[name]; ok {
		return len(coll.records)
	}
	return 0
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
