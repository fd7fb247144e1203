package vectorDB

import (
	"context"

	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
)

// DataStore is a persistent keyed vector collection. Upserts are
// idempotent by record id; queries return cosine-similarity matches with
// an optional metadata predicate, ties broken by ascending id. Writes are
// visible to any query issued afterward on the same handle. Concurrent
// mutation from independent processes is out of contract.
type DataStore interface {
	EnsureCollection(ctx context.Context, collection string, dimension int) error
	UpsertBatch(ctx context.Context, collection string, records []cardModel.VectorRecord) error
	Query(ctx context.Context, collection string, vector []float32, k int, filter cardModel.Filter) ([]cardModel.SearchResult, error)
	Delete(ctx context.Context, collection string, filter cardModel.Filter) error
	CollectionDimension(ctx context.Context, collection string) (int, error)
}
