package embedding

import "context"

// Embedder converts text into fixed-length vectors. BatchEmbedding must
// return one vector per input in input order; transient failures are
// retried internally and exhaustion surfaces cardModel.ErrEmbeddingUnavailable.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
	Dimension() int
}
