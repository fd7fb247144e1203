package openaiEmbedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/akolanti/FlashRAG/internal/rag/embedding"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	api   openai.Client
	model string
}

// GetOpenAIEmbeddingClient is the drop-in alternative to the Google
// embedder. Corpora are not interchangeable between providers, so the
// provider choice is part of the pipeline config, not a runtime fallback.
func GetOpenAIEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		if apikey == "" {
			logger.Error("No OpenAI API key configured")
			return
		}
		embeddingClient = &client{
			api:   openai.NewClient(option.WithAPIKey(apikey)),
			model: modelName,
		}
		logger.Info("OpenAI Embedding client created", "model", modelName)
	})

	if embeddingClient == nil {
		return nil
	}
	return &client{api: embeddingClient.api, model: embeddingClient.model}
}

func (c *client) Dimension() int {
	return int(config.EmbeddingOutputDimensionality)
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	var resp *openai.CreateEmbeddingResponse
	var err error
	for attempt := 1; attempt <= config.EmbeddingMaxAttempts; attempt++ {
		resp, err = c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: chunks},
			Model:      openai.EmbeddingModel(c.model),
			Dimensions: openai.Int(int64(config.EmbeddingOutputDimensionality)),
		})
		if err == nil {
			break
		}
		if attempt < config.EmbeddingMaxAttempts {
			log.Warn("Retrying embedding batch", "attempt", attempt, "error", err)
			select {
			case <-time.After(config.EmbeddingRetryBackoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", cardModel.ErrEmbeddingUnavailable, ctx.Err())
			}
		}
	}
	if err != nil {
		log.Error("Embedding batch exhausted retries", "error", err)
		return nil, fmt.Errorf("%w: %v", cardModel.ErrEmbeddingUnavailable, err)
	}
	if len(resp.Data) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", cardModel.ErrEmbeddingUnavailable, len(resp.Data), len(chunks))
	}

	vectors := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		vectors[item.Index] = vec
	}
	return vectors, nil
}
