package googleEmbedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/customHttpClient"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/akolanti/FlashRAG/internal/rag/embedding"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
	"google.golang.org/genai"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = config.EmbeddingOutputDimensionality

type client struct {
	genAi *genai.Client
	model string
}

func newGoogleEmbedder(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, HTTPClient: customHttpClient.GetPooledClient()})
	if err != nil {
		logger.Error("Error creating Google Embedding client:", "error", err)
		return
	}
	embeddingClient = &client{
		genAi: c,
		model: modelName,
	}
	logger.Info("Google Embedding client created", "model", modelName)
	go closeClient(ctx, embeddingClient)
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Closing Google Embedding client")
	embeddingClient.genAi = nil
	embeddingClient.model = ""
}

func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		newGoogleEmbedder(ctx, modelName, apikey)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return &client{genAi: embeddingClient.genAi, model: embeddingClient.model}
}

func (c *client) Dimension() int {
	return int(dimension)
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	result, err := c.doCall(ctx, genai.Text(query), "RETRIEVAL_QUERY")
	if err != nil {
		log.Error("Error getting query embedding from Google", "error", err.Error())
		return nil, fmt.Errorf("%w: %v", cardModel.ErrEmbeddingUnavailable, err)
	}
	return result.Embeddings[0].Values, nil
}

// BatchEmbedding embeds the chunks in one call, retrying transient
// failures with backoff. Exhausting the attempt budget is fatal for the
// ingestion job; a partial corpus would silently degrade retrieval.
func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	var res *genai.EmbedContentResponse
	var err error
	for attempt := 1; attempt <= config.EmbeddingMaxAttempts; attempt++ {
		res, err = c.doCall(ctx, getContent(chunks), "RETRIEVAL_DOCUMENT")
		if err == nil && res != nil {
			break
		}
		if !isRetryable(err) {
			log.Error("Non-retryable embedding failure", "error", err)
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
	if err != nil || res == nil {
		log.Error("Embedding batch exhausted retries", "error", err)
		return nil, fmt.Errorf("%w: %v", cardModel.ErrEmbeddingUnavailable, err)
	}

	embeddingResults := make([][]float32, 0, len(res.Embeddings))
	for _, r := range res.Embeddings {
		embeddingResults = append(embeddingResults, r.Values)
	}
	if len(embeddingResults) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", cardModel.ErrEmbeddingUnavailable, len(embeddingResults), len(chunks))
	}
	return embeddingResults, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content, taskType string) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: taskType})
}
