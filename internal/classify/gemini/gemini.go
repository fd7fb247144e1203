package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/akolanti/FlashRAG/internal/classify"
	"github.com/akolanti/FlashRAG/internal/customHttpClient"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
	"google.golang.org/genai"
)

type zeroShotClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *zeroShotClient
var once sync.Once

// GetGeminiClassifier returns the shared zero-shot capability, or nil when
// the client cannot be created. Callers must treat nil as "no model" and
// rely on the rule fallback.
func GetGeminiClassifier(ctx context.Context, modelName string, apikey string) classify.Capability {
	once.Do(func() {
		logger = logger_i.NewLogger("classifier_gemini")
		newZeroShotClient(ctx, modelName, apikey)
	})

	if geminiClient == nil {
		return nil
	}
	return &zeroShotClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newZeroShotClient(ctx context.Context, modelName string, apikey string) {
	if apikey == "" {
		logger.Warn("No API key set, zero-shot classifier disabled")
		return
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, HTTPClient: customHttpClient.GetPooledClient()})
	if err != nil {
		logger.Error("Error creating Gemini classifier client:", "error", err)
		return
	}
	geminiClient = &zeroShotClient{client: c, modelName: modelName}
	logger.Info("Gemini zero-shot classifier created", "model", modelName)
	go closeClient(ctx, geminiClient)
}

func closeClient(ctx context.Context, c *zeroShotClient) {
	<-ctx.Done()
	logger.Info("Closing Gemini classifier client")
	c.client = nil
	c.modelName = ""
}

func (c *zeroShotClient) Available() bool {
	return c.client != nil
}

type batchPrediction struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify sends the whole batch in a single structured-output call and
// reassembles predictions in input order.
func (c *zeroShotClient) Classify(ctx context.Context, texts []string, labels []cardModel.FlashcardType) ([]classify.Prediction, error) {
	if c.client == nil {
		return nil, cardModel.ErrClassificationUnavailable
	}

	labelStrings := make([]string, len(labels))
	for i, l := range labels {
		labelStrings[i] = string(l)
	}

	contentConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"index": {Type: genai.TypeInteger},
					"label": {Type: genai.TypeString, Enum: labelStrings},
					"score": {Type: genai.TypeNumber},
				},
				Required: []string{"index", "label", "score"},
			},
		},
	}

	prompt := buildPrompt(texts, labelStrings)
	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), contentConfig)
	if err != nil {
		logger.Error("Zero-shot call failed", "error", err.Error())
		return nil, fmt.Errorf("%w: %v", cardModel.ErrClassificationUnavailable, err)
	}

	var raw []batchPrediction
	if err := json.Unmarshal([]byte(result.Text()), &raw); err != nil {
		logger.Error("Could not decode classifier response", "error", err.Error())
		return nil, fmt.Errorf("%w: bad response", cardModel.ErrClassificationUnavailable)
	}

	predictions := make([]classify.Prediction, len(texts))
	assigned := make([]bool, len(texts))
	for _, p := range raw {
		if p.Index < 0 || p.Index >= len(texts) {
			continue
		}
		predictions[p.Index] = classify.Prediction{Label: cardModel.FlashcardType(p.Label), Score: clamp01(p.Score)}
		assigned[p.Index] = true
	}
	for i, ok := range assigned {
		if !ok {
			logger.Warn("Classifier skipped a record", "index", i)
			return nil, fmt.Errorf("%w: incomplete batch", cardModel.ErrClassificationUnavailable)
		}
	}
	return predictions, nil
}

func buildPrompt(texts []string, labels []string) string {
	prompt := "Classify each numbered flashcard into exactly one of these types: "
	for i, l := range labels {
		if i > 0 {
			prompt += ", "
		}
		prompt += l
	}
	prompt += ". Report a confidence score between 0 and 1 for each.\n\n"
	for i, t := range texts {
		prompt += fmt.Sprintf("Card %d:\n%s\n\n", i, t)
	}
	return prompt
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
