package classify

import (
	"context"

	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
)

// Prediction is one ranked label from the zero-shot capability. Score is
// probability-like, in [0,1].
type Prediction struct {
	Label cardModel.FlashcardType
	Score float64
}

// Capability is the external zero-shot classification model. Absence or
// failure is never fatal: the cascade probes Available first and treats a
// Classify error as "degrade this batch to the rule path".
type Capability interface {
	Available() bool
	Classify(ctx context.Context, texts []string, labels []cardModel.FlashcardType) ([]Prediction, error)
}

// Result is the cascade's final decision for one record.
type Result struct {
	Label  cardModel.FlashcardType
	Score  float64
	Source cardModel.ClassificationSource
}
