package enrich

import (
	"fmt"
	"strings"

	"github.com/akolanti/FlashRAG/internal/classify"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/google/uuid"
)

type Granularity string

const (
	PerFile      Granularity = "per_file"
	PerFlashcard Granularity = "per_flashcard"
)

// cardNamespace seeds the deterministic v5 ids so that re-ingesting the
// same file always addresses the same documents and chunks.
var cardNamespace = uuid.MustParse("7b68a2f4-31c6-48e8-9c2d-6f1b0a8d3e55")

// NewFlashcard is the metadata enricher: a pure transform from a cleaned
// record plus its classification into the immutable Flashcard.
func NewFlashcard(rec cardModel.RawRecord, cls classify.Result, sourceFile string, position int) cardModel.Flashcard {
	return cardModel.Flashcard{
		Term:                 rec.Term,
		Definition:           rec.Definition,
		SourceFile:           sourceFile,
		Position:             position,
		Type:                 cls.Label,
		ClassificationScore:  cls.Score,
		ClassificationSource: cls.Source,
	}
}

// BuildDocuments wraps enriched flashcards into logical documents. Either
// granularity carries enough metadata to reconstruct the originating
// flashcards without re-parsing the file.
func BuildDocuments(cards []cardModel.Flashcard, sourceFile string, granularity Granularity) []cardModel.Document {
	if granularity == PerFile {
		return []cardModel.Document{buildFileDocument(cards, sourceFile)}
	}

	docs := make([]cardModel.Document, 0, len(cards))
	for _, card := range cards {
		docs = append(docs, cardModel.Document{
			Id:      DocumentID(sourceFile, card.Position),
			Content: card.Text(),
			Metadata: map[string]any{
				"term":                  card.Term,
				"definition":            card.Definition,
				"source_file":           card.SourceFile,
				"position":              card.Position,
				"type":                  string(card.Type),
				"classification_score":  card.ClassificationScore,
				"classification_source": string(card.ClassificationSource),
			},
		})
	}
	return docs
}

func buildFileDocument(cards []cardModel.Flashcard, sourceFile string) cardModel.Document {
	var body strings.Builder
	for i, card := range cards {
		if i > 0 {
			body.WriteString("\n\n")
		}
		fmt.Fprintf(&body, "Card %d:\n%s", card.Position, card.Text())
	}
	return cardModel.Document{
		Id:      DocumentID(sourceFile, -1),
		Content: body.String(),
		Metadata: map[string]any{
			"source_file": sourceFile,
			"card_count":  len(cards),
		},
	}
}

// DocumentID is deterministic from document identity. position -1 denotes
// the whole-file document.
func DocumentID(sourceFile string, position int) string {
	return uuid.NewSHA1(cardNamespace, fmt.Appendf(nil, "%s|%d", sourceFile, position)).String()
}

// ChunkID is deterministic from chunk identity, which makes vector store
// upserts idempotent across ingestion runs.
func ChunkID(parentDocumentID string, chunkIndex int) string {
	return uuid.NewSHA1(cardNamespace, fmt.Appendf(nil, "%s|%d", parentDocumentID, chunkIndex)).String()
}
