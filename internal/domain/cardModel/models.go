package cardModel

import "fmt"

type FlashcardType string

const (
	TermDefinition   FlashcardType = "term_definition"
	MultipleChoice   FlashcardType = "multiple_choice"
	FillInBlank      FlashcardType = "fill_in_blank"
	TrueFalse        FlashcardType = "true_false"
	ListStages       FlashcardType = "list_stages"
	ExampleToConcept FlashcardType = "example_to_concept"
	QuestionAnswer   FlashcardType = "question_answer"
	Other            FlashcardType = "other"
)

// CandidateLabels is the canonical label set, in the order handed to the
// classification capability.
var CandidateLabels = []FlashcardType{
	TermDefinition,
	MultipleChoice,
	FillInBlank,
	TrueFalse,
	ListStages,
	ExampleToConcept,
	QuestionAnswer,
	Other,
}

type ClassificationSource string

const (
	SourceModel    ClassificationSource = "model"
	SourceRule     ClassificationSource = "rule"
	SourceOverride ClassificationSource = "override"
	SourceDefault  ClassificationSource = "default"
)

// RawRecord is a parsed but not yet cleaned (term, definition) pair.
// It lives only between the parser and the cleaner.
type RawRecord struct {
	Term       string
	Definition string
	SourceLine int
}

// Flashcard is immutable once built by the enricher.
type Flashcard struct {
	Term                 string               `json:"term"`
	Definition           string               `json:"definition"`
	SourceFile           string               `json:"source_file"`
	Position             int                  `json:"position"`
	Type                 FlashcardType        `json:"type"`
	ClassificationScore  float64              `json:"classification_score"`
	ClassificationSource ClassificationSource `json:"classification_source"`
}

// Text renders the card the way the classifier and embedder see it.
func (f Flashcard) Text() string {
	return fmt.Sprintf("Term: %s\nDefinition: %s", f.Term, f.Definition)
}

type Document struct {
	Id       string
	Content  string
	Metadata map[string]any
}

// Chunk is disposable; it can always be regenerated from its Document.
type Chunk struct {
	Text             string
	Metadata         map[string]any
	ParentDocumentID string
	ChunkIndex       int
}

// VectorRecord is what the vector store persists. Id is deterministic from
// chunk identity so re-ingestion upserts in place instead of duplicating.
type VectorRecord struct {
	Id       string
	Vector   []float32
	Metadata map[string]any
	Text     string
}

type SearchResult struct {
	Id       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// Filter is a metadata predicate: each key must match by equality, or by
// membership when the value is a slice.
type Filter map[string]any

// Matches evaluates the filter against a chunk metadata map.
func (f Filter) Matches(metadata map[string]any) bool {
	for key, want := range f {
		got, ok := metadata[key]
		if !ok {
			return false
		}
		switch wantVals := want.(type) {
		case []any:
			found := false
			for _, w := range wantVals {
				if equalValue(got, w) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case []string:
			found := false
			for _, w := range wantVals {
				if equalValue(got, w) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if !equalValue(got, want) {
				return false
			}
		}
	}
	return true
}

// equalValue compares loosely across the numeric and stringy types that
// survive a JSON round trip.
func equalValue(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// IngestReport is the user-visible outcome of one file's ingestion.
type IngestReport struct {
	SourceFile        string `json:"source_file"`
	Format            string `json:"format"`
	RecordsParsed     int    `json:"records_parsed"`
	ParseWarnings     int    `json:"parse_warnings"`
	RecordsDropped    int    `json:"records_dropped"`
	DuplicatesRemoved int    `json:"duplicates_removed"`
	ChunksUpserted    int    `json:"chunks_upserted"`

	ClassifiedByModel    int `json:"classified_by_model"`
	ClassifiedByRule     int `json:"classified_by_rule"`
	ClassifiedByOverride int `json:"classified_by_override"`
	ClassifiedByDefault  int `json:"classified_by_default"`
}

func (r *IngestReport) CountSource(src ClassificationSource) {
	switch src {
	case SourceModel:
		r.ClassifiedByModel++
	case SourceRule:
		r.ClassifiedByRule++
	case SourceOverride:
		r.ClassifiedByOverride++
	default:
		r.ClassifiedByDefault++
	}
}
