package chunking

import (
	"strings"
	"testing"

	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
)

func cardDocument() cardModel.Document {
	return cardModel.Document{
		Id:      "doc-1",
		Content: "Term: Mitosis\nDefinition: The process of cell division",
		Metadata: map[string]any{
			"term":        "Mitosis",
			"definition":  "The process of cell division",
			"source_file": "bio.tsv",
			"position":    0,
			"type":        "term_definition",
		},
	}
}

func TestForName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"no_split", false},
		{"", false},
		{"term_definition", false},
		{"recursive", false},
		{"sliding_window", true},
	}
	for _, tt := range tests {
		_, err := ForName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ForName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestNoSplit(t *testing.T) {
	doc := cardDocument()
	chunks := NoSplit{}.Split(doc)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != doc.Content {
		t.Errorf("chunk text differs from document content")
	}
	if chunks[0].ParentDocumentID != doc.Id || chunks[0].ChunkIndex != 0 {
		t.Errorf("chunk identity wrong: %+v", chunks[0])
	}
	if chunks[0].Metadata["source_file"] != "bio.tsv" {
		t.Errorf("parent metadata not propagated")
	}
}

func TestTermDefinitionSplit(t *testing.T) {
	doc := cardDocument()
	chunks := TermDefinitionSplit{}.Split(doc)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "Term: Mitosis" || chunks[0].Metadata["chunk_type"] != "term" {
		t.Errorf("term chunk wrong: %+v", chunks[0])
	}
	if chunks[1].Text != "Definition: The process of cell division" || chunks[1].Metadata["chunk_type"] != "definition" {
		t.Errorf("definition chunk wrong: %+v", chunks[1])
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, c.ChunkIndex)
		}
		if c.Metadata["type"] != "term_definition" {
			t.Errorf("chunk %d lost flashcard metadata", i)
		}
	}
}

func TestTermDefinitionSplit_NonCardDocument(t *testing.T) {
	doc := cardModel.Document{
		Id:       "doc-file",
		Content:  "Card 0:\nTerm: Mitosis\nDefinition: Cell division",
		Metadata: map[string]any{"source_file": "bio.tsv", "card_count": 1},
	}
	chunks := TermDefinitionSplit{}.Split(doc)
	if len(chunks) != 1 {
		t.Fatalf("whole-file document should pass through whole, got %d chunks", len(chunks))
	}
}

func TestRecursive_RespectsMaxSize(t *testing.T) {
	sentences := make([]string, 20)
	for i := range sentences {
		sentences[i] = "This is a reasonably long sentence about cell biology"
	}
	doc := cardModel.Document{
		Id:       "doc-long",
		Content:  strings.Join(sentences, ". "),
		Metadata: map[string]any{"source_file": "notes.txt"},
	}

	r := NewRecursive(120, 20)
	chunks := r.Split(doc)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > 120+20 {
			t.Errorf("chunk %d exceeds limit: %d chars", i, len(c.Text))
		}
		if c.ChunkIndex != i {
			t.Errorf("chunk %d carries index %d", i, c.ChunkIndex)
		}
	}
}

func TestRecursive_OverlapNeverSplitsWords(t *testing.T) {
	doc := cardModel.Document{
		Id:       "doc-words",
		Content:  strings.Repeat("photosynthesis chlorophyll mitochondria ", 30),
		Metadata: map[string]any{},
	}

	r := NewRecursive(100, 25)
	chunks := r.Split(doc)

	words := map[string]bool{"photosynthesis": true, "chlorophyll": true, "mitochondria": true}
	for i, c := range chunks {
		first := strings.Fields(c.Text)
		if len(first) == 0 {
			continue
		}
		if !words[strings.TrimSpace(first[0])] {
			t.Errorf("chunk %d starts mid-word: %q", i, first[0])
		}
	}
}

func TestRecursive_ShortTextStaysWhole(t *testing.T) {
	doc := cardDocument()
	r := NewRecursive(500, 50)
	chunks := r.Split(doc)
	if len(chunks) != 1 {
		t.Fatalf("short document should stay whole, got %d chunks", len(chunks))
	}
}
