package chunking

import (
	"fmt"
	"maps"
	"strings"

	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
)

// Strategy turns one document into retrievable chunks. Every variant
// propagates the parent document's full metadata onto each chunk and adds
// its own chunk_index.
type Strategy interface {
	Split(doc cardModel.Document) []cardModel.Chunk
}

func ForName(name string) (Strategy, error) {
	switch name {
	case "no_split", "":
		return NoSplit{}, nil
	case "term_definition":
		return TermDefinitionSplit{}, nil
	case "recursive":
		return NewRecursive(config.MaxChunkSize, config.ChunkOverlap), nil
	}
	return nil, fmt.Errorf("unknown chunk strategy %q", name)
}

// NoSplit keeps flashcards atomic: one chunk per document.
type NoSplit struct{}

func (NoSplit) Split(doc cardModel.Document) []cardModel.Chunk {
	return []cardModel.Chunk{newChunk(doc, doc.Content, 0, nil)}
}

// TermDefinitionSplit emits separate term and definition chunks for
// per-flashcard documents, which retrieves better on term-only queries.
// Documents without term metadata pass through whole.
type TermDefinitionSplit struct{}

func (TermDefinitionSplit) Split(doc cardModel.Document) []cardModel.Chunk {
	term, tok := doc.Metadata["term"].(string)
	definition, dok := doc.Metadata["definition"].(string)
	if !tok || !dok {
		return NoSplit{}.Split(doc)
	}
	return []cardModel.Chunk{
		newChunk(doc, "Term: "+term, 0, map[string]any{"chunk_type": "term"}),
		newChunk(doc, "Definition: "+definition, 1, map[string]any{"chunk_type": "definition"}),
	}
}

// Recursive splits overlong text on a separator hierarchy (paragraph,
// line, sentence, word) under a maximum size with overlap. It never cuts
// inside a word: a single token longer than the limit is emitted whole.
type Recursive struct {
	MaxSize int
	Overlap int
}

func NewRecursive(maxSize, overlap int) Recursive {
	if maxSize <= 0 {
		maxSize = config.MaxChunkSize
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = maxSize / 10
	}
	return Recursive{MaxSize: maxSize, Overlap: overlap}
}

var separators = []string{"\n\n", "\n", ". ", " "}

func (r Recursive) Split(doc cardModel.Document) []cardModel.Chunk {
	parts := r.splitText(doc.Content, separators)
	chunks := make([]cardModel.Chunk, 0, len(parts))
	for i, text := range parts {
		chunks = append(chunks, newChunk(doc, text, i, nil))
	}
	return chunks
}

func (r Recursive) splitText(text string, seps []string) []string {
	if len(text) <= r.MaxSize || len(seps) == 0 {
		return []string{text}
	}

	sep := seps[0]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return r.splitText(text, seps[1:])
	}

	// pieces are each within the limit (or indivisible); merge greedily
	var pieces []string
	for _, part := range parts {
		pieces = append(pieces, r.splitText(part, seps[1:])...)
	}
	return r.merge(pieces, sep)
}

func (r Recursive) merge(pieces []string, sep string) []string {
	var out []string
	var current strings.Builder

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(sep)+len(piece) > r.MaxSize {
			chunk := current.String()
			out = append(out, chunk)
			current.Reset()
			current.WriteString(overlapSuffix(chunk, r.Overlap))
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

// overlapSuffix takes roughly n trailing characters, snapped forward to a
// word boundary so the overlap never starts mid-word.
func overlapSuffix(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return ""
	}
	suffix := s[len(s)-n:]
	if cut := strings.IndexAny(suffix, " \n"); cut >= 0 {
		return strings.TrimLeft(suffix[cut:], " \n")
	}
	return ""
}

func newChunk(doc cardModel.Document, text string, index int, extra map[string]any) cardModel.Chunk {
	metadata := make(map[string]any, len(doc.Metadata)+len(extra)+1)
	maps.Copy(metadata, doc.Metadata)
	maps.Copy(metadata, extra)
	metadata["chunk_index"] = index
	return cardModel.Chunk{
		Text:             text,
		Metadata:         metadata,
		ParentDocumentID: doc.Id,
		ChunkIndex:       index,
	}
}
