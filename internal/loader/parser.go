package loader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
)

// ParseResult keeps the ordered records together with the warning counter so
// a malformed line never aborts its siblings.
type ParseResult struct {
	Records  []cardModel.RawRecord
	Warnings int
}

// Parse extracts raw (term, definition) pairs in file order. Parsing is a
// single forward pass; calling Parse again re-reads from the start.
func Parse(content []byte, format Format) (ParseResult, error) {
	if format == FormatStructured {
		return parseStructured(content)
	}
	return parseDelimited(content, format.Delimiter()), nil
}

type structuredCard struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

func parseStructured(content []byte) (ParseResult, error) {
	var cards []structuredCard
	if err := json.Unmarshal(bytes.TrimSpace(content), &cards); err != nil {
		return ParseResult{}, fmt.Errorf("structured parse failed: %w", cardModel.ErrUnsupportedFormat)
	}

	var res ParseResult
	for i, card := range cards {
		if card.Term == "" && card.Definition == "" {
			res.Warnings++
			continue
		}
		res.Records = append(res.Records, cardModel.RawRecord{
			Term:       card.Term,
			Definition: card.Definition,
			SourceLine: i + 1,
		})
	}
	return res, nil
}

func parseDelimited(content []byte, delimiter string) ParseResult {
	var res ParseResult

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		// a header row is permitted; recognized on the first line only
		if lineNum == 1 && isHeaderRow(line, delimiter) {
			continue
		}

		parts := strings.SplitN(line, delimiter, 2)
		if len(parts) < 2 {
			res.Warnings++
			continue
		}
		res.Records = append(res.Records, cardModel.RawRecord{
			Term:       parts[0],
			Definition: parts[1],
			SourceLine: lineNum,
		})
	}
	return res
}

func isHeaderRow(line, delimiter string) bool {
	parts := strings.SplitN(line, delimiter, 2)
	if len(parts) < 2 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(parts[0]))
	second := strings.ToLower(strings.TrimSpace(parts[1]))
	return (first == "term" || first == "front" || first == "question") &&
		(second == "definition" || second == "back" || second == "answer")
}
