package loader

import (
	"encoding/json"
	"strings"

	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
)

type Format string

const (
	FormatStructured Format = "structured"
	FormatTab        Format = "tab-delimited"
	FormatComma      Format = "comma-delimited"
)

func (f Format) Delimiter() string {
	if f == FormatComma {
		return ","
	}
	return "\t"
}

// DetectFormat identifies the export encoding of a file. A structured parse
// is attempted first; delimiter sniffing over the first lines is the
// fallback. The name hint only short-circuits the obvious extensions, the
// content always has the final say for everything else.
func DetectFormat(content []byte, nameHint string) (Format, error) {
	if looksStructured(content, nameHint) {
		return FormatStructured, nil
	}

	switch {
	case strings.HasSuffix(strings.ToLower(nameHint), ".tsv"):
		return FormatTab, nil
	case strings.HasSuffix(strings.ToLower(nameHint), ".csv"):
		return FormatComma, nil
	}

	return sniffDelimiter(string(content))
}

func looksStructured(content []byte, nameHint string) bool {
	trimmed := strings.TrimSpace(string(content))
	if !strings.HasPrefix(trimmed, "[") && !strings.HasSuffix(strings.ToLower(nameHint), ".json") {
		return false
	}
	var probe []map[string]any
	return json.Unmarshal([]byte(trimmed), &probe) == nil
}

// sniffDelimiter counts tab and comma occurrences over the first
// DelimiterSniffLines non-empty lines. A delimiter wins when it appears on
// at least DelimiterMinFraction of those lines; otherwise the file is
// unsupported.
func sniffDelimiter(content string) (Format, error) {
	lines := 0
	tabLines := 0
	commaLines := 0

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++
		if strings.Count(line, "\t") >= config.DelimiterMinPerLine {
			tabLines++
		}
		if strings.Count(line, ",") >= config.DelimiterMinPerLine {
			commaLines++
		}
		if lines >= config.DelimiterSniffLines {
			break
		}
	}

	if lines == 0 {
		return "", cardModel.ErrUnsupportedFormat
	}

	minHits := int(float64(lines) * config.DelimiterMinFraction)
	if minHits < 1 {
		minHits = 1
	}

	// tab wins ties: classic exports are tab separated and definitions
	// frequently contain literal commas
	if tabLines >= minHits && tabLines >= commaLines {
		return FormatTab, nil
	}
	if commaLines >= minHits {
		return FormatComma, nil
	}
	return "", cardModel.ErrUnsupportedFormat
}
