package loader

import (
	"strings"
	"sync"

	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
)

type DedupeScope string

const (
	DedupeOff     DedupeScope = "off"
	DedupePerFile DedupeScope = "per_file"
	DedupeCorpus  DedupeScope = "corpus"
)

var quoteReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
)

// CleanResult carries one file's cleaned records together with its own
// drop counters, so concurrent ingestion jobs never read each other's
// numbers.
type CleanResult struct {
	Records []cardModel.RawRecord
	Dropped int
	Duped   int
}

// Cleaner normalizes parsed records. The cleaner is shared across jobs;
// only the corpus-scope seen-set is shared state and it is guarded by the
// mutex. Per-file scope dedupes against a map local to the call.
type Cleaner struct {
	scope DedupeScope

	mu   sync.Mutex
	seen map[string]struct{} //corpus scope only
}

func NewCleaner(scope DedupeScope) *Cleaner {
	return &Cleaner{
		scope: scope,
		seen:  make(map[string]struct{}),
	}
}

// CleanFile strips and filters one file's records, preserving relative
// order.
func (c *Cleaner) CleanFile(records []cardModel.RawRecord) CleanResult {
	var seen map[string]struct{}
	switch c.scope {
	case DedupePerFile:
		seen = make(map[string]struct{}, len(records))
	case DedupeCorpus:
		c.mu.Lock()
		defer c.mu.Unlock()
		seen = c.seen
	}

	res := CleanResult{Records: make([]cardModel.RawRecord, 0, len(records))}
	for _, rec := range records {
		term := NormalizeText(rec.Term)
		definition := NormalizeText(rec.Definition)

		if term == "" || definition == "" {
			res.Dropped++
			continue
		}

		if seen != nil {
			key := term + "\x00" + definition
			if _, dup := seen[key]; dup {
				res.Duped++
				continue
			}
			seen[key] = struct{}{}
		}

		res.Records = append(res.Records, cardModel.RawRecord{
			Term:       term,
			Definition: definition,
			SourceLine: rec.SourceLine,
		})
	}
	return res
}

// NormalizeText trims, collapses whitespace runs to single spaces and
// straightens curly quotes.
func NormalizeText(s string) string {
	s = quoteReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
