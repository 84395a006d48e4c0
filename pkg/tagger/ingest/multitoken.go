package ingest

import (
	"strings"

	"github.com/cognicore/tagger/pkg/tagger/vocab"
)

// Candidate is one vocabulary hit over a window of N consecutive tokens.
type Candidate struct {
	Start int // Code point offset of the first token
	End   int // Code point offset just past the last token
	N     int
	Text  string // Verbatim source slice, inner spacing and case preserved
	Score float64
	Type  string
}

// Matcher enumerates every token window that a vocabulary recognizes.
// It holds no per-request state and may be shared between goroutines.
type Matcher struct {
	index vocab.Index
}

// NewMatcher creates a matcher over the given index
func NewMatcher(index vocab.Index) *Matcher {
	return &Matcher{index: index}
}

// Match looks up every window of 1..K tokens, K being the vocabulary's longest
// term. Candidates come out grouped by ascending N and, within a group, by
// ascending start offset. Overlapping and nested hits are all kept.
func (m *Matcher) Match(text string, tokens []Token, vocabulary string) []Candidate {
	maxLen := m.index.MaxTermLength(vocabulary)
	if maxLen <= 0 || len(tokens) == 0 {
		return nil
	}

	lowered := make([]string, len(tokens))
	for i, tok := range tokens {
		lowered[i] = strings.ToLower(tok.Text)
	}

	var out []Candidate
	for n := 1; n <= maxLen && n <= len(tokens); n++ {
		for i := 0; i+n <= len(tokens); i++ {
			entry, ok := m.index.Lookup(vocabulary, lowered[i:i+n])
			if !ok {
				continue
			}
			first, last := tokens[i], tokens[i+n-1]
			out = append(out, Candidate{
				Start: first.Start,
				End:   last.End,
				N:     n,
				Text:  text[first.StartByte:last.EndByte],
				Score: entry.Score,
				Type:  entry.Type,
			})
		}
	}

	return out
}
