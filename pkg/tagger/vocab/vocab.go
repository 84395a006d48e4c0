package vocab

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cognicore/tagger/pkg/tagger/internalerr"
)

// UnknownType is the type tag of entries whose vocabulary carries no finer
// category.
const UnknownType = "unknown"

// Entry is what a vocabulary knows about one of its terms.
type Entry struct {
	Term  string  // Phrase as authored in the vocabulary
	Score float64 // Precomputed relevance weight in [0,1]
	Type  string
}

// Index is the read-only lookup capability the matcher consumes.
// Unknown vocabulary names behave like empty vocabularies.
type Index interface {
	// Lookup finds the entry for an exact sequence of lower-cased words.
	Lookup(vocabulary string, words []string) (Entry, bool)
	// MaxTermLength reports the longest term of the vocabulary, in words.
	MaxTermLength(vocabulary string) int
}

// Vocabulary maps normalized word sequences to entries.
// It is built once and must not be modified after it has been published to
// concurrent readers.
type Vocabulary struct {
	name    string
	split   func(string) []string
	entries map[string]Entry
	maxLen  int
}

// Option configures a Vocabulary.
type Option func(*Vocabulary)

// WithSplitter sets the function that turns a phrase into words. It should
// agree with the tokenizer used on the annotated text.
func WithSplitter(split func(string) []string) Option {
	return func(v *Vocabulary) {
		if split != nil {
			v.split = split
		}
	}
}

// New creates an empty vocabulary. Without WithSplitter phrases are split
// on whitespace only, so "water." is stored with its full stop and will
// never match tokenized text. Pass the tokenizer's Words through
// WithSplitter whenever phrases may carry edge punctuation.
func New(name string, opts ...Option) *Vocabulary {
	v := &Vocabulary{
		name:    name,
		split:   strings.Fields,
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Name returns the vocabulary name as given to New.
func (v *Vocabulary) Name() string { return v.name }

// Add registers a term and its variants under one entry.
// An empty type defaults to UnknownType.
func (v *Vocabulary) Add(term string, score float64, typ string, variants ...string) error {
	if math.IsNaN(score) || score < 0 || score > 1 {
		return fmt.Errorf("term %q: score %v outside [0,1]: %w", term, score, internalerr.ErrInvalidInput)
	}
	if typ == "" {
		typ = UnknownType
	}
	entry := Entry{Term: term, Score: score, Type: typ}

	phrases := append([]string{term}, variants...)
	keys := make([][]string, 0, len(phrases))
	for _, phrase := range phrases {
		words := v.split(phrase)
		if len(words) == 0 {
			return fmt.Errorf("term %q: empty phrase %q: %w", term, phrase, internalerr.ErrInvalidInput)
		}
		keys = append(keys, Normalize(words))
	}
	for _, words := range keys {
		v.put(words, entry)
	}
	return nil
}

// put stores the entry unless the key already maps to a higher score.
func (v *Vocabulary) put(words []string, e Entry) {
	key := Key(words)
	if old, ok := v.entries[key]; ok && old.Score >= e.Score {
		return
	}
	v.entries[key] = e
	if len(words) > v.maxLen {
		v.maxLen = len(words)
	}
}

// Lookup returns the entry for words, which must already be lower-cased.
func (v *Vocabulary) Lookup(words []string) (Entry, bool) {
	if len(words) == 0 || len(words) > v.maxLen {
		return Entry{}, false
	}
	e, ok := v.entries[Key(words)]
	return e, ok
}

// MaxTermLength returns the word count of the longest key.
func (v *Vocabulary) MaxTermLength() int { return v.maxLen }

// Len returns the number of distinct keys, variants included.
func (v *Vocabulary) Len() int { return len(v.entries) }

// Entries returns the distinct entries ordered by term.
func (v *Vocabulary) Entries() []Entry {
	seen := make(map[Entry]struct{}, len(v.entries))
	out := make([]Entry, 0, len(v.entries))
	for _, e := range v.entries {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Term != out[j].Term {
			return out[i].Term < out[j].Term
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// Normalize lower-cases every word in place and returns the slice.
func Normalize(words []string) []string {
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return words
}

// Key joins normalized words into a map key. Words never contain
// whitespace, so a single space is unambiguous.
func Key(words []string) string {
	return strings.Join(words, " ")
}
