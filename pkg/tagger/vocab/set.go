package vocab

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/tagger/pkg/tagger/internalerr"
	"github.com/cognicore/tagger/pkg/tagger/store"
)

// Set holds vocabularies by name and implements Index.
// Names are matched case-insensitively, so "ChEBI" and "chebi" are the same
// vocabulary.
type Set struct {
	vocabularies map[string]*Vocabulary
}

// NewSet creates a set from the given vocabularies. A later vocabulary
// replaces an earlier one with the same name.
func NewSet(vocabularies ...*Vocabulary) *Set {
	s := &Set{vocabularies: make(map[string]*Vocabulary, len(vocabularies))}
	for _, v := range vocabularies {
		s.Add(v)
	}
	return s
}

// Add registers a vocabulary. Only call it while building the set.
func (s *Set) Add(v *Vocabulary) {
	s.vocabularies[foldName(v.Name())] = v
}

// Get returns the named vocabulary.
func (s *Set) Get(name string) (*Vocabulary, bool) {
	v, ok := s.vocabularies[foldName(name)]
	return v, ok
}

// Names returns the registered vocabulary names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.vocabularies))
	for _, v := range s.vocabularies {
		names = append(names, v.Name())
	}
	sort.Strings(names)
	return names
}

// Lookup implements Index.
func (s *Set) Lookup(vocabulary string, words []string) (Entry, bool) {
	v, ok := s.Get(vocabulary)
	if !ok {
		return Entry{}, false
	}
	return v.Lookup(words)
}

// MaxTermLength implements Index.
func (s *Set) MaxTermLength(vocabulary string) int {
	v, ok := s.Get(vocabulary)
	if !ok {
		return 0
	}
	return v.MaxTermLength()
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LoadFromStore builds a set from every vocabulary persisted in st.
// The store keeps names as given, so two stored names that differ only in
// case are reported as ErrDuplicate.
func LoadFromStore(ctx context.Context, st store.Store, opts ...Option) (*Set, error) {
	names, err := st.Vocabularies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vocabularies: %w", err)
	}

	set := NewSet()
	for _, name := range names {
		if other, ok := set.Get(name); ok {
			return nil, fmt.Errorf("vocabularies %q and %q: %w", other.Name(), name, internalerr.ErrDuplicate)
		}
		terms, err := st.Terms(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary %s: %w", name, err)
		}
		v := New(name, opts...)
		for _, t := range terms {
			if err := v.Add(t.Phrase, t.Score, t.Type, t.Variants...); err != nil {
				return nil, fmt.Errorf("load vocabulary %s: %w", name, err)
			}
		}
		set.Add(v)
	}
	return set, nil
}
