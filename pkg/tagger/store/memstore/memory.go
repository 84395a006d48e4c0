package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cognicore/tagger/pkg/tagger/internalerr"
	"github.com/cognicore/tagger/pkg/tagger/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu     sync.RWMutex
	vocabs map[string]map[string]store.Term // vocabulary → phrase → term
	runs   map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		vocabs: make(map[string]map[string]store.Term),
		runs:   make(map[string]store.Run),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertTerm inserts a term or merges it into the stored one. A repeated
// phrase keeps the higher score (and its type) and the union of variants.
func (s *Store) UpsertTerm(ctx context.Context, vocabulary string, t store.Term) error {
	if strings.TrimSpace(vocabulary) == "" || strings.TrimSpace(t.Phrase) == "" {
		return internalerr.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	terms, ok := s.vocabs[vocabulary]
	if !ok {
		terms = make(map[string]store.Term)
		s.vocabs[vocabulary] = terms
	}
	old, ok := terms[t.Phrase]
	if !ok {
		terms[t.Phrase] = copyTerm(t)
		return nil
	}
	if t.Score > old.Score {
		old.Score, old.Type = t.Score, t.Type
	}
	for _, v := range t.Variants {
		if v != "" && !slices.Contains(old.Variants, v) {
			old.Variants = append(old.Variants, v)
		}
	}
	terms[t.Phrase] = old
	return nil
}

// DeleteVocabulary removes a vocabulary and all its terms.
func (s *Store) DeleteVocabulary(ctx context.Context, vocabulary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vocabs, vocabulary)
	return nil
}

// Vocabularies returns the stored vocabulary names, sorted.
func (s *Store) Vocabularies(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.vocabs))
	for name := range s.vocabs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Terms returns the terms of a vocabulary ordered by phrase.
func (s *Store) Terms(ctx context.Context, vocabulary string) ([]store.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := make([]store.Term, 0, len(s.vocabs[vocabulary]))
	for _, t := range s.vocabs[vocabulary] {
		terms = append(terms, copyTerm(t))
	}
	sort.Slice(terms, func(i, j int) bool {
		return terms[i].Phrase < terms[j].Phrase
	})
	return terms, nil
}

// SaveRun stores a run. Saving an existing ID is rejected.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return internalerr.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[r.ID]; exists {
		return internalerr.ErrDuplicate
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, false, nil
	}
	return copyRun(r), true, nil
}

func copyTerm(t store.Term) store.Term {
	variants := make([]string, len(t.Variants))
	copy(variants, t.Variants)
	t.Variants = variants
	return t
}

func copyRun(r store.Run) store.Run {
	anns := make([]store.Annotation, len(r.Annotations))
	copy(anns, r.Annotations)
	r.Annotations = anns
	return r
}
