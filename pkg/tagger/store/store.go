package store

import (
	"context"
	"time"
)

// Store persists vocabularies and annotation runs.
type Store interface {
	Close() error

	// Vocabularies
	UpsertTerm(ctx context.Context, vocabulary string, t Term) error
	DeleteVocabulary(ctx context.Context, vocabulary string) error
	Vocabularies(ctx context.Context) ([]string, error)
	Terms(ctx context.Context, vocabulary string) ([]Term, error)

	// Annotation runs
	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
}

// Term is a stored vocabulary term. Phrase is the key within its vocabulary.
type Term struct {
	Phrase   string
	Variants []string
	Score    float64
	Type     string
}

// Run is a batch of annotations produced together.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Annotations []Annotation
}

// Annotation is one stored annotation record.
type Annotation struct {
	DocID  string
	Region string
	Start  int
	End    int
	Score  float64
	Text   string
	Type   string
}
