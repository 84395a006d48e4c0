package tagger

import (
	"context"
	"fmt"

	"github.com/cognicore/tagger/pkg/tagger/ingest"
	"github.com/cognicore/tagger/pkg/tagger/internalerr"
	"github.com/cognicore/tagger/pkg/tagger/records"
	"github.com/cognicore/tagger/pkg/tagger/store"
	"github.com/cognicore/tagger/pkg/tagger/vocab"
)

// Region labels used for document parts.
const (
	RegionTitle    = "T"
	RegionAbstract = "A"
)

// Tagger is the annotation engine facade. It holds no per-request state;
// one instance may serve concurrent callers.
type Tagger struct {
	pipeline *ingest.Pipeline
	builder  *records.Builder
	store    store.Store
}

// Options configures a Tagger instance
type Options struct {
	Index     vocab.Index
	Tokenizer *ingest.Tokenizer // defaults to the standard boundary set
	Store     store.Store       // optional, needed by Save and Run
}

// New creates a Tagger with the given dependencies
func New(opts Options) *Tagger {
	index := opts.Index
	if index == nil {
		index = vocab.NewSet()
	}
	tok := opts.Tokenizer
	if tok == nil {
		tok = ingest.NewTokenizer(ingest.DefaultBoundary)
	}
	return &Tagger{
		pipeline: ingest.NewPipeline(tok, ingest.NewMatcher(index)),
		builder:  records.New(),
		store:    opts.Store,
	}
}

// Close cleanly shuts down the Tagger and its store, if any
func (t *Tagger) Close() error {
	if t.store == nil {
		return nil
	}
	return t.store.Close()
}

// Annotate finds every term of the named vocabulary in text. Records are
// ordered by term length in words, then by start offset. Unknown
// vocabularies and texts without hits give an empty result.
func (t *Tagger) Annotate(docID, region, text, vocabulary string) []records.Record {
	processed := t.pipeline.Process(text, vocabulary)
	return t.builder.Build(docID, region, processed.Candidates)
}

// Doc is a document with a title and an abstract
type Doc struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}

// DocOptions controls AnnotateDoc
type DocOptions struct {
	Vocabularies []string
	StripHTML    bool
}

// AnnotateDoc annotates the title, then the abstract, against each
// vocabulary in turn. Empty regions are skipped.
func (t *Tagger) AnnotateDoc(ctx context.Context, d Doc, opts DocOptions) ([]records.Record, error) {
	regions := []struct {
		label string
		text  string
	}{
		{RegionTitle, d.Title},
		{RegionAbstract, d.Abstract},
	}

	var out []records.Record
	for _, r := range regions {
		if r.text == "" {
			continue
		}
		text := r.text
		if opts.StripHTML {
			text = ingest.StripHTML(text)
		}
		for _, name := range opts.Vocabularies {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out = append(out, t.Annotate(d.ID, r.label, text, name)...)
		}
	}
	return out, nil
}

// Save persists records as a new run and returns it
func (t *Tagger) Save(ctx context.Context, recs []records.Record) (records.Run, error) {
	if t.store == nil {
		return records.Run{}, internalerr.ErrStoreUnavailable
	}
	run := t.builder.NewRun(recs)
	if err := t.store.SaveRun(ctx, run.ToStore()); err != nil {
		return records.Run{}, fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return run, nil
}

// Run loads a saved run
func (t *Tagger) Run(ctx context.Context, id string) (records.Run, error) {
	if t.store == nil {
		return records.Run{}, internalerr.ErrStoreUnavailable
	}
	sr, found, err := t.store.GetRun(ctx, id)
	if err != nil {
		return records.Run{}, err
	}
	if !found {
		return records.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return records.FromStore(sr), nil
}
