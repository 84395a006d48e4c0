package config

import (
	"fmt"

	"github.com/cognicore/tagger/pkg/tagger/ingest"
	"github.com/cognicore/tagger/pkg/tagger/vocab"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	ConfigPath string   // optional YAML config
	DictPaths  []string // extra vocabulary files, named after the file
	Boundary   string   // overrides tokenizer.boundary when set
}

// Components holds all loaded configuration components
type Components struct {
	Tokenizer *ingest.Tokenizer
	Index     *vocab.Set
	DBPath    string
}

// Load reads all configuration files and returns initialized components.
// Vocabulary keys are split with the same tokenizer that is later applied to
// the annotated text.
func (l *Loader) Load() (*Components, error) {
	cfg := &Config{}
	if l.ConfigPath != "" {
		loaded, err := LoadConfig(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	boundary := cfg.Tokenizer.Boundary
	if l.Boundary != "" {
		boundary = l.Boundary
	}
	comp := &Components{
		Tokenizer: ingest.NewTokenizer(boundary),
		Index:     vocab.NewSet(),
		DBPath:    cfg.DB,
	}

	sources := append([]VocabularySource{}, cfg.Vocabularies...)
	for _, p := range l.DictPaths {
		sources = append(sources, VocabularySource{Name: NameFromPath(p), Path: p})
	}

	for _, src := range sources {
		v, err := LoadVocabulary(src, vocab.WithSplitter(comp.Tokenizer.Words))
		if err != nil {
			return nil, err
		}
		comp.Index.Add(v)
	}

	return comp, nil
}

// LoadVocabulary reads and builds one vocabulary. A name given inside a YAML
// file is ignored in favour of src.Name.
func LoadVocabulary(src VocabularySource, opts ...vocab.Option) (*vocab.Vocabulary, error) {
	dict, err := LoadVocabularyFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary %s: %w", src.Name, err)
	}
	return dict.Build(src.Name, opts...)
}
