package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/tagger/pkg/tagger/internalerr"
	"github.com/cognicore/tagger/pkg/tagger/vocab"
)

// Config is the top-level tagger configuration file.
type Config struct {
	Vocabularies []VocabularySource `yaml:"vocabularies"`
	Tokenizer    TokenizerConfig    `yaml:"tokenizer"`
	DB           string             `yaml:"db"`
}

// VocabularySource names a vocabulary file.
type VocabularySource struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// TokenizerConfig overrides tokenizer behaviour.
type TokenizerConfig struct {
	Boundary string `yaml:"boundary"`
}

// LoadConfig loads and validates a configuration file. Relative vocabulary
// and database paths are resolved against the directory of the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	seen := make(map[string]bool, len(cfg.Vocabularies))
	for i := range cfg.Vocabularies {
		src := &cfg.Vocabularies[i]
		if strings.TrimSpace(src.Name) == "" || strings.TrimSpace(src.Path) == "" {
			return nil, fmt.Errorf("vocabulary #%d needs name and path: %w", i+1, internalerr.ErrInvalidConfig)
		}
		key := strings.ToLower(src.Name)
		if seen[key] {
			return nil, fmt.Errorf("vocabulary %q listed twice: %w", src.Name, internalerr.ErrInvalidConfig)
		}
		seen[key] = true
		src.Path = resolve(dir, src.Path)
	}
	if cfg.DB != "" {
		cfg.DB = resolve(dir, cfg.DB)
	}

	return &cfg, nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Dict holds the raw entries of a vocabulary file
type Dict struct {
	Name    string
	Entries []DictEntry
}

// DictEntry represents one vocabulary term
type DictEntry struct {
	Term     string   `yaml:"term"`
	Variants []string `yaml:"variants"`
	Score    float64  `yaml:"score"`
	Type     string   `yaml:"type"`
}

// LoadDict loads a vocabulary from a pipe-separated file.
// Format: term|score|type or term|variant1|variant2|score|type.
// The type may be left out (term|score), in which case it is "unknown".
// A numeric last field is always the score, so type tags must not be
// numbers. A line whose last two fields are both numeric is rejected.
func LoadDict(path string) (*Dict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dict := &Dict{Entries: []DictEntry{}}
	lines := strings.Split(string(data), "\n")

	for n, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			continue
		}

		// Trim all parts
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		typ := vocab.UnknownType
		last := len(parts) - 1
		if isNumber(parts[last]) {
			if last >= 2 && isNumber(parts[last-1]) {
				return nil, fmt.Errorf("%s:%d: numeric type tag %q: %w", path, n+1, parts[last], internalerr.ErrInvalidInput)
			}
		} else {
			typ = parts[last]
			last--
		}
		if last < 1 {
			return nil, fmt.Errorf("%s:%d: missing score: %w", path, n+1, internalerr.ErrInvalidInput)
		}
		score, err := strconv.ParseFloat(parts[last], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad score %q: %w", path, n+1, parts[last], internalerr.ErrInvalidInput)
		}

		dict.Entries = append(dict.Entries, DictEntry{
			Term:     parts[0],
			Variants: parts[1:last],
			Score:    score,
			Type:     typ,
		})
	}

	return dict, nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// LoadVocabularyYAML loads a vocabulary from a YAML file.
//
// Expected format:
//
//	name: ChEBI
//	terms:
//	  - term: water
//	    score: 0.378665
//	    variants: [dihydrogen oxide]
//	  - term: N-methyl-D-aspartate
//	    score: 0.666192
//	    type: chemical
func LoadVocabularyYAML(path string) (*Dict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Name  string      `yaml:"name"`
		Terms []DictEntry `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &Dict{Name: doc.Name, Entries: doc.Terms}, nil
}

// LoadVocabularyFile picks the loader by file extension: .yaml and .yml are
// YAML, .dict and .txt are pipe-separated.
func LoadVocabularyFile(path string) (*Dict, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadVocabularyYAML(path)
	case ".dict", ".txt":
		return LoadDict(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, internalerr.ErrUnsupportedFile)
	}
}

// NameFromPath derives a vocabulary name from a file name: "data/ChEBI.dict"
// becomes "ChEBI".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Build turns raw entries into a vocabulary.
func (d *Dict) Build(name string, opts ...vocab.Option) (*vocab.Vocabulary, error) {
	v := vocab.New(name, opts...)
	for _, e := range d.Entries {
		if err := v.Add(e.Term, e.Score, e.Type, e.Variants...); err != nil {
			return nil, fmt.Errorf("vocabulary %s: %w", name, err)
		}
	}
	return v, nil
}
