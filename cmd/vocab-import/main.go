package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/cognicore/tagger/pkg/tagger/config"
	"github.com/cognicore/tagger/pkg/tagger/ingest"
	"github.com/cognicore/tagger/pkg/tagger/store"
	"github.com/cognicore/tagger/pkg/tagger/store/sqlite"
	"github.com/cognicore/tagger/pkg/tagger/vocab"
)

func main() {
	var (
		dbPath  = flag.String("db", "", "Database path (required)")
		file    = flag.String("file", "", "Vocabulary file, .dict or .yaml (required)")
		name    = flag.String("name", "", "Vocabulary name (default: from the file)")
		replace = flag.Bool("replace", false, "Delete existing terms of the vocabulary first")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db required")
	}
	if *file == "" {
		log.Fatal("--file required")
	}

	ctx := context.Background()

	st, err := sqlite.OpenSQLite(ctx, *dbPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}

	n, vocabName, err := importFile(ctx, st, *file, *name, *replace)
	st.Close()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("✓ Imported %d terms into %s", n, vocabName)
}

// importFile validates the file by building it as a vocabulary, then writes
// its entries to the store.
func importFile(ctx context.Context, st store.Store, path, name string, replace bool) (int, string, error) {
	dict, err := config.LoadVocabularyFile(path)
	if err != nil {
		return 0, "", fmt.Errorf("load %s: %w", path, err)
	}

	if name == "" {
		name = dict.Name
	}
	if name == "" {
		name = config.NameFromPath(path)
	}

	tok := ingest.NewTokenizer(ingest.DefaultBoundary)
	if _, err := dict.Build(name, vocab.WithSplitter(tok.Words)); err != nil {
		return 0, "", err
	}

	if replace {
		if err := st.DeleteVocabulary(ctx, name); err != nil {
			return 0, "", fmt.Errorf("delete %s: %w", name, err)
		}
	}

	for i, e := range dict.Entries {
		if err := st.UpsertTerm(ctx, name, store.Term{
			Phrase:   e.Term,
			Variants: e.Variants,
			Score:    e.Score,
			Type:     e.Type,
		}); err != nil {
			return i, name, fmt.Errorf("store term %q: %w", e.Term, err)
		}
		if (i+1)%10000 == 0 {
			log.Printf("Imported %d/%d terms", i+1, len(dict.Entries))
		}
	}

	return len(dict.Entries), name, nil
}
