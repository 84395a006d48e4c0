package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/tagger/pkg/tagger/config"
	"github.com/cognicore/tagger/pkg/tagger/ingest"
	"github.com/cognicore/tagger/pkg/tagger/store"
	"github.com/cognicore/tagger/pkg/tagger/store/memstore"
	"github.com/cognicore/tagger/pkg/tagger/store/sqlite"
	"github.com/cognicore/tagger/pkg/tagger/vocab"
)

func TestImportFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "ChEBI.dict")
	content := "water|H2O|0.378665\nCetyl trimethyl ammonium bromide|0.711461|surfactant\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	st := memstore.New()
	if err := st.UpsertTerm(ctx, "ChEBI", store.Term{Phrase: "stale", Score: 0.1}); err != nil {
		t.Fatal(err)
	}

	n, name, err := importFile(ctx, st, path, "", true)
	if err != nil {
		t.Fatalf("importFile: %v", err)
	}
	if n != 2 || name != "ChEBI" {
		t.Errorf("imported %d terms into %q", n, name)
	}

	terms, _ := st.Terms(ctx, "ChEBI")
	if len(terms) != 2 {
		t.Fatalf("expected stale term to be replaced, got %v", terms)
	}
	if terms[1].Phrase != "water" || len(terms[1].Variants) != 1 || terms[1].Variants[0] != "H2O" {
		t.Errorf("water = %+v", terms[1])
	}
}

func TestImportFileYAMLName(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "amylase.yaml")
	content := "name: alpha-amylase\nterms:\n  - term: α-amilase\n    score: 0.54488\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	st := memstore.New()
	_, name, err := importFile(ctx, st, path, "", false)
	if err != nil {
		t.Fatalf("importFile: %v", err)
	}
	if name != "alpha-amylase" {
		t.Errorf("name = %q, want the name from the file", name)
	}

	_, name, err = importFile(ctx, st, path, "amylase", false)
	if err != nil || name != "amylase" {
		t.Errorf("explicit name: %q, %v", name, err)
	}
}

func TestImportFileRejectsInvalidScore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bad.dict")
	if err := os.WriteFile(path, []byte("water|1.5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	st := memstore.New()
	if _, _, err := importFile(ctx, st, path, "", false); err == nil {
		t.Error("expected an error for a score above 1")
	}
	if names, _ := st.Vocabularies(ctx); len(names) != 0 {
		t.Errorf("nothing should be stored, got %v", names)
	}
}

// TestImportFileRepeatedPhrase tests that an imported vocabulary resolves a
// repeated phrase to the same score as the file loaded directly
func TestImportFileRepeatedPhrase(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "ChEBI.dict")
	if err := os.WriteFile(path, []byte("water|0.9|solvent\nwater|H2O|0.3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tok := ingest.NewTokenizer(ingest.DefaultBoundary)
	fromFile, err := config.LoadVocabulary(config.VocabularySource{Name: "ChEBI", Path: path}, vocab.WithSplitter(tok.Words))
	if err != nil {
		t.Fatal(err)
	}

	st, err := sqlite.OpenSQLite(ctx, filepath.Join(dir, "tagger.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, _, err := importFile(ctx, st, path, "", false); err != nil {
		t.Fatalf("importFile: %v", err)
	}
	fromStore, err := vocab.LoadFromStore(ctx, st, vocab.WithSplitter(tok.Words))
	if err != nil {
		t.Fatal(err)
	}

	want, _ := fromFile.Lookup([]string{"water"})
	got, ok := fromStore.Lookup("ChEBI", []string{"water"})
	if !ok {
		t.Fatal("water not found in the imported vocabulary")
	}
	if got.Score != want.Score || got.Type != want.Type {
		t.Errorf("imported water = %+v, loaded from file = %+v", got, want)
	}
	if got.Score != 0.9 {
		t.Errorf("score = %v, want 0.9", got.Score)
	}
	if _, ok := fromStore.Lookup("ChEBI", []string{"h2o"}); !ok {
		t.Error("variant of the repeated phrase should be kept")
	}
}
