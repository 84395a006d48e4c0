package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/tagger/pkg/tagger/internalerr"
	"github.com/cognicore/tagger/pkg/tagger/records"
	"github.com/cognicore/tagger/pkg/tagger/store"
	"github.com/cognicore/tagger/pkg/tagger/store/sqlite"
	"github.com/cognicore/tagger/pkg/tagger/vocab"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestBuildTaggerFromDict tests the single-request path with a dictionary flag
func TestBuildTaggerFromDict(t *testing.T) {
	ctx := context.Background()
	dict := writeFile(t, t.TempDir(), "ChEBI.dict", "testosterone|0.59757\n")

	tg, cleanup, err := buildTagger(ctx, options{dictPaths: []string{dict}})
	if err != nil {
		t.Fatalf("buildTagger failed: %v", err)
	}
	defer cleanup()

	var buf bytes.Buffer
	if err := records.Write(&buf, tg.Annotate("1", "T", "I love testosterone.", "ChEBI")); err != nil {
		t.Fatal(err)
	}
	want := "1\tT\t7\t19\t0.59757\ttestosterone\tunknown\t1\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

// TestBuildTaggerFromStore tests that imported vocabularies are loaded and
// that files override them
func TestBuildTaggerFromStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tagger.db")

	st, err := sqlite.OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.UpsertTerm(ctx, "GO", store.Term{Phrase: "apoptosis", Score: 0.5}); err != nil {
		t.Fatal(err)
	}
	if err := st.UpsertTerm(ctx, "ChEBI", store.Term{Phrase: "water", Score: 0.1}); err != nil {
		t.Fatal(err)
	}
	st.Close()

	dict := writeFile(t, dir, "chebi.dict", "water|0.378665\n")

	tg, cleanup, err := buildTagger(ctx, options{dictPaths: []string{dict}, dbPath: dbPath})
	if err != nil {
		t.Fatalf("buildTagger failed: %v", err)
	}
	defer cleanup()

	if recs := tg.Annotate("1", "A", "Apoptosis.", "GO"); len(recs) != 1 {
		t.Errorf("stored vocabulary not loaded: %v", recs)
	}
	recs := tg.Annotate("1", "A", "water", "ChEBI")
	if len(recs) != 1 || recs[0].Score != 0.378665 {
		t.Errorf("file vocabulary should win over the store: %v", recs)
	}

	run, err := tg.Save(ctx, recs)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := tg.Run(ctx, run.ID); err != nil {
		t.Errorf("saved run not found: %v", err)
	}
}

// TestBuildTaggerNonExistentDict tests that buildTagger fails with a missing file
func TestBuildTaggerNonExistentDict(t *testing.T) {
	ctx := context.Background()
	_, _, err := buildTagger(ctx, options{dictPaths: []string{filepath.Join(t.TempDir(), "nope.dict")}})
	if err == nil {
		t.Error("buildTagger should fail with non-existent dict")
	}
}

// TestBuildTaggerInvalidDBPath tests that buildTagger fails gracefully with invalid DB path
func TestBuildTaggerInvalidDBPath(t *testing.T) {
	ctx := context.Background()
	_, _, err := buildTagger(ctx, options{dbPath: "/nonexistent/directory/test.db"})
	if err == nil {
		t.Error("buildTagger should fail with invalid DB path")
	}
}

func TestAnnotateBatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dict := writeFile(t, dir, "ChEBI.dict", "water|0.378665\noxygen|0.441889\n")
	input := writeFile(t, dir, "docs.jsonl",
		`{"id": "7", "title": "Water <b>and</b> oxygen", "abstract": "(water)"}`+"\n")

	tg, cleanup, err := buildTagger(ctx, options{dictPaths: []string{dict}})
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	recs, err := annotateBatch(ctx, tg, input, []string{"ChEBI"}, true)
	if err != nil {
		t.Fatalf("annotateBatch: %v", err)
	}

	var buf bytes.Buffer
	if err := records.Write(&buf, recs); err != nil {
		t.Fatal(err)
	}
	want := "7\tT\t0\t5\t0.378665\tWater\tunknown\t1\n" +
		"7\tT\t10\t16\t0.441889\toxygen\tunknown\t1\n" +
		"7\tA\t1\t6\t0.378665\twater\tunknown\t1\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

// TestRunSave tests a single request saved to the database
func TestRunSave(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dict := writeFile(t, dir, "ChEBI.dict", "water|0.378665\n")
	dbPath := filepath.Join(dir, "tagger.db")

	var buf bytes.Buffer
	err := run(ctx, options{
		dictPaths: []string{dict},
		dbPath:    dbPath,
		save:      true,
		args:      []string{"1", "T", "(water)", "ChEBI"},
	}, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := "1\tT\t1\t6\t0.378665\twater\tunknown\t1\n"; buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}

	// The store was closed by run, so it can be reopened and read
	st, err := sqlite.OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, err := vocab.LoadFromStore(ctx, st); err != nil {
		t.Errorf("LoadFromStore after run: %v", err)
	}
}

// TestRunSaveWithoutDatabase tests that a failed save is returned as an error
func TestRunSaveWithoutDatabase(t *testing.T) {
	dict := writeFile(t, t.TempDir(), "ChEBI.dict", "water|0.378665\n")

	var buf bytes.Buffer
	err := run(context.Background(), options{
		dictPaths: []string{dict},
		save:      true,
		args:      []string{"1", "T", "water", "ChEBI"},
	}, &buf)
	if !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
	if buf.Len() == 0 {
		t.Error("records should be written before the save is attempted")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" ChEBI, ,GO ,")
	want := []string{"ChEBI", "GO"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitList = %v, want %v", got, want)
	}
}
