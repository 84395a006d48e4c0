package docs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.jsonl")
	content := `{"id": "1", "title": "Cetyl trimethyl ammonium bromide", "abstract": "water, potassium"}
not json at all

{"title": "no id"}
{"id": "2", "title": "(water)"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	items, err := LoadFromJSONL(path)
	if err != nil {
		t.Fatalf("LoadFromJSONL: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "1" || items[0].Abstract != "water, potassium" {
		t.Errorf("item 0 = %+v", items[0])
	}
	if items[1].ID != "2" || items[1].Abstract != "" {
		t.Errorf("item 1 = %+v", items[1])
	}
}

func TestLoadFromJSONLErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFromJSONL(filepath.Join(dir, "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(dir, "empty.jsonl")
	if err := os.WriteFile(empty, []byte("\n\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromJSONL(empty); err == nil {
		t.Error("expected error when no documents are valid")
	}
}
