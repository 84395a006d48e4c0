package docs

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
)

// Item is one input document of a batch run
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}

// LoadFromJSONL loads items from a JSONL file, one document per line.
// Malformed lines and lines without an id are skipped with a warning.
func LoadFromJSONL(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var items []Item
	lines := strings.Split(string(data), "\n")

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var item Item
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			log.Printf("Warning: skipping malformed JSON at line %d in %s: %v", i+1, path, err)
			continue
		}
		if item.ID == "" {
			log.Printf("Warning: skipping document without id at line %d in %s", i+1, path)
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no valid documents found in %s", path)
	}

	return items, nil
}
