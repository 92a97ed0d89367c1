package retrieval

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// LoadCorpus reads a CSV of historical assessment flows and renders each row
// as a retrieval document. Missing columns or empty cells become "N/A" so
// every document has the same shape.
func LoadCorpus(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) || row[i] == "" {
			return "N/A"
		}
		return row[i]
	}

	var docs []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus row: %w", err)
		}
		docs = append(docs, fmt.Sprintf(
			"Flow ID: %s, Category: %s, Subcategory: %s, Description: %s, Tags: %s",
			field(row, "flow_id"),
			field(row, "category"),
			field(row, "subcategory"),
			field(row, "description"),
			field(row, "tags"),
		))
	}
	return docs, nil
}
