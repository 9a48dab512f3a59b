// Package report writes the text outputs of a report run: the summary and
// comparison markdown files, JSON documents and rendered templates.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSON writes v to path as indented JSON.
func WriteJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

// LoadParameters reads JSON objects from paths and merges them into one map.
// Keys in later files replace those of earlier ones. Numbers keep their
// original text.
func LoadParameters(paths []string) (map[string]any, error) {
	params := make(map[string]any)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading parameters: %w", err)
		}

		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("parsing parameters %s: %w", p, err)
		}

		for k, v := range m {
			params[k] = v
		}
	}
	return params, nil
}
