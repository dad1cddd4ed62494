package dictionary

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top-level structure of a dictionary YAML file.
//
// Example:
//
//	name: "Engineering team"
//	words:
//	  - Kubernetes
//	  - Grafana
//	  - PostgreSQL
type File struct {
	// Name is an optional display name for the list.
	Name string `yaml:"name"`

	// Words is the custom vocabulary in priority order.
	Words []string `yaml:"words"`
}

// LoadFile reads and parses a dictionary YAML file from disk.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: open %q: %w", path, err)
	}
	defer f.Close()

	df, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("dictionary: parse %q: %w", path, err)
	}
	return df, nil
}

// LoadFromReader parses dictionary YAML from an [io.Reader]. Unknown keys are
// rejected. An empty document yields an empty [File].
func LoadFromReader(r io.Reader) (*File, error) {
	var df File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&df); err != nil && err != io.EOF {
		return nil, fmt.Errorf("dictionary: decode yaml: %w", err)
	}
	return &df, nil
}

// Import appends every word in f to store and returns how many were added.
// Blank entries abort the import before anything is written.
func Import(ctx context.Context, store Store, f *File) (int, error) {
	if f == nil {
		return 0, fmt.Errorf("dictionary: file must not be nil")
	}
	words, err := NormalizeAll(f.Words)
	if err != nil {
		return 0, fmt.Errorf("dictionary: import %q: %w", f.Name, err)
	}
	for i, w := range words {
		if err := store.Add(ctx, w); err != nil {
			return i, fmt.Errorf("dictionary: import %q at index %d: %w", f.Name, i, err)
		}
	}
	return len(words), nil
}
