package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a sources file.
//
//	sources:
//	  default:
//	    address: ./reports.db
//	  warehouse:
//	    address: postgres://db.internal/warehouse
//	    user: report
//	    credential: secret
type File struct {
	Sources map[string]Config `yaml:"sources"`
}

// LoadFile reads a YAML sources file and returns a registry holding its entries.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sources file: %w", err)
	}
	defer f.Close()

	reg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Load decodes a YAML sources document from r.
// An empty document yields an empty registry.
func Load(r io.Reader) (*Registry, error) {
	var doc File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse sources: %w", err)
	}

	reg := NewRegistry()

	// Sorted so the first invalid entry reported is stable.
	names := make([]string, 0, len(doc.Sources))
	for name := range doc.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := reg.Add(name, doc.Sources[name]); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
