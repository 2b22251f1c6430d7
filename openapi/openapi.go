// Package openapi inspects the sidecar OpenAPI document that must sit
// next to a .bpm source file. Per the external-interfaces contract the
// compiler only looks at two things: whether the file exists, and the
// set of names under components.schemas. The whole file is decoded as
// YAML, but everything else in it is opaque and ignored.
package openapi

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// Sidecar holds the result of locating and lightly inspecting a
// companion OpenAPI file.
type Sidecar struct {
	Path    string
	Schemas map[string]bool
}

// Find looks for stem+".yaml" then stem+".yml" (stem already includes
// the directory and base name without extension) and returns the first
// one that exists. ok is false if neither exists.
func Find(stem string) (path string, ok bool) {
	for _, ext := range []string{".yaml", ".yml"} {
		candidate := stem + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// Load reads path and extracts the set of names under
// components.schemas. Any other content is ignored.
func Load(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sidecar %s", path)
	}

	var doc struct {
		Components struct {
			Schemas map[string]yaml.MapSlice `yaml:"schemas"`
		} `yaml:"components"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing sidecar %s", path)
	}

	names := map[string]bool{}
	for name := range doc.Components.Schemas {
		names[name] = true
	}
	return &Sidecar{Path: path, Schemas: names}, nil
}

// Has reports whether name is declared under components.schemas. A nil
// Sidecar (no sidecar loaded) reports false for everything.
func (s *Sidecar) Has(name string) bool {
	if s == nil {
		return false
	}
	return s.Schemas[name]
}
