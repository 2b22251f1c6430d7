package parser

import (
	"os"
	"strings"

	"bpmdsl.dev/compiler/ast"
	"bpmdsl.dev/compiler/diag"
	"bpmdsl.dev/compiler/openapi"
)

// ParseFile parses the .bpm file at path and additionally requires a
// sidecar OpenAPI document (same stem, .yaml or .yml) to exist in the
// same directory, returning *diag.MissingOpenAPIError if neither is
// found. The sidecar itself is returned unparsed-further so callers
// (the validator) can later resolve ProcessEntity.EntityName against
// its schema names.
func ParseFile(path string) (*ast.Process, *openapi.Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	stem := strings.TrimSuffix(path, fileExt(path))
	sidecarPath, ok := openapi.Find(stem)
	if !ok {
		return nil, nil, &diag.MissingOpenAPIError{Stem: stem}
	}

	sidecar, err := openapi.Load(sidecarPath)
	if err != nil {
		return nil, nil, err
	}

	proc, err := Parse(string(data))
	if err != nil {
		return nil, nil, err
	}
	return proc, sidecar, nil
}

func fileExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}
