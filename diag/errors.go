package diag

import "fmt"

// SyntaxError is returned by the lexer/parser for malformed input.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: syntax error: %s", e.Line, e.Column, e.Message)
}

func (e *SyntaxError) Kind() Kind { return Syntax }

// DuplicateKeyError is returned when an element body repeats a property
// key.
type DuplicateKeyError struct {
	ElementID string
	Key       string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("element %q: duplicate key %q", e.ElementID, e.Key)
}

func (e *DuplicateKeyError) Kind() Kind { return Syntax }

// MissingRequiredField is returned when a mandatory property key is
// omitted from an element body.
type MissingRequiredField struct {
	ElementID string
	Field     string
}

func (e *MissingRequiredField) Error() string {
	return fmt.Sprintf("element %q: missing required field %q", e.ElementID, e.Field)
}

func (e *MissingRequiredField) Kind() Kind { return Syntax }

// MissingOpenAPIError is returned by the file-based parsing entry point
// when neither a .yaml nor a .yml sidecar exists next to the source.
type MissingOpenAPIError struct {
	Stem string
}

func (e *MissingOpenAPIError) Error() string {
	return fmt.Sprintf("missing sidecar OpenAPI document for %q (looked for .yaml and .yml)", e.Stem)
}

func (e *MissingOpenAPIError) Kind() Kind { return IO }
