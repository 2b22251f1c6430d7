// Package compiler ties the parser, validator, ProcessEntity expansion
// and BPMN emitter into the single entry point used by the CLI: parse,
// validate, and — only if validation finds no errors — emit. Modeled on
// the teacher's Compiler struct shape (compile.go), adapted from a
// workflow-graph compiler to a source-to-XML compiler.
package compiler

import (
	"strconv"

	"bpmdsl.dev/compiler/ast"
	"bpmdsl.dev/compiler/bpmn"
	"bpmdsl.dev/compiler/openapi"
	"bpmdsl.dev/compiler/parser"
	"bpmdsl.dev/compiler/validate"
)

// Options configures one compilation run.
type Options struct {
	// Strict controls the validator's one open-ended invariant: whether
	// an unreachable element is an error (true, the default) or a
	// warning (false).
	Strict bool
	// XMLDeclaration is written as the emitted document's first line.
	// Empty means no declaration is written.
	XMLDeclaration string
}

// DefaultOptions matches the specification's chosen defaults: strict
// connectivity, a standard XML declaration.
func DefaultOptions() Options {
	return Options{
		Strict:         true,
		XMLDeclaration: bpmn.DefaultOptions().XMLDeclaration,
	}
}

// Result is the outcome of a successful compilation: the rendered BPMN
// document plus the validation report that cleared it (which may still
// carry warnings).
type Result struct {
	XML    string
	Report *validate.Report
}

// ValidationError is returned when validation finds one or more errors;
// emission is skipped entirely (§5's "emission skipped" contract). It
// carries the full report so a caller can print every violation, not
// just the first.
type ValidationError struct {
	Report *validate.Report
}

func (e *ValidationError) Error() string {
	if len(e.Report.Errors) == 1 {
		return e.Report.Errors[0].Error()
	}
	return "validation failed with " + strconv.Itoa(len(e.Report.Errors)) + " errors"
}

// CompileFile reads path (and its sidecar OpenAPI document) from disk,
// validates, and emits. Errors returned before validation runs (file
// I/O, parse failures, the missing-sidecar case) are returned as-is so
// callers can type-switch on *diag.MissingOpenAPIError etc.
func CompileFile(path string, opts Options) (*Result, error) {
	proc, sidecar, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return compile(proc, sidecar, opts)
}

// CompileSource validates and emits an already-parsed process, e.g. for
// callers that obtained the sidecar some other way than a file-based
// lookup (tests, in-memory tooling).
func CompileSource(proc *ast.Process, sidecar *openapi.Sidecar, opts Options) (*Result, error) {
	return compile(proc, sidecar, opts)
}

func compile(proc *ast.Process, sidecar *openapi.Sidecar, opts Options) (*Result, error) {
	report := validate.Validate(proc, sidecar, validate.Options{Strict: opts.Strict})
	if !report.OK() {
		return nil, &ValidationError{Report: report}
	}

	sidecarPath := ""
	if sidecar != nil {
		sidecarPath = sidecar.Path
	}
	xml := bpmn.Emit(proc, sidecarPath, bpmn.Options{XMLDeclaration: opts.XMLDeclaration})

	return &Result{XML: xml, Report: report}, nil
}
