// Package command implements the bpmc CLI's subcommands: convert,
// validate and info, matching the exit-code contract from the external
// interfaces section (0 success, 1 parse/validate failure, 2 I/O
// error).
package command

import (
	"errors"

	"bpmdsl.dev/compiler"
	"bpmdsl.dev/compiler/diag"
)

// kindedError is satisfied by every typed error the parser and openapi
// packages return (diag.SyntaxError, diag.MissingOpenAPIError, ...).
type kindedError interface {
	Kind() diag.Kind
}

// exitCode maps a compilation error onto the CLI's three-way exit
// contract: I/O-kind errors get 2, everything else (syntax, semantic,
// validation reports) gets 1. MissingOpenAPIError is IO-kind (it names
// a missing file) but is a parse-time failure reported by ParseFile
// itself, not a filesystem fault on the .bpm file; §8 scenario 5 and
// §6 both call for exit 1 here, not 2.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var me *diag.MissingOpenAPIError
	if errors.As(err, &me) {
		return 1
	}

	var ke kindedError
	if errors.As(err, &ke) {
		if ke.Kind() == diag.IO {
			return 2
		}
		return 1
	}

	var ve *compiler.ValidationError
	if errors.As(err, &ve) {
		return 1
	}

	// an unclassified error (e.g. a bare os.ReadFile failure) is
	// treated as I/O since every classified failure mode above already
	// carries a Kind.
	return 2
}
