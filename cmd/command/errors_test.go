package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"bpmdsl.dev/compiler/diag"
)

func TestExitCodeMissingSidecarIsOne(t *testing.T) {
	assert.Equal(t, 1, exitCode(&diag.MissingOpenAPIError{Stem: "p"}))
}

func TestExitCodeSyntaxErrorIsOne(t *testing.T) {
	assert.Equal(t, 1, exitCode(&diag.SyntaxError{Line: 1, Column: 1, Message: "boom"}))
}

func TestExitCodeUnclassifiedErrorIsTwo(t *testing.T) {
	assert.Equal(t, 2, exitCode(errors.New("disk full")))
}

func TestExitCodeNilIsZero(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
}
