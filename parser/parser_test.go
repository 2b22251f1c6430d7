package parser

import (
	"testing"

	"bpmdsl.dev/compiler/ast"
	"bpmdsl.dev/compiler/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinimalPipeline(t *testing.T) {
	src := `process "M" { id:"m" start "S" {id:"s"} end "E" {id:"e"} flow { "s" -> "e" } }`

	proc, err := Parse(src)
	require.NoError(t, err)

	assert.Equal(t, "M", proc.Name)
	assert.Equal(t, "m", proc.ID)
	require.Len(t, proc.Elements, 2)
	assert.Equal(t, ast.KindStart, proc.Elements[0].Kind)
	assert.Equal(t, "s", proc.Elements[0].ID)
	assert.Equal(t, ast.KindEnd, proc.Elements[1].Kind)
	assert.Equal(t, "e", proc.Elements[1].ID)
	require.Len(t, proc.Flows, 1)
	assert.Equal(t, ast.Flow{SourceID: "s", TargetID: "e"}, proc.Flows[0])
}

func TestParseScriptCallWithMappings(t *testing.T) {
	src := `process "P" { id:"p"
		start "S" { id:"s" }
		scriptCall "Compute" {
			id:"c"
			script:"a+b"
			inputMappings: [ { source:"a", target:"x" } ]
			outputMappings: [ { source:"x", target:"out" } ]
			resultVariable:"r"
		}
		end "E" { id:"e" }
		flow { "s" -> "c" "c" -> "e" }
	}`

	proc, err := Parse(src)
	require.NoError(t, err)

	require.Len(t, proc.Elements, 3)
	sc := proc.Elements[1]
	assert.Equal(t, ast.KindScriptCall, sc.Kind)
	assert.Equal(t, "a+b", sc.Script)
	assert.Equal(t, "r", sc.ResultVariable)
	require.Len(t, sc.InputMappings, 1)
	assert.Equal(t, ast.Mapping{Source: "a", Target: "x"}, sc.InputMappings[0])
	require.Len(t, sc.OutputMappings, 1)
	assert.Equal(t, ast.Mapping{Source: "x", Target: "out"}, sc.OutputMappings[0])
}

func TestParseServiceTaskWithHeaders(t *testing.T) {
	src := `process "P" { id:"p"
		serviceTask "Charge" {
			id:"charge"
			taskType:"payments.charge"
			retries: 5
			headers: { "x-env": "prod", "x-team": "billing" }
		}
		flow { }
	}`

	proc, err := Parse(src)
	require.NoError(t, err)

	require.Len(t, proc.Elements, 1)
	st := proc.Elements[0]
	assert.Equal(t, "payments.charge", st.TaskType)
	assert.Equal(t, 5, st.Retries)
	require.Len(t, st.Headers, 2)
	assert.Equal(t, ast.Header{Key: "x-env", Value: "prod"}, st.Headers[0])
}

func TestParseXorGatewayWithDefault(t *testing.T) {
	src := `process "P" { id:"p"
		xorGateway "G" { id:"g" }
		flow {
			"g" -> "t1" [condition:"x>0"]
			"g" -> "t2"
		}
	}`

	proc, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, proc.Flows, 2)
	assert.Equal(t, "x>0", proc.Flows[0].Condition)
	assert.Equal(t, "", proc.Flows[1].Condition)
}

func TestParseProcessEntityDerivedID(t *testing.T) {
	src := `process "P" { id:"p"
		processEntity "Load Customer" { entityName:"Customer" }
		flow { }
	}`

	proc, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, proc.Elements, 1)
	assert.Equal(t, "load-customer", proc.Elements[0].ID)
	assert.Equal(t, "Customer", proc.Elements[0].EntityName)
}

func TestParseDuplicateKeyError(t *testing.T) {
	src := `process "P" { id:"p"
		start "S" { id:"s" id:"s2" }
		flow { }
	}`

	_, err := Parse(src)
	require.Error(t, err)
	var dupErr *diag.DuplicateKeyError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "id", dupErr.Key)
}

func TestParseMissingRequiredField(t *testing.T) {
	src := `process "P" { id:"p"
		scriptCall "Compute" { id:"c" }
		flow { }
	}`

	_, err := Parse(src)
	require.Error(t, err)
	var missing *diag.MissingRequiredField
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "script", missing.Field)
}

func TestParseSyntaxError(t *testing.T) {
	src := `process "P" { id:"p" flow { "a"` // unterminated
	_, err := Parse(src)
	require.Error(t, err)
	var syn *diag.SyntaxError
	require.ErrorAs(t, err, &syn)
}

func TestParseComments(t *testing.T) {
	src := `process "P" { // a comment
		id:"p" // another
		flow { }
	}`
	_, err := Parse(src)
	require.NoError(t, err)
}
