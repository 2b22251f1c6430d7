package validate

import (
	"testing"

	"bpmdsl.dev/compiler/ast"
	"bpmdsl.dev/compiler/openapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalValid() *ast.Process {
	return &ast.Process{
		Name:    "M",
		ID:      "m",
		Version: "1.0.0",
		Elements: []ast.Element{
			{ID: "s", Name: "S", Kind: ast.KindStart},
			{ID: "e", Name: "E", Kind: ast.KindEnd},
		},
		Flows: []ast.Flow{{SourceID: "s", TargetID: "e"}},
	}
}

func TestValidateMinimalValidProcess(t *testing.T) {
	report := Validate(minimalValid(), nil, DefaultOptions())
	assert.True(t, report.OK())
	assert.Empty(t, report.Warnings)
}

func TestValidateDuplicateIDAndDanglingFlow(t *testing.T) {
	proc := &ast.Process{
		Name: "P",
		ID:   "p",
		Elements: []ast.Element{
			{ID: "dup", Name: "A", Kind: ast.KindStart},
			{ID: "dup", Name: "B", Kind: ast.KindEnd},
			{ID: "dup", Name: "C", Kind: ast.KindEnd},
		},
		Flows: []ast.Flow{{SourceID: "dup", TargetID: "missing"}},
	}

	report := Validate(proc, nil, DefaultOptions())
	require.False(t, report.OK())
	assert.GreaterOrEqual(t, len(report.Errors), 3)
}

func addOrphanIsland(proc *ast.Process) {
	proc.Elements = append(proc.Elements,
		ast.Element{ID: "orphan", Name: "Orphan", Kind: ast.KindServiceTask, TaskType: "t", Retries: 3},
		ast.Element{ID: "orphan-end", Name: "OrphanEnd", Kind: ast.KindEnd},
	)
	proc.Flows = append(proc.Flows, ast.Flow{SourceID: "orphan", TargetID: "orphan-end"})
}

func TestValidateUnreachableElementStrict(t *testing.T) {
	proc := minimalValid()
	addOrphanIsland(proc)

	report := Validate(proc, nil, DefaultOptions())
	assert.False(t, report.OK())

	found := false
	for _, d := range report.Errors {
		if d.Rule == "unreachable-element" && d.ElementID == "orphan" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateUnreachablePermissive(t *testing.T) {
	proc := minimalValid()
	addOrphanIsland(proc)

	report := Validate(proc, nil, Options{Strict: false})
	assert.True(t, report.OK())
	found := false
	for _, d := range report.Warnings {
		if d.Rule == "unreachable-element" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateGatewayMultipleDefaults(t *testing.T) {
	proc := &ast.Process{
		Name: "P", ID: "p",
		Elements: []ast.Element{
			{ID: "s", Kind: ast.KindStart},
			{ID: "g", Kind: ast.KindXorGateway},
			{ID: "t1", Kind: ast.KindEnd},
			{ID: "t2", Kind: ast.KindEnd},
		},
		Flows: []ast.Flow{
			{SourceID: "s", TargetID: "g"},
			{SourceID: "g", TargetID: "t1"},
			{SourceID: "g", TargetID: "t2"},
		},
	}
	report := Validate(proc, nil, DefaultOptions())
	assert.False(t, report.OK())
	found := false
	for _, d := range report.Errors {
		if d.Rule == "gateway-multiple-defaults" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateConditionOnNonGatewayRejected(t *testing.T) {
	proc := minimalValid()
	proc.Flows[0].Condition = "x > 0"

	report := Validate(proc, nil, DefaultOptions())
	assert.False(t, report.OK())
	found := false
	for _, d := range report.Errors {
		if d.Rule == "condition-on-non-gateway" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateProcessEntityMustFollowStart(t *testing.T) {
	proc := &ast.Process{
		Name: "P", ID: "p",
		Elements: []ast.Element{
			{ID: "s", Kind: ast.KindStart},
			{ID: "mid", Kind: ast.KindServiceTask, TaskType: "t", Retries: 3},
			{ID: "load", Kind: ast.KindProcessEntity, EntityName: "Customer"},
			{ID: "e", Kind: ast.KindEnd},
		},
		Flows: []ast.Flow{
			{SourceID: "s", TargetID: "mid"},
			{SourceID: "mid", TargetID: "load"},
			{SourceID: "load", TargetID: "e"},
		},
	}
	report := Validate(proc, nil, DefaultOptions())
	assert.False(t, report.OK())
	found := false
	for _, d := range report.Errors {
		if d.Rule == "process-entity-placement" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateProcessEntityUnknownSchema(t *testing.T) {
	proc := &ast.Process{
		Name: "P", ID: "p",
		Elements: []ast.Element{
			{ID: "s", Kind: ast.KindStart},
			{ID: "load", Kind: ast.KindProcessEntity, EntityName: "Unknown"},
			{ID: "e", Kind: ast.KindEnd},
		},
		Flows: []ast.Flow{
			{SourceID: "s", TargetID: "load"},
			{SourceID: "load", TargetID: "e"},
		},
	}
	sidecar := &openapi.Sidecar{Schemas: map[string]bool{"Customer": true}}
	report := Validate(proc, sidecar, DefaultOptions())
	assert.False(t, report.OK())
}

func TestValidateMissingVersionWarning(t *testing.T) {
	proc := minimalValid()
	proc.Version = ""
	report := Validate(proc, nil, DefaultOptions())
	assert.True(t, report.OK())
	found := false
	for _, d := range report.Warnings {
		if d.Rule == "missing-version" {
			found = true
		}
	}
	assert.True(t, found)
}
