package layout

import (
	"testing"

	"bpmdsl.dev/compiler/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateStraightLine(t *testing.T) {
	elements := []ast.Element{
		{ID: "s", Kind: ast.KindStart},
		{ID: "e", Kind: ast.KindEnd},
	}
	flows := []ast.Flow{{SourceID: "s", TargetID: "e"}}

	out := Calculate(DefaultConfig(), elements, flows)

	require.Contains(t, out.Positions, "s")
	require.Contains(t, out.Positions, "e")
	assert.Less(t, out.Positions["s"].X, out.Positions["e"].X)

	wps, ok := out.Edges[FlowID("s", "e")]
	require.True(t, ok)
	assert.Len(t, wps, 2)
}

func TestCalculateIsDeterministic(t *testing.T) {
	elements := []ast.Element{
		{ID: "s", Kind: ast.KindStart},
		{ID: "g", Kind: ast.KindXorGateway},
		{ID: "t1", Kind: ast.KindEnd},
		{ID: "t2", Kind: ast.KindEnd},
	}
	flows := []ast.Flow{
		{SourceID: "s", TargetID: "g"},
		{SourceID: "g", TargetID: "t1"},
		{SourceID: "g", TargetID: "t2"},
	}

	first := Calculate(DefaultConfig(), elements, flows)
	second := Calculate(DefaultConfig(), elements, flows)

	assert.Equal(t, first.Positions, second.Positions)
	assert.Equal(t, first.Edges, second.Edges)
}

func TestGatewayBranchesSymmetric(t *testing.T) {
	elements := []ast.Element{
		{ID: "s", Kind: ast.KindStart},
		{ID: "g", Kind: ast.KindXorGateway},
		{ID: "t1", Kind: ast.KindEnd},
		{ID: "t2", Kind: ast.KindEnd},
	}
	flows := []ast.Flow{
		{SourceID: "s", TargetID: "g"},
		{SourceID: "g", TargetID: "t1"},
		{SourceID: "g", TargetID: "t2"},
	}

	out := Calculate(DefaultConfig(), elements, flows)

	gy := out.Positions["g"].CenterY()
	t1y := out.Positions["t1"].CenterY()
	t2y := out.Positions["t2"].CenterY()

	assert.InDelta(t, gy-t1y, t2y-gy, 0.001)
	assert.InDelta(t, 120, t2y-t1y, 0.001)
}

func TestCycleTerminates(t *testing.T) {
	elements := []ast.Element{
		{ID: "s", Kind: ast.KindStart},
		{ID: "a", Kind: ast.KindServiceTask},
		{ID: "b", Kind: ast.KindServiceTask},
		{ID: "e", Kind: ast.KindEnd},
	}
	flows := []ast.Flow{
		{SourceID: "s", TargetID: "a"},
		{SourceID: "a", TargetID: "b"},
		{SourceID: "b", TargetID: "a"}, // back-edge
		{SourceID: "b", TargetID: "e"},
	}

	out := Calculate(DefaultConfig(), elements, flows)
	assert.Len(t, out.Positions, 4)
}

func TestOrthogonalRoutingWhenVerticallyOffset(t *testing.T) {
	elements := []ast.Element{
		{ID: "s", Kind: ast.KindStart},
		{ID: "g", Kind: ast.KindXorGateway},
		{ID: "t1", Kind: ast.KindEnd},
		{ID: "t2", Kind: ast.KindEnd},
	}
	flows := []ast.Flow{
		{SourceID: "s", TargetID: "g"},
		{SourceID: "g", TargetID: "t1"},
		{SourceID: "g", TargetID: "t2"},
	}
	out := Calculate(DefaultConfig(), elements, flows)

	wps := out.Edges[FlowID("g", "t1")]
	require.Len(t, wps, 4)
	assert.Equal(t, wps[1].X, wps[2].X)
}
