// Package layout implements the deterministic five-phase layout
// algorithm from the specification: level assignment, vertical
// placement, gateway branch adjustment and orthogonal edge routing.
// It is grounded on original_source's layout_engine.py (the primary
// algorithmic source of truth) and on pflow-xyz-go-pflow's
// visualization/workflow_svg.go (assignLevels/calculatePositions) for
// Go-native shape.
package layout

import "bpmdsl.dev/compiler/ast"

// Config holds every tunable dimension, spacing and margin value. It is
// passed by value into Calculate — there is no package-level singleton
// (DESIGN NOTES: "No global state").
type Config struct {
	Dimensions            map[ast.Kind]Size
	Horizontal            float64
	Vertical              float64
	LevelSpacing          float64
	GatewayBranchSpacing  float64
	MarginTop             float64
	MarginLeft            float64
	MarginRight           float64
	MarginBottom          float64
}

type Size struct {
	Width, Height float64
}

// DefaultConfig matches the dimensions/spacing table in the
// specification exactly.
func DefaultConfig() Config {
	return Config{
		Dimensions: map[ast.Kind]Size{
			ast.KindStart:         {Width: 36, Height: 36},
			ast.KindEnd:           {Width: 36, Height: 36},
			ast.KindScriptCall:    {Width: 100, Height: 80},
			ast.KindServiceTask:   {Width: 100, Height: 80},
			ast.KindXorGateway:    {Width: 50, Height: 50},
			ast.KindProcessEntity: {Width: 100, Height: 80},
		},
		Horizontal:           150,
		Vertical:             100,
		LevelSpacing:         200,
		GatewayBranchSpacing: 120,
		MarginTop:            50,
		MarginLeft:           50,
		MarginRight:          50,
		MarginBottom:         50,
	}
}

// Rect is an element's computed bounding box.
type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }
func (r Rect) Right() float64   { return r.X + r.Width }

// Waypoint is one (x, y) point on an edge's polyline.
type Waypoint struct {
	X, Y float64
}

// Layout is the result of Calculate: a position per element id and a
// waypoint sequence per flow, keyed by the flow's deterministic id
// ("flow_{source}_to_{target}").
type Layout struct {
	Positions map[string]Rect
	Edges     map[string][]Waypoint
}

// graphView is the minimal read-only surface Calculate needs from a
// Process — an ordered element list plus ordered successor/predecessor
// lookups. Both the AST's own elements/flows and the emitter's expanded
// working copy satisfy it by construction (see bpmn.ExpandedProcess).
type graphView struct {
	elements []ast.Element
	flows    []ast.Flow
	succ     map[string][]string
	byID     map[string]ast.Element
}

func newGraphView(elements []ast.Element, flows []ast.Flow) *graphView {
	gv := &graphView{
		elements: elements,
		flows:    flows,
		succ:     map[string][]string{},
		byID:     map[string]ast.Element{},
	}
	for _, e := range elements {
		gv.byID[e.ID] = e
	}
	for _, f := range flows {
		gv.succ[f.SourceID] = append(gv.succ[f.SourceID], f.TargetID)
	}
	return gv
}

// Calculate runs all five phases over elements/flows and returns the
// resulting positions and edge routes. Elements and flows must be given
// in author (or, for synthesized nodes, synthesis) order — every phase
// iterates in that order, never in hash-table order, to keep output
// deterministic (P3).
func Calculate(cfg Config, elements []ast.Element, flows []ast.Flow) *Layout {
	gv := newGraphView(elements, flows)

	level, order := assignLevels(gv)
	positions := positionElements(cfg, gv, level, order)
	positionGatewayBranches(cfg, gv, level, positions)
	edges := routeEdges(cfg, gv, positions)

	return &Layout{Positions: positions, Edges: edges}
}

// Phase 2 — longest-path level assignment with back-edge detection.
//
// Back-edges (those closing a cycle in a DFS over the elements) are
// excluded from level relaxation so a cycle in the authored graph can
// never prevent termination; their source element keeps whatever level
// forward edges gave it (DESIGN NOTES: "Cycles in layout").
func assignLevels(gv *graphView) (map[string]int, []string) {
	backEdge := detectBackEdges(gv)

	level := map[string]int{}
	var firstSeenOrder []string
	seenOrder := map[string]bool{}

	var roots []string
	for _, e := range gv.elements {
		if e.Kind == ast.KindStart {
			roots = append(roots, e.ID)
		}
	}
	if len(roots) == 0 {
		for _, e := range gv.elements {
			if len(predecessorsOf(gv, e.ID)) == 0 {
				roots = append(roots, e.ID)
			}
		}
	}

	type item struct {
		id    string
		level int
	}
	var queue []item
	for _, id := range roots {
		queue = append(queue, item{id: id, level: 0})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if existing, ok := level[cur.id]; ok {
			if cur.level <= existing {
				continue
			}
		}
		level[cur.id] = cur.level

		if !seenOrder[cur.id] {
			seenOrder[cur.id] = true
			firstSeenOrder = append(firstSeenOrder, cur.id)
		}

		for _, succ := range gv.succ[cur.id] {
			if backEdge[edgeKey{cur.id, succ}] {
				continue
			}
			nextLevel := cur.level + 1
			if existing, ok := level[succ]; !ok || existing < nextLevel {
				queue = append(queue, item{id: succ, level: nextLevel})
			}
		}
	}

	// Any element never reached from a root (shouldn't happen once the
	// validator has run, but layout must still terminate on arbitrary
	// input) gets level 0 and is appended to the visitation order.
	for _, e := range gv.elements {
		if _, ok := level[e.ID]; !ok {
			level[e.ID] = 0
			firstSeenOrder = append(firstSeenOrder, e.ID)
		}
	}

	return level, firstSeenOrder
}

type edgeKey struct{ from, to string }

// detectBackEdges runs a DFS from each not-yet-visited element in author
// order, coloring nodes white/gray/black; an edge to a gray node is a
// back-edge.
func detectBackEdges(gv *graphView) map[edgeKey]bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	back := map[edgeKey]bool{}

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		for _, succ := range gv.succ[id] {
			switch color[succ] {
			case white:
				visit(succ)
			case gray:
				back[edgeKey{id, succ}] = true
			}
		}
		color[id] = black
	}

	for _, e := range gv.elements {
		if color[e.ID] == white {
			visit(e.ID)
		}
	}
	return back
}

func predecessorsOf(gv *graphView, id string) []string {
	var out []string
	for _, f := range gv.flows {
		if f.TargetID == id {
			out = append(out, f.SourceID)
		}
	}
	return out
}

// Phase 3 — vertical placement, centered on a shared baseline.
func positionElements(cfg Config, gv *graphView, level map[string]int, order []string) map[string]Rect {
	positions := map[string]Rect{}

	byLevel := map[int][]string{}
	maxLevel := 0
	for _, id := range order {
		l := level[id]
		byLevel[l] = append(byLevel[l], id)
		if l > maxLevel {
			maxLevel = l
		}
	}

	x := cfg.MarginLeft
	for l := 0; l <= maxLevel; l++ {
		ids, ok := byLevel[l]
		if !ok {
			continue
		}

		levelWidth := 0.0
		maxHeight := 0.0
		for _, id := range ids {
			dims := cfg.Dimensions[gv.byID[id].Kind]
			if dims.Width > levelWidth {
				levelWidth = dims.Width
			}
			if dims.Height > maxHeight {
				maxHeight = dims.Height
			}
		}

		baseline := cfg.MarginTop + maxHeight/2
		n := len(ids)
		mid := float64(n-1) / 2.0

		for i, id := range ids {
			dims := cfg.Dimensions[gv.byID[id].Kind]
			centerY := baseline + (float64(i)-mid)*cfg.Vertical
			positions[id] = Rect{
				X:      x,
				Y:      centerY - dims.Height/2,
				Width:  dims.Width,
				Height: dims.Height,
			}
		}

		x += levelWidth + cfg.LevelSpacing
	}

	return positions
}

// Phase 4 — gateway branch adjustment. For every XorGateway with k >= 2
// outgoing edges, its direct successors at level[gateway]+1 are
// redistributed symmetrically around the gateway's own y.
func positionGatewayBranches(cfg Config, gv *graphView, level map[string]int, positions map[string]Rect) {
	for _, e := range gv.elements {
		if e.Kind != ast.KindXorGateway {
			continue
		}
		successors := gv.succ[e.ID]
		if len(successors) < 2 {
			continue
		}

		gatewayPos, ok := positions[e.ID]
		if !ok {
			continue
		}
		gatewayLevel := level[e.ID]

		var directSuccessors []string
		for _, s := range successors {
			if level[s] == gatewayLevel+1 {
				directSuccessors = append(directSuccessors, s)
			}
		}
		if len(directSuccessors) < 2 {
			continue
		}

		totalHeight := float64(len(directSuccessors)-1) * cfg.GatewayBranchSpacing
		startY := gatewayPos.CenterY() - totalHeight/2

		for i, succID := range directSuccessors {
			pos, ok := positions[succID]
			if !ok {
				continue
			}
			newCenterY := startY + float64(i)*cfg.GatewayBranchSpacing
			pos.Y = newCenterY - pos.Height/2
			positions[succID] = pos
		}
	}
}

// Phase 5 — edge routing: straight segment if the two endpoints sit
// within 10px vertically, otherwise a four-point orthogonal Z.
func routeEdges(cfg Config, gv *graphView, positions map[string]Rect) map[string][]Waypoint {
	edges := map[string][]Waypoint{}

	for _, f := range gv.flows {
		src, srcOK := positions[f.SourceID]
		dst, dstOK := positions[f.TargetID]
		if !srcOK || !dstOK {
			continue
		}

		startX, startY := src.Right(), src.CenterY()
		endX, endY := dst.X, dst.CenterY()

		var wps []Waypoint
		if abs(startY-endY) < 10 {
			wps = []Waypoint{{X: startX, Y: startY}, {X: endX, Y: endY}}
		} else {
			midX := (startX + endX) / 2
			wps = []Waypoint{
				{X: startX, Y: startY},
				{X: midX, Y: startY},
				{X: midX, Y: endY},
				{X: endX, Y: endY},
			}
		}

		flowID := FlowID(f.SourceID, f.TargetID)
		edges[flowID] = wps
	}

	return edges
}

// FlowID is the deterministic id assigned to a flow's sequenceFlow and
// BPMNEdge: "flow_{source}_to_{target}".
func FlowID(source, target string) string {
	return "flow_" + source + "_to_" + target
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
