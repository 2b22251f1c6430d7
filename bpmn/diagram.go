package bpmn

import (
	"strconv"

	"bpmdsl.dev/compiler/ast"
	"bpmdsl.dev/compiler/layout"
)

// emitDiagram renders the <bpmndi:BPMNDiagram> section: one BPMNShape
// per element and one BPMNEdge per flow, positioned from lay.
func emitDiagram(w *xmlWriter, proc *ast.Process, ep *ExpandedProcess, lay *layout.Layout) {
	w.openTag("bpmndi:BPMNDiagram", a("id", "diagram_"+proc.ID))
	w.openTag("bpmndi:BPMNPlane", a("id", "plane_"+proc.ID), a("bpmnElement", proc.ID))

	for _, e := range ep.Elements {
		rect, ok := lay.Positions[e.ID]
		if !ok {
			continue
		}
		w.openTag("bpmndi:BPMNShape", a("id", "shape_"+e.ID), a("bpmnElement", e.ID))
		w.selfClosingTag("dc:Bounds",
			a("x", formatCoord(rect.X)),
			a("y", formatCoord(rect.Y)),
			a("width", formatCoord(rect.Width)),
			a("height", formatCoord(rect.Height)),
		)
		w.closeTag("bpmndi:BPMNShape")
	}

	for _, f := range ep.Flows {
		flowID := layout.FlowID(f.SourceID, f.TargetID)
		wps, ok := lay.Edges[flowID]
		if !ok {
			continue
		}
		w.openTag("bpmndi:BPMNEdge", a("id", "edge_"+flowID), a("bpmnElement", flowID))
		for _, wp := range wps {
			w.selfClosingTag("di:waypoint", a("x", formatCoord(wp.X)), a("y", formatCoord(wp.Y)))
		}
		w.closeTag("bpmndi:BPMNEdge")
	}

	w.closeTag("bpmndi:BPMNPlane")
	w.closeTag("bpmndi:BPMNDiagram")
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
