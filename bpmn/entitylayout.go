package bpmn

import "bpmdsl.dev/compiler/layout"

// Dimensions for the two nodes synthesized by ProcessEntity expansion,
// fixed regardless of layout.Config (§4.5 item 2 and
// original_source's bpmn_generator.py _add_diagram).
const (
	entityGatewayWidth  = 50.0
	entityGatewayHeight = 50.0
	entityErrorWidth    = 36.0
	entityErrorHeight   = 36.0
	entityGatewayOffset = 80.0
	entityErrorOffset   = 60.0
)

// adjustEntityLayout overrides the generic layout engine's placement of
// a ProcessEntity's synthesized gateway and error end: §4.5 item 2
// pins the gateway 80px to the right of the entity task and the error
// end 60px below the gateway, rather than letting them fall out one
// full level to the right like any other node. The generic layout is
// run first (so every other element gets its usual position), then
// this pass repositions just the synthesized nodes and re-routes the
// three edge shapes that touch them, grounded on bpmn_generator.py's
// _add_diagram/_add_generated_flow_diagrams.
func adjustEntityLayout(ep *ExpandedProcess, lay *layout.Layout) {
	for entityID, ent := range ep.entities {
		entityPos, ok := lay.Positions[entityID]
		if !ok {
			continue
		}

		gateway := layout.Rect{
			X:      entityPos.X + entityPos.Width + entityGatewayOffset,
			Y:      entityPos.Y + (entityPos.Height-entityGatewayHeight)/2,
			Width:  entityGatewayWidth,
			Height: entityGatewayHeight,
		}
		errorEnd := layout.Rect{
			X:      gateway.X + (entityGatewayWidth-entityErrorWidth)/2,
			Y:      gateway.Y + entityGatewayHeight + entityErrorOffset,
			Width:  entityErrorWidth,
			Height: entityErrorHeight,
		}
		lay.Positions[ent.gatewayID] = gateway
		lay.Positions[ent.errorEndID] = errorEnd

		lay.Edges[layout.FlowID(entityID, ent.gatewayID)] = []layout.Waypoint{
			{X: entityPos.Right(), Y: entityPos.CenterY()},
			{X: gateway.X, Y: gateway.Y + entityGatewayHeight/2},
		}
		lay.Edges[layout.FlowID(ent.gatewayID, ent.errorEndID)] = []layout.Waypoint{
			{X: gateway.X + entityGatewayWidth/2, Y: gateway.Y + entityGatewayHeight},
			{X: errorEnd.X + entityErrorWidth/2, Y: errorEnd.Y},
		}

		for flowID, targetID := range ep.gatewaySuccessEdges(entityID) {
			targetPos, ok := lay.Positions[targetID]
			if !ok {
				continue
			}
			lay.Edges[flowID] = []layout.Waypoint{
				{X: gateway.Right(), Y: gateway.Y + entityGatewayHeight/2},
				{X: targetPos.X, Y: targetPos.CenterY()},
			}
		}
	}
}
