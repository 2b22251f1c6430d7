// Package bpmn implements the BPMN 2.0 XML emitter, including the
// ProcessEntity-expansion pass that desugars the DSL's entity-task
// surface sugar into a validator service task, a pass/fail gateway and
// an error end, grounded on original_source's bpmn_generator.py
// (_add_process_entity / _add_flows).
package bpmn

import (
	"bpmdsl.dev/compiler/ast"
	"bpmdsl.dev/compiler/layout"
)

const (
	processEntityTaskType  = "process-entity-validator"
	processEntityErrorID   = "process-entity-validation-error"
	processEntityErrorName = "Process Entity Validation Error"
	processEntityErrorCode = "PROCESS_ENTITY_VALIDATION_ERROR"
)

// expandedEntity records the synthesized ids for one ProcessEntity, so
// the diagram pass can place them relative to the original element.
type expandedEntity struct {
	entityID   string
	gatewayID  string
	errorEndID string
}

// ExpandedProcess is a private working copy of a Process with every
// ProcessEntity desugared into a serviceTask + exclusiveGateway +
// errorEnd, and its flows rewired accordingly. The original AST is
// never mutated (DESIGN NOTES: "ProcessEntity expansion").
type ExpandedProcess struct {
	Process  *ast.Process
	Elements []ast.Element
	Flows    []ast.Flow

	// HasProcessEntity is true iff the original process declared one,
	// controlling whether the shared error declaration is emitted.
	HasProcessEntity bool

	entities map[string]expandedEntity
}

// Expand builds the working copy. sidecarPath is the resolved sidecar
// OpenAPI document path, used verbatim as the entityModel header value
// per §4.5 ("entityModel is the sidecar OpenAPI path") — it is derived
// here at emission time, never stored on the parsed AST. Expand assumes
// the validator has already confirmed at most one ProcessEntity exists
// and that it is a unique StartEvent successor (invariant 6); it does
// not re-validate.
func Expand(proc *ast.Process, sidecarPath string) *ExpandedProcess {
	ep := &ExpandedProcess{
		Process:  proc,
		entities: map[string]expandedEntity{},
	}

	for _, e := range proc.Elements {
		if e.Kind != ast.KindProcessEntity {
			ep.Elements = append(ep.Elements, e)
			continue
		}

		ep.HasProcessEntity = true

		gatewayID := e.ID + "-validation-gateway"
		errorEndID := e.ID + "-validation-error"
		ep.entities[e.ID] = expandedEntity{entityID: e.ID, gatewayID: gatewayID, errorEndID: errorEndID}

		serviceTask := ast.Element{
			ID:       e.ID,
			Name:     e.Name,
			Kind:     ast.KindServiceTask,
			TaskType: processEntityTaskType,
			Retries:  3,
			Headers: []ast.Header{
				{Key: "entityName", Value: e.EntityName},
				{Key: "entityModel", Value: sidecarPath},
			},
			InputMappings:  []ast.Mapping{{Source: "processEntity", Target: "processEntity"}},
			OutputMappings: []ast.Mapping{{Source: "validationResult", Target: "entityValidationResult"}},
		}
		gateway := ast.Element{ID: gatewayID, Name: "Validation Check", Kind: ast.KindXorGateway}
		errorEnd := ast.Element{ID: errorEndID, Name: "Validation Error", Kind: ast.KindEnd}

		ep.Elements = append(ep.Elements, serviceTask, gateway, errorEnd)
	}

	ep.Flows = ep.rewireFlows()

	return ep
}

// rewireFlows implements §4.5's edge-rewiring rule: the original edge
// E -> X is replaced by E -> gateway, gateway -> X (default), and
// gateway -> error-end (conditional).
func (ep *ExpandedProcess) rewireFlows() []ast.Flow {
	var out []ast.Flow

	for _, f := range ep.Process.Flows {
		if _, ok := ep.entities[f.TargetID]; ok {
			// ... -> E stays unchanged; the synthetic edges out of E
			// are added once below, not per incoming flow.
			out = append(out, f)
			continue
		}
		if ent, ok := ep.entities[f.SourceID]; ok {
			// E -> X becomes gateway -> X, unconditional and marked as
			// the gateway's default edge. A ProcessEntity's own
			// outgoing edge can never carry a condition (invariant 8
			// plus the non-gateway condition lint), so there is
			// nothing to preserve from f.Condition here.
			out = append(out, ast.Flow{SourceID: ent.gatewayID, TargetID: f.TargetID})
			continue
		}
		out = append(out, f)
	}

	for _, ent := range ep.orderedEntities() {
		out = append(out, ast.Flow{SourceID: ent.entityID, TargetID: ent.gatewayID})
		out = append(out, ast.Flow{SourceID: ent.gatewayID, TargetID: ent.errorEndID, Condition: "entityValidationResult.isValid = false"})
	}

	return out
}

// orderedEntities returns the synthesized entity records in the order
// their ProcessEntity appeared in the source, for deterministic flow
// emission.
func (ep *ExpandedProcess) orderedEntities() []expandedEntity {
	var out []expandedEntity
	for _, e := range ep.Process.Elements {
		if e.Kind == ast.KindProcessEntity {
			out = append(out, ep.entities[e.ID])
		}
	}
	return out
}

// GatewayIDFor returns the synthesized gateway id for entityID, if
// entityID names a ProcessEntity.
func (ep *ExpandedProcess) GatewayIDFor(entityID string) (string, bool) {
	ent, ok := ep.entities[entityID]
	return ent.gatewayID, ok
}

// OriginalOf returns the entity id a synthesized gateway/error-end id
// was generated from.
func (ep *ExpandedProcess) OriginalOf(syntheticID string) (entityID string, ok bool) {
	for id, ent := range ep.entities {
		if ent.gatewayID == syntheticID || ent.errorEndID == syntheticID {
			return id, true
		}
	}
	return "", false
}

// IsValidationErrorEnd reports whether id names one of the synthesized
// error ends, so the emitter knows to attach an errorEventDefinition.
func (ep *ExpandedProcess) IsValidationErrorEnd(id string) bool {
	for _, ent := range ep.entities {
		if ent.errorEndID == id {
			return true
		}
	}
	return false
}

// gatewaySuccessEdges returns, for entityID's synthesized gateway, the
// deterministic flow id and target id of every outgoing edge except the
// one to its own error end — i.e. the success-branch edge(s) that need
// re-routing once the gateway is repositioned.
func (ep *ExpandedProcess) gatewaySuccessEdges(entityID string) map[string]string {
	ent, ok := ep.entities[entityID]
	if !ok {
		return nil
	}
	out := map[string]string{}
	for _, f := range ep.Flows {
		if f.SourceID != ent.gatewayID || f.TargetID == ent.errorEndID {
			continue
		}
		out[layout.FlowID(f.SourceID, f.TargetID)] = f.TargetID
	}
	return out
}
