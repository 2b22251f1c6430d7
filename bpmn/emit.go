package bpmn

import (
	"strconv"
	"strings"

	"bpmdsl.dev/compiler/ast"
	"bpmdsl.dev/compiler/layout"
)

const (
	nsBPMN   = "http://www.omg.org/spec/BPMN/20100524/MODEL"
	nsBPMNDI = "http://www.omg.org/spec/BPMN/20100524/DI"
	nsDC     = "http://www.omg.org/spec/DD/20100524/DC"
	nsDI     = "http://www.omg.org/spec/DD/20100524/DI"
	nsZeebe  = "http://camunda.org/schema/zeebe/1.0"
	nsXSI    = "http://www.w3.org/2001/XMLSchema-instance"

	exporterName    = "bpmc"
	exporterVersion = "1.0"
)

// Options configures the emitter. XMLDeclaration, when non-empty, is
// written as the document's first line — kept configurable so P4's
// "byte-identical modulo a configurable XML declaration" clause holds.
type Options struct {
	XMLDeclaration string
}

func DefaultOptions() Options {
	return Options{XMLDeclaration: `<?xml version="1.0" encoding="UTF-8"?>`}
}

// Emit is a pure function of proc and sidecarPath: parse -> validate
// must have already succeeded; Emit performs ProcessEntity expansion,
// runs the layout engine over the expanded graph, and renders the BPMN
// 2.0 XML document described in §4.5.
func Emit(proc *ast.Process, sidecarPath string, opts Options) string {
	ep := Expand(proc, sidecarPath)
	lay := layout.Calculate(layout.DefaultConfig(), ep.Elements, ep.Flows)
	adjustEntityLayout(ep, lay)

	w := newXMLWriter()
	if opts.XMLDeclaration != "" {
		w.sb.WriteString(opts.XMLDeclaration)
		w.sb.WriteByte('\n')
	}

	defAttrs := []attr{
		a("xmlns", nsBPMN),
		a("xmlns:bpmndi", nsBPMNDI),
		a("xmlns:dc", nsDC),
		a("xmlns:di", nsDI),
		a("xmlns:zeebe", nsZeebe),
		a("xmlns:xsi", nsXSI),
		a("id", "definitions_"+proc.ID),
		a("targetNamespace", "http://bpmn.io/schema/bpmn"),
		a("exporter", exporterName),
		a("exporterVersion", exporterVersion),
	}
	w.openTag("definitions", defAttrs...)

	if ep.HasProcessEntity {
		w.selfClosingTag("error",
			a("id", processEntityErrorID),
			a("name", processEntityErrorName),
			a("errorCode", processEntityErrorCode),
		)
	}

	emitProcess(w, proc, ep)
	emitDiagram(w, proc, ep, lay)

	w.closeTag("definitions")

	return w.String()
}

func emitProcess(w *xmlWriter, proc *ast.Process, ep *ExpandedProcess) {
	w.openTag("process", a("id", proc.ID), a("name", proc.Name), a("isExecutable", "true"))

	defaultEdge := computeDefaultEdges(ep)

	for _, e := range ep.Elements {
		if e.Kind == ast.KindXorGateway {
			emitGateway(w, e, defaultEdge[e.ID])
			continue
		}
		emitElement(w, e, ep)
	}
	for _, f := range ep.Flows {
		emitFlow(w, f)
	}

	w.closeTag("process")
}

// computeDefaultEdges implements the generic rule from §4.5 item 1: a
// gateway's `default` attribute points at the single outgoing edge
// lacking a condition, if any. This is computed once for every gateway,
// including the synthesized ProcessEntity gateways — their single
// unconditional successor edge naturally satisfies the same rule, so no
// ProcessEntity-specific default logic is needed here.
func computeDefaultEdges(ep *ExpandedProcess) map[string]string {
	byGateway := map[string][]ast.Flow{}
	for _, e := range ep.Elements {
		if e.Kind == ast.KindXorGateway {
			byGateway[e.ID] = nil
		}
	}
	for _, f := range ep.Flows {
		if _, ok := byGateway[f.SourceID]; ok {
			byGateway[f.SourceID] = append(byGateway[f.SourceID], f)
		}
	}

	result := map[string]string{}
	for gatewayID, flows := range byGateway {
		var unconditional []ast.Flow
		for _, f := range flows {
			if f.Condition == "" {
				unconditional = append(unconditional, f)
			}
		}
		if len(unconditional) == 1 {
			result[gatewayID] = layout.FlowID(unconditional[0].SourceID, unconditional[0].TargetID)
		}
	}
	return result
}

func emitElement(w *xmlWriter, e ast.Element, ep *ExpandedProcess) {
	switch e.Kind {
	case ast.KindStart:
		w.selfClosingTag("startEvent", a("id", e.ID), a("name", e.Name))
	case ast.KindEnd:
		emitEndEvent(w, e, ep)
	case ast.KindScriptCall:
		emitScriptTask(w, e)
	case ast.KindServiceTask:
		emitServiceTask(w, e)
	}
}

func emitEndEvent(w *xmlWriter, e ast.Element, ep *ExpandedProcess) {
	if ep.IsValidationErrorEnd(e.ID) {
		w.openTag("endEvent", a("id", e.ID), a("name", e.Name))
		w.selfClosingTag("errorEventDefinition", a("id", e.ID+"-def"), a("errorRef", processEntityErrorID))
		w.closeTag("endEvent")
		return
	}
	w.selfClosingTag("endEvent", a("id", e.ID), a("name", e.Name))
}

func emitScriptTask(w *xmlWriter, e ast.Element) {
	w.openTag("scriptTask", a("id", e.ID), a("name", e.Name))
	w.openTag("extensionElements")
	w.selfClosingTag("zeebe:script", a("expression", feelExpression(e.Script)), a("resultVariable", e.ResultVariable))
	emitIOMapping(w, e)
	w.closeTag("extensionElements")
	w.closeTag("scriptTask")
}

func emitServiceTask(w *xmlWriter, e ast.Element) {
	w.openTag("serviceTask", a("id", e.ID), a("name", e.Name))
	w.openTag("extensionElements")
	w.selfClosingTag("zeebe:taskDefinition", a("type", e.TaskType), a("retries", strconv.Itoa(e.Retries)))
	if len(e.Headers) > 0 {
		w.openTag("zeebe:taskHeaders")
		for _, h := range e.Headers {
			w.selfClosingTag("zeebe:header", a("key", h.Key), a("value", h.Value))
		}
		w.closeTag("zeebe:taskHeaders")
	}
	emitIOMapping(w, e)
	w.closeTag("extensionElements")
	w.closeTag("serviceTask")
}

// emitIOMapping emits the same ioMapping shape for ScriptCall and
// ServiceTask: legacy input_vars/output_vars desugar into identity
// mappings when no full mapping of the same kind is present (the
// validator already rejects the two coexisting).
func emitIOMapping(w *xmlWriter, e ast.Element) {
	inputs := e.InputMappings
	if len(inputs) == 0 {
		for _, v := range e.InputVars {
			inputs = append(inputs, ast.Mapping{Source: v, Target: v})
		}
	}
	outputs := e.OutputMappings
	if len(outputs) == 0 {
		for _, v := range e.OutputVars {
			outputs = append(outputs, ast.Mapping{Source: v, Target: v})
		}
	}

	if len(inputs) == 0 && len(outputs) == 0 {
		return
	}

	w.openTag("zeebe:ioMapping")
	for _, m := range inputs {
		w.selfClosingTag("zeebe:input", a("source", feelExpression(m.Source)), a("target", m.Target))
	}
	for _, m := range outputs {
		w.selfClosingTag("zeebe:output", a("source", feelExpression(m.Source)), a("target", m.Target))
	}
	w.closeTag("zeebe:ioMapping")
}

func emitGateway(w *xmlWriter, e ast.Element, defaultFlowID string) {
	attrs := []attr{a("id", e.ID), a("name", e.Name)}
	if defaultFlowID != "" {
		attrs = append(attrs, a("default", defaultFlowID))
	}
	w.selfClosingTag("exclusiveGateway", attrs...)
}

func emitFlow(w *xmlWriter, f ast.Flow) {
	id := layout.FlowID(f.SourceID, f.TargetID)
	w.openTag("sequenceFlow", a("id", id), a("sourceRef", f.SourceID), a("targetRef", f.TargetID))
	if f.Condition != "" {
		w.textTag("conditionExpression", feelExpression(f.Condition), a("xsi:type", "tFormalExpression"))
	}
	w.closeTag("sequenceFlow")
}

// feelExpression coerces an expression towards Zeebe FEEL form: already
// "=..." expressions pass through; otherwise " == " becomes " = ",
// single-quoted strings become double-quoted, and the result is
// prefixed with "=". Grounded on original_source's
// _ensure_feel_expression.
func feelExpression(expr string) string {
	if expr == "" || strings.HasPrefix(expr, "=") {
		return expr
	}
	out := strings.ReplaceAll(expr, " == ", " = ")
	out = strings.ReplaceAll(out, "'", `"`)
	return "=" + out
}
