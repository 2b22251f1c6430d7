// Package validate implements the semantic validator: an exhaustive,
// single-pass diagnostics accumulator in the style of the teacher's
// validation package (AddError/AddWarning collecting into a Report),
// adapted to this DSL's structural and engine-compatibility invariants.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"bpmdsl.dev/compiler/ast"
	"bpmdsl.dev/compiler/diag"
	"bpmdsl.dev/compiler/openapi"
)

// Report is the exhaustive result of one validation run: every violation
// found in the pass, split into errors and warnings.
type Report struct {
	Errors   []diag.Diagnostic
	Warnings []diag.Diagnostic
}

// OK reports whether the process has no errors. Warnings do not affect
// OK — the caller decides whether warnings are fatal (§5).
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Options configures validator behavior for the one documented
// open-ended invariant: strict (default) treats unreachable elements as
// an error; permissive treats them as a warning.
type Options struct {
	Strict bool
}

// DefaultOptions matches the specification's chosen default: strict
// connectivity.
func DefaultOptions() Options {
	return Options{Strict: true}
}

type validator struct {
	proc    *ast.Process
	sidecar *openapi.Sidecar
	opts    Options
	report  Report

	byID map[string]*ast.Element
	// adjacency/reverse built only from flows whose endpoints resolve;
	// dangling flows are reported separately and excluded here so later
	// checks don't cascade spurious findings from one bad reference.
	succ map[string][]string
	pred map[string][]string
}

// Validate runs every check, in the fixed order the specification
// lists, and returns the accumulated report. It never stops early: a
// failure in one check does not prevent later checks from running
// (P7 exhaustiveness).
func Validate(proc *ast.Process, sidecar *openapi.Sidecar, opts Options) *Report {
	v := &validator{
		proc:    proc,
		sidecar: sidecar,
		opts:    opts,
		byID:    map[string]*ast.Element{},
		succ:    map[string][]string{},
		pred:    map[string][]string{},
	}

	v.checkUniqueIDs()
	v.checkFlowEndpoints()
	v.buildAdjacency()
	v.checkEventCardinality()
	v.checkConnectivity()
	v.checkGatewayShape()
	v.checkProcessEntity()
	v.checkEngineCompat()
	v.checkXMLIdentifiers()
	v.checkUnusedElements()
	v.checkVersion()

	return &v.report
}

func (v *validator) addError(rule, message string) {
	v.report.Errors = append(v.report.Errors, diag.New(diag.Semantic, rule, message))
}

func (v *validator) addErrorOn(rule, elementID, message string) {
	v.report.Errors = append(v.report.Errors, diag.New(diag.Semantic, rule, message).On(elementID))
}

func (v *validator) addWarningOn(rule, elementID, message string) {
	v.report.Warnings = append(v.report.Warnings, diag.New(diag.Semantic, rule, message).On(elementID))
}

// 1. Uniqueness of ids.
func (v *validator) checkUniqueIDs() {
	seen := map[string]int{}
	for _, e := range v.proc.Elements {
		seen[e.ID]++
	}
	for _, e := range v.proc.Elements {
		if seen[e.ID] > 1 {
			v.addErrorOn("unique-id", e.ID, fmt.Sprintf("element id %q is used by %d elements", e.ID, seen[e.ID]))
		}
	}
	// byID is only populated with the first occurrence; downstream
	// checks treat the first-seen element as authoritative, matching
	// the parser's own id -> element construction order.
	for i := range v.proc.Elements {
		e := &v.proc.Elements[i]
		if _, ok := v.byID[e.ID]; !ok {
			v.byID[e.ID] = e
		}
	}
}

// 2. Flow endpoint resolution.
func (v *validator) checkFlowEndpoints() {
	for _, f := range v.proc.Flows {
		if _, ok := v.byID[f.SourceID]; !ok {
			v.addError("dangling-flow-source", fmt.Sprintf("flow source %q does not resolve to any element", f.SourceID))
		}
		if _, ok := v.byID[f.TargetID]; !ok {
			v.addError("dangling-flow-target", fmt.Sprintf("flow target %q does not resolve to any element", f.TargetID))
		}
	}
}

func (v *validator) buildAdjacency() {
	for _, f := range v.proc.Flows {
		_, srcOK := v.byID[f.SourceID]
		_, dstOK := v.byID[f.TargetID]
		if !srcOK || !dstOK {
			continue
		}
		v.succ[f.SourceID] = append(v.succ[f.SourceID], f.TargetID)
		v.pred[f.TargetID] = append(v.pred[f.TargetID], f.SourceID)
	}
}

// 3. Event cardinality and in/out-degree rules (invariants 4, 5).
func (v *validator) checkEventCardinality() {
	starts := v.proc.StartEvents()
	ends := v.proc.EndEvents()

	if len(starts) == 0 {
		v.addError("missing-start", "process has no StartEvent")
	}
	if len(ends) == 0 {
		v.addError("missing-end", "process has no EndEvent")
	}

	for _, e := range starts {
		if len(v.pred[e.ID]) > 0 {
			v.addErrorOn("start-has-incoming", e.ID, "StartEvent must not have incoming flows")
		}
	}
	for _, e := range ends {
		if len(v.succ[e.ID]) > 0 {
			v.addErrorOn("end-has-outgoing", e.ID, "EndEvent must not have outgoing flows")
		}
	}
}

// 4. Single connectivity component (invariant 3).
func (v *validator) checkConnectivity() {
	reachable := map[string]bool{}
	var stack []string
	for _, e := range v.proc.StartEvents() {
		if !reachable[e.ID] {
			reachable[e.ID] = true
			stack = append(stack, e.ID)
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range v.succ[n] {
			if !reachable[s] {
				reachable[s] = true
				stack = append(stack, s)
			}
		}
	}

	for _, e := range v.proc.Elements {
		if reachable[e.ID] {
			continue
		}
		msg := fmt.Sprintf("element %q is not reachable from any StartEvent", e.ID)
		if v.opts.Strict {
			v.addErrorOn("unreachable-element", e.ID, msg)
		} else {
			v.addWarningOn("unreachable-element", e.ID, msg)
		}
	}
}

// 5. Gateway outgoing-edge shape (invariant 7).
func (v *validator) checkGatewayShape() {
	for _, e := range v.proc.Elements {
		if e.Kind != ast.KindXorGateway {
			continue
		}
		outs := v.flowsFrom(e.ID)
		unconditional := 0
		for _, f := range outs {
			if f.Condition == "" {
				unconditional++
			}
		}

		switch {
		case len(outs) == 0:
			v.addErrorOn("gateway-no-outgoing", e.ID, "XorGateway has no outgoing flows")
		case len(outs) == 1:
			if unconditional == 0 {
				// Open question in the specification: a single
				// outgoing *conditional* edge is accepted but warned
				// about rather than rejected, pending confirmation
				// against the authored source (see DESIGN.md).
				v.addWarningOn("gateway-single-conditional-edge", e.ID, "XorGateway has a single outgoing edge and it carries a condition; the condition is ignored at runtime")
			}
		default:
			if unconditional > 1 {
				v.addErrorOn("gateway-multiple-defaults", e.ID, fmt.Sprintf("XorGateway has %d unconditional outgoing edges, at most one is allowed", unconditional))
			}
		}
	}
}

// 6. ProcessEntity placement and uniqueness (invariant 6).
func (v *validator) checkProcessEntity() {
	entities := v.proc.ProcessEntities()
	if len(entities) > 1 {
		for _, e := range entities {
			v.addErrorOn("multiple-process-entities", e.ID, "at most one ProcessEntity is allowed per process")
		}
		return
	}
	if len(entities) == 0 {
		return
	}

	entity := entities[0]
	preds := v.pred[entity.ID]
	if len(preds) != 1 {
		v.addErrorOn("process-entity-placement", entity.ID, "ProcessEntity must have exactly one predecessor")
		return
	}
	pred, ok := v.byID[preds[0]]
	if !ok || pred.Kind != ast.KindStart {
		v.addErrorOn("process-entity-placement", entity.ID, "ProcessEntity must be the unique successor of a StartEvent, with no intervening elements")
	}

	if v.sidecar != nil && !v.sidecar.Has(entity.EntityName) {
		v.addErrorOn("process-entity-unknown-schema", entity.ID, fmt.Sprintf("entityName %q is not declared under components.schemas in the sidecar OpenAPI document", entity.EntityName))
	}
}

// 7. Engine-compatibility lint.
func (v *validator) checkEngineCompat() {
	for _, e := range v.proc.Elements {
		if e.Kind == ast.KindXorGateway {
			continue
		}
		for _, f := range v.flowsFrom(e.ID) {
			if f.Condition != "" {
				v.report.Errors = append(v.report.Errors, diag.New(diag.EngineCompat, "condition-on-non-gateway",
					fmt.Sprintf("flow %s -> %s carries a condition but its source %q is not a gateway", f.SourceID, f.TargetID, e.ID)).On(e.ID))
			}
		}

		if (e.Kind == ast.KindScriptCall || e.Kind == ast.KindServiceTask) &&
			(len(e.InputVars) > 0 || len(e.OutputVars) > 0) &&
			(len(e.InputMappings) > 0 || len(e.OutputMappings) > 0) {
			v.report.Errors = append(v.report.Errors, diag.New(diag.EngineCompat, "legacy-and-modern-mappings",
				fmt.Sprintf("element %q declares both legacy input_vars/output_vars and full mappings; they are not merged", e.ID)).On(e.ID))
		}
	}

	// invariant 8: non-gateway, non-end elements have exactly one
	// outgoing flow.
	for _, e := range v.proc.Elements {
		if e.Kind == ast.KindXorGateway || e.Kind == ast.KindEnd {
			continue
		}
		if n := len(v.succ[e.ID]); n != 1 {
			v.addErrorOn("single-outgoing-flow", e.ID, fmt.Sprintf("non-gateway, non-end element must have exactly one outgoing flow, has %d", n))
		}
	}
}

// Supplemented: XML-identifier validity (from original_source's
// _is_valid_xml_id). A malformed id would be rejected by the target
// engine's BPMN deployer, so this is an engine-compat finding.
func (v *validator) checkXMLIdentifiers() {
	for _, e := range v.proc.Elements {
		if !isValidXMLID(e.ID) {
			v.report.Errors = append(v.report.Errors, diag.New(diag.EngineCompat, "invalid-xml-id",
				fmt.Sprintf("element id %q is not a valid XML Name", e.ID)).On(e.ID))
		}
	}
	if v.proc.ID != "" && !isValidXMLID(v.proc.ID) {
		v.addError("invalid-xml-id", fmt.Sprintf("process id %q is not a valid XML Name", v.proc.ID))
	}
}

func isValidXMLID(s string) bool {
	if s == "" {
		return false
	}
	first := s[0]
	if !(first == '_' || (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		ok := c == '_' || c == '-' || c == '.' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !ok {
			return false
		}
	}
	return true
}

// Supplemented: unused-element warning (from original_source's
// _generate_warnings), distinct from the unreachable-elements error —
// an element can be touched by some flow yet still unreachable.
func (v *validator) checkUnusedElements() {
	touched := map[string]bool{}
	for _, f := range v.proc.Flows {
		touched[f.SourceID] = true
		touched[f.TargetID] = true
	}
	for _, e := range v.proc.Elements {
		if !touched[e.ID] {
			v.addWarningOn("unused-element", e.ID, fmt.Sprintf("element %q is not referenced by any flow", e.ID))
		}
	}
}

// Supplemented: missing-version warning.
func (v *validator) checkVersion() {
	if strings.TrimSpace(v.proc.Version) == "" {
		v.report.Warnings = append(v.report.Warnings, diag.New(diag.Semantic, "missing-version", "process has no version; deployments cannot be tracked"))
	}
}

func (v *validator) flowsFrom(id string) []ast.Flow {
	var out []ast.Flow
	for _, f := range v.proc.Flows {
		if f.SourceID == id {
			out = append(out, f)
		}
	}
	return out
}

// SortedElementIDs is a debug helper; production checks always iterate
// in author order, never sorted order, per the determinism design note.
func SortedElementIDs(proc *ast.Process) []string {
	ids := make([]string, 0, len(proc.Elements))
	for _, e := range proc.Elements {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)
	return ids
}
