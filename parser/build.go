package parser

import (
	"bpmdsl.dev/compiler/ast"
	"bpmdsl.dev/compiler/diag"
)

// buildElement converts a generic property bag into a typed
// ast.Element, checking the mandatory keys each kind requires.
func buildElement(keyword, name string, bag map[string]propValue) (*ast.Element, error) {
	switch keyword {
	case "start":
		return buildSimpleEvent(ast.KindStart, name, bag)
	case "end":
		return buildSimpleEvent(ast.KindEnd, name, bag)
	case "scriptCall":
		return buildScriptCall(name, bag)
	case "serviceTask":
		return buildServiceTask(name, bag)
	case "processEntity":
		return buildProcessEntity(name, bag)
	case "xorGateway":
		return buildXorGateway(name, bag)
	}
	panic("unreachable: unknown element keyword " + keyword)
}

func requireString(bag map[string]propValue, elementID, field string) (string, error) {
	v, ok := bag[field]
	if !ok || v.kind != pvString {
		return "", &diag.MissingRequiredField{ElementID: elementID, Field: field}
	}
	return v.str, nil
}

func optionalString(bag map[string]propValue, field string) (string, bool) {
	v, ok := bag[field]
	if !ok || v.kind != pvString {
		return "", false
	}
	return v.str, true
}

func buildSimpleEvent(kind ast.Kind, name string, bag map[string]propValue) (*ast.Element, error) {
	id, err := requireString(bag, "", "id")
	if err != nil {
		return nil, err
	}
	return &ast.Element{ID: id, Name: name, Kind: kind}, nil
}

func buildScriptCall(name string, bag map[string]propValue) (*ast.Element, error) {
	id, err := requireString(bag, "", "id")
	if err != nil {
		return nil, err
	}
	script, err := requireString(bag, id, "script")
	if err != nil {
		return nil, err
	}

	el := &ast.Element{ID: id, Name: name, Kind: ast.KindScriptCall, Script: script, ResultVariable: "result"}

	if rv, ok := optionalString(bag, "resultVariable"); ok {
		el.ResultVariable = rv
	}
	applyMappingsAndLegacyVars(el, bag)

	return el, nil
}

func buildServiceTask(name string, bag map[string]propValue) (*ast.Element, error) {
	id, err := requireString(bag, "", "id")
	if err != nil {
		return nil, err
	}
	taskType, err := requireString(bag, id, "taskType")
	if err != nil {
		return nil, err
	}

	el := &ast.Element{ID: id, Name: name, Kind: ast.KindServiceTask, TaskType: taskType, Retries: 3}

	if v, ok := bag["retries"]; ok && v.kind == pvNumber {
		el.Retries = v.num
	}
	if v, ok := bag["headers"]; ok && v.kind == pvHeaderMap {
		el.Headers = v.headers
	}
	applyMappingsAndLegacyVars(el, bag)

	return el, nil
}

func applyMappingsAndLegacyVars(el *ast.Element, bag map[string]propValue) {
	if v, ok := bag["inputMappings"]; ok && v.kind == pvMappingList {
		el.InputMappings = v.mappings
	}
	if v, ok := bag["outputMappings"]; ok && v.kind == pvMappingList {
		el.OutputMappings = v.mappings
	}
	if v, ok := bag["inputVars"]; ok && v.kind == pvStringArray {
		el.InputVars = v.strs
	}
	if v, ok := bag["outputVars"]; ok && v.kind == pvStringArray {
		el.OutputVars = v.strs
	}
}

func buildProcessEntity(name string, bag map[string]propValue) (*ast.Element, error) {
	entityName, err := requireString(bag, "", "entityName")
	if err != nil {
		return nil, err
	}

	id, ok := optionalString(bag, "id")
	if !ok {
		id = deriveEntityID(name)
	}

	return &ast.Element{ID: id, Name: name, Kind: ast.KindProcessEntity, EntityName: entityName}, nil
}

func buildXorGateway(name string, bag map[string]propValue) (*ast.Element, error) {
	id, err := requireString(bag, "", "id")
	if err != nil {
		return nil, err
	}
	el := &ast.Element{ID: id, Name: name, Kind: ast.KindXorGateway}
	if cond, ok := optionalString(bag, "condition"); ok {
		el.Condition = cond
	}
	return el, nil
}

// deriveEntityID lowercases and hyphen-joins the words of a ProcessEntity
// name when no explicit id is given, e.g. "Load Customer" -> "load-customer".
func deriveEntityID(name string) string {
	out := make([]byte, 0, len(name))
	lastWasSpace := true
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == ' ' || c == '\t' || c == '_' || c == '-' {
			if !lastWasSpace {
				out = append(out, '-')
				lastWasSpace = true
			}
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c = c - 'A' + 'a'
		}
		out = append(out, c)
		lastWasSpace = false
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	return string(out)
}
