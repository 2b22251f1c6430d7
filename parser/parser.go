// Package parser implements a hand-written recursive-descent parser for
// the .bpm grammar, in the shape of pflow-xyz's metamodel/dsl parser:
// a Parser holding the current and lookahead tokens, with one method
// per grammar production.
package parser

import (
	"fmt"
	"strconv"

	"bpmdsl.dev/compiler/ast"
	"bpmdsl.dev/compiler/diag"
	"bpmdsl.dev/compiler/lexer"
)

// Parser turns .bpm source text into an *ast.Process.
type Parser struct {
	lx   *lexer.Lexer
	cur  lexer.Token
	peek lexer.Token
}

// Parse parses source text in isolation; it never touches the
// filesystem and performs no sidecar check. Use ParseFile for the
// file-based entry point that also verifies a sidecar OpenAPI document.
func Parse(source string) (*ast.Process, error) {
	p := &Parser{lx: lexer.New(source)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseProcess()
}

func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.lx.Next()
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return &diag.SyntaxError{Line: le.Line, Column: le.Column, Message: le.Message}
		}
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) syntaxErrorf(format string, args ...interface{}) error {
	return &diag.SyntaxError{Line: p.cur.Line, Column: p.cur.Column, Message: fmt.Sprintf(format, args...)}
}

// expect consumes the current token if it matches tt, otherwise returns
// a syntax error. It returns the consumed token's literal.
func (p *Parser) expect(tt lexer.TokenType) (string, error) {
	if p.cur.Type != tt {
		return "", p.syntaxErrorf("expected %s, got %s %q", tt, p.cur.Type, p.cur.Literal)
	}
	lit := p.cur.Literal
	if err := p.advance(); err != nil {
		return "", err
	}
	return lit, nil
}

// expectKeyword consumes an IDENT token whose literal equals kw.
func (p *Parser) expectKeyword(kw string) error {
	if p.cur.Type != lexer.IDENT || p.cur.Literal != kw {
		return p.syntaxErrorf("expected keyword %q, got %s %q", kw, p.cur.Type, p.cur.Literal)
	}
	return p.advance()
}

func (p *Parser) atKeyword(kw string) bool {
	return p.cur.Type == lexer.IDENT && p.cur.Literal == kw
}

func (p *Parser) parseProcess() (*ast.Process, error) {
	if err := p.expectKeyword("process"); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.STRING)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}

	proc := &ast.Process{Name: name}

	// meta*
	for p.atKeyword("id") || p.atKeyword("version") {
		key := p.cur.Literal
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		val, err := p.expect(lexer.STRING)
		if err != nil {
			return nil, err
		}
		switch key {
		case "id":
			proc.ID = val
		case "version":
			proc.Version = val
		}
	}

	// element*
	for p.isElementKeyword() {
		el, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		proc.Elements = append(proc.Elements, *el)
	}

	flows, err := p.parseFlowSection()
	if err != nil {
		return nil, err
	}
	proc.Flows = flows

	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return proc, nil
}

func (p *Parser) isElementKeyword() bool {
	if p.cur.Type != lexer.IDENT {
		return false
	}
	switch p.cur.Literal {
	case "start", "end", "scriptCall", "serviceTask", "processEntity", "xorGateway":
		return true
	default:
		return false
	}
}

func (p *Parser) parseElement() (*ast.Element, error) {
	kw := p.cur.Literal
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.STRING)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}

	bag, err := p.parsePropertyBag()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}

	return buildElement(kw, name, bag)
}

// propValue is one value in an element's property bag. Only the field
// matching kind is meaningful.
type propValue struct {
	kind     propKind
	str      string
	num      int
	strs     []string
	mappings []ast.Mapping
	headers  []ast.Header
	line     int
	col      int
}

type propKind int

const (
	pvString propKind = iota
	pvNumber
	pvStringArray
	pvMappingList
	pvHeaderMap
)

// parsePropertyBag parses `key: value` pairs until it sees `}`,
// rejecting duplicate keys within the same body. The DuplicateKeyError
// names the element by the `id` value parsed so far in the body, or ""
// if no id has been seen yet.
func (p *Parser) parsePropertyBag() (map[string]propValue, error) {
	bag := map[string]propValue{}
	idSoFar := ""

	for p.cur.Type == lexer.IDENT {
		key := p.cur.Literal
		keyLine, keyCol := p.cur.Line, p.cur.Column
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}

		val, err := p.parsePropertyValue()
		if err != nil {
			return nil, err
		}
		val.line, val.col = keyLine, keyCol

		if _, dup := bag[key]; dup {
			return nil, &diag.DuplicateKeyError{ElementID: idSoFar, Key: key}
		}
		bag[key] = val
		if key == "id" && val.kind == pvString {
			idSoFar = val.str
		}
	}
	return bag, nil
}

func (p *Parser) parsePropertyValue() (propValue, error) {
	switch p.cur.Type {
	case lexer.STRING:
		s, err := p.expect(lexer.STRING)
		return propValue{kind: pvString, str: s}, err
	case lexer.NUMBER:
		s, err := p.expect(lexer.NUMBER)
		if err != nil {
			return propValue{}, err
		}
		n, convErr := strconv.Atoi(s)
		if convErr != nil {
			return propValue{}, p.syntaxErrorf("invalid number %q", s)
		}
		return propValue{kind: pvNumber, num: n}, nil
	case lexer.LBRACKET:
		return p.parseArrayValue()
	case lexer.LBRACE:
		headers, err := p.parseHeaderBraceMap()
		return propValue{kind: pvHeaderMap, headers: headers}, err
	default:
		return propValue{}, p.syntaxErrorf("unexpected token %s %q in property value", p.cur.Type, p.cur.Literal)
	}
}

// parseArrayValue parses either a string array (["a","b"]) or a mapping
// list ([{source:"a", target:"b"}, ...]); it disambiguates on the first
// token after `[`.
func (p *Parser) parseArrayValue() (propValue, error) {
	if _, err := p.expect(lexer.LBRACKET); err != nil {
		return propValue{}, err
	}

	if p.cur.Type == lexer.RBRACKET {
		if err := p.advance(); err != nil {
			return propValue{}, err
		}
		return propValue{kind: pvStringArray}, nil
	}

	if p.cur.Type == lexer.LBRACE {
		var mappings []ast.Mapping
		for {
			m, err := p.parseMappingObject()
			if err != nil {
				return propValue{}, err
			}
			mappings = append(mappings, m)
			if p.cur.Type == lexer.COMMA {
				if err := p.advance(); err != nil {
					return propValue{}, err
				}
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return propValue{}, err
		}
		return propValue{kind: pvMappingList, mappings: mappings}, nil
	}

	var strs []string
	for {
		s, err := p.expect(lexer.STRING)
		if err != nil {
			return propValue{}, err
		}
		strs = append(strs, s)
		if p.cur.Type == lexer.COMMA {
			if err := p.advance(); err != nil {
				return propValue{}, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return propValue{}, err
	}
	return propValue{kind: pvStringArray, strs: strs}, nil
}

func (p *Parser) parseMappingObject() (ast.Mapping, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return ast.Mapping{}, err
	}
	var m ast.Mapping
	seen := map[string]bool{}
	for p.cur.Type == lexer.IDENT {
		key := p.cur.Literal
		if err := p.advance(); err != nil {
			return ast.Mapping{}, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return ast.Mapping{}, err
		}
		val, err := p.expect(lexer.STRING)
		if err != nil {
			return ast.Mapping{}, err
		}
		if seen[key] {
			return ast.Mapping{}, &diag.DuplicateKeyError{ElementID: "<mapping>", Key: key}
		}
		seen[key] = true
		switch key {
		case "source":
			m.Source = val
		case "target":
			m.Target = val
		default:
			return ast.Mapping{}, p.syntaxErrorf("unexpected mapping key %q", key)
		}
		if p.cur.Type == lexer.COMMA {
			if err := p.advance(); err != nil {
				return ast.Mapping{}, err
			}
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return ast.Mapping{}, err
	}
	return m, nil
}

// parseFlowSection parses `flow { flow_def* }`.
func (p *Parser) parseFlowSection() ([]ast.Flow, error) {
	if err := p.expectKeyword("flow"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}

	var flows []ast.Flow
	for p.cur.Type == lexer.STRING {
		f, err := p.parseFlowDef()
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}

	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return flows, nil
}

func (p *Parser) parseFlowDef() (ast.Flow, error) {
	src, err := p.expect(lexer.STRING)
	if err != nil {
		return ast.Flow{}, err
	}
	if _, err := p.expect(lexer.ARROW); err != nil {
		return ast.Flow{}, err
	}
	dst, err := p.expect(lexer.STRING)
	if err != nil {
		return ast.Flow{}, err
	}

	f := ast.Flow{SourceID: src, TargetID: dst}

	if p.cur.Type == lexer.LBRACKET {
		if err := p.advance(); err != nil {
			return ast.Flow{}, err
		}
		if err := p.expectKeyword("condition"); err != nil {
			return ast.Flow{}, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return ast.Flow{}, err
		}
		cond, err := p.expect(lexer.STRING)
		if err != nil {
			return ast.Flow{}, err
		}
		f.Condition = cond
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return ast.Flow{}, err
		}
	}
	return f, nil
}

// headerMap syntax `{ "key": "value", ... }` is only valid as a
// serviceTask `headers` value; we parse it with a dedicated path since
// its keys are arbitrary user strings, not fixed grammar identifiers.
func (p *Parser) parseHeaderBraceMap() ([]ast.Header, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var headers []ast.Header
	for p.cur.Type == lexer.STRING {
		key, err := p.expect(lexer.STRING)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		val, err := p.expect(lexer.STRING)
		if err != nil {
			return nil, err
		}
		headers = append(headers, ast.Header{Key: key, Value: val})
		if p.cur.Type == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return headers, nil
}
