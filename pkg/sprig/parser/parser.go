// Package parser turns a selector token stream into an AST.
//
// The grammar is recursive descent with three precedence levels, lowest to
// highest: set expressions (| & ^, left-associative, equal precedence),
// pipelines (>), and basic selectors (element selector, text selector, or a
// parenthesized set expression). An index suffix may follow any basic
// selector; function suffixes may only follow text selectors. A depth
// counter bounds every self-recursive production.
package parser

import (
	"strconv"

	"github.com/sambeau/sprig/pkg/sprig/ast"
	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
	"github.com/sambeau/sprig/pkg/sprig/lexer"
)

// MaxDepth is the maximum nesting depth of any recursive production.
const MaxDepth = 100

// Tracer receives parse-progress lines. A nil Tracer disables tracing.
type Tracer interface {
	Trace(format string, args ...any)
}

// Parser consumes a token stream produced by the lexer.
type Parser struct {
	tokens   []lexer.Token
	position int
	cur      lexer.Token
	depth    int
	tracer   Tracer
}

// New creates a parser over a token stream. The stream is expected to end
// with an EOF token, as produced by lexer.Tokenize.
func New(tokens []lexer.Token) *Parser {
	p := &Parser{tokens: tokens}
	if len(tokens) == 0 {
		p.tokens = []lexer.Token{{Type: lexer.EOF, Line: 1, Column: 0}}
	}
	p.cur = p.tokens[0]
	p.position = 1
	return p
}

// SetTracer installs an optional parse tracer.
func (p *Parser) SetTracer(t Tracer) { p.tracer = t }

func (p *Parser) trace(format string, args ...any) {
	if p.tracer != nil {
		p.tracer.Trace(format, args...)
	}
}

// Parse parses selector source text into an AST and validates it. On a parse
// failure a single recovery attempt is made: the parser scans forward to the
// next unmatched close paren or top-level operator and re-parses from there.
// If recovery also fails, the original error is returned.
func Parse(input string) (ast.Node, *serrors.Error) {
	return ParseWithTracer(input, nil)
}

// ParseWithTracer is Parse with an optional trace collaborator.
func ParseWithTracer(input string, tracer Tracer) (ast.Node, *serrors.Error) {
	l := lexer.New(input)
	tokens := l.Tokenize()

	p := New(tokens)
	p.SetTracer(tracer)

	node, err := p.parse()
	if err != nil {
		if lexErrs := l.Errors(); len(lexErrs) > 0 {
			return nil, lexErrs[0]
		}
		p.tryRecover()
		if recovered, rerr := p.parseSet(); rerr == nil {
			node = recovered
		} else {
			return nil, err
		}
	}

	if verr := NewValidator().Validate(node); verr != nil {
		return nil, verr
	}

	p.trace("parsed: %s", node.String())

	return node, nil
}

// parse parses a full expression and requires the token stream to be fully
// consumed.
func (p *Parser) parse() (ast.Node, *serrors.Error) {
	node, err := p.parseSet()
	if err != nil {
		return nil, err
	}
	if !p.curIs(lexer.EOF) {
		return nil, p.errUnexpected("EOF")
	}
	return node, nil
}

func (p *Parser) next() {
	if p.position < len(p.tokens) {
		p.cur = p.tokens[p.position]
		p.position++
	}
}

func (p *Parser) curIs(t lexer.TokenType) bool { return p.cur.Type == t }

func (p *Parser) expect(t lexer.TokenType) *serrors.Error {
	if !p.curIs(t) {
		return p.errUnexpected(t.String())
	}
	p.next()
	return nil
}

func (p *Parser) errUnexpected(expected string) *serrors.Error {
	return serrors.NewWithPosition("PARSE-0001", p.cur.Line, p.cur.Column, map[string]any{
		"Expected": expected,
		"Found":    p.cur.String(),
	})
}

func (p *Parser) checkDepth() *serrors.Error {
	if p.depth >= MaxDepth {
		return serrors.NewWithPosition("PARSE-0003", p.cur.Line, p.cur.Column, map[string]any{
			"MaxDepth": MaxDepth,
		})
	}
	p.depth++
	return nil
}

func (p *Parser) decreaseDepth() {
	if p.depth > 0 {
		p.depth--
	}
}

// tryRecover scans forward to a plausible synchronization point: an
// unmatched close paren (consumed) or a top-level set or pipeline operator.
func (p *Parser) tryRecover() {
	depth := 0
	for !p.curIs(lexer.EOF) {
		switch p.cur.Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			if depth > 0 {
				depth--
			} else {
				p.next()
				return
			}
		case lexer.PIPELINE, lexer.UNION, lexer.INTERSECTION, lexer.DIFFERENCE:
			if depth == 0 {
				return
			}
		}
		p.next()
	}
}

// parseSet parses union, intersection and difference expressions. The three
// operators share one precedence level and associate left.
func (p *Parser) parseSet() (ast.Node, *serrors.Error) {
	left, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.SetOp
		switch p.cur.Type {
		case lexer.UNION:
			op = ast.UnionOp
		case lexer.INTERSECTION:
			op = ast.IntersectionOp
		case lexer.DIFFERENCE:
			op = ast.DifferenceOp
		default:
			return left, nil
		}

		tok := p.cur
		p.next()

		if err := p.checkDepth(); err != nil {
			return nil, err
		}
		right, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		p.decreaseDepth()

		left = &ast.SetOperation{Token: tok, Op: op, Left: left, Right: right}
	}
}

// parsePipeline parses left-associative '>' chains.
func (p *Parser) parsePipeline() (ast.Node, *serrors.Error) {
	left, err := p.parseBasic()
	if err != nil {
		return nil, err
	}

	for p.curIs(lexer.PIPELINE) {
		tok := p.cur
		p.next()

		if err := p.checkDepth(); err != nil {
			return nil, err
		}
		right, err := p.parseBasic()
		if err != nil {
			return nil, err
		}
		p.decreaseDepth()

		left = &ast.Pipeline{Token: tok, Left: left, Right: right}
	}

	return left, nil
}

// parseBasic parses a single selector or a parenthesized set expression,
// with its optional suffixes.
func (p *Parser) parseBasic() (ast.Node, *serrors.Error) {
	switch p.cur.Type {
	case lexer.CLASS, lexer.ID, lexer.TAG, lexer.ATTR:
		sel, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		return p.parseIndexSuffix(sel)

	case lexer.TEXT, lexer.HREF, lexer.SRC, lexer.POUND:
		sel, err := p.parseText()
		if err != nil {
			return nil, err
		}
		node, err := p.parseIndexSuffix(sel)
		if err != nil {
			return nil, err
		}
		return p.parseFunctionSuffix(node)

	case lexer.LPAREN:
		p.next()
		if err := p.checkDepth(); err != nil {
			return nil, err
		}
		expr, err := p.parseSet()
		if err != nil {
			return nil, err
		}
		if !p.curIs(lexer.RPAREN) {
			return nil, p.errUnexpected("right parenthesis ')'")
		}
		p.next()
		p.decreaseDepth()
		return p.parseIndexSuffix(expr)

	default:
		return nil, p.errUnexpected("selector")
	}
}

// parseElement parses class, id, tag and attr selectors.
func (p *Parser) parseElement() (ast.Node, *serrors.Error) {
	tok := p.cur

	var kind ast.ElementKind
	switch p.cur.Type {
	case lexer.CLASS:
		kind = ast.ClassSelector
	case lexer.ID:
		kind = ast.IdSelector
	case lexer.TAG:
		kind = ast.TagSelector
	case lexer.ATTR:
		kind = ast.AttrSelector
	default:
		return nil, p.errUnexpected("class, id, tag, or attr")
	}
	p.next()

	isRegex, pattern, err := p.parseSelectorValue()
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		kindName := "empty value"
		if kind == ast.AttrSelector {
			kindName = "empty attribute name"
		}
		return nil, serrors.NewWithPosition("PARSE-0002", p.cur.Line, p.cur.Column, map[string]any{
			"Value": kindName,
		})
	}

	sel := &ast.ElementSelector{Token: tok, Kind: kind, Pattern: pattern, IsRegex: isRegex}

	// attr takes an optional second value, the attribute's expected value.
	// The regex marker on an attr selector applies to the value match.
	if kind == ast.AttrSelector && p.valueStart() {
		valueRegex, value, err := p.parseSelectorValue()
		if err != nil {
			return nil, err
		}
		sel.Value = &value
		sel.IsRegex = valueRegex
	}

	return sel, nil
}

// valueStart reports whether the current token can begin a selector value.
func (p *Parser) valueStart() bool {
	return p.curIs(lexer.REGEX) || p.curIs(lexer.ARGUMENT) || p.curIs(lexer.STRING)
}

// parseSelectorValue parses an optional regex marker followed by an unquoted
// or quoted value argument.
func (p *Parser) parseSelectorValue() (bool, string, *serrors.Error) {
	isRegex := false
	if p.curIs(lexer.REGEX) {
		isRegex = true
		p.next()
	}

	switch p.cur.Type {
	case lexer.ARGUMENT, lexer.STRING:
		value := p.cur.Literal
		p.next()
		return isRegex, value, nil
	default:
		return false, "", p.errUnexpected("selector argument")
	}
}

// parseText parses text, href, src and #attribute-value selectors.
func (p *Parser) parseText() (ast.Node, *serrors.Error) {
	tok := p.cur

	switch p.cur.Type {
	case lexer.TEXT:
		p.next()
		return &ast.TextSelector{Token: tok, Kind: ast.TextContent}, nil
	case lexer.HREF:
		p.next()
		return &ast.TextSelector{Token: tok, Kind: ast.HrefValue}, nil
	case lexer.SRC:
		p.next()
		return &ast.TextSelector{Token: tok, Kind: ast.SrcValue}, nil
	case lexer.POUND:
		p.next()

		isRegex := false
		if p.curIs(lexer.REGEX) {
			isRegex = true
			p.next()
		}

		switch p.cur.Type {
		case lexer.ARGUMENT, lexer.STRING:
			name := p.cur.Literal
			p.next()
			return &ast.TextSelector{Token: tok, Kind: ast.AttrValue, Name: name, IsRegex: isRegex}, nil
		default:
			return nil, p.errUnexpected("attribute name")
		}
	default:
		return nil, p.errUnexpected("text, href, or src")
	}
}

// parseIndexSuffix parses an optional ':' index suffix: a single literal, a
// comma-separated literal list, or a start:end[:step] range where any part
// may be omitted. Literal typing is checked at execution time.
func (p *Parser) parseIndexSuffix(node ast.Node) (ast.Node, *serrors.Error) {
	if !p.curIs(lexer.COLON) {
		return node, nil
	}

	tok := p.cur
	p.next()

	if err := p.checkDepth(); err != nil {
		return nil, err
	}

	var first ast.Literal
	if !p.curIs(lexer.COLON) {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		first = lit
	}

	var index ast.IndexExpr
	switch {
	case p.curIs(lexer.COLON):
		p.next()

		var end, step ast.Literal
		if p.literalStart() {
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			end = lit
		}
		if p.curIs(lexer.COLON) {
			p.next()
			if p.literalStart() {
				lit, err := p.parseLiteral()
				if err != nil {
					return nil, err
				}
				step = lit
			}
		}
		index = &ast.RangeIndex{Start: first, End: end, Step: step}

	case p.curIs(lexer.COMMA):
		indices := []ast.Literal{first}
		for p.curIs(lexer.COMMA) {
			p.next()
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			indices = append(indices, lit)
		}
		index = &ast.MultiIndex{Indices: indices}

	default:
		index = &ast.SingleIndex{Index: first}
	}

	p.decreaseDepth()

	return &ast.IndexSelection{Token: tok, Target: node, Index: index}, nil
}

// parseFunctionSuffix parses zero or more chained '@name[,arg]*' calls.
func (p *Parser) parseFunctionSuffix(node ast.Node) (ast.Node, *serrors.Error) {
	for p.curIs(lexer.FUNCTION) {
		tok := p.cur
		name := p.cur.Literal
		p.next()

		if err := p.checkDepth(); err != nil {
			return nil, err
		}

		var args []ast.Literal
		if p.curIs(lexer.COMMA) {
			p.next()
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			args = append(args, lit)

			for p.curIs(lexer.COMMA) {
				p.next()
				lit, err := p.parseLiteral()
				if err != nil {
					return nil, err
				}
				args = append(args, lit)
			}
		}

		p.decreaseDepth()

		node = &ast.FunctionCall{Token: tok, Target: node, Name: name, Args: args}
	}

	return node, nil
}

// literalStart reports whether the current token can begin a literal.
func (p *Parser) literalStart() bool {
	switch p.cur.Type {
	case lexer.STRING, lexer.ARGUMENT, lexer.INT, lexer.FLOAT,
		lexer.TRUE, lexer.FALSE, lexer.MINUS, lexer.LBRACKET:
		return true
	default:
		return false
	}
}

// parseLiteral parses a string, bool, int, float, negated number, or a
// bracketed list of literals. Unquoted arguments parse as strings.
func (p *Parser) parseLiteral() (ast.Literal, *serrors.Error) {
	switch p.cur.Type {
	case lexer.STRING, lexer.ARGUMENT:
		lit := &ast.StrLit{Value: p.cur.Literal}
		p.next()
		return lit, nil

	case lexer.TRUE:
		p.next()
		return &ast.BoolLit{Value: true}, nil

	case lexer.FALSE:
		p.next()
		return &ast.BoolLit{Value: false}, nil

	case lexer.INT:
		value, err := strconv.ParseInt(p.cur.Literal, 10, 64)
		if err != nil {
			return nil, serrors.NewWithPosition("LEX-0004", p.cur.Line, p.cur.Column, map[string]any{
				"Value": p.cur.Literal,
			})
		}
		p.next()
		return &ast.IntLit{Value: value}, nil

	case lexer.FLOAT:
		value, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return nil, serrors.NewWithPosition("LEX-0004", p.cur.Line, p.cur.Column, map[string]any{
				"Value": p.cur.Literal,
			})
		}
		p.next()
		return &ast.FloatLit{Value: value}, nil

	case lexer.MINUS:
		p.next()
		switch p.cur.Type {
		case lexer.INT:
			value, err := strconv.ParseInt(p.cur.Literal, 10, 64)
			if err != nil {
				return nil, serrors.NewWithPosition("LEX-0004", p.cur.Line, p.cur.Column, map[string]any{
					"Value": p.cur.Literal,
				})
			}
			p.next()
			return &ast.IntLit{Value: -value}, nil
		case lexer.FLOAT:
			value, err := strconv.ParseFloat(p.cur.Literal, 64)
			if err != nil {
				return nil, serrors.NewWithPosition("LEX-0004", p.cur.Line, p.cur.Column, map[string]any{
					"Value": p.cur.Literal,
				})
			}
			p.next()
			return &ast.FloatLit{Value: -value}, nil
		default:
			return nil, p.errUnexpected("int or float")
		}

	case lexer.LBRACKET:
		p.next()
		if err := p.checkDepth(); err != nil {
			return nil, err
		}

		list := &ast.ListLit{}
		first, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		list.Elements = append(list.Elements, first)

		for p.curIs(lexer.COMMA) {
			p.next()
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			list.Elements = append(list.Elements, lit)
		}

		if !p.curIs(lexer.RBRACKET) {
			return nil, p.errUnexpected("]")
		}
		p.next()
		p.decreaseDepth()
		return list, nil

	default:
		return nil, p.errUnexpected("string, int, float, or bool")
	}
}
