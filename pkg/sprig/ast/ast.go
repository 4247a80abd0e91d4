// Package ast defines the node types of a parsed sprig selector.
//
// The node set is fixed and closed: every consumer (the validator, the
// evaluator, the printer) dispatches with an exhaustive type switch. Nodes
// are immutable once built and each composite node exclusively owns its
// children.
package ast

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/sambeau/sprig/pkg/sprig/lexer"
)

// Node represents any node in the AST.
type Node interface {
	TokenLiteral() string
	String() string
	node()
}

// ElementKind distinguishes the four element selector forms.
type ElementKind int

const (
	ClassSelector ElementKind = iota
	IdSelector
	TagSelector
	AttrSelector
)

func (k ElementKind) String() string {
	switch k {
	case ClassSelector:
		return "class"
	case IdSelector:
		return "id"
	case TagSelector:
		return "tag"
	case AttrSelector:
		return "attr"
	default:
		return "unknown"
	}
}

// ElementSelector selects DOM elements by class, id, tag name or attribute.
// For AttrSelector, Pattern is the attribute name and Value (when non-nil)
// the expected attribute value; a nil Value means "attribute present, any
// value".
type ElementSelector struct {
	Token   lexer.Token // the selector keyword token
	Kind    ElementKind
	Pattern string
	Value   *string
	IsRegex bool
}

func (es *ElementSelector) node()                {}
func (es *ElementSelector) TokenLiteral() string { return es.Token.Literal }
func (es *ElementSelector) String() string {
	var out bytes.Buffer
	out.WriteString(es.Kind.String())
	out.WriteString(" ")
	if es.IsRegex {
		out.WriteString("~")
	}
	out.WriteString(quoteArgument(es.Pattern))
	if es.Kind == AttrSelector && es.Value != nil {
		out.WriteString(" ")
		out.WriteString(quoteArgument(*es.Value))
	}
	return out.String()
}

// TextKind distinguishes the text selector forms.
type TextKind int

const (
	TextContent TextKind = iota // concatenated descendant text
	HrefValue                   // href attribute
	SrcValue                    // src attribute
	AttrValue                   // named attribute, optional regex name match
)

func (k TextKind) String() string {
	switch k {
	case TextContent:
		return "text"
	case HrefValue:
		return "href"
	case SrcValue:
		return "src"
	case AttrValue:
		return "attr value"
	default:
		return "unknown"
	}
}

// TextSelector converts the current node set into a text set. Name and
// IsRegex are only meaningful for AttrValue.
type TextSelector struct {
	Token   lexer.Token
	Kind    TextKind
	Name    string
	IsRegex bool
}

func (ts *TextSelector) node()                {}
func (ts *TextSelector) TokenLiteral() string { return ts.Token.Literal }
func (ts *TextSelector) String() string {
	switch ts.Kind {
	case HrefValue:
		return "href"
	case SrcValue:
		return "src"
	case AttrValue:
		if ts.IsRegex {
			return "#~" + quoteArgument(ts.Name)
		}
		return "#" + quoteArgument(ts.Name)
	default:
		return "text"
	}
}

// Pipeline re-scopes the right selector's search root to the left selector's
// result.
type Pipeline struct {
	Token lexer.Token // the '>' token
	Left  Node
	Right Node
}

func (p *Pipeline) node()                {}
func (p *Pipeline) TokenLiteral() string { return p.Token.Literal }
func (p *Pipeline) String() string {
	return p.Left.String() + " > " + p.Right.String()
}

// SetOp identifies a set operator.
type SetOp int

const (
	UnionOp        SetOp = iota // |
	IntersectionOp              // &
	DifferenceOp                // ^
)

func (op SetOp) String() string {
	switch op {
	case UnionOp:
		return "union"
	case IntersectionOp:
		return "intersection"
	case DifferenceOp:
		return "difference"
	default:
		return "unknown"
	}
}

// Symbol returns the operator's source form.
func (op SetOp) Symbol() string {
	switch op {
	case UnionOp:
		return "|"
	case IntersectionOp:
		return "&"
	case DifferenceOp:
		return "^"
	default:
		return "?"
	}
}

// SetOperation combines two same-typed results via union, intersection or
// difference.
type SetOperation struct {
	Token lexer.Token // the operator token
	Op    SetOp
	Left  Node
	Right Node
}

func (so *SetOperation) node()                {}
func (so *SetOperation) TokenLiteral() string { return so.Token.Literal }
func (so *SetOperation) String() string {
	return so.Left.String() + " " + so.Op.Symbol() + " " + so.Right.String()
}

// IndexSelection narrows a result to specific positions or a slice.
type IndexSelection struct {
	Token  lexer.Token // the ':' token
	Target Node
	Index  IndexExpr
}

func (is *IndexSelection) node()                {}
func (is *IndexSelection) TokenLiteral() string { return is.Token.Literal }
func (is *IndexSelection) String() string {
	// a grouped target needs its parens back, or the suffix would re-parse
	// as binding to the group's last selector
	switch is.Target.(type) {
	case *SetOperation, *Pipeline:
		return "(" + is.Target.String() + "):" + is.Index.String()
	}
	return is.Target.String() + ":" + is.Index.String()
}

// FunctionCall applies a named text transformation to the target's result.
type FunctionCall struct {
	Token  lexer.Token // the function name token
	Target Node
	Name   string
	Args   []Literal
}

func (fc *FunctionCall) node()                {}
func (fc *FunctionCall) TokenLiteral() string { return fc.Token.Literal }
func (fc *FunctionCall) String() string {
	var out bytes.Buffer
	out.WriteString(fc.Target.String())
	out.WriteString(" @")
	out.WriteString(fc.Name)
	for _, arg := range fc.Args {
		out.WriteString(",")
		out.WriteString(arg.String())
	}
	return out.String()
}

// IndexExpr is the suffix of an index selection: a single position, a list
// of positions, or a range.
type IndexExpr interface {
	String() string
	indexExpr()
}

// SingleIndex selects one position.
type SingleIndex struct {
	Index Literal
}

func (si *SingleIndex) indexExpr()     {}
func (si *SingleIndex) String() string { return si.Index.String() }

// MultiIndex selects the listed positions in listed order; duplicates and
// reordering are allowed.
type MultiIndex struct {
	Indices []Literal
}

func (mi *MultiIndex) indexExpr() {}
func (mi *MultiIndex) String() string {
	parts := make([]string, len(mi.Indices))
	for i, idx := range mi.Indices {
		parts[i] = idx.String()
	}
	return strings.Join(parts, ",")
}

// RangeIndex selects a start:end[:step] slice. Any part may be nil, meaning
// the execution-time default for the step's sign.
type RangeIndex struct {
	Start Literal
	End   Literal
	Step  Literal
}

func (ri *RangeIndex) indexExpr() {}
func (ri *RangeIndex) String() string {
	var out bytes.Buffer
	if ri.Start != nil {
		out.WriteString(ri.Start.String())
	}
	out.WriteString(":")
	if ri.End != nil {
		out.WriteString(ri.End.String())
	}
	if ri.Step != nil {
		out.WriteString(":")
		out.WriteString(ri.Step.String())
	}
	return out.String()
}

// Literal is a constant value in index suffixes and function arguments.
type Literal interface {
	String() string
	literal()
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
}

func (il *IntLit) literal()       {}
func (il *IntLit) String() string { return strconv.FormatInt(il.Value, 10) }

// StrLit is a string literal.
type StrLit struct {
	Value string
}

func (sl *StrLit) literal()       {}
func (sl *StrLit) String() string { return quoteSelectorString(sl.Value) }

// FloatLit is a float literal.
type FloatLit struct {
	Value float64
}

func (fl *FloatLit) literal()       {}
func (fl *FloatLit) String() string { return strconv.FormatFloat(fl.Value, 'g', -1, 64) }

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
}

func (bl *BoolLit) literal()       {}
func (bl *BoolLit) String() string { return strconv.FormatBool(bl.Value) }

// ListLit is a bracketed list of literals.
type ListLit struct {
	Elements []Literal
}

func (ll *ListLit) literal() {}
func (ll *ListLit) String() string {
	parts := make([]string, len(ll.Elements))
	for i, el := range ll.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// NilLit is an omitted value, e.g. a missing range bound.
type NilLit struct{}

func (nl *NilLit) literal()       {}
func (nl *NilLit) String() string { return "" }

// quoteArgument renders a selector value so that it re-lexes as a single
// token: bare when it survives unquoted argument scanning, quoted otherwise.
func quoteArgument(s string) string {
	if s == "" {
		return `""`
	}
	if lexer.LookupIdent(s) != lexer.ARGUMENT {
		return quoteSelectorString(s)
	}
	switch s[0] {
	case '~', '#', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return quoteSelectorString(s)
	}
	for _, r := range s {
		switch r {
		case '>', ',', '"', '@', ':', '(', ')', '[', ']', '\\':
			return quoteSelectorString(s)
		}
		if r < 0x20 || unicode.IsSpace(r) {
			return quoteSelectorString(s)
		}
	}
	return s
}

// quoteSelectorString quotes s using only the escape sequences string
// literals support: \" \\ \n \t \r plus \uXXXX for other control runes.
// Everything else is written raw; quoted strings carry arbitrary bytes.
func quoteSelectorString(s string) string {
	var out bytes.Buffer
	out.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			out.WriteString(`\"`)
		case '\\':
			out.WriteString(`\\`)
		case '\n':
			out.WriteString(`\n`)
		case '\t':
			out.WriteString(`\t`)
		case '\r':
			out.WriteString(`\r`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&out, `\u%04x`, r)
			} else {
				out.WriteRune(r)
			}
		}
	}
	out.WriteByte('"')
	return out.String()
}
