// Package evaluator executes selector ASTs against a parsed HTML document.
//
// The interpreter carries a current selection, initially the document root.
// Selectors narrow or transform it; set operations run each branch against
// an independent copy of the selection so branches cannot observe each
// other.
package evaluator

import (
	"github.com/sambeau/sprig/pkg/sprig/ast"
	"github.com/sambeau/sprig/pkg/sprig/dom"
	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
	"github.com/sambeau/sprig/pkg/sprig/parser"
)

// Interpreter evaluates selectors against one document.
type Interpreter struct {
	doc         *dom.Document
	result      SelectionResult
	first       bool
	resultLimit int
	tracer      parser.Tracer
}

// New creates an interpreter over a parsed document.
func New(doc *dom.Document) *Interpreter {
	return &Interpreter{
		doc:    doc,
		result: NewNodes([]dom.NodeHandle{doc.Root()}),
		first:  true,
	}
}

// NewFromHTML parses raw HTML and creates an interpreter over it.
func NewFromHTML(src string) (*Interpreter, *serrors.Error) {
	doc, err := dom.ParseString(src)
	if err != nil {
		return nil, err
	}
	return New(doc), nil
}

// Document returns the interpreter's document.
func (it *Interpreter) Document() *dom.Document { return it.doc }

// SetResultLimit caps the number of elements a single selection step may
// produce. Zero means unlimited.
func (it *Interpreter) SetResultLimit(limit int) { it.resultLimit = limit }

// SetTracer installs an optional parse tracer used by Select and SelectFrom.
func (it *Interpreter) SetTracer(t parser.Tracer) { it.tracer = t }

// reset returns the current selection to the document root.
func (it *Interpreter) reset() {
	it.result = NewNodes([]dom.NodeHandle{it.doc.Root()})
}

// Select parses and executes a selector against the whole document. The
// first call runs on the freshly initialized selection; every later call
// resets to the document root first.
func (it *Interpreter) Select(selector string) (SelectionResult, *serrors.Error) {
	node, err := parser.ParseWithTracer(selector, it.tracer)
	if err != nil {
		return SelectionResult{}, err
	}

	if it.first {
		it.first = false
	} else {
		it.reset()
	}

	if err := it.eval(node); err != nil {
		return SelectionResult{}, err
	}

	return it.result.Clone(), nil
}

// SelectFrom parses and executes a selector with a previous result as the
// search context instead of the document root. The interpreter's own state
// is untouched.
func (it *Interpreter) SelectFrom(context SelectionResult, selector string) (SelectionResult, *serrors.Error) {
	node, err := parser.ParseWithTracer(selector, it.tracer)
	if err != nil {
		return SelectionResult{}, err
	}

	branch := &Interpreter{
		doc:         it.doc,
		result:      context.Clone(),
		resultLimit: it.resultLimit,
	}
	if err := branch.eval(node); err != nil {
		return SelectionResult{}, err
	}

	return branch.result, nil
}

// Eval executes an already parsed AST against the current selection and
// returns the result. Callers that parse once and execute many times use
// this instead of Select.
func (it *Interpreter) Eval(node ast.Node) (SelectionResult, *serrors.Error) {
	if it.first {
		it.first = false
	} else {
		it.reset()
	}

	if err := it.eval(node); err != nil {
		return SelectionResult{}, err
	}

	return it.result.Clone(), nil
}

func (it *Interpreter) eval(node ast.Node) *serrors.Error {
	switch n := node.(type) {
	case *ast.ElementSelector:
		return it.evalElement(n)

	case *ast.TextSelector:
		return it.evalText(n)

	case *ast.Pipeline:
		return it.evalPipeline(n)

	case *ast.SetOperation:
		return it.evalSetOperation(n)

	case *ast.IndexSelection:
		if err := it.eval(n.Target); err != nil {
			return err
		}
		return it.evalIndex(n.Index)

	case *ast.FunctionCall:
		if err := it.eval(n.Target); err != nil {
			return err
		}
		return it.evalFunction(n)

	default:
		return serrors.New("EXEC-0010", map[string]any{
			"Detail": "unsupported expression node",
		})
	}
}

// setResult installs a new selection, enforcing the result limit.
func (it *Interpreter) setResult(result SelectionResult) *serrors.Error {
	if it.resultLimit > 0 && result.Count() > it.resultLimit {
		return serrors.New("EXEC-0011", map[string]any{"Limit": it.resultLimit})
	}
	it.result = result
	return nil
}

// evalPipeline runs the left side, then re-scopes the right side's search to
// the left side's nodes. An empty left result short-circuits; a text left
// result is an error because texts cannot serve as a search context.
func (it *Interpreter) evalPipeline(p *ast.Pipeline) *serrors.Error {
	if err := it.eval(p.Left); err != nil {
		return err
	}

	if it.result.IsEmpty() {
		return nil
	}

	if it.result.IsTexts() {
		return serrors.NewWithPosition("EXEC-0009", p.Token.Line, p.Token.Column, nil)
	}

	return it.eval(p.Right)
}
