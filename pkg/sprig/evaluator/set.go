package evaluator

import (
	"github.com/sambeau/sprig/pkg/sprig/ast"
	"github.com/sambeau/sprig/pkg/sprig/dom"
	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
)

// evalSetOperation runs both branches against independent copies of the
// current selection, requires the two results to share a kind, and combines
// them. Only the selection is copied; the document is shared.
func (it *Interpreter) evalSetOperation(op *ast.SetOperation) *serrors.Error {
	left := &Interpreter{doc: it.doc, result: it.result.Clone(), resultLimit: it.resultLimit}
	right := &Interpreter{doc: it.doc, result: it.result.Clone(), resultLimit: it.resultLimit}

	if err := left.eval(op.Left); err != nil {
		return err
	}
	if err := right.eval(op.Right); err != nil {
		return err
	}

	if left.result.Kind() != right.result.Kind() {
		return serrors.NewWithPosition("EXEC-0008", op.Token.Line, op.Token.Column, map[string]any{
			"Operation": op.Op.String(),
			"Left":      left.result.Kind().String(),
			"Right":     right.result.Kind().String(),
		})
	}

	var combined SelectionResult
	if left.result.IsNodes() {
		leftNodes, _ := left.result.Nodes()
		rightNodes, _ := right.result.Nodes()
		combined = NewNodes(combineNodes(op.Op, leftNodes, rightNodes))
	} else {
		leftTexts, _ := left.result.Texts()
		rightTexts, _ := right.result.Texts()
		combined = NewTexts(combineTexts(op.Op, leftTexts, rightTexts))
	}

	return it.setResult(combined)
}

// combineNodes applies a set operator over node lists, keyed by node ID.
// Union keeps left-then-right order de-duplicated to first occurrence;
// intersection keeps right-side order; difference keeps left-side order.
func combineNodes(op ast.SetOp, left, right []dom.NodeHandle) []dom.NodeHandle {
	switch op {
	case ast.UnionOp:
		seen := make(map[dom.NodeID]struct{}, len(left)+len(right))
		result := make([]dom.NodeHandle, 0, len(left)+len(right))
		for _, node := range left {
			if _, ok := seen[node.ID()]; !ok {
				seen[node.ID()] = struct{}{}
				result = append(result, node)
			}
		}
		for _, node := range right {
			if _, ok := seen[node.ID()]; !ok {
				seen[node.ID()] = struct{}{}
				result = append(result, node)
			}
		}
		return result

	case ast.IntersectionOp:
		inLeft := make(map[dom.NodeID]struct{}, len(left))
		for _, node := range left {
			inLeft[node.ID()] = struct{}{}
		}
		result := make([]dom.NodeHandle, 0, len(right))
		for _, node := range right {
			if _, ok := inLeft[node.ID()]; ok {
				result = append(result, node)
			}
		}
		return result

	default: // difference
		inRight := make(map[dom.NodeID]struct{}, len(right))
		for _, node := range right {
			inRight[node.ID()] = struct{}{}
		}
		result := make([]dom.NodeHandle, 0, len(left))
		for _, node := range left {
			if _, ok := inRight[node.ID()]; !ok {
				result = append(result, node)
			}
		}
		return result
	}
}

// combineTexts applies a set operator over text lists, keyed by string
// equality, with the same ordering rules as combineNodes.
func combineTexts(op ast.SetOp, left, right []string) []string {
	switch op {
	case ast.UnionOp:
		seen := make(map[string]struct{}, len(left)+len(right))
		result := make([]string, 0, len(left)+len(right))
		for _, text := range left {
			if _, ok := seen[text]; !ok {
				seen[text] = struct{}{}
				result = append(result, text)
			}
		}
		for _, text := range right {
			if _, ok := seen[text]; !ok {
				seen[text] = struct{}{}
				result = append(result, text)
			}
		}
		return result

	case ast.IntersectionOp:
		inLeft := make(map[string]struct{}, len(left))
		for _, text := range left {
			inLeft[text] = struct{}{}
		}
		result := make([]string, 0, len(right))
		for _, text := range right {
			if _, ok := inLeft[text]; ok {
				result = append(result, text)
			}
		}
		return result

	default: // difference
		inRight := make(map[string]struct{}, len(right))
		for _, text := range right {
			inRight[text] = struct{}{}
		}
		result := make([]string, 0, len(left))
		for _, text := range left {
			if _, ok := inRight[text]; !ok {
				result = append(result, text)
			}
		}
		return result
	}
}
