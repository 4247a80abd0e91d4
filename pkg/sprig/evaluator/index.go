package evaluator

import (
	"github.com/sambeau/sprig/pkg/sprig/ast"
	"github.com/sambeau/sprig/pkg/sprig/dom"
	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
)

// evalIndex narrows the current selection to specific positions. Indexing
// works uniformly over node and text results by length. Negative positions
// count from the end; anything outside [-len, len) is out of bounds.
func (it *Interpreter) evalIndex(index ast.IndexExpr) *serrors.Error {
	length := it.result.Count()

	var positions []int

	switch idx := index.(type) {
	case *ast.SingleIndex:
		pos, err := resolveIndex(idx.Index, length)
		if err != nil {
			return err
		}
		positions = []int{pos}

	case *ast.MultiIndex:
		positions = make([]int, 0, len(idx.Indices))
		for _, lit := range idx.Indices {
			pos, err := resolveIndex(lit, length)
			if err != nil {
				return err
			}
			positions = append(positions, pos)
		}

	case *ast.RangeIndex:
		resolved, err := resolveRange(idx, length)
		if err != nil {
			return err
		}
		positions = resolved

	default:
		return serrors.New("EXEC-0010", map[string]any{
			"Detail": "unsupported index expression",
		})
	}

	return it.setResult(it.takePositions(positions))
}

// takePositions builds a result from already bounds-checked positions, in
// the listed order; duplicates are allowed.
func (it *Interpreter) takePositions(positions []int) SelectionResult {
	if it.result.IsTexts() {
		texts, _ := it.result.Texts()
		selected := make([]string, 0, len(positions))
		for _, pos := range positions {
			selected = append(selected, texts[pos])
		}
		return NewTexts(selected)
	}

	nodes, _ := it.result.Nodes()
	selected := make([]dom.NodeHandle, 0, len(positions))
	for _, pos := range positions {
		selected = append(selected, nodes[pos])
	}
	return NewNodes(selected)
}

// resolveIndex converts an index literal into a checked zero-based position.
func resolveIndex(lit ast.Literal, length int) (int, *serrors.Error) {
	value, ok := literalInt(lit)
	if !ok {
		return 0, serrors.New("EXEC-0010", map[string]any{
			"Detail": "index positions must be integers, got " + lit.String(),
		})
	}
	return normalizeIndex(value, length)
}

// normalizeIndex maps negative positions onto the end of the result and
// rejects anything outside [-length, length).
func normalizeIndex(value, length int) (int, *serrors.Error) {
	pos := value
	if pos < 0 {
		pos += length
	}
	if pos < 0 || pos >= length {
		return 0, serrors.New("EXEC-0002", map[string]any{
			"Index":  value,
			"Length": length,
		})
	}
	return pos, nil
}

// resolveRange expands a start:end[:step] range into positions. A positive
// step walks the half-open window [start, end) with defaults 0 and length; a
// negative step walks inclusively from start down to end with defaults
// length-1 and 0. A zero step and bound ordering that contradicts the step's
// sign are errors, as is any produced position falling out of bounds.
func resolveRange(r *ast.RangeIndex, length int) ([]int, *serrors.Error) {
	step := 1
	if r.Step != nil {
		if _, isNil := r.Step.(*ast.NilLit); !isNil {
			value, ok := literalInt(r.Step)
			if !ok {
				return nil, serrors.New("EXEC-0010", map[string]any{
					"Detail": "range step must be an integer, got " + r.Step.String(),
				})
			}
			step = value
		}
	}
	if step == 0 {
		return nil, serrors.New("EXEC-0003", map[string]any{"Step": 0})
	}

	start, end, err := rangeBounds(r, step, length)
	if err != nil {
		return nil, err
	}

	if step > 0 && start > end {
		return nil, serrors.New("EXEC-0004", map[string]any{
			"Detail": "start must not exceed end for a positive step",
		})
	}
	if step < 0 && start < end {
		return nil, serrors.New("EXEC-0004", map[string]any{
			"Detail": "start must not be below end for a negative step",
		})
	}

	var positions []int
	if step > 0 {
		for pos := start; pos < end; pos += step {
			if pos < 0 || pos >= length {
				return nil, serrors.New("EXEC-0002", map[string]any{
					"Index":  pos,
					"Length": length,
				})
			}
			positions = append(positions, pos)
		}
	} else {
		for pos := start; pos >= end; pos += step {
			if pos < 0 || pos >= length {
				return nil, serrors.New("EXEC-0002", map[string]any{
					"Index":  pos,
					"Length": length,
				})
			}
			positions = append(positions, pos)
		}
	}

	return positions, nil
}

// rangeBounds resolves explicit bounds, applying negative-index arithmetic,
// and fills in the step-sign defaults for omitted ones.
func rangeBounds(r *ast.RangeIndex, step, length int) (int, int, *serrors.Error) {
	start, hasStart, err := rangeBound(r.Start, length)
	if err != nil {
		return 0, 0, err
	}
	end, hasEnd, err := rangeBound(r.End, length)
	if err != nil {
		return 0, 0, err
	}

	if !hasStart {
		if step > 0 {
			start = 0
		} else {
			start = length - 1
		}
	}
	if !hasEnd {
		if step > 0 {
			end = length
		} else {
			end = 0
		}
	}

	return start, end, nil
}

func rangeBound(lit ast.Literal, length int) (int, bool, *serrors.Error) {
	if lit == nil {
		return 0, false, nil
	}
	if _, isNil := lit.(*ast.NilLit); isNil {
		return 0, false, nil
	}
	value, ok := literalInt(lit)
	if !ok {
		return 0, false, serrors.New("EXEC-0010", map[string]any{
			"Detail": "range bounds must be integers, got " + lit.String(),
		})
	}
	if value < 0 {
		value += length
	}
	return value, true, nil
}

// literalInt extracts an integer from an index literal.
func literalInt(lit ast.Literal) (int, bool) {
	if il, ok := lit.(*ast.IntLit); ok {
		return int(il.Value), true
	}
	return 0, false
}
