package parser

import (
	"github.com/sambeau/sprig/pkg/sprig/ast"
	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
)

// validationState tracks what has appeared along the current traversal path.
type validationState struct {
	hasTextSelector bool
	textLine        int
	textColumn      int
}

// Validator enforces the cross-cutting rules a context-free parse cannot:
// at most one text selector per path, and no element selector after a text
// selector. Set-operation branches validate independently because each
// branch yields its own result set.
type Validator struct {
	state validationState
}

// NewValidator returns a validator with fresh path state.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate walks the AST and returns the first rule violation, or nil.
func (v *Validator) Validate(node ast.Node) *serrors.Error {
	return v.visit(node)
}

func (v *Validator) visit(node ast.Node) *serrors.Error {
	switch n := node.(type) {
	case *ast.ElementSelector:
		if v.state.hasTextSelector {
			return serrors.NewWithPosition("VALID-0002", n.Token.Line, n.Token.Column, nil)
		}
		return nil

	case *ast.TextSelector:
		if v.state.hasTextSelector {
			return serrors.NewWithPosition("VALID-0001", n.Token.Line, n.Token.Column, nil)
		}
		v.state.hasTextSelector = true
		v.state.textLine = n.Token.Line
		v.state.textColumn = n.Token.Column
		return nil

	case *ast.Pipeline:
		// The left side's state carries into the right side.
		if err := v.visit(n.Left); err != nil {
			return err
		}
		return v.visit(n.Right)

	case *ast.SetOperation:
		snapshot := v.state

		if err := v.visit(n.Left); err != nil {
			return err
		}

		v.state = snapshot
		if err := v.visit(n.Right); err != nil {
			return err
		}

		// Each branch produced an independent result set, so downstream
		// consumers start from fresh state.
		v.state = validationState{}
		return nil

	case *ast.IndexSelection:
		return v.visit(n.Target)

	case *ast.FunctionCall:
		return v.visit(n.Target)

	default:
		return nil
	}
}
