package evaluator

import (
	"strings"

	"github.com/sambeau/sprig/pkg/sprig/dom"
	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
)

// ResultKind tags the two result shapes a selector can produce.
type ResultKind int

const (
	NodesResult ResultKind = iota
	TextsResult
)

func (k ResultKind) String() string {
	if k == TextsResult {
		return "texts"
	}
	return "nodes"
}

// SelectionResult is the interpreter's runtime value: a homogeneous set of
// document nodes or of text strings. Every operation preserves the kind
// except text-selector execution, which transforms nodes to texts; the
// reverse transform never occurs.
type SelectionResult struct {
	kind  ResultKind
	nodes []dom.NodeHandle
	texts []string
}

// NewNodes wraps a node list as a result.
func NewNodes(nodes []dom.NodeHandle) SelectionResult {
	return SelectionResult{kind: NodesResult, nodes: nodes}
}

// NewTexts wraps a text list as a result.
func NewTexts(texts []string) SelectionResult {
	return SelectionResult{kind: TextsResult, texts: texts}
}

// Kind returns the result's shape tag.
func (r SelectionResult) Kind() ResultKind { return r.kind }

// IsNodes reports whether the result holds nodes.
func (r SelectionResult) IsNodes() bool { return r.kind == NodesResult }

// IsTexts reports whether the result holds texts.
func (r SelectionResult) IsTexts() bool { return r.kind == TextsResult }

// Nodes returns the node list, or a type error when the result holds texts.
func (r SelectionResult) Nodes() ([]dom.NodeHandle, *serrors.Error) {
	if r.kind != NodesResult {
		return nil, wrongKind("node access", NodesResult, r.kind)
	}
	return r.nodes, nil
}

// Texts returns the text list, or a type error when the result holds nodes.
func (r SelectionResult) Texts() ([]string, *serrors.Error) {
	if r.kind != TextsResult {
		return nil, wrongKind("text access", TextsResult, r.kind)
	}
	return r.texts, nil
}

// Count returns the number of elements in the result.
func (r SelectionResult) Count() int {
	if r.kind == TextsResult {
		return len(r.texts)
	}
	return len(r.nodes)
}

// IsEmpty reports whether the result has no elements.
func (r SelectionResult) IsEmpty() bool { return r.Count() == 0 }

// Clone returns a result backed by its own element storage.
func (r SelectionResult) Clone() SelectionResult {
	out := SelectionResult{kind: r.kind}
	if r.nodes != nil {
		out.nodes = append([]dom.NodeHandle(nil), r.nodes...)
	}
	if r.texts != nil {
		out.texts = append([]string(nil), r.texts...)
	}
	return out
}

// FirstNode returns the first node of a non-empty node result.
func (r SelectionResult) FirstNode() (dom.NodeHandle, *serrors.Error) {
	nodes, err := r.Nodes()
	if err != nil {
		return dom.NodeHandle{}, err
	}
	if len(nodes) == 0 {
		return dom.NodeHandle{}, serrors.New("EXEC-0002", map[string]any{"Index": 0, "Length": 0})
	}
	return nodes[0], nil
}

// FirstText returns the first string of a non-empty text result.
func (r SelectionResult) FirstText() (string, *serrors.Error) {
	texts, err := r.Texts()
	if err != nil {
		return "", err
	}
	if len(texts) == 0 {
		return "", serrors.New("EXEC-0002", map[string]any{"Index": 0, "Length": 0})
	}
	return texts[0], nil
}

// NodeAt returns the node at a zero-based position.
func (r SelectionResult) NodeAt(i int) (dom.NodeHandle, *serrors.Error) {
	nodes, err := r.Nodes()
	if err != nil {
		return dom.NodeHandle{}, err
	}
	if i < 0 || i >= len(nodes) {
		return dom.NodeHandle{}, serrors.New("EXEC-0002", map[string]any{"Index": i, "Length": len(nodes)})
	}
	return nodes[i], nil
}

// TextAt returns the string at a zero-based position.
func (r SelectionResult) TextAt(i int) (string, *serrors.Error) {
	texts, err := r.Texts()
	if err != nil {
		return "", err
	}
	if i < 0 || i >= len(texts) {
		return "", serrors.New("EXEC-0002", map[string]any{"Index": i, "Length": len(texts)})
	}
	return texts[i], nil
}

// Each calls fn with every element wrapped as a one-element result, in
// order.
func (r SelectionResult) Each(fn func(SelectionResult)) {
	if r.kind == TextsResult {
		for _, t := range r.texts {
			fn(NewTexts([]string{t}))
		}
		return
	}
	for _, n := range r.nodes {
		fn(NewNodes([]dom.NodeHandle{n}))
	}
}

// String renders the result for display: texts one per line, nodes as a
// bracketed handle list.
func (r SelectionResult) String() string {
	if r.kind == TextsResult {
		return strings.Join(r.texts, "\n")
	}
	if len(r.nodes) == 0 {
		return "empty result"
	}
	parts := make([]string, len(r.nodes))
	for i, n := range r.nodes {
		parts[i] = n.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func wrongKind(operation string, expected, found ResultKind) *serrors.Error {
	return serrors.New("EXEC-0001", map[string]any{
		"Operation": operation,
		"Expected":  expected.String(),
		"Found":     found.String(),
	})
}
