package evaluator

import (
	"regexp"
	"strings"

	"github.com/sambeau/sprig/pkg/sprig/ast"
	"github.com/sambeau/sprig/pkg/sprig/dom"
	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
)

// evalElement applies a class, id, tag or attr selector to every node of the
// current selection. Each node is searched pre-order, the node itself
// included, and matches are appended in document order per search root.
func (it *Interpreter) evalElement(sel *ast.ElementSelector) *serrors.Error {
	nodes, err := it.result.Nodes()
	if err != nil {
		return serrors.NewWithPosition("EXEC-0001", sel.Token.Line, sel.Token.Column, map[string]any{
			"Operation": sel.Kind.String() + " selector",
			"Expected":  NodesResult.String(),
			"Found":     it.result.Kind().String(),
		})
	}

	// A regex pattern compiles once per selector application. On an attr
	// selector the regex applies to the value match; with no value to match
	// the flag is inert and the name still compares exactly.
	var re *regexp.Regexp
	if sel.IsRegex && !(sel.Kind == ast.AttrSelector && sel.Value == nil) {
		pattern := sel.Pattern
		if sel.Kind == ast.AttrSelector {
			pattern = *sel.Value
		}
		compiled, cerr := regexp.Compile(pattern)
		if cerr != nil {
			return serrors.NewWithPosition("EXEC-0005", sel.Token.Line, sel.Token.Column, map[string]any{
				"Detail": cerr.Error(),
			})
		}
		re = compiled
	}

	var match func(dom.NodeHandle) bool
	switch sel.Kind {
	case ast.ClassSelector:
		match = classMatcher(sel.Pattern, re)
	case ast.IdSelector:
		match = attrValueMatcher("id", sel.Pattern, re)
	case ast.TagSelector:
		match = tagMatcher(sel.Pattern, re)
	case ast.AttrSelector:
		if sel.Pattern == "" && sel.Value != nil {
			match = anyAttrValueMatcher(*sel.Value, re)
		} else {
			match = attrMatcher(sel.Pattern, sel.Value, re)
		}
	}

	var result []dom.NodeHandle
	for _, node := range nodes {
		result = append(result, findMatching(node, match)...)
	}

	return it.setResult(NewNodes(result))
}

// findMatching walks root pre-order, root included, collecting matches.
func findMatching(root dom.NodeHandle, match func(dom.NodeHandle) bool) []dom.NodeHandle {
	var out []dom.NodeHandle
	var walk func(dom.NodeHandle)
	walk = func(n dom.NodeHandle) {
		if match(n) {
			out = append(out, n)
		}
		for _, child := range n.Children() {
			walk(child)
		}
	}
	walk(root)
	return out
}

// classMatcher matches elements whose class attribute contains the pattern
// as one of its whitespace-separated tokens.
func classMatcher(pattern string, re *regexp.Regexp) func(dom.NodeHandle) bool {
	return func(n dom.NodeHandle) bool {
		if !n.IsElement() {
			return false
		}
		for _, attr := range n.Attributes() {
			if attr.Name != "class" {
				continue
			}
			for _, class := range strings.Fields(attr.Value) {
				if re != nil {
					if re.MatchString(class) {
						return true
					}
				} else if class == pattern {
					return true
				}
			}
		}
		return false
	}
}

// attrValueMatcher matches elements carrying a named attribute whose whole
// value matches the pattern.
func attrValueMatcher(name, pattern string, re *regexp.Regexp) func(dom.NodeHandle) bool {
	return func(n dom.NodeHandle) bool {
		if !n.IsElement() {
			return false
		}
		for _, attr := range n.Attributes() {
			if attr.Name != name {
				continue
			}
			if re != nil {
				if re.MatchString(attr.Value) {
					return true
				}
			} else if attr.Value == pattern {
				return true
			}
		}
		return false
	}
}

// tagMatcher matches elements by local tag name.
func tagMatcher(pattern string, re *regexp.Regexp) func(dom.NodeHandle) bool {
	return func(n dom.NodeHandle) bool {
		if !n.IsElement() {
			return false
		}
		if re != nil {
			return re.MatchString(n.TagName())
		}
		return n.TagName() == pattern
	}
}

// attrMatcher matches elements with an attribute whose name equals the
// selector's name and, when a value is given, whose value matches too. Both
// conditions must hold on the same attribute.
func attrMatcher(name string, value *string, re *regexp.Regexp) func(dom.NodeHandle) bool {
	return func(n dom.NodeHandle) bool {
		if !n.IsElement() {
			return false
		}
		for _, attr := range n.Attributes() {
			if attr.Name != name {
				continue
			}
			if value == nil {
				return true
			}
			if re != nil {
				if re.MatchString(attr.Value) {
					return true
				}
			} else if attr.Value == *value {
				return true
			}
		}
		return false
	}
}

// anyAttrValueMatcher matches elements where any attribute, regardless of
// name, carries the wanted value.
func anyAttrValueMatcher(value string, re *regexp.Regexp) func(dom.NodeHandle) bool {
	return func(n dom.NodeHandle) bool {
		if !n.IsElement() {
			return false
		}
		for _, attr := range n.Attributes() {
			if re != nil {
				if re.MatchString(attr.Value) {
					return true
				}
			} else if attr.Value == value {
				return true
			}
		}
		return false
	}
}
