package evaluator

import (
	"regexp"

	"github.com/sambeau/sprig/pkg/sprig/ast"
	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
)

// evalText transforms the current node selection into a text selection. Text
// extraction always contributes one string per node; attribute extraction
// contributes nothing for nodes lacking the attribute.
func (it *Interpreter) evalText(sel *ast.TextSelector) *serrors.Error {
	nodes, err := it.result.Nodes()
	if err != nil {
		return serrors.NewWithPosition("EXEC-0001", sel.Token.Line, sel.Token.Column, map[string]any{
			"Operation": sel.Kind.String() + " selector",
			"Expected":  NodesResult.String(),
			"Found":     it.result.Kind().String(),
		})
	}

	var texts []string

	switch sel.Kind {
	case ast.TextContent:
		texts = make([]string, 0, len(nodes))
		for _, node := range nodes {
			texts = append(texts, node.TextContent())
		}

	case ast.HrefValue:
		for _, node := range nodes {
			if value, ok := node.Attr("href"); ok {
				texts = append(texts, value)
			}
		}

	case ast.SrcValue:
		for _, node := range nodes {
			if value, ok := node.Attr("src"); ok {
				texts = append(texts, value)
			}
		}

	case ast.AttrValue:
		var re *regexp.Regexp
		if sel.IsRegex {
			compiled, cerr := regexp.Compile(sel.Name)
			if cerr != nil {
				return serrors.NewWithPosition("EXEC-0005", sel.Token.Line, sel.Token.Column, map[string]any{
					"Detail": cerr.Error(),
				})
			}
			re = compiled
		}
		for _, node := range nodes {
			if re != nil {
				// First attribute whose name matches wins.
				for _, attr := range node.Attributes() {
					if re.MatchString(attr.Name) {
						texts = append(texts, attr.Value)
						break
					}
				}
			} else if value, ok := node.Attr(sel.Name); ok {
				texts = append(texts, value)
			}
		}
	}

	return it.setResult(NewTexts(texts))
}
