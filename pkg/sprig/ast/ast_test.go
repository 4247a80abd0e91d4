package ast

import "testing"

func strptr(s string) *string { return &s }

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		node     interface{ String() string }
		expected string
	}{
		{
			"class selector",
			&ElementSelector{Kind: ClassSelector, Pattern: "nav"},
			"class nav",
		},
		{
			"regex tag selector",
			&ElementSelector{Kind: TagSelector, Pattern: "h[1-6]", IsRegex: true},
			`tag ~"h[1-6]"`,
		},
		{
			"attr selector with value",
			&ElementSelector{Kind: AttrSelector, Pattern: "rel", Value: strptr("nofollow")},
			"attr rel nofollow",
		},
		{
			"quoted pattern",
			&ElementSelector{Kind: ClassSelector, Pattern: "two words"},
			`class "two words"`,
		},
		{
			"pattern that collides with a keyword",
			&ElementSelector{Kind: ClassSelector, Pattern: "text"},
			`class "text"`,
		},
		{
			"text selector",
			&TextSelector{Kind: TextContent},
			"text",
		},
		{
			"attribute value selector",
			&TextSelector{Kind: AttrValue, Name: "data-id"},
			"#data-id",
		},
		{
			"regex attribute value selector",
			&TextSelector{Kind: AttrValue, Name: "data-.*", IsRegex: true},
			"#~data-.*",
		},
		{
			"pipeline",
			&Pipeline{
				Left:  &ElementSelector{Kind: TagSelector, Pattern: "p"},
				Right: &TextSelector{Kind: TextContent},
			},
			"tag p > text",
		},
		{
			"set operation",
			&SetOperation{
				Op:    UnionOp,
				Left:  &ElementSelector{Kind: ClassSelector, Pattern: "a"},
				Right: &ElementSelector{Kind: ClassSelector, Pattern: "b"},
			},
			"class a | class b",
		},
		{
			"single index",
			&IndexSelection{
				Target: &ElementSelector{Kind: TagSelector, Pattern: "p"},
				Index:  &SingleIndex{Index: &IntLit{Value: -1}},
			},
			"tag p:-1",
		},
		{
			"multi index",
			&IndexSelection{
				Target: &ElementSelector{Kind: TagSelector, Pattern: "p"},
				Index: &MultiIndex{Indices: []Literal{
					&IntLit{Value: 2}, &IntLit{Value: 0}, &IntLit{Value: 2},
				}},
			},
			"tag p:2,0,2",
		},
		{
			"range with omitted bounds",
			&IndexSelection{
				Target: &ElementSelector{Kind: TagSelector, Pattern: "p"},
				Index:  &RangeIndex{Step: &IntLit{Value: -1}},
			},
			"tag p:::-1",
		},
		{
			"function chain",
			&FunctionCall{
				Target: &FunctionCall{
					Target: &TextSelector{Kind: TextContent},
					Name:   "trim",
				},
				Name: "replace",
				Args: []Literal{&StrLit{Value: "a"}, &StrLit{Value: "b"}},
			},
			`text @trim @replace,"a","b"`,
		},
		{
			"list literal argument",
			&FunctionCall{
				Target: &TextSelector{Kind: TextContent},
				Name:   "in",
				Args: []Literal{&ListLit{Elements: []Literal{
					&StrLit{Value: "x"}, &StrLit{Value: "y"},
				}}},
			},
			`text @in,["x","y"]`,
		},
		{
			"string with named escapes",
			&StrLit{Value: "a\"b\\c\nd\te\rf"},
			`"a\"b\\c\nd\te\rf"`,
		},
		{
			"string with other control runes",
			&StrLit{Value: "a\x07b\x1fc"},
			`"abc"`,
		},
		{
			"string keeps non-ASCII runes raw",
			&StrLit{Value: "héllo\U0001F331"},
			"\"héllo\U0001F331\"",
		},
		{
			"unicode whitespace forces quoting",
			&ElementSelector{Kind: ClassSelector, Pattern: "a b"},
			"class \"a b\"",
		},
	}

	for _, tt := range tests {
		if got := tt.node.String(); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, got)
		}
	}
}

func TestSetOpSymbols(t *testing.T) {
	tests := []struct {
		op     SetOp
		symbol string
		name   string
	}{
		{UnionOp, "|", "union"},
		{IntersectionOp, "&", "intersection"},
		{DifferenceOp, "^", "difference"},
	}

	for _, tt := range tests {
		if tt.op.Symbol() != tt.symbol {
			t.Errorf("expected symbol %q, got %q", tt.symbol, tt.op.Symbol())
		}
		if tt.op.String() != tt.name {
			t.Errorf("expected name %q, got %q", tt.name, tt.op.String())
		}
	}
}
