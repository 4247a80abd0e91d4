// Package errors provides structured error types for the sprig selector
// language.
//
// This package defines Error, a unified error type that can represent lexer,
// parser and interpreter errors with rich metadata for display and
// programmatic handling.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// Class categorizes errors for filtering and templating.
type Class string

const (
	ClassLex      Class = "lex"      // Lexical errors (bad escape, unterminated string)
	ClassParse    Class = "parse"    // Parser/syntax errors
	ClassValidate Class = "validate" // Semantic validation errors
	ClassHTML     Class = "html"     // Document parsing
	ClassType     Class = "type"     // Wrong result or argument type
	ClassIndex    Class = "index"    // Out of bounds / bad step
	ClassRegex    Class = "regex"    // Invalid pattern
	ClassFunction Class = "function" // Unknown function / bad arity
	ClassExec     Class = "exec"     // Generic execution errors
	ClassLimit    Class = "limit"    // Result growth bound exceeded
)

// Error represents any error from tokenizing, parsing or evaluation.
type Error struct {
	Class   Class          `json:"class"`           // Error category
	Code    string         `json:"code"`            // Error code (e.g. "PARSE-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Line    int            `json:"line"`            // 1-based line (0 if unknown)
	Column  int            `json:"column"`          // 1-based column (0 if unknown)
	Data    map[string]any `json:"data,omitempty"`  // Template variables
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.String()
}

// String returns a formatted single-report representation of the error.
func (e *Error) String() string {
	var sb strings.Builder

	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *Error) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassLex:
		sb.WriteString("Lexical error")
	case ClassParse, ClassValidate:
		sb.WriteString("Parse error")
	case ClassHTML:
		sb.WriteString("Document error")
	default:
		sb.WriteString("Execution error")
	}

	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Hint: ")
		} else {
			sb.WriteString("  or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *Error) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithPosition returns a copy of the error with line and column set.
func (e *Error) WithPosition(line, column int) *Error {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsParseError reports whether the error arose before any document access.
func (e *Error) IsParseError() bool {
	return e.Class == ClassLex || e.Class == ClassParse || e.Class == ClassValidate
}

// Def defines an error in the catalog.
type Def struct {
	Class    Class    // Error category
	Template string   // Message template with {{.placeholders}}
	Hints    []string // Hint templates (may use {{.placeholders}})
}

// Catalog maps error codes to their definitions.
var Catalog = map[string]Def{
	// ========================================
	// Lexical errors (LEX-0xxx)
	// ========================================
	"LEX-0001": {
		Class:    ClassLex,
		Template: "unterminated string",
		Hints:    []string{`close the string with '"'`},
	},
	"LEX-0002": {
		Class:    ClassLex,
		Template: "invalid escape sequence: \\{{.Escape}}",
		Hints:    []string{`supported escapes: \" \\ \n \t \r \uXXXX`},
	},
	"LEX-0003": {
		Class:    ClassLex,
		Template: "invalid unicode escape: \\u{{.Hex}}",
		Hints:    []string{`\u requires exactly 4 hex digits encoding a valid code point`},
	},
	"LEX-0004": {
		Class:    ClassLex,
		Template: "unable to parse number: {{.Literal}}",
	},
	"LEX-0005": {
		Class:    ClassLex,
		Template: "function name must start with an ASCII letter",
		Hints:    []string{"write function calls as @name"},
	},
	"LEX-0006": {
		Class:    ClassLex,
		Template: "unrecognized character: {{.Char}}",
	},

	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected {{.Expected}} but found {{.Found}}",
		Hints:    []string{"check whether {{.Expected}} is missing here"},
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "invalid selector value: {{.Value}}",
		Hints:    []string{"selector values are unquoted words or quoted strings"},
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "expression nesting exceeds maximum depth ({{.MaxDepth}})",
		Hints:    []string{"simplify the expression to reduce nesting"},
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "syntax error: {{.Detail}}",
	},

	// ========================================
	// Validation errors (VALID-0xxx)
	// ========================================
	"VALID-0001": {
		Class:    ClassValidate,
		Template: "a query may contain at most one text selector per path",
		Hints:    []string{"remove the extra text selector or split the query with a set operator (| & ^)"},
	},
	"VALID-0002": {
		Class:    ClassValidate,
		Template: "element selectors cannot follow a text selector",
		Hints:    []string{"place element selectors before the text selector"},
	},

	// ========================================
	// Document errors (HTML-0xxx)
	// ========================================
	"HTML-0001": {
		Class:    ClassHTML,
		Template: "unable to parse HTML document: {{.Detail}}",
	},

	// ========================================
	// Execution errors (EXEC-0xxx)
	// ========================================
	"EXEC-0001": {
		Class:    ClassType,
		Template: "{{.Operation}} requires a {{.Expected}} result, current result is {{.Found}}",
	},
	"EXEC-0002": {
		Class:    ClassIndex,
		Template: "index out of bounds: {{.Index}} is outside a result of length {{.Length}}",
	},
	"EXEC-0003": {
		Class:    ClassIndex,
		Template: "invalid range step: step cannot be {{.Step}}",
	},
	"EXEC-0004": {
		Class:    ClassIndex,
		Template: "invalid range: {{.Detail}}",
		Hints:    []string{"a positive step requires start <= end; a negative step requires start >= end"},
	},
	"EXEC-0005": {
		Class:    ClassRegex,
		Template: "invalid regular expression: {{.Detail}}",
	},
	"EXEC-0006": {
		Class:    ClassFunction,
		Template: "unknown function: @{{.Name}}",
	},
	"EXEC-0007": {
		Class:    ClassFunction,
		Template: "@{{.Name}}: {{.Detail}}",
	},
	"EXEC-0008": {
		Class:    ClassExec,
		Template: "{{.Operation}} has mismatched result types: left side is {{.Left}}, right side is {{.Right}}",
	},
	"EXEC-0009": {
		Class:    ClassExec,
		Template: "text results cannot be used as the search context of a pipeline",
		Hints:    []string{"move the text selector after the last pipeline stage"},
	},
	"EXEC-0010": {
		Class:    ClassExec,
		Template: "execution error: {{.Detail}}",
	},
	"EXEC-0011": {
		Class:    ClassLimit,
		Template: "result limit exceeded: more than {{.Limit}} results",
	},
}

// New creates an Error from a catalog code, rendering its message and hint
// templates with data.
func New(code string, data map[string]any) *Error {
	def, ok := Catalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &Error{
			Class:   ClassExec,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &Error{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates an Error with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *Error {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}
	return buf.String()
}
