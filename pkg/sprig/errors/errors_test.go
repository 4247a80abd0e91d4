package errors

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewRendersTemplates(t *testing.T) {
	err := New("PARSE-0001", map[string]any{
		"Expected": "EOF",
		"Found":    "tag",
	})

	if err.Code != "PARSE-0001" || err.Class != ClassParse {
		t.Errorf("expected PARSE-0001/parse, got %s/%s", err.Code, err.Class)
	}
	if err.Message != "expected EOF but found tag" {
		t.Errorf("unexpected message: %q", err.Message)
	}
	if len(err.Hints) != 1 || !strings.Contains(err.Hints[0], "EOF") {
		t.Errorf("expected a rendered hint, got %q", err.Hints)
	}
}

func TestNewWithPosition(t *testing.T) {
	err := NewWithPosition("EXEC-0002", 2, 7, map[string]any{
		"Index":  5,
		"Length": 3,
	})

	if err.Line != 2 || err.Column != 7 {
		t.Errorf("expected position 2:7, got %d:%d", err.Line, err.Column)
	}
	if got := err.String(); !strings.HasPrefix(got, "line 2, column 7: ") {
		t.Errorf("expected position prefix, got %q", got)
	}
	if !strings.Contains(err.Message, "5") || !strings.Contains(err.Message, "3") {
		t.Errorf("expected index and length in message, got %q", err.Message)
	}
}

func TestUnknownCodeFallsBack(t *testing.T) {
	err := New("NOPE-9999", map[string]any{"message": "something odd"})

	if err.Code != "NOPE-9999" {
		t.Errorf("expected the code to carry through, got %s", err.Code)
	}
	if err.Message != "something odd" {
		t.Errorf("expected the fallback message, got %q", err.Message)
	}
}

func TestPrettyString(t *testing.T) {
	tests := []struct {
		code   string
		data   map[string]any
		header string
	}{
		{"LEX-0001", nil, "Lexical error"},
		{"PARSE-0003", map[string]any{"MaxDepth": 100}, "Parse error"},
		{"VALID-0001", nil, "Parse error"},
		{"HTML-0001", map[string]any{"Detail": "x"}, "Document error"},
		{"EXEC-0006", map[string]any{"Name": "nope"}, "Execution error"},
	}

	for _, tt := range tests {
		pretty := New(tt.code, tt.data).PrettyString()
		if !strings.HasPrefix(pretty, tt.header) {
			t.Errorf("%s: expected header %q, got %q", tt.code, tt.header, pretty)
		}
	}

	withHint := New("EXEC-0009", nil).PrettyString()
	if !strings.Contains(withHint, "Hint: ") {
		t.Errorf("expected a hint line, got %q", withHint)
	}
}

func TestIsParseError(t *testing.T) {
	if !New("LEX-0002", map[string]any{"Escape": "q"}).IsParseError() {
		t.Error("expected lexical errors to count as parse errors")
	}
	if !New("VALID-0002", nil).IsParseError() {
		t.Error("expected validation errors to count as parse errors")
	}
	if New("EXEC-0001", nil).IsParseError() {
		t.Error("expected execution errors not to count as parse errors")
	}
}

func TestToJSON(t *testing.T) {
	raw, err := NewWithPosition("EXEC-0011", 1, 1, map[string]any{"Limit": 10}).ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["code"] != "EXEC-0011" {
		t.Errorf("expected code field, got %v", decoded["code"])
	}
	if decoded["line"] != float64(1) {
		t.Errorf("expected line field, got %v", decoded["line"])
	}
}
