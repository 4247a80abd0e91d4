package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeQueryFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queries.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeQueryFile(t, `
document: page.html
limit: 100
queries:
  - name: titles
    selector: tag h2 > text
  - name: links
    selector: class post
    then: tag a > href
`)

	qf, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if qf.Document != "page.html" {
		t.Errorf("expected document page.html, got %q", qf.Document)
	}
	if qf.Limit != 100 {
		t.Errorf("expected limit 100, got %d", qf.Limit)
	}
	if len(qf.Queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(qf.Queries))
	}
	if qf.Queries[0].Name != "titles" || qf.Queries[0].Selector != "tag h2 > text" {
		t.Errorf("unexpected first query: %+v", qf.Queries[0])
	}
	if len(qf.Queries[1].Then) != 1 || qf.Queries[1].Then[0] != "tag a > href" {
		t.Errorf("expected single then selector, got %q", qf.Queries[1].Then)
	}
}

func TestThenAcceptsList(t *testing.T) {
	path := writeQueryFile(t, `
queries:
  - name: posts
    selector: class post
    then:
      - tag h2 > text
      - tag a > href
`)

	qf, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	then := qf.Queries[0].Then
	if len(then) != 2 || then[0] != "tag h2 > text" || then[1] != "tag a > href" {
		t.Errorf("expected two then selectors, got %q", then)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		wantErr  string
	}{
		{
			"no queries",
			`document: page.html`,
			"at least one query is required",
		},
		{
			"missing name",
			"queries:\n  - selector: tag p\n",
			"name is required",
		},
		{
			"duplicate name",
			"queries:\n  - name: a\n    selector: tag p\n  - name: a\n    selector: tag q\n",
			"duplicate name 'a'",
		},
		{
			"blank selector",
			"queries:\n  - name: a\n    selector: \"  \"\n",
			"selector is required",
		},
		{
			"blank then selector",
			"queries:\n  - name: a\n    selector: tag p\n    then:\n      - \"\"\n",
			"then[0]: selector is required",
		},
		{
			"negative limit",
			"limit: -1\nqueries:\n  - name: a\n    selector: tag p\n",
			"limit: must not be negative",
		},
	}

	for _, tt := range tests {
		path := writeQueryFile(t, tt.contents)
		_, err := Load(path)
		if err == nil {
			t.Errorf("%s: expected an error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: expected error containing %q, got %q", tt.name, tt.wantErr, err.Error())
		}
	}
}

func TestValidationCollectsAllProblems(t *testing.T) {
	path := writeQueryFile(t, "limit: -1\nqueries:\n  - selector: \"\"\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"limit: must not be negative", "name is required", "selector is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got:\n%s", want, err.Error())
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
