package sprig

import (
	"strings"
	"testing"
)

const pageHTML = `<html><body>
<div class="post"><h2>First</h2><p>one</p><p>two</p></div>
<div class="post"><h2>Second</h2><p>three</p></div>
<a href="/about">About</a>
</body></html>`

func newQuery(t *testing.T) *Query {
	t.Helper()
	q, err := New(pageHTML)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.PrettyString())
	}
	return q
}

func TestSelect(t *testing.T) {
	q := newQuery(t)

	texts := q.Select(`tag p > text`).Texts()
	expected := []string{"one", "two", "three"}
	if len(texts) != len(expected) {
		t.Fatalf("expected %d texts, got %d", len(expected), len(texts))
	}
	for i := range expected {
		if texts[i] != expected[i] {
			t.Errorf("texts[%d] - expected %q, got %q", i, expected[i], texts[i])
		}
	}

	if q.Count() != 3 || q.IsEmpty() {
		t.Errorf("expected count 3 and non-empty, got %d / %v", q.Count(), q.IsEmpty())
	}
	if err := q.Err(); err != nil {
		t.Errorf("expected no error, got %s", err.PrettyString())
	}
}

func TestText(t *testing.T) {
	q := newQuery(t)

	text, ok := q.Select(`tag a > href`).Text()
	if !ok || text != "/about" {
		t.Errorf("expected (/about, true), got (%q, %v)", text, ok)
	}

	// Text on a node result refuses instead of converting
	if _, ok := q.Select(`tag a`).Text(); ok {
		t.Error("expected Text to fail on a node result")
	}
}

func TestNodes(t *testing.T) {
	q := newQuery(t)

	nodes := q.Select(`class post`).Nodes()
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}

	node, ok := q.Node()
	if !ok || node != nodes[0] {
		t.Errorf("expected the first node back, got %s (%v)", node, ok)
	}

	if got := q.Select(`tag p > text`).Nodes(); got != nil {
		t.Errorf("expected nil nodes for a text result, got %d", len(got))
	}
}

func TestThen(t *testing.T) {
	q := newQuery(t)

	texts := q.Select(`class post:1`).Then(`tag p > text`).Texts()
	if len(texts) != 1 || texts[0] != "three" {
		t.Errorf("expected [three], got %q", texts)
	}
}

func TestThenWithoutQuery(t *testing.T) {
	q := newQuery(t)

	if err := q.Then(`tag p`).Err(); err == nil {
		t.Error("expected an error when no query has run")
	}
}

func TestFrom(t *testing.T) {
	q := newQuery(t)

	posts, err := q.Select(`class post`).Result()
	if err != nil {
		t.Fatalf("unexpected error: %s", err.PrettyString())
	}

	texts := q.From(posts, `tag h2 > text`).Texts()
	if len(texts) != 2 || texts[0] != "First" || texts[1] != "Second" {
		t.Errorf("expected [First Second], got %q", texts)
	}
}

func TestForEach(t *testing.T) {
	q := newQuery(t)

	var titles []string
	q.Select(`class post`).ForEach(func(q *Query, post SelectionResult) {
		if text, ok := q.From(post, `tag h2 > text`).Text(); ok {
			titles = append(titles, text)
		}
	})

	if len(titles) != 2 || titles[0] != "First" || titles[1] != "Second" {
		t.Errorf("expected per-post titles, got %q", titles)
	}
}

func TestErrorPropagation(t *testing.T) {
	q := newQuery(t)

	q.Select(`tag p:9`)
	if err := q.Err(); err == nil || err.Code != "EXEC-0002" {
		t.Fatalf("expected EXEC-0002, got %v", err)
	}

	// a failed current result blocks the chain without panicking
	if texts := q.Then(`text`).Texts(); texts != nil {
		t.Errorf("expected nil texts after an error, got %q", texts)
	}
	if !q.IsEmpty() || q.Count() != 0 {
		t.Error("expected a failed result to read as empty")
	}
}

func TestMemoization(t *testing.T) {
	q := newQuery(t)
	logger := NewBufferedLogger()
	q.SetLogger(logger)

	// errors memoize too: the second run must not re-execute
	q.Select(`tag p:9`)
	q.Select(`tag p:9`)

	failures := 0
	for _, line := range logger.Lines() {
		if strings.Contains(line, "select failed") {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("expected 1 logged failure, got %d", failures)
	}

	q.ClearCache()
	q.Select(`tag p:9`)
	failures = 0
	for _, line := range logger.Lines() {
		if strings.Contains(line, "select failed") {
			failures++
		}
	}
	if failures != 2 {
		t.Errorf("expected a fresh run after ClearCache, got %d failures", failures)
	}
}

func TestResultWithoutQuery(t *testing.T) {
	q := newQuery(t)

	if _, err := q.Result(); err == nil {
		t.Error("expected an error before any query has run")
	}
}

func TestResultLimit(t *testing.T) {
	q := newQuery(t)
	q.SetResultLimit(2)

	q.Select(`tag p`)
	if err := q.Err(); err == nil || err.Code != "EXEC-0011" {
		t.Fatalf("expected EXEC-0011, got %v", err)
	}
}

func TestContextDigestDistinguishesContexts(t *testing.T) {
	q := newQuery(t)

	first, err := q.Select(`class post:0`).Result()
	if err != nil {
		t.Fatalf("unexpected error: %s", err.PrettyString())
	}
	second, err := q.Select(`class post:1`).Result()
	if err != nil {
		t.Fatalf("unexpected error: %s", err.PrettyString())
	}

	one := q.From(first, `tag p > text`).Texts()
	other := q.From(second, `tag p > text`).Texts()

	if len(one) != 2 || len(other) != 1 {
		t.Errorf("expected context-scoped caching to keep results apart, got %q and %q", one, other)
	}
}
