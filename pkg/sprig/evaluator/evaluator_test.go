package evaluator

import (
	"testing"

	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
)

const pageHTML = `<html><body>
<div class="a"><p>text 1</p><p>text 2</p></div>
<div class="b"><p>text 3</p></div>
<ul id="menu">
<li data-id="1"><a href="/one" class="nav">One</a></li>
<li data-id="2"><a href="/two" class="nav external">Two</a></li>
<li data-id="3"><a class="nav">Three</a></li>
</ul>
<img src="/logo.png">
</body></html>`

func interp(t *testing.T, src string) *Interpreter {
	t.Helper()
	it, err := NewFromHTML(src)
	if err != nil {
		t.Fatalf("document parse error: %s", err.PrettyString())
	}
	return it
}

func selectTexts(t *testing.T, it *Interpreter, selector string) []string {
	t.Helper()
	result, err := it.Select(selector)
	if err != nil {
		t.Fatalf("%q: unexpected error: %s", selector, err.PrettyString())
	}
	texts, terr := result.Texts()
	if terr != nil {
		t.Fatalf("%q: expected texts, got %s", selector, result.Kind())
	}
	return texts
}

func selectCount(t *testing.T, it *Interpreter, selector string) int {
	t.Helper()
	result, err := it.Select(selector)
	if err != nil {
		t.Fatalf("%q: unexpected error: %s", selector, err.PrettyString())
	}
	return result.Count()
}

func selectErr(t *testing.T, it *Interpreter, selector string) *serrors.Error {
	t.Helper()
	result, err := it.Select(selector)
	if err == nil {
		t.Fatalf("%q: expected an error, got %s", selector, result.String())
	}
	return err
}

func sameTexts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestElementSelectors(t *testing.T) {
	it := interp(t, pageHTML)

	tests := []struct {
		selector string
		count    int
	}{
		{`tag p`, 3},
		{`tag ~"^(ul|li)$"`, 4},
		{`class a`, 1},
		{`class nav`, 3},
		{`class external`, 1}, // token match inside "nav external"
		{`id menu`, 1},
		{`attr data-id`, 3},
		{`attr data-id 2`, 1},
		{`attr data-id ~"[13]"`, 2},
		{`attr href`, 2},
		{`attr ~href`, 2},   // bare attr names match exactly, regex flag or not
		{`attr ~"["`, 0},    // and never compile, so a regex-hostile name is fine
		{`class missing`, 0},
	}

	for _, tt := range tests {
		if got := selectCount(t, it, tt.selector); got != tt.count {
			t.Errorf("%q: expected %d nodes, got %d", tt.selector, tt.count, got)
		}
	}
}

func TestSearchIncludesContextNode(t *testing.T) {
	it := interp(t, pageHTML)

	context, err := it.Select(`class a`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.PrettyString())
	}

	// a matching context node is its own search result
	again, err := it.SelectFrom(context, `class a`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.PrettyString())
	}
	if again.Count() != 1 {
		t.Errorf("expected the context node itself, got %d nodes", again.Count())
	}
}

func TestTextSelectors(t *testing.T) {
	it := interp(t, pageHTML)

	tests := []struct {
		selector string
		expected []string
	}{
		{`tag p > text`, []string{"text 1", "text 2", "text 3"}},
		{`tag a > text`, []string{"One", "Two", "Three"}},
		{`tag a > href`, []string{"/one", "/two"}}, // missing href contributes nothing
		{`tag img > src`, []string{"/logo.png"}},
		{`tag li > #data-id`, []string{"1", "2", "3"}},
		{`tag li > #~"^data-"`, []string{"1", "2", "3"}},
		{`tag li > #missing`, nil},
	}

	for _, tt := range tests {
		if got := selectTexts(t, it, tt.selector); !sameTexts(got, tt.expected) {
			t.Errorf("%q: expected %q, got %q", tt.selector, tt.expected, got)
		}
	}
}

func TestPipelineScoping(t *testing.T) {
	it := interp(t, pageHTML)

	got := selectTexts(t, it, `class a > tag p > text @contains,"2"`)
	if !sameTexts(got, []string{"text 2"}) {
		t.Errorf("expected [text 2], got %q", got)
	}

	// an empty left side short-circuits instead of erroring
	result, err := it.Select(`class missing > text`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.PrettyString())
	}
	if !result.IsEmpty() {
		t.Errorf("expected an empty result, got %s", result.String())
	}
}

func TestPipelineRejectsTextContext(t *testing.T) {
	it := interp(t, pageHTML)

	// the set operation launders the text result past static validation,
	// so the pipeline has to reject it at run time
	err := selectErr(t, it, `(tag p > text | tag p > text) > tag a`)
	if err.Code != "EXEC-0009" {
		t.Errorf("expected EXEC-0009, got %s", err.Code)
	}
}

func TestSetOperations(t *testing.T) {
	it := interp(t, pageHTML)

	tests := []struct {
		selector string
		expected []string
	}{
		{`(class a | class b) > tag p > text`, []string{"text 1", "text 2", "text 3"}},
		{`(tag p | tag p) > text`, []string{"text 1", "text 2", "text 3"}}, // union de-duplicates
		{`(tag p:2 | tag p:0) > text`, []string{"text 3", "text 1"}},      // union keeps left-then-right order
		{`(tag p & (class a > tag p)) > text`, []string{"text 1", "text 2"}},
		{`(tag p ^ (class a > tag p)) > text`, []string{"text 3"}},
		{`tag p > text | tag a > text @starts_with,"T"`, []string{"text 1", "text 2", "text 3", "Two", "Three"}},
		{`tag p > text ^ tag p > text @contains,"2"`, []string{"text 1", "text 3"}},
	}

	for _, tt := range tests {
		if got := selectTexts(t, it, tt.selector); !sameTexts(got, tt.expected) {
			t.Errorf("%q: expected %q, got %q", tt.selector, tt.expected, got)
		}
	}
}

func TestSetOperationKindMismatch(t *testing.T) {
	it := interp(t, pageHTML)

	err := selectErr(t, it, `tag p | tag p > text`)
	if err.Code != "EXEC-0008" {
		t.Errorf("expected EXEC-0008, got %s", err.Code)
	}
}

func TestIndexing(t *testing.T) {
	it := interp(t, pageHTML)

	tests := []struct {
		selector string
		expected []string
	}{
		{`tag p:0 > text`, []string{"text 1"}},
		{`tag p:2 > text`, []string{"text 3"}},
		{`tag p:-1 > text`, []string{"text 3"}},
		{`tag p:-3 > text`, []string{"text 1"}},
		{`tag p:2,0,2 > text`, []string{"text 3", "text 1", "text 3"}},
		{`tag p:0:2 > text`, []string{"text 1", "text 2"}},
		{`tag p:1: > text`, []string{"text 2", "text 3"}},
		{`tag p::2 > text`, []string{"text 1", "text 2"}},
		{`tag p:0:3:2 > text`, []string{"text 1", "text 3"}},
		{`tag p:::-1 > text`, []string{"text 3", "text 2", "text 1"}},
		{`tag p:-1:0:-1 > text`, []string{"text 3", "text 2", "text 1"}},
		{`tag p > text:1`, []string{"text 2"}},
	}

	for _, tt := range tests {
		if got := selectTexts(t, it, tt.selector); !sameTexts(got, tt.expected) {
			t.Errorf("%q: expected %q, got %q", tt.selector, tt.expected, got)
		}
	}

	if count := selectCount(t, it, `tag p:0:0`); count != 0 {
		t.Errorf("expected an empty slice, got %d nodes", count)
	}
}

func TestIndexingErrors(t *testing.T) {
	it := interp(t, pageHTML)

	tests := []struct {
		selector     string
		expectedCode string
	}{
		{`tag p:3`, "EXEC-0002"},    // three paragraphs: valid positions are -3..2
		{`tag p:-4`, "EXEC-0002"},   //
		{`tag p:::0`, "EXEC-0003"},  // zero step
		{`tag p:2:0`, "EXEC-0004"},  // backwards bounds with a positive step
		{`tag p:0:2:-1`, "EXEC-0004"},
		{`tag p:"x"`, "EXEC-0010"},  // index positions must be integers
		{`tag p:1.5`, "EXEC-0010"},  //
		{`tag p:0:true`, "EXEC-0010"},
	}

	for _, tt := range tests {
		if err := selectErr(t, it, tt.selector); err.Code != tt.expectedCode {
			t.Errorf("%q: expected %s, got %s", tt.selector, tt.expectedCode, err.Code)
		}
	}
}

func TestRegexErrors(t *testing.T) {
	it := interp(t, pageHTML)

	if err := selectErr(t, it, `tag ~"["`); err.Code != "EXEC-0005" {
		t.Errorf("expected EXEC-0005, got %s", err.Code)
	}

	// attr value regexes still compile even though name regexes never do
	if err := selectErr(t, it, `attr data-id ~"["`); err.Code != "EXEC-0005" {
		t.Errorf("expected EXEC-0005, got %s", err.Code)
	}
}

func TestFunctions(t *testing.T) {
	src := `<ul>
<li>  Hello World  </li>
<li>alpha</li>
<li>42</li>
</ul>`
	it := interp(t, src)

	tests := []struct {
		selector string
		expected []string
	}{
		{`tag li > text @trim`, []string{"Hello World", "alpha", "42"}},
		{`tag li > text @trim @lowercase`, []string{"hello world", "alpha", "42"}},
		{`tag li > text @trim @uppercase`, []string{"HELLO WORLD", "ALPHA", "42"}},
		{`tag li > text @trim @replace,"l","L"`, []string{"HeLLo WorLd", "aLpha", "42"}},
		{`tag li > text @trim @join,", "`, []string{"Hello World, alpha, 42"}},
		{`tag li > text @trim @join`, []string{"Hello Worldalpha42"}},
		{`tag li > text @trim @format,"[{}]"`, []string{"[Hello World]", "[alpha]", "[42]"}},
		{`tag li:2 > text @format,"%d"`, []string{"42"}},
		{`tag li:2 > text @format,"%x"`, []string{"2a"}},
		{`tag li:2 > text @format,"%X"`, []string{"2A"}},
		{`tag li:1 > text @format,"%d"`, []string{"alpha"}}, // unparsable stays unchanged
		{`tag li:1 > text @format,"item: "`, []string{"item: alpha"}},
		{`tag li > text @trim @contains,"o"`, []string{"Hello World"}},
		{`tag li > text @trim @starts_with,"a"`, []string{"alpha"}},
		{`tag li > text @trim @ends_with,"2"`, []string{"42"}},
		{`tag li > text @trim @in,["alpha","42","other"]`, []string{"alpha", "42"}},
		{`tag li > text @trim @slice,0,5`, []string{"Hello", "alpha", "42"}},
		{`tag li > text @trim @slice,2,2`, []string{"", "", ""}},

		// replace and join stay lax about trailing extras
		{`tag li > text @trim @replace,"l","L","zzz"`, []string{"HeLLo WorLd", "aLpha", "42"}},
		{`tag li > text @trim @join,"-","zzz"`, []string{"Hello World-alpha-42"}},
	}

	for _, tt := range tests {
		if got := selectTexts(t, it, tt.selector); !sameTexts(got, tt.expected) {
			t.Errorf("%q: expected %q, got %q", tt.selector, tt.expected, got)
		}
	}
}

func TestFloatFormat(t *testing.T) {
	it := interp(t, `<p>3.50</p>`)

	got := selectTexts(t, it, `tag p > text @format,"%f"`)
	if !sameTexts(got, []string{"3.5"}) {
		t.Errorf("expected [3.5], got %q", got)
	}
}

func TestFunctionErrors(t *testing.T) {
	it := interp(t, pageHTML)

	tests := []struct {
		selector     string
		expectedCode string
	}{
		{`tag p > text @nope`, "EXEC-0006"},
		{`tag p > text @replace,"a"`, "EXEC-0007"},    // missing replacement
		{`tag p > text @replace,1,"b"`, "EXEC-0007"},  // wrong argument type
		{`tag p > text @slice,0`, "EXEC-0007"},        // slice needs start and end
		{`tag p > text @slice,-1,2`, "EXEC-0007"},     // offsets must not be negative
		{`tag p > text @in,"a"`, "EXEC-0007"},         // in needs a list
		{`tag p > text @in,[1,2]`, "EXEC-0007"},       // of strings

		// exact-arity functions reject extra arguments
		{`tag p > text @format,"{}","x"`, "EXEC-0007"},
		{`tag p > text @contains,"1","2"`, "EXEC-0007"},
		{`tag p > text @starts_with,"t","x"`, "EXEC-0007"},
		{`tag p > text @ends_with,"a","b"`, "EXEC-0007"},
		{`tag p > text @in,["a"],"b"`, "EXEC-0007"},
		{`tag p > text @slice,0,1,2`, "EXEC-0007"},
	}

	for _, tt := range tests {
		if err := selectErr(t, it, tt.selector); err.Code != tt.expectedCode {
			t.Errorf("%q: expected %s, got %s", tt.selector, tt.expectedCode, err.Code)
		}
	}
}

func TestSelectResetsBetweenCalls(t *testing.T) {
	it := interp(t, pageHTML)

	if count := selectCount(t, it, `class a > tag p`); count != 2 {
		t.Fatalf("expected 2 paragraphs under class a, got %d", count)
	}

	// the narrowed selection must not leak into the next query
	if count := selectCount(t, it, `tag p`); count != 3 {
		t.Errorf("expected 3 paragraphs document-wide, got %d", count)
	}
}

func TestSelectFrom(t *testing.T) {
	it := interp(t, pageHTML)

	context, err := it.Select(`class a`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.PrettyString())
	}

	result, err := it.SelectFrom(context, `tag p > text`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.PrettyString())
	}
	texts, terr := result.Texts()
	if terr != nil {
		t.Fatalf("expected texts, got %s", result.Kind())
	}
	if !sameTexts(texts, []string{"text 1", "text 2"}) {
		t.Errorf("expected paragraphs under class a only, got %q", texts)
	}

	// the branch evaluation must not disturb the interpreter's own state
	if count := selectCount(t, it, `tag p`); count != 3 {
		t.Errorf("expected 3 paragraphs document-wide, got %d", count)
	}
}

func TestResultLimit(t *testing.T) {
	it := interp(t, pageHTML)
	it.SetResultLimit(2)

	err := selectErr(t, it, `tag p`)
	if err.Code != "EXEC-0011" {
		t.Errorf("expected EXEC-0011, got %s", err.Code)
	}

	if count := selectCount(t, it, `class a > tag p`); count != 2 {
		t.Errorf("expected 2 nodes within the limit, got %d", count)
	}

	it.SetResultLimit(0)
	if count := selectCount(t, it, `tag p`); count != 3 {
		t.Errorf("expected the limit to be lifted, got %d nodes", count)
	}
}
