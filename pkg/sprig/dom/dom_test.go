package dom

import "testing"

// findTag walks the tree and returns the first element with the given tag.
func findTag(h NodeHandle, tag string) (NodeHandle, bool) {
	if h.IsElement() && h.TagName() == tag {
		return h, true
	}
	for _, child := range h.Children() {
		if found, ok := findTag(child, tag); ok {
			return found, true
		}
	}
	return NodeHandle{}, false
}

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseString(src)
	if err != nil {
		t.Fatalf("parse error: %s", err.PrettyString())
	}
	return doc
}

func TestPreOrderIDs(t *testing.T) {
	doc := mustParse(t, `<div id="a"><p>one</p><p>two</p></div>`)

	root := doc.Root()
	if root.Kind() != "document" {
		t.Fatalf("expected document root, got %s", root.Kind())
	}
	if root.ID() != 0 {
		t.Errorf("expected root ID 0, got %d", root.ID())
	}

	// every parent precedes its children, and siblings are ordered
	var walk func(h NodeHandle)
	walk = func(h NodeHandle) {
		prev := h.ID()
		for _, child := range h.Children() {
			if child.ID() <= prev {
				t.Errorf("expected %s to follow %d in document order, got %d",
					child, prev, child.ID())
			}
			prev = child.ID()
			walk(child)
		}
	}
	walk(root)

	div, ok := findTag(root, "div")
	if !ok {
		t.Fatal("div not found")
	}
	ps := div.Children()
	if len(ps) != 2 {
		t.Fatalf("expected 2 children, got %d", len(ps))
	}
	if ps[0].ID() >= ps[1].ID() {
		t.Errorf("expected sibling order %d < %d", ps[0].ID(), ps[1].ID())
	}
}

func TestNodeLookup(t *testing.T) {
	doc := mustParse(t, `<p>hello</p>`)

	p, ok := findTag(doc.Root(), "p")
	if !ok {
		t.Fatal("p not found")
	}

	again, ok := doc.Node(p.ID())
	if !ok {
		t.Fatalf("expected lookup of ID %d to succeed", p.ID())
	}
	if again != p {
		t.Errorf("expected handles to compare equal, got %s and %s", again, p)
	}

	if _, ok := doc.Node(NodeID(doc.Len())); ok {
		t.Error("expected out-of-range lookup to fail")
	}
	if _, ok := doc.Node(-1); ok {
		t.Error("expected negative lookup to fail")
	}
}

func TestAttributes(t *testing.T) {
	doc := mustParse(t, `<a href="/home" class="nav external" data-id="7">x</a>`)

	a, ok := findTag(doc.Root(), "a")
	if !ok {
		t.Fatal("a not found")
	}

	attrs := a.Attributes()
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(attrs))
	}
	if attrs[0].Name != "href" || attrs[0].Value != "/home" {
		t.Errorf("expected href first, got %s=%s", attrs[0].Name, attrs[0].Value)
	}

	if v, ok := a.Attr("data-id"); !ok || v != "7" {
		t.Errorf("expected data-id=7, got %q (%v)", v, ok)
	}
	if _, ok := a.Attr("missing"); ok {
		t.Error("expected missing attribute lookup to fail")
	}
}

func TestTextContent(t *testing.T) {
	doc := mustParse(t, `<div>one<span>two</span><!-- not text -->three</div>`)

	div, ok := findTag(doc.Root(), "div")
	if !ok {
		t.Fatal("div not found")
	}

	if got := div.TextContent(); got != "onetwothree" {
		t.Errorf("expected %q, got %q", "onetwothree", got)
	}
}

func TestKinds(t *testing.T) {
	doc := mustParse(t, `<p>hi<!-- c --></p>`)

	p, ok := findTag(doc.Root(), "p")
	if !ok {
		t.Fatal("p not found")
	}
	if !p.IsElement() || p.Kind() != "element" || p.TagName() != "p" {
		t.Errorf("expected element p, got %s %s", p.Kind(), p.TagName())
	}

	children := p.Children()
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	if !children[0].IsText() || children[0].Kind() != "text" {
		t.Errorf("expected text child, got %s", children[0].Kind())
	}
	if children[1].Kind() != "comment" {
		t.Errorf("expected comment child, got %s", children[1].Kind())
	}
	if children[0].TagName() != "" {
		t.Errorf("expected empty tag name for text node, got %q", children[0].TagName())
	}
}
