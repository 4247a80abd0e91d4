// Package dom wraps an HTML document tree behind stable node handles.
//
// Parsing builds an arena over the tree: every node gets an integer ID in
// pre-order document position. Handles compare and hash by ID, so results
// can be de-duplicated and intersected without relying on pointer identity.
package dom

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
)

// NodeID is a stable identifier for a node within its document. IDs follow
// pre-order document position: a node's ID is smaller than its descendants'.
type NodeID int

// Attribute is one name/value pair in a node's ordered attribute list.
// Duplicate names are possible and preserved.
type Attribute struct {
	Name  string
	Value string
}

// Document is a parsed HTML tree plus its node arena.
type Document struct {
	root  *html.Node
	nodes []*html.Node
	ids   map[*html.Node]NodeID
}

// ParseString parses an HTML document from a string.
func ParseString(src string) (*Document, *serrors.Error) {
	return Parse(strings.NewReader(src))
}

// Parse parses an HTML document from a reader.
func Parse(r io.Reader) (*Document, *serrors.Error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, serrors.New("HTML-0001", map[string]any{
			"Detail": err.Error(),
		})
	}

	doc := &Document{
		root: root,
		ids:  make(map[*html.Node]NodeID),
	}
	doc.index(root)

	return doc, nil
}

// index assigns pre-order IDs to the whole tree.
func (d *Document) index(n *html.Node) {
	d.ids[n] = NodeID(len(d.nodes))
	d.nodes = append(d.nodes, n)

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		d.index(child)
	}
}

// Root returns a handle to the document node.
func (d *Document) Root() NodeHandle {
	return NodeHandle{doc: d, node: d.root, id: d.ids[d.root]}
}

// Len returns the number of nodes in the document.
func (d *Document) Len() int { return len(d.nodes) }

// Node returns a handle for a previously issued ID.
func (d *Document) Node(id NodeID) (NodeHandle, bool) {
	if id < 0 || int(id) >= len(d.nodes) {
		return NodeHandle{}, false
	}
	return NodeHandle{doc: d, node: d.nodes[id], id: id}, true
}

// NodeHandle is a cheap, comparable reference to one node in a Document.
// The zero value is invalid.
type NodeHandle struct {
	doc  *Document
	node *html.Node
	id   NodeID
}

// ID returns the node's stable identifier.
func (h NodeHandle) ID() NodeID { return h.id }

// Document returns the owning document.
func (h NodeHandle) Document() *Document { return h.doc }

// IsElement reports whether the node is an element.
func (h NodeHandle) IsElement() bool {
	return h.node != nil && h.node.Type == html.ElementNode
}

// IsText reports whether the node is a text node.
func (h NodeHandle) IsText() bool {
	return h.node != nil && h.node.Type == html.TextNode
}

// Kind returns the node's type name.
func (h NodeHandle) Kind() string {
	if h.node == nil {
		return "none"
	}
	switch h.node.Type {
	case html.DocumentNode:
		return "document"
	case html.ElementNode:
		return "element"
	case html.TextNode:
		return "text"
	case html.CommentNode:
		return "comment"
	case html.DoctypeNode:
		return "doctype"
	default:
		return "raw"
	}
}

// TagName returns the element's local tag name, or "" for non-elements.
func (h NodeHandle) TagName() string {
	if !h.IsElement() {
		return ""
	}
	return h.node.Data
}

// Children returns handles to the node's children in document order.
func (h NodeHandle) Children() []NodeHandle {
	if h.node == nil {
		return nil
	}
	var children []NodeHandle
	for child := h.node.FirstChild; child != nil; child = child.NextSibling {
		children = append(children, NodeHandle{doc: h.doc, node: child, id: h.doc.ids[child]})
	}
	return children
}

// Attributes returns the node's ordered attribute list.
func (h NodeHandle) Attributes() []Attribute {
	if !h.IsElement() {
		return nil
	}
	attrs := make([]Attribute, 0, len(h.node.Attr))
	for _, a := range h.node.Attr {
		attrs = append(attrs, Attribute{Name: a.Key, Value: a.Val})
	}
	return attrs
}

// Attr returns the value of the first attribute with the given name.
func (h NodeHandle) Attr(name string) (string, bool) {
	if !h.IsElement() {
		return "", false
	}
	for _, a := range h.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// TextContent concatenates the node's descendant text in document order,
// with no separators. Comments and other non-text payloads contribute
// nothing.
func (h NodeHandle) TextContent() string {
	var b strings.Builder
	h.appendText(&b)
	return b.String()
}

func (h NodeHandle) appendText(b *strings.Builder) {
	if h.node == nil {
		return
	}
	if h.node.Type == html.TextNode {
		b.WriteString(h.node.Data)
		return
	}
	if h.node.Type != html.ElementNode {
		return
	}
	for child := h.node.FirstChild; child != nil; child = child.NextSibling {
		NodeHandle{doc: h.doc, node: child, id: h.doc.ids[child]}.appendText(b)
	}
}

// String identifies the node for display and debugging.
func (h NodeHandle) String() string {
	if h.node == nil {
		return "node(none)"
	}
	if h.IsElement() {
		return "node(" + h.node.Data + "#" + strconv.Itoa(int(h.id)) + ")"
	}
	return "node(" + h.Kind() + "#" + strconv.Itoa(int(h.id)) + ")"
}
