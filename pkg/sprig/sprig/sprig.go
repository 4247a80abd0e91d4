package sprig

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/sambeau/sprig/pkg/sprig/dom"
	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
	"github.com/sambeau/sprig/pkg/sprig/evaluator"
	"github.com/sambeau/sprig/pkg/sprig/parser"
)

// SelectionResult re-exports the evaluator's result type for callers that
// only import this package.
type SelectionResult = evaluator.SelectionResult

// queryResult is one memoized outcome: a result or the error that produced
// it. Errors memoize too, so repeating a bad selector stays cheap.
type queryResult struct {
	result evaluator.SelectionResult
	err    *serrors.Error
}

// Query sequences selectors against one document with a fluent API. Results
// are memoized by selector text, and context-scoped results by a digest of
// the context plus the selector. Query is not safe for concurrent use.
type Query struct {
	it      *evaluator.Interpreter
	current *queryResult
	cache   map[string]queryResult
	logger  Logger
}

// New parses an HTML document and prepares a query over it.
func New(html string) (*Query, *serrors.Error) {
	it, err := evaluator.NewFromHTML(html)
	if err != nil {
		return nil, err
	}
	return &Query{
		it:     it,
		cache:  make(map[string]queryResult),
		logger: NullLogger(),
	}, nil
}

// NewFromDocument prepares a query over an already parsed document.
func NewFromDocument(doc *dom.Document) *Query {
	return &Query{
		it:     evaluator.New(doc),
		cache:  make(map[string]queryResult),
		logger: NullLogger(),
	}
}

// SetLogger installs a diagnostic logger. Chainable.
func (q *Query) SetLogger(l Logger) *Query {
	q.logger = l
	return q
}

// SetTracer installs a parse tracer on the underlying interpreter.
// Chainable.
func (q *Query) SetTracer(t parser.Tracer) *Query {
	q.it.SetTracer(t)
	return q
}

// SetResultLimit caps the size any single selection step may reach. Zero
// means unlimited. Chainable.
func (q *Query) SetResultLimit(limit int) *Query {
	q.it.SetResultLimit(limit)
	return q
}

// Select runs a selector against the whole document. The outcome is
// memoized by selector text.
func (q *Query) Select(selector string) *Query {
	entry, ok := q.cache[selector]
	if !ok {
		result, err := q.it.Select(selector)
		entry = queryResult{result: result, err: err}
		q.cache[selector] = entry
		if err != nil {
			q.logger.LogLine("select failed:", selector, "-", err.Error())
		}
	}
	q.current = &entry
	return q
}

// From runs a selector with a previous result as the search context. The
// outcome is memoized by a digest of the context plus the selector text.
func (q *Query) From(context SelectionResult, selector string) *Query {
	key := "ctx:" + contextDigest(context) + ":" + selector

	entry, ok := q.cache[key]
	if !ok {
		result, err := q.it.SelectFrom(context, selector)
		entry = queryResult{result: result, err: err}
		q.cache[key] = entry
		if err != nil {
			q.logger.LogLine("select failed:", selector, "-", err.Error())
		}
	}
	q.current = &entry
	return q
}

// Then runs a selector with the current result as the search context.
func (q *Query) Then(selector string) *Query {
	if q.current == nil {
		q.current = &queryResult{err: noQueryError()}
		return q
	}
	if q.current.err != nil {
		return q
	}
	return q.From(q.current.result, selector)
}

// ForEach calls fn once per element of the current result, each wrapped as
// a one-element result. A missing or failed result calls fn zero times.
func (q *Query) ForEach(fn func(*Query, SelectionResult)) *Query {
	if q.current == nil || q.current.err != nil {
		return q
	}
	q.current.result.Each(func(item SelectionResult) {
		fn(q, item)
	})
	return q
}

// Text returns the first string of a text result.
func (q *Query) Text() (string, bool) {
	if q.current == nil || q.current.err != nil || !q.current.result.IsTexts() {
		return "", false
	}
	text, err := q.current.result.FirstText()
	if err != nil {
		return "", false
	}
	return text, true
}

// Texts returns all strings of a text result, or nil.
func (q *Query) Texts() []string {
	if q.current == nil || q.current.err != nil {
		return nil
	}
	texts, err := q.current.result.Texts()
	if err != nil {
		return nil
	}
	return texts
}

// Node returns the first node of a node result.
func (q *Query) Node() (dom.NodeHandle, bool) {
	if q.current == nil || q.current.err != nil || !q.current.result.IsNodes() {
		return dom.NodeHandle{}, false
	}
	node, err := q.current.result.FirstNode()
	if err != nil {
		return dom.NodeHandle{}, false
	}
	return node, true
}

// Nodes returns all nodes of a node result, or nil.
func (q *Query) Nodes() []dom.NodeHandle {
	if q.current == nil || q.current.err != nil {
		return nil
	}
	nodes, err := q.current.result.Nodes()
	if err != nil {
		return nil
	}
	return nodes
}

// Result returns the current result or the error that blocked it.
func (q *Query) Result() (SelectionResult, *serrors.Error) {
	if q.current == nil {
		return SelectionResult{}, noQueryError()
	}
	if q.current.err != nil {
		return SelectionResult{}, q.current.err
	}
	return q.current.result, nil
}

// Err returns the current error, or nil.
func (q *Query) Err() *serrors.Error {
	if q.current == nil {
		return nil
	}
	return q.current.err
}

// Count returns the number of elements in the current result.
func (q *Query) Count() int {
	if q.current == nil || q.current.err != nil {
		return 0
	}
	return q.current.result.Count()
}

// IsEmpty reports whether the current result has no elements. A missing or
// failed result counts as empty.
func (q *Query) IsEmpty() bool {
	if q.current == nil || q.current.err != nil {
		return true
	}
	return q.current.result.IsEmpty()
}

// ClearCache drops all memoized results. Chainable.
func (q *Query) ClearCache() *Query {
	q.cache = make(map[string]queryResult)
	return q
}

func noQueryError() *serrors.Error {
	return serrors.New("EXEC-0010", map[string]any{
		"Detail": "no query has been executed",
	})
}

// contextDigest hashes a result into a short cache-key component. Node
// results hash by ID sequence, text results by length-prefixed content, so
// two contexts collide only when they hold the same elements in the same
// order.
func contextDigest(context SelectionResult) string {
	d := xxhash.New()
	var buf [8]byte

	if nodes, err := context.Nodes(); err == nil {
		d.WriteString("n")
		for _, node := range nodes {
			binary.LittleEndian.PutUint64(buf[:], uint64(node.ID()))
			d.Write(buf[:])
		}
	} else if texts, terr := context.Texts(); terr == nil {
		d.WriteString("t")
		for _, text := range texts {
			binary.LittleEndian.PutUint64(buf[:], uint64(len(text)))
			d.Write(buf[:])
			d.WriteString(text)
		}
	}

	return strconv.FormatUint(d.Sum64(), 16)
}
