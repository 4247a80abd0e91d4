package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/klauspost/compress/gzip"

	"github.com/sambeau/sprig/config"
	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
	"github.com/sambeau/sprig/pkg/sprig/repl"
	"github.com/sambeau/sprig/pkg/sprig/sprig"
)

// Version is set at compile time via -ldflags
var Version = "0.4.0"

var (
	// Display flags
	helpFlag        = flag.Bool("h", false, "Show help message")
	helpLongFlag    = flag.Bool("help", false, "Show help message")
	versionFlag     = flag.Bool("V", false, "Show version information")
	versionLongFlag = flag.Bool("version", false, "Show version information")

	// Evaluation flags
	evalFlag      = flag.String("e", "", "Run a single selector")
	evalLongFlag  = flag.String("eval", "", "Run a single selector")
	queriesFlag   = flag.String("q", "", "Run a YAML query file")
	queriesLong   = flag.String("queries", "", "Run a YAML query file")
	jsonFlag      = flag.Bool("json", false, "Emit results as JSON")
	limitFlag     = flag.Int("limit", 0, "Cap result sizes (0 = unlimited)")
	watchFlag     = flag.Bool("watch", false, "Re-run when the document changes")
	traceFlag     = flag.Bool("trace", false, "Log parsed selectors to stderr")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag || *helpLongFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag || *versionLongFlag {
		fmt.Printf("sprig version %s\n", Version)
		os.Exit(0)
	}

	selector := *evalFlag
	if selector == "" {
		selector = *evalLongFlag
	}
	queriesPath := *queriesFlag
	if queriesPath == "" {
		queriesPath = *queriesLong
	}

	switch {
	case selector != "":
		docPath := flag.Arg(0)
		if docPath == "" {
			fmt.Fprintln(os.Stderr, "Error: -e requires a document file (or - for stdin)")
			os.Exit(2)
		}
		run := func() int {
			q, err := openQuery(docPath, *limitFlag)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				return 1
			}
			return runSelector(q, "", selector)
		}
		os.Exit(maybeWatch([]string{docPath}, run))

	case queriesPath != "":
		qf, err := config.Load(queriesPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		docPath := flag.Arg(0)
		if docPath == "" {
			docPath = qf.Document
		}
		if docPath == "" {
			fmt.Fprintln(os.Stderr, "Error: no document given on the command line or in the query file")
			os.Exit(2)
		}
		limit := *limitFlag
		if limit == 0 {
			limit = qf.Limit
		}
		run := func() int {
			q, err := openQuery(docPath, limit)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				return 1
			}
			return runQueryFile(q, qf)
		}
		os.Exit(maybeWatch([]string{docPath, queriesPath}, run))

	case flag.Arg(0) != "":
		// REPL mode over a document
		docPath := flag.Arg(0)
		q, err := openQuery(docPath, *limitFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		repl.Start(os.Stdout, q, docPath, Version)

	default:
		printHelp()
		os.Exit(2)
	}
}

// openQuery loads a document and prepares a query over it. "-" reads stdin;
// a .gz suffix decompresses transparently.
func openQuery(path string, limit int) (*sprig.Query, error) {
	html, err := loadDocument(path)
	if err != nil {
		return nil, err
	}

	q, qerr := sprig.New(html)
	if qerr != nil {
		return nil, qerr
	}
	if limit > 0 {
		q.SetResultLimit(limit)
	}
	if *traceFlag {
		logger := sprig.WriterLogger(os.Stderr)
		q.SetLogger(logger).SetTracer(sprig.TracerFromLogger(logger))
	}
	return q, nil
}

func loadDocument(path string) (string, error) {
	var r io.Reader

	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f

		if strings.HasSuffix(path, ".gz") {
			gz, err := gzip.NewReader(f)
			if err != nil {
				return "", fmt.Errorf("decompressing %s: %w", path, err)
			}
			defer gz.Close()
			r = gz
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// queryOutput is one query's JSON rendering.
type queryOutput struct {
	Name     string         `json:"name,omitempty"`
	Selector string         `json:"selector"`
	Count    int            `json:"count"`
	Texts    []string       `json:"texts,omitempty"`
	Nodes    []string       `json:"nodes,omitempty"`
	Error    *serrors.Error `json:"error,omitempty"`
}

func buildOutput(q *sprig.Query, name, selector string) queryOutput {
	out := queryOutput{Name: name, Selector: selector}

	result, err := q.Result()
	if err != nil {
		out.Error = err
		return out
	}

	out.Count = result.Count()
	if texts, terr := result.Texts(); terr == nil {
		out.Texts = texts
	} else if nodes, nerr := result.Nodes(); nerr == nil {
		for _, n := range nodes {
			out.Nodes = append(out.Nodes, n.String())
		}
	}
	return out
}

// runSelector executes one selector and prints the result. Returns an exit
// code.
func runSelector(q *sprig.Query, name, selector string) int {
	q.Select(selector)
	return emit([]queryOutput{buildOutput(q, name, selector)})
}

// runQueryFile executes every query in file order, follow-ups scoped to the
// previous result. Returns an exit code.
func runQueryFile(q *sprig.Query, qf *config.QueryFile) int {
	var outputs []queryOutput

	for _, query := range qf.Queries {
		q.Select(query.Selector)
		outputs = append(outputs, buildOutput(q, query.Name, query.Selector))

		for _, then := range query.Then {
			q.Then(then)
			outputs = append(outputs, buildOutput(q, query.Name, then))
		}
	}

	return emit(outputs)
}

// emit prints collected outputs, as JSON with -json or as plain text
// otherwise. Returns 1 when any query failed.
func emit(outputs []queryOutput) int {
	code := 0
	for _, out := range outputs {
		if out.Error != nil {
			code = 1
		}
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if len(outputs) == 1 {
			enc.Encode(outputs[0])
		} else {
			enc.Encode(outputs)
		}
		return code
	}

	for _, out := range outputs {
		if out.Name != "" {
			fmt.Printf("%s (%s):\n", out.Name, out.Selector)
		}
		if out.Error != nil {
			fmt.Fprintln(os.Stderr, out.Error.PrettyString())
			continue
		}
		if out.Texts != nil {
			for _, t := range out.Texts {
				fmt.Println(t)
			}
			continue
		}
		for _, n := range out.Nodes {
			fmt.Println(n)
		}
	}
	return code
}

// maybeWatch runs once, and with -watch keeps re-running whenever one of the
// given files changes.
func maybeWatch(paths []string, run func() int) int {
	code := run()
	if !*watchFlag {
		return code
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: cannot watch files:", err)
		return 1
	}
	defer watcher.Close()

	for _, path := range paths {
		if path == "-" {
			continue
		}
		// Watch the directory: editors often replace files on save.
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot watch %s: %v\n", path, err)
			return 1
		}
	}

	fmt.Fprintln(os.Stderr, "watching for changes (Ctrl+C to stop)")

	// Debounce rapid changes
	const debounce = 100 * time.Millisecond
	var lastChange time.Time

	watched := make(map[string]bool, len(paths))
	for _, path := range paths {
		watched[filepath.Base(path)] = true
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return code
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !watched[filepath.Base(event.Name)] {
				continue
			}
			if time.Since(lastChange) < debounce {
				continue
			}
			lastChange = time.Now()

			fmt.Fprintln(os.Stderr, "---", event.Name, "changed")
			code = run()

		case err, ok := <-watcher.Errors:
			if !ok {
				return code
			}
			fmt.Fprintln(os.Stderr, "watcher error:", err)
		}
	}
}

func printHelp() {
	fmt.Printf(`sprig - HTML extraction query tool version %s

Usage:
  sprig [options] <document.html>             Interactive REPL
  sprig -e "selector" <document.html>         Run one selector
  sprig -q queries.yaml [document.html]       Run a query file

A document may be a file, a .gz compressed file, or - for stdin.

Display Options:
  -h, --help            Show this help message
  -V, --version         Show version information
  -json                 Emit results as JSON

Evaluation Options:
  -e, --eval <selector> Run a single selector and print the result
  -q, --queries <file>  Run every query in a YAML query file
  -limit <n>            Cap result sizes (0 = unlimited)
  -watch                Re-run when the document or query file changes
  -trace                Log parsed selectors to stderr

Selector Examples:
  sprig -e 'tag p > text @trim' page.html
  sprig -e 'class article | class post' page.html
  sprig -e 'tag a > href:0:5' -json page.html.gz
  cat page.html | sprig -e 'id main > tag h2 > text' -

Query File Example:
  document: page.html
  queries:
    - name: headlines
      selector: tag h2 > text @trim
    - name: links
      selector: class nav
      then: tag a > href
`, Version)
}
