// Package repl provides an interactive selector shell over one HTML
// document, with line editing, history, and tab completion.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/sambeau/sprig/pkg/sprig/sprig"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

const SPRIG_LOGO = `
█▀ █▀█ █▀█ █ █▀▀
▄█ █▀▀ █▀▄ █ █▄█ `

// Selector keywords and functions for tab completion
var completionWords = []string{
	// Selectors
	"class", "id", "tag", "attr", "text", "href", "src",
	// Literals
	"true", "false",
	// Functions
	"@trim", "@lowercase", "@uppercase", "@replace", "@join", "@format",
	"@contains", "@starts_with", "@ends_with", "@in", "@slice",
}

// Start runs the REPL against an already loaded document. The source string
// names the document for display only.
func Start(out io.Writer, query *sprig.Query, source, version string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	line.SetCompleter(func(line string) []string {
		return filterCompletions(line)
	})

	// Load command history from file
	historyFile := filepath.Join(os.TempDir(), ".sprig_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	// Save history on exit
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(out, "%s", SPRIG_LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Document:", source)
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	var inputBuffer strings.Builder

	for {
		currentPrompt := PROMPT
		if inputBuffer.Len() > 0 {
			currentPrompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(currentPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if inputBuffer.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Fprintln(out, "Goodbye!")
			return
		}

		// Handle REPL commands (start with :)
		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			handleReplCommand(trimmed, query, out)
			continue
		}

		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		fullInput := inputBuffer.String()
		if needsMoreInput(fullInput) {
			continue
		}

		if trimmed != "" {
			line.AppendHistory(fullInput)
		}

		runSelector(out, query, fullInput)

		inputBuffer.Reset()
	}
}

// runSelector executes one selector and prints its result or error.
func runSelector(out io.Writer, query *sprig.Query, selector string) {
	result, err := query.Select(selector).Result()
	if err != nil {
		fmt.Fprintln(out, err.PrettyString())
		return
	}

	if result.IsEmpty() {
		fmt.Fprintln(out, "(empty result)")
		return
	}

	if texts, terr := result.Texts(); terr == nil {
		for _, t := range texts {
			fmt.Fprintln(out, strconv.Quote(t))
		}
		return
	}

	fmt.Fprintln(out, result.String())
}

// handleReplCommand handles REPL meta-commands that start with ':'
func handleReplCommand(cmd string, query *sprig.Query, out io.Writer) {
	fields := strings.Fields(cmd)

	switch fields[0] {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(out, "  :count          Show the size of the last result")
		fmt.Fprintln(out, "  :limit <n>      Cap result sizes (0 = unlimited)")
		fmt.Fprintln(out, "  :clear          Drop all cached query results")
		fmt.Fprintln(out, "  exit, quit      Exit the REPL")
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Selectors:")
		fmt.Fprintln(out, "  class a | id b  Element selectors with set operators | & ^")
		fmt.Fprintln(out, "  tag p > text    Pipelines re-scope the right side's search")
		fmt.Fprintln(out, "  text:0 @trim    Index suffixes and @function chains")

	case ":count":
		fmt.Fprintln(out, query.Count())

	case ":limit":
		if len(fields) != 2 {
			fmt.Fprintln(out, "Usage: :limit <n>")
			return
		}
		limit, err := strconv.Atoi(fields[1])
		if err != nil || limit < 0 {
			fmt.Fprintln(out, "Usage: :limit <n>")
			return
		}
		query.SetResultLimit(limit)
		if limit == 0 {
			fmt.Fprintln(out, "Result limit removed")
		} else {
			fmt.Fprintln(out, "Result limit set to", limit)
		}

	case ":clear":
		query.ClearCache()
		fmt.Fprintln(out, "Query cache cleared")

	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

// filterCompletions returns completion suggestions based on current input
func filterCompletions(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	// Don't complete if line ends with whitespace
	if line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		return nil
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		return nil
	}

	lastWord := words[len(words)-1]
	prefix := line[:len(line)-len(lastWord)]

	var matches []string
	for _, word := range completionWords {
		if strings.HasPrefix(word, lastWord) {
			matches = append(matches, prefix+word)
		}
	}
	return matches
}

// needsMoreInput checks if the input has unclosed parens, brackets or quotes
func needsMoreInput(input string) bool {
	depth := 0
	inString := false
	escaped := false

	for _, ch := range input {
		if inString {
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
	}

	return depth > 0 || inString
}
