package evaluator

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sambeau/sprig/pkg/sprig/ast"
	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
)

// evalFunction applies a named text transformation to the current text
// selection. Most functions map per element; join reduces the whole array;
// contains, starts_with, ends_with and in filter it.
func (it *Interpreter) evalFunction(fc *ast.FunctionCall) *serrors.Error {
	texts, err := it.result.Texts()
	if err != nil {
		return serrors.NewWithPosition("EXEC-0001", fc.Token.Line, fc.Token.Column, map[string]any{
			"Operation": "@" + fc.Name,
			"Expected":  TextsResult.String(),
			"Found":     it.result.Kind().String(),
		})
	}

	out := append([]string(nil), texts...)

	switch fc.Name {
	case "trim":
		for i, t := range out {
			out[i] = strings.TrimSpace(t)
		}

	case "lowercase":
		caser := cases.Lower(language.Und)
		for i, t := range out {
			out[i] = caser.String(t)
		}

	case "uppercase":
		caser := cases.Upper(language.Und)
		for i, t := range out {
			out[i] = caser.String(t)
		}

	case "replace":
		search, aerr := it.stringArg(fc, 0, "search pattern")
		if aerr != nil {
			return aerr
		}
		replacement, aerr := it.stringArg(fc, 1, "replacement text")
		if aerr != nil {
			return aerr
		}
		for i, t := range out {
			out[i] = strings.ReplaceAll(t, search, replacement)
		}

	case "join":
		separator := ""
		if len(fc.Args) > 0 {
			sep, aerr := it.stringArg(fc, 0, "separator")
			if aerr != nil {
				return aerr
			}
			separator = sep
		}
		out = []string{strings.Join(out, separator)}

	case "format":
		if aerr := it.exactArgs(fc, 1, "one format string"); aerr != nil {
			return aerr
		}
		layout, aerr := it.stringArg(fc, 0, "format string")
		if aerr != nil {
			return aerr
		}
		for i, t := range out {
			out[i] = formatText(layout, t)
		}

	case "contains":
		if aerr := it.exactArgs(fc, 1, "one substring"); aerr != nil {
			return aerr
		}
		needle, aerr := it.stringArg(fc, 0, "substring")
		if aerr != nil {
			return aerr
		}
		out = filterTexts(out, func(t string) bool { return strings.Contains(t, needle) })

	case "starts_with":
		if aerr := it.exactArgs(fc, 1, "one prefix"); aerr != nil {
			return aerr
		}
		prefix, aerr := it.stringArg(fc, 0, "prefix")
		if aerr != nil {
			return aerr
		}
		out = filterTexts(out, func(t string) bool { return strings.HasPrefix(t, prefix) })

	case "ends_with":
		if aerr := it.exactArgs(fc, 1, "one suffix"); aerr != nil {
			return aerr
		}
		suffix, aerr := it.stringArg(fc, 0, "suffix")
		if aerr != nil {
			return aerr
		}
		out = filterTexts(out, func(t string) bool { return strings.HasSuffix(t, suffix) })

	case "in":
		if aerr := it.exactArgs(fc, 1, "one list of strings"); aerr != nil {
			return aerr
		}
		wanted, aerr := it.stringListArg(fc, 0)
		if aerr != nil {
			return aerr
		}
		set := make(map[string]struct{}, len(wanted))
		for _, w := range wanted {
			set[w] = struct{}{}
		}
		out = filterTexts(out, func(t string) bool {
			_, ok := set[t]
			return ok
		})

	case "slice":
		if aerr := it.exactArgs(fc, 2, "two arguments: start and end byte offsets"); aerr != nil {
			return aerr
		}
		start, hasStart, aerr := it.optionalIntArg(fc, 0, "start offset")
		if aerr != nil {
			return aerr
		}
		end, hasEnd, aerr := it.optionalIntArg(fc, 1, "end offset")
		if aerr != nil {
			return aerr
		}
		for i, t := range out {
			out[i] = sliceText(t, start, hasStart, end, hasEnd)
		}

	default:
		return serrors.NewWithPosition("EXEC-0006", fc.Token.Line, fc.Token.Column, map[string]any{
			"Name": fc.Name,
		})
	}

	return it.setResult(NewTexts(out))
}

func filterTexts(texts []string, keep func(string) bool) []string {
	result := make([]string, 0, len(texts))
	for _, t := range texts {
		if keep(t) {
			result = append(result, t)
		}
	}
	return result
}

// formatText renders one text through a format string. "{}" substitutes the
// text at its first occurrence. A bare printf-style specifier converts the
// trimmed text through the named type, leaving it unchanged when it does not
// parse. Any other format string is prepended.
func formatText(layout, text string) string {
	if strings.Contains(layout, "{}") {
		return strings.Replace(layout, "{}", text, 1)
	}

	if strings.HasPrefix(layout, "%") {
		switch layout {
		case "%s":
			return text
		case "%d", "%i":
			if num, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
				return strconv.FormatInt(num, 10)
			}
			return text
		case "%f":
			if num, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
				return strconv.FormatFloat(num, 'g', -1, 64)
			}
			return text
		case "%x":
			if num, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
				return strconv.FormatInt(num, 16)
			}
			return text
		case "%X":
			if num, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
				return strings.ToUpper(strconv.FormatInt(num, 16))
			}
			return text
		}
	}

	return layout + text
}

// sliceText takes a byte-offset substring. Offsets clamp to the text's
// length, and a start beyond the end swaps with it rather than erroring.
func sliceText(text string, start int, hasStart bool, end int, hasEnd bool) string {
	if !hasStart {
		start = 0
	}
	if !hasEnd {
		end = len(text)
	}
	if start > len(text) {
		start = len(text)
	}
	if end > len(text) {
		end = len(text)
	}
	if start > end {
		start, end = end, start
	}
	return text[start:end]
}

// exactArgs enforces a fixed argument count. join and replace stay lax about
// extras; every other function with arguments takes an exact number.
func (it *Interpreter) exactArgs(fc *ast.FunctionCall, n int, what string) *serrors.Error {
	if len(fc.Args) != n {
		return it.argError(fc, "requires exactly "+what)
	}
	return nil
}

func (it *Interpreter) argError(fc *ast.FunctionCall, detail string) *serrors.Error {
	return serrors.NewWithPosition("EXEC-0007", fc.Token.Line, fc.Token.Column, map[string]any{
		"Name":   fc.Name,
		"Detail": detail,
	})
}

// stringArg returns the i-th argument as a string.
func (it *Interpreter) stringArg(fc *ast.FunctionCall, i int, what string) (string, *serrors.Error) {
	if i >= len(fc.Args) {
		return "", it.argError(fc, "missing "+what)
	}
	if s, ok := fc.Args[i].(*ast.StrLit); ok {
		return s.Value, nil
	}
	return "", it.argError(fc, what+" must be a string, got "+fc.Args[i].String())
}

// stringListArg returns the i-th argument as a list of strings.
func (it *Interpreter) stringListArg(fc *ast.FunctionCall, i int) ([]string, *serrors.Error) {
	if i >= len(fc.Args) {
		return nil, it.argError(fc, "missing list argument")
	}
	list, ok := fc.Args[i].(*ast.ListLit)
	if !ok {
		return nil, it.argError(fc, "argument must be a list of strings, got "+fc.Args[i].String())
	}
	values := make([]string, 0, len(list.Elements))
	for _, el := range list.Elements {
		s, ok := el.(*ast.StrLit)
		if !ok {
			return nil, it.argError(fc, "list elements must be strings, got "+el.String())
		}
		values = append(values, s.Value)
	}
	return values, nil
}

// optionalIntArg returns the i-th argument as a non-negative int, reporting
// whether it was given at all.
func (it *Interpreter) optionalIntArg(fc *ast.FunctionCall, i int, what string) (int, bool, *serrors.Error) {
	if i >= len(fc.Args) {
		return 0, false, nil
	}
	switch arg := fc.Args[i].(type) {
	case *ast.NilLit:
		return 0, false, nil
	case *ast.IntLit:
		if arg.Value < 0 {
			return 0, false, it.argError(fc, what+" must not be negative")
		}
		return int(arg.Value), true, nil
	default:
		return 0, false, it.argError(fc, what+" must be an integer, got "+fc.Args[i].String())
	}
}
