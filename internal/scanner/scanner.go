// Package scanner rewrites indentation-structured strand source into an
// equivalent source with explicit block delimiters, keeping a line map so
// downstream diagnostics refer to original lines.
package scanner

import (
	"fmt"
	"strings"
)

// IndentError is a fatal indentation violation. Line is 1-indexed and refers
// to the original source.
type IndentError struct {
	Line int
	Msg  string
}

func (e *IndentError) Error() string {
	return fmt.Sprintf("indentation error at line %d: %s", e.Line, e.Msg)
}

// Result is the rewritten source plus the provenance correction map.
type Result struct {
	Rewritten string
	// LineMap maps 1-indexed rewritten line numbers to the original line
	// that produced them. Inserted delimiter lines map to the line that
	// triggered the scope change.
	LineMap map[int]int
}

// Process converts leading-space indentation into explicit `{`/`}` lines.
// Blank lines pass through and do not close scopes. Lines containing
// explicit braces pass through with brace-depth bookkeeping; while that
// depth is above zero indentation tracking is suspended, and when it
// returns to zero the indentation stack resets. Tabs in leading whitespace,
// an indented first line, and a dedent to a width never pushed are all
// fatal.
func Process(source string) (*Result, error) {
	lines := strings.Split(source, "\n")

	stack := []int{0}
	braceDepth := 0
	seenContent := false

	var out []string
	lineMap := make(map[int]int)
	emit := func(s string, orig int) {
		out = append(out, s)
		lineMap[len(out)] = orig
	}

	lastOrig := 1
	for i, line := range lines {
		orig := i + 1
		lastOrig = orig

		if strings.TrimSpace(line) == "" {
			emit(line, orig)
			continue
		}

		// The first-line rule applies before brace passthrough, so an
		// indented opening brace cannot sneak past it.
		if !seenContent {
			width, err := leadingWidth(line, orig)
			if err != nil {
				return nil, err
			}
			if width != 0 {
				return nil, &IndentError{Line: orig, Msg: "first line must not be indented"}
			}
		}

		if braceDepth > 0 || strings.ContainsAny(line, "{}") {
			wasOpen := braceDepth > 0
			braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
			if braceDepth < 0 {
				return nil, &IndentError{Line: orig, Msg: "unmatched closing brace"}
			}
			if wasOpen && braceDepth == 0 {
				// Indentation tracking restarts cleanly below an
				// explicit block.
				stack = []int{0}
			}
			seenContent = true
			emit(line, orig)
			continue
		}

		width, err := leadingWidth(line, orig)
		if err != nil {
			return nil, err
		}

		seenContent = true

		top := stack[len(stack)-1]
		switch {
		case width > top:
			stack = append(stack, width)
			emit("{", orig)
		case width < top:
			for len(stack) > 1 && stack[len(stack)-1] > width {
				stack = stack[:len(stack)-1]
				emit("}", orig)
			}
			if stack[len(stack)-1] != width {
				return nil, &IndentError{
					Line: orig,
					Msg:  fmt.Sprintf("dedent to width %d does not match any open indentation level", width),
				}
			}
		}
		emit(line, orig)
	}

	if braceDepth > 0 {
		return nil, &IndentError{Line: lastOrig, Msg: "unclosed explicit block at end of input"}
	}
	for len(stack) > 1 {
		stack = stack[:len(stack)-1]
		emit("}", lastOrig)
	}

	return &Result{
		Rewritten: strings.Join(out, "\n"),
		LineMap:   lineMap,
	}, nil
}

// leadingWidth counts leading spaces, rejecting tabs in the indent run.
func leadingWidth(line string, orig int) (int, error) {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			// keep counting
		case '\t':
			return 0, &IndentError{Line: orig, Msg: "tab in indentation (use spaces)"}
		default:
			return i, nil
		}
	}
	return len(line), nil
}
