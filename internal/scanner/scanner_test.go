package scanner

import (
	"strings"
	"testing"
)

func countLines(s, want string) int {
	n := 0
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) == want {
			n++
		}
	}
	return n
}

func TestProcess_FlatInputUnchanged(t *testing.T) {
	src := "a\nb\nc"
	r, err := Process(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Rewritten != src {
		t.Errorf("flat input should pass through unchanged, got %q", r.Rewritten)
	}
}

func TestProcess_BalancedDelimiters(t *testing.T) {
	src := "a\n  b\n    c\n  d\ne\n  f"
	r, err := Process(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opens := countLines(r.Rewritten, "{")
	closes := countLines(r.Rewritten, "}")
	if opens != closes {
		t.Errorf("delimiters unbalanced: %d open, %d close", opens, closes)
	}
	if opens != 3 {
		t.Errorf("expected 3 scopes, got %d", opens)
	}
}

func TestProcess_EOFClosesAllLevels(t *testing.T) {
	src := "a\n  b\n    c"
	r, err := Process(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := countLines(r.Rewritten, "}"); got != 2 {
		t.Errorf("expected 2 closes at EOF, got %d", got)
	}
	if !strings.HasSuffix(r.Rewritten, "}\n}") {
		t.Errorf("closes should come last, got %q", r.Rewritten)
	}
}

func TestProcess_TabIsFatal(t *testing.T) {
	_, err := Process("a\n\tb")
	ie, ok := err.(*IndentError)
	if !ok {
		t.Fatalf("expected *IndentError, got %v", err)
	}
	if ie.Line != 2 {
		t.Errorf("expected line 2, got %d", ie.Line)
	}
}

func TestProcess_IndentedFirstLineIsFatal(t *testing.T) {
	_, err := Process("  a\nb")
	ie, ok := err.(*IndentError)
	if !ok {
		t.Fatalf("expected *IndentError, got %v", err)
	}
	if ie.Line != 1 {
		t.Errorf("expected line 1, got %d", ie.Line)
	}
}

func TestProcess_IndentedFirstBraceLineIsFatal(t *testing.T) {
	_, err := Process("  {\na\n}")
	ie, ok := err.(*IndentError)
	if !ok {
		t.Fatalf("expected *IndentError, got %v", err)
	}
	if ie.Line != 1 {
		t.Errorf("expected line 1, got %d", ie.Line)
	}
}

func TestProcess_BlankFirstLinesSkipped(t *testing.T) {
	if _, err := Process("\n\na\n  b"); err != nil {
		t.Errorf("blank leading lines should not count as first content: %v", err)
	}
}

func TestProcess_BadDedentIsFatal(t *testing.T) {
	// Dedent to width 2, but only 0 and 4 were pushed.
	_, err := Process("a\n    b\n  c")
	ie, ok := err.(*IndentError)
	if !ok {
		t.Fatalf("expected *IndentError, got %v", err)
	}
	if ie.Line != 3 {
		t.Errorf("expected line 3, got %d", ie.Line)
	}
}

func TestProcess_BlankLinesDoNotCloseScopes(t *testing.T) {
	src := "a\n  b\n\n  c"
	r, err := Process(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countLines(r.Rewritten, "}") != 1 {
		t.Errorf("blank line must not close the scope:\n%s", r.Rewritten)
	}
}

func TestProcess_ExplicitBracesPassThrough(t *testing.T) {
	src := "a\n{\n    weird indent ok\n}\nb\n  c"
	r, err := Process(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One synthetic scope for "  c"; the explicit braces are untouched.
	if countLines(r.Rewritten, "{") != 2 {
		t.Errorf("expected explicit brace plus one synthetic open:\n%s", r.Rewritten)
	}
	if !strings.Contains(r.Rewritten, "    weird indent ok") {
		t.Error("lines inside explicit braces must pass through verbatim")
	}
}

func TestProcess_UnmatchedCloseBraceIsFatal(t *testing.T) {
	if _, err := Process("a\n}"); err == nil {
		t.Error("expected error for unmatched closing brace")
	}
}

func TestProcess_LineMapTracksOriginals(t *testing.T) {
	src := "a\n  b"
	r, err := Process(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(r.Rewritten, "\n")
	if len(lines) != 4 { // a { b }
		t.Fatalf("expected 4 rewritten lines, got %d: %q", len(lines), lines)
	}
	want := map[int]int{1: 1, 2: 2, 3: 2, 4: 2}
	for rw, orig := range want {
		if r.LineMap[rw] != orig {
			t.Errorf("lineMap[%d] = %d, want %d", rw, r.LineMap[rw], orig)
		}
	}
}
