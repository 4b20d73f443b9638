package query

import (
	"fmt"
	"sort"
	"strings"

	"strand/loom/internal/ir"
)

// AmbiguousError lists the nodes a reference could mean.
type AmbiguousError struct {
	Ref     string
	Matches []*ir.Node
}

func (e *AmbiguousError) Error() string {
	lines := make([]string, 0, len(e.Matches))
	for _, n := range e.Matches {
		id := n.ID
		if len(id) > 8 {
			id = id[:8]
		}
		lines = append(lines, fmt.Sprintf("  %s %s", id, n.Content))
	}
	return fmt.Sprintf("ambiguous reference %q, %d matches:\n%s\nUse a full node id instead.",
		e.Ref, len(e.Matches), strings.Join(lines, "\n"))
}

// Resolve finds a node by full id, id prefix (6+ hex chars), or content
// substring, in that order. Multiple matches at any tier are an error.
func (e *Engine) Resolve(ref string) (*ir.Node, error) {
	if n, ok := e.nodes[ref]; ok {
		return n, nil
	}

	if len(ref) >= 6 && isHex(ref) {
		matches := e.matchNodes(func(n *ir.Node) bool {
			return strings.HasPrefix(n.ID, ref)
		})
		switch len(matches) {
		case 1:
			return matches[0], nil
		case 0:
		default:
			return nil, &AmbiguousError{Ref: ref, Matches: matches}
		}
	}

	lowered := strings.ToLower(ref)
	matches := e.matchNodes(func(n *ir.Node) bool {
		return strings.Contains(strings.ToLower(n.Content), lowered)
	})
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, &NotFoundError{ID: ref}
	default:
		if len(matches) > 10 {
			matches = matches[:10]
		}
		return nil, &AmbiguousError{Ref: ref, Matches: matches}
	}
}

// matchNodes collects matching nodes in provenance order, id as tie-break.
func (e *Engine) matchNodes(pred func(*ir.Node) bool) []*ir.Node {
	var out []*ir.Node
	for _, n := range e.doc.Nodes {
		if pred(n) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Provenance.Line != out[j].Provenance.Line {
			return out[i].Provenance.Line < out[j].Provenance.Line
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
