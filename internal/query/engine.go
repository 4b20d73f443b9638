// Package query serves read-only structural queries over a compiled IR
// document. An Engine is loaded once per document and is immutable
// afterwards; all traversal state is local to each call, so concurrent
// queries against one engine are safe.
package query

import (
	"fmt"
	"strings"
	"time"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"strand/loom/internal/ir"
)

// NotFoundError reports a node id the engine does not know.
type NotFoundError struct{ ID string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("node not found: %s", e.ID) }

// WrongTypeError reports an operation applied to the wrong node type.
type WrongTypeError struct {
	ID   string
	Want ir.NodeType
	Got  ir.NodeType
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("node %s is a %s, operation requires a %s", e.ID, e.Got, e.Want)
}

// riskKeywords feed the whatIf summary heuristic: descendant content
// matching any of these buckets as a risk, everything else as a benefit.
// Keyword matching, not semantic classification.
var riskKeywords = []string{"risk", "problem", "issue", "error", "fail"}

// Engine holds the per-document indexes. Immutable once Load returns.
type Engine struct {
	doc         *ir.Document
	nodes       map[string]*ir.Node
	bySource    map[string][]*ir.Relationship
	byTarget    map[string][]*ir.Relationship
	stateByNode map[string][]*ir.State
	now         time.Time
	risk        ahocorasick.AhoCorasick
}

// Load builds the four indexes in O(n+r+s).
func Load(doc *ir.Document) *Engine {
	return LoadAt(doc, time.Now().UTC())
}

// LoadAt is Load with an injected clock for date arithmetic.
func LoadAt(doc *ir.Document, now time.Time) *Engine {
	e := &Engine{
		doc:         doc,
		nodes:       make(map[string]*ir.Node, len(doc.Nodes)),
		bySource:    make(map[string][]*ir.Relationship),
		byTarget:    make(map[string][]*ir.Relationship),
		stateByNode: make(map[string][]*ir.State),
		now:         now,
	}
	for _, n := range doc.Nodes {
		e.nodes[n.ID] = n
	}
	for _, r := range doc.Relationships {
		e.bySource[r.Source] = append(e.bySource[r.Source], r)
		e.byTarget[r.Target] = append(e.byTarget[r.Target], r)
	}
	for _, st := range doc.States {
		if st.NodeID == "" {
			continue // unattached states are invisible to queries
		}
		e.stateByNode[st.NodeID] = append(e.stateByNode[st.NodeID], st)
	}
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	e.risk = builder.Build(riskKeywords)
	return e
}

// Node returns the node for id or a NotFoundError.
func (e *Engine) Node(id string) (*ir.Node, error) {
	n, ok := e.nodes[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return n, nil
}

func (e *Engine) content(id string) string {
	if n, ok := e.nodes[id]; ok {
		return n.Content
	}
	return ""
}

func (e *Engine) isRisky(content string) bool {
	return len(e.risk.FindAll(strings.ToLower(content))) > 0
}

// depthGuard returns the recursion bound: maxDepth when set, otherwise the
// node count, so pathological cyclic input cannot grow the stack unbounded.
func (e *Engine) depthGuard(maxDepth int) int {
	if maxDepth > 0 {
		return maxDepth
	}
	return len(e.doc.Nodes)
}

// ancestorsOf yields the immediate causal ancestors of id: sources of
// incoming causes edges and targets of outgoing derives_from edges.
// Equivalence edges count both ways when correlations are included.
func (e *Engine) ancestorsOf(id string, includeCorrelations bool) []edgeStep {
	var out []edgeStep
	for _, r := range e.byTarget[id] {
		if r.Type == ir.RelCauses || (includeCorrelations && r.Type == ir.RelEquivalent) {
			out = append(out, edgeStep{rel: r, node: r.Source})
		}
	}
	for _, r := range e.bySource[id] {
		if r.Type == ir.RelDerivesFrom || (includeCorrelations && r.Type == ir.RelEquivalent) {
			out = append(out, edgeStep{rel: r, node: r.Target})
		}
	}
	return out
}

// descendantsOf yields the immediate forward-impact neighbors of id.
func (e *Engine) descendantsOf(id string, includeTemporal, includeCorrelations bool) []edgeStep {
	var out []edgeStep
	for _, r := range e.bySource[id] {
		switch r.Type {
		case ir.RelCauses:
			out = append(out, edgeStep{rel: r, node: r.Target})
		case ir.RelTemporal:
			if includeTemporal {
				out = append(out, edgeStep{rel: r, node: r.Target})
			}
		case ir.RelEquivalent:
			if includeCorrelations {
				out = append(out, edgeStep{rel: r, node: r.Target})
			}
		}
	}
	if includeCorrelations {
		for _, r := range e.byTarget[id] {
			if r.Type == ir.RelEquivalent {
				out = append(out, edgeStep{rel: r, node: r.Source})
			}
		}
	}
	return out
}

// edgeStep pairs a traversed relationship with the node it leads to.
type edgeStep struct {
	rel  *ir.Relationship
	node string
}

// copyVisited snapshots a visited set for one recursive branch, keeping
// cycle protection per path so diamond ancestries are fully explored.
func copyVisited(visited map[string]bool) map[string]bool {
	out := make(map[string]bool, len(visited)+1)
	for k := range visited {
		out[k] = true
	}
	return out
}
