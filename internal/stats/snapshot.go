// Package stats computes structural statistics over a compiled document:
// components, degree distribution, hubs, cut vertices, bridge edges, and
// near-duplicate content pairs.
package stats

import (
	"sort"

	"strand/loom/internal/ir"
)

// snapshot is an adjacency view of a document, built once per Compute call.
type snapshot struct {
	doc   *ir.Document
	nodes map[string]*ir.Node
	order []string            // node ids, sorted for deterministic output
	adj   map[string][]string // undirected
	out   map[string][]string
	in    map[string][]string
}

func newSnapshot(doc *ir.Document) *snapshot {
	s := &snapshot{
		doc:   doc,
		nodes: make(map[string]*ir.Node, len(doc.Nodes)),
		adj:   make(map[string][]string),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
	}
	for _, n := range doc.Nodes {
		s.nodes[n.ID] = n
		s.order = append(s.order, n.ID)
	}
	sort.Strings(s.order)

	for _, r := range doc.Relationships {
		if _, ok := s.nodes[r.Source]; !ok {
			continue
		}
		if _, ok := s.nodes[r.Target]; !ok {
			continue
		}
		s.adj[r.Source] = append(s.adj[r.Source], r.Target)
		s.adj[r.Target] = append(s.adj[r.Target], r.Source)
		s.out[r.Source] = append(s.out[r.Source], r.Target)
		s.in[r.Target] = append(s.in[r.Target], r.Source)
	}
	return s
}

func (s *snapshot) degree(id string) int { return len(s.adj[id]) }
