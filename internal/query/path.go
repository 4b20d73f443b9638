package query

import (
	"container/heap"

	"strand/loom/internal/ir"
)

// PathOptions tunes the shortest-path query.
type PathOptions struct {
	// RelTypes restricts traversal to these relationship types; nil
	// means all.
	RelTypes []ir.RelType
}

// PathHop is one hop of a reconstructed path.
type PathHop struct {
	RelID   string     `json:"rel_id"`
	RelType ir.RelType `json:"rel_type"`
	NodeID  string     `json:"node_id"`
	Content string     `json:"content"`
}

// PathResult is the shortest relationship path between two nodes over the
// undirected relationship graph, or Found=false when none exists.
type PathResult struct {
	FromID string    `json:"from_id"`
	ToID   string    `json:"to_id"`
	Found  bool      `json:"found"`
	Hops   []PathHop `json:"hops,omitempty"`
}

// prevEntry tracks how a node was reached, for path reconstruction.
type prevEntry struct {
	prevNodeID string
	relID      string
	relType    ir.RelType
}

// pathEntry is a min-heap entry. Uniform edge cost; ties broken by node id
// for deterministic output.
type pathEntry struct {
	distance int
	nodeID   string
}

type pathHeap []pathEntry

func (h pathHeap) Len() int { return len(h) }
func (h pathHeap) Less(i, j int) bool {
	if h[i].distance != h[j].distance {
		return h[i].distance < h[j].distance
	}
	return h[i].nodeID < h[j].nodeID
}
func (h pathHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *pathHeap) Push(x interface{}) { *h = append(*h, x.(pathEntry)) }
func (h *pathHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Path finds the shortest hop sequence from one node to another, treating
// every relationship as undirected with uniform cost.
func (e *Engine) Path(fromID, toID string, opts PathOptions) (*PathResult, error) {
	if _, err := e.Node(fromID); err != nil {
		return nil, err
	}
	if _, err := e.Node(toID); err != nil {
		return nil, err
	}

	var allow map[ir.RelType]bool
	if opts.RelTypes != nil {
		allow = make(map[ir.RelType]bool, len(opts.RelTypes))
		for _, t := range opts.RelTypes {
			allow[t] = true
		}
	}

	dist := map[string]int{fromID: 0}
	prev := map[string]prevEntry{}
	visited := map[string]bool{}

	h := &pathHeap{{distance: 0, nodeID: fromID}}
	heap.Init(h)

	for h.Len() > 0 {
		entry := heap.Pop(h).(pathEntry)
		current := entry.nodeID
		if visited[current] {
			continue
		}
		visited[current] = true
		if current == toID {
			break
		}

		relax := func(r *ir.Relationship, next string) {
			if allow != nil && !allow[r.Type] {
				return
			}
			nd := entry.distance + 1
			if d, ok := dist[next]; ok && d <= nd {
				return
			}
			dist[next] = nd
			prev[next] = prevEntry{prevNodeID: current, relID: r.ID, relType: r.Type}
			heap.Push(h, pathEntry{distance: nd, nodeID: next})
		}
		for _, r := range e.bySource[current] {
			relax(r, r.Target)
		}
		for _, r := range e.byTarget[current] {
			relax(r, r.Source)
		}
	}

	res := &PathResult{FromID: fromID, ToID: toID}
	if !visited[toID] {
		return res, nil
	}
	res.Found = true

	// Walk prev entries back from the destination.
	var hops []PathHop
	for cur := toID; cur != fromID; {
		p := prev[cur]
		hops = append(hops, PathHop{
			RelID:   p.relID,
			RelType: p.relType,
			NodeID:  cur,
			Content: e.content(cur),
		})
		cur = p.prevNodeID
	}
	for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
		hops[i], hops[j] = hops[j], hops[i]
	}
	res.Hops = hops
	return res, nil
}
