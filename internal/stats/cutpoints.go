package stats

// CutVertex is a node whose removal disconnects part of the graph. These
// are the load-bearing thoughts: everything behind them hangs off one node.
type CutVertex struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Degree  int    `json:"degree"`
}

// Bridge is an edge whose removal disconnects the graph.
type Bridge struct {
	SourceID      string `json:"source_id"`
	TargetID      string `json:"target_id"`
	SourceContent string `json:"source_content"`
	TargetContent string `json:"target_content"`
}

// findCutpoints runs an iterative Tarjan lowlink pass over the undirected,
// deduplicated graph and returns cut vertices and bridge edges.
func findCutpoints(s *snapshot) ([]CutVertex, []Bridge) {
	n := len(s.order)
	if n == 0 {
		return nil, nil
	}
	idx := make(map[string]int, n)
	for i, id := range s.order {
		idx[id] = i
	}

	adj := make([][]int, n)
	type pair struct{ u, v int }
	seen := make(map[pair]bool)
	for _, r := range s.doc.Relationships {
		u, okU := idx[r.Source]
		v, okV := idx[r.Target]
		if !okU || !okV || u == v {
			continue
		}
		key := pair{u, v}
		if u > v {
			key = pair{v, u}
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		adj[u] = append(adj[u], v)
		adj[v] = append(adj[v], u)
	}

	disc := make([]int, n)
	low := make([]int, n)
	visited := make([]bool, n)
	isCut := make([]bool, n)
	var bridgePairs [][2]int
	counter := 1

	const noParent = -1
	type frame struct {
		node, parent, next int
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		disc[start] = counter
		low[start] = counter
		counter++

		stack := []frame{{start, noParent, 0}}
		rootChildren := 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			node, parent := top.node, top.parent

			if top.next < len(adj[node]) {
				child := adj[node][top.next]
				top.next++
				if child == parent {
					continue
				}
				if visited[child] {
					if disc[child] < low[node] {
						low[node] = disc[child]
					}
					continue
				}
				visited[child] = true
				disc[child] = counter
				low[child] = counter
				counter++
				if node == start {
					rootChildren++
				}
				stack = append(stack, frame{child, node, 0})
				continue
			}

			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				continue
			}
			up := &stack[len(stack)-1]
			if low[node] < low[up.node] {
				low[up.node] = low[node]
			}
			if low[node] > disc[up.node] {
				bridgePairs = append(bridgePairs, [2]int{up.node, node})
			}
			if up.node != start && low[node] >= disc[up.node] {
				isCut[up.node] = true
			}
		}

		if rootChildren >= 2 {
			isCut[start] = true
		}
	}

	var cuts []CutVertex
	for i := 0; i < n; i++ {
		if !isCut[i] {
			continue
		}
		node := s.nodes[s.order[i]]
		cuts = append(cuts, CutVertex{
			ID:      node.ID,
			Content: node.Content,
			Type:    string(node.Type),
			Degree:  len(adj[i]),
		})
	}

	var bridges []Bridge
	for _, bp := range bridgePairs {
		src := s.nodes[s.order[bp[0]]]
		tgt := s.nodes[s.order[bp[1]]]
		bridges = append(bridges, Bridge{
			SourceID:      src.ID,
			TargetID:      tgt.ID,
			SourceContent: src.Content,
			TargetContent: tgt.Content,
		})
	}
	return cuts, bridges
}
