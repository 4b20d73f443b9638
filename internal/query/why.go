package query

import "strand/loom/internal/ir"

// WhyOptions tunes the causal-ancestry query.
type WhyOptions struct {
	MaxDepth            int
	IncludeCorrelations bool
	Format              string // "chain" (default) or "minimal"
}

// Ancestor is one discovered causal ancestor; Depth is the deepest level it
// was reached at.
type Ancestor struct {
	NodeID  string     `json:"node_id"`
	Content string     `json:"content"`
	Depth   int        `json:"depth"`
	Via     ir.RelType `json:"via"`
}

// ChainStep is one link of the reconstructed root-to-target chain.
type ChainStep struct {
	NodeID  string     `json:"node_id"`
	Content string     `json:"content"`
	Via     ir.RelType `json:"via,omitempty"`
}

// WhyResult is the causal ancestry of a node. Minimal format fills
// RootContent and Chain only; chain format fills everything.
type WhyResult struct {
	TargetID         string      `json:"target_id"`
	TargetContent    string      `json:"target_content,omitempty"`
	Format           string      `json:"format"`
	RootCause        *Ancestor   `json:"root_cause,omitempty"`
	Ancestors        []Ancestor  `json:"ancestors,omitempty"`
	CausalChain      []ChainStep `json:"causal_chain,omitempty"`
	RootContent      string      `json:"root_content,omitempty"`
	Chain            []string    `json:"chain,omitempty"`
	HasMultiplePaths bool        `json:"has_multiple_paths"`
}

// Why walks backward over derives_from and causes edges (plus equivalent
// when correlations are requested) and reports the ancestry. Visited sets
// are copied per branch: diamonds are fully explored, single-path cycles
// are blocked.
func (e *Engine) Why(nodeID string, opts WhyOptions) (*WhyResult, error) {
	target, err := e.Node(nodeID)
	if err != nil {
		return nil, err
	}
	if opts.Format == "" {
		opts.Format = "chain"
	}
	guard := e.depthGuard(opts.MaxDepth)

	// best depth per ancestor, with first-found winning ties later
	depths := make(map[string]int)
	via := make(map[string]ir.RelType)
	var order []string

	var walk func(id string, depth int, visited map[string]bool)
	walk = func(id string, depth int, visited map[string]bool) {
		if depth >= guard {
			return
		}
		for _, step := range e.ancestorsOf(id, opts.IncludeCorrelations) {
			if visited[step.node] {
				continue
			}
			if _, seen := depths[step.node]; !seen {
				order = append(order, step.node)
				via[step.node] = step.rel.Type
			}
			if depth+1 > depths[step.node] {
				depths[step.node] = depth + 1
			}
			branch := copyVisited(visited)
			branch[step.node] = true
			walk(step.node, depth+1, branch)
		}
	}
	walk(nodeID, 0, map[string]bool{nodeID: true})

	res := &WhyResult{
		TargetID:         nodeID,
		TargetContent:    target.Content,
		Format:           opts.Format,
		HasMultiplePaths: len(e.ancestorsOf(nodeID, opts.IncludeCorrelations)) > 1,
	}
	if len(order) == 0 {
		return res, nil
	}

	// Root cause: the ancestor at maximum depth, first found on ties.
	maxDepth := 0
	rootID := ""
	for _, id := range order {
		if depths[id] > maxDepth {
			maxDepth = depths[id]
			rootID = id
		}
	}
	root := &Ancestor{
		NodeID:  rootID,
		Content: e.content(rootID),
		Depth:   maxDepth,
		Via:     via[rootID],
	}

	chain := e.reconstructChain(rootID, nodeID, depths, opts.IncludeCorrelations)

	if opts.Format == "minimal" {
		res.RootContent = root.Content
		for _, step := range chain {
			res.Chain = append(res.Chain, step.Content)
		}
		return res, nil
	}

	res.RootCause = root
	for _, id := range order {
		res.Ancestors = append(res.Ancestors, Ancestor{
			NodeID:  id,
			Content: e.content(id),
			Depth:   depths[id],
			Via:     via[id],
		})
	}
	res.CausalChain = chain
	return res, nil
}

// reconstructChain walks forward from the root, stepping only through nodes
// in the ancestor set, and stops at the query target (which is not itself
// part of the chain).
func (e *Engine) reconstructChain(rootID, targetID string, ancestors map[string]int, includeCorrelations bool) []ChainStep {
	chain := []ChainStep{{NodeID: rootID, Content: e.content(rootID)}}
	visited := map[string]bool{rootID: true}
	current := rootID
	for {
		advanced := false
		for _, step := range e.forwardOf(current, includeCorrelations) {
			if step.node == targetID {
				return chain
			}
			if _, isAncestor := ancestors[step.node]; !isAncestor || visited[step.node] {
				continue
			}
			visited[step.node] = true
			chain = append(chain, ChainStep{
				NodeID:  step.node,
				Content: e.content(step.node),
				Via:     step.rel.Type,
			})
			current = step.node
			advanced = true
			break
		}
		if !advanced {
			return chain
		}
	}
}

// forwardOf inverts ancestorsOf: causal edges followed cause-to-effect.
func (e *Engine) forwardOf(id string, includeCorrelations bool) []edgeStep {
	var out []edgeStep
	for _, r := range e.bySource[id] {
		if r.Type == ir.RelCauses || (includeCorrelations && r.Type == ir.RelEquivalent) {
			out = append(out, edgeStep{rel: r, node: r.Target})
		}
	}
	for _, r := range e.byTarget[id] {
		if r.Type == ir.RelDerivesFrom || (includeCorrelations && r.Type == ir.RelEquivalent) {
			out = append(out, edgeStep{rel: r, node: r.Source})
		}
	}
	return out
}
