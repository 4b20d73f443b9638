package query

import "strand/loom/internal/ir"

// WhatIfOptions tunes the forward-impact query. Temporal consequences are
// followed by default.
type WhatIfOptions struct {
	MaxDepth            int
	IncludeCorrelations bool
	ExcludeTemporal     bool
	Format              string // "full" (default) or "summary"
}

// Descendant is one node in the forward-impact set. Depth is the minimum
// depth it was reached at; InTension marks participation in any tension
// edge.
type Descendant struct {
	NodeID    string     `json:"node_id"`
	Content   string     `json:"content"`
	Depth     int        `json:"depth"`
	Via       ir.RelType `json:"via"`
	InTension bool       `json:"in_tension"`
}

// TensionEdge is a tension relationship surfaced by a query.
type TensionEdge struct {
	RelID         string  `json:"rel_id"`
	SourceID      string  `json:"source_id"`
	SourceContent string  `json:"source_content"`
	TargetID      string  `json:"target_id"`
	TargetContent string  `json:"target_content"`
	Axis          *string `json:"axis"`
	Line          int     `json:"line"`
}

// WhatIfResult is the forward impact of a node. Summary format buckets
// descendants into risks and benefits by keyword match and surfaces the
// first tension's axis as the key tradeoff; it is a heuristic, not
// semantic classification.
type WhatIfResult struct {
	SourceID      string        `json:"source_id"`
	SourceContent string        `json:"source_content"`
	Format        string        `json:"format"`
	Direct        []Descendant  `json:"direct,omitempty"`
	Indirect      []Descendant  `json:"indirect,omitempty"`
	Tensions      []TensionEdge `json:"tensions,omitempty"`
	Risks         []string      `json:"risks,omitempty"`
	Benefits      []string      `json:"benefits,omitempty"`
	KeyTradeoff   string        `json:"key_tradeoff,omitempty"`
	TotalAffected int           `json:"total_affected"`
}

// WhatIf walks forward over causes (and temporal unless excluded, and
// equivalent when correlations are requested), with per-path visited sets.
func (e *Engine) WhatIf(nodeID string, opts WhatIfOptions) (*WhatIfResult, error) {
	source, err := e.Node(nodeID)
	if err != nil {
		return nil, err
	}
	if opts.Format == "" {
		opts.Format = "full"
	}
	guard := e.depthGuard(opts.MaxDepth)
	includeTemporal := !opts.ExcludeTemporal

	depths := make(map[string]int) // minimum depth per descendant
	via := make(map[string]ir.RelType)
	var order []string

	var walk func(id string, depth int, visited map[string]bool)
	walk = func(id string, depth int, visited map[string]bool) {
		if depth >= guard {
			return
		}
		for _, step := range e.descendantsOf(id, includeTemporal, opts.IncludeCorrelations) {
			if visited[step.node] {
				continue
			}
			if prev, seen := depths[step.node]; !seen {
				depths[step.node] = depth + 1
				via[step.node] = step.rel.Type
				order = append(order, step.node)
			} else if depth+1 < prev {
				depths[step.node] = depth + 1
				via[step.node] = step.rel.Type
			}
			branch := copyVisited(visited)
			branch[step.node] = true
			walk(step.node, depth+1, branch)
		}
	}
	walk(nodeID, 0, map[string]bool{nodeID: true})

	inSet := make(map[string]bool, len(order)+1)
	inSet[nodeID] = true
	for _, id := range order {
		inSet[id] = true
	}

	// Tension edges with both endpoints in the descendant set plus source.
	var tensions []TensionEdge
	inTension := make(map[string]bool)
	for _, r := range e.doc.Relationships {
		if r.Type != ir.RelTension {
			continue
		}
		if !inSet[r.Source] || !inSet[r.Target] {
			continue
		}
		tensions = append(tensions, e.tensionEdge(r))
		inTension[r.Source] = true
		inTension[r.Target] = true
	}

	res := &WhatIfResult{
		SourceID:      nodeID,
		SourceContent: source.Content,
		Format:        opts.Format,
		TotalAffected: len(order),
		Tensions:      tensions,
	}

	if opts.Format == "summary" {
		for _, id := range order {
			content := e.content(id)
			if e.isRisky(content) {
				res.Risks = append(res.Risks, content)
			} else {
				res.Benefits = append(res.Benefits, content)
			}
		}
		if len(tensions) > 0 && tensions[0].Axis != nil {
			res.KeyTradeoff = *tensions[0].Axis
		}
		return res, nil
	}

	for _, id := range order {
		d := Descendant{
			NodeID:    id,
			Content:   e.content(id),
			Depth:     depths[id],
			Via:       via[id],
			InTension: inTension[id],
		}
		if depths[id] == 1 {
			res.Direct = append(res.Direct, d)
		} else {
			res.Indirect = append(res.Indirect, d)
		}
	}
	return res, nil
}

func (e *Engine) tensionEdge(r *ir.Relationship) TensionEdge {
	return TensionEdge{
		RelID:         r.ID,
		SourceID:      r.Source,
		SourceContent: e.content(r.Source),
		TargetID:      r.Target,
		TargetContent: e.content(r.Target),
		Axis:          r.AxisLabel,
		Line:          r.Provenance.Line,
	}
}
