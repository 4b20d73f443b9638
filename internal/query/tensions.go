package query

import "strand/loom/internal/ir"

// TensionsOptions tunes tradeoff extraction.
type TensionsOptions struct {
	GroupBy        string   // "axis", "source", or "" for a flat list
	FilterByAxis   []string // allow-list; nil keeps every axis
	IncludeContext bool
	// Scope restricts results to the forward-reachable subgraph of this
	// node (causes and temporal edges).
	Scope string
}

// ContextualTension is a tension edge optionally enriched with the
// non-tension parents of each endpoint.
type ContextualTension struct {
	TensionEdge
	SourceContext []string `json:"source_context,omitempty"`
	TargetContext []string `json:"target_context,omitempty"`
}

// unlabeledAxisKey groups tensions whose axis the author never named.
const unlabeledAxisKey = "(unlabeled)"

// TensionsResult is the tradeoff map of the document.
type TensionsResult struct {
	Total            int                            `json:"total"`
	Axes             []string                       `json:"axes"`
	MostFrequentAxis string                         `json:"most_frequent_axis,omitempty"`
	ByAxis           map[string][]ContextualTension `json:"by_axis,omitempty"`
	BySource         map[string][]ContextualTension `json:"by_source,omitempty"`
	Flat             []ContextualTension            `json:"flat,omitempty"`
}

// Tensions filters and groups every tension edge in the document.
func (e *Engine) Tensions(opts TensionsOptions) (*TensionsResult, error) {
	var scope map[string]bool
	if opts.Scope != "" {
		if _, err := e.Node(opts.Scope); err != nil {
			return nil, err
		}
		scope = e.forwardReach(opts.Scope)
	}
	allow := map[string]bool{}
	for _, a := range opts.FilterByAxis {
		allow[a] = true
	}

	var entries []ContextualTension
	for _, r := range e.doc.Relationships {
		if r.Type != ir.RelTension {
			continue
		}
		if scope != nil && (!scope[r.Source] || !scope[r.Target]) {
			continue
		}
		if len(allow) > 0 && (r.AxisLabel == nil || !allow[*r.AxisLabel]) {
			continue
		}
		entry := ContextualTension{TensionEdge: e.tensionEdge(r)}
		if opts.IncludeContext {
			entry.SourceContext = e.nonTensionParents(r.Source)
			entry.TargetContext = e.nonTensionParents(r.Target)
		}
		entries = append(entries, entry)
	}

	res := &TensionsResult{Total: len(entries)}

	// Distinct axes in first-seen order; most frequent wins ties by
	// first appearance.
	counts := map[string]int{}
	for _, t := range entries {
		axis := unlabeledAxisKey
		if t.Axis != nil {
			axis = *t.Axis
		}
		if counts[axis] == 0 {
			res.Axes = append(res.Axes, axis)
		}
		counts[axis]++
	}
	best := 0
	for _, axis := range res.Axes {
		if counts[axis] > best {
			best = counts[axis]
			res.MostFrequentAxis = axis
		}
	}

	switch opts.GroupBy {
	case "axis":
		res.ByAxis = make(map[string][]ContextualTension)
		for _, t := range entries {
			axis := unlabeledAxisKey
			if t.Axis != nil {
				axis = *t.Axis
			}
			res.ByAxis[axis] = append(res.ByAxis[axis], t)
		}
	case "source":
		res.BySource = make(map[string][]ContextualTension)
		for _, t := range entries {
			res.BySource[t.SourceID] = append(res.BySource[t.SourceID], t)
		}
	default:
		res.Flat = entries
	}
	return res, nil
}

// forwardReach collects the forward-reachable subgraph over causes and
// temporal edges, scope node included.
func (e *Engine) forwardReach(id string) map[string]bool {
	reach := map[string]bool{id: true}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, r := range e.bySource[cur] {
			if r.Type != ir.RelCauses && r.Type != ir.RelTemporal {
				continue
			}
			if reach[r.Target] {
				continue
			}
			reach[r.Target] = true
			stack = append(stack, r.Target)
		}
	}
	return reach
}

// nonTensionParents lists the contents of nodes pointing at id through
// anything but a tension edge.
func (e *Engine) nonTensionParents(id string) []string {
	var out []string
	for _, r := range e.byTarget[id] {
		if r.Type == ir.RelTension {
			continue
		}
		out = append(out, e.content(r.Source))
	}
	return out
}
