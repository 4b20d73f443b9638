package query

import (
	"sort"
	"time"

	"strand/loom/internal/ir"
)

// BlockedOptions tunes blocker tracking.
type BlockedOptions struct {
	Since                   string // keep blockers with since >= this date (YYYY-MM-DD)
	IncludeTransitiveCauses bool
	IncludeTransitiveEffect bool
	Format                  string // "full" (default) or "summary"
}

// BlockedItem is one blocked node with its computed priority signals.
type BlockedItem struct {
	NodeID           string   `json:"node_id"`
	Content          string   `json:"content"`
	Reason           string   `json:"reason"`
	Since            string   `json:"since"`
	DaysBlocked      int      `json:"days_blocked"`
	ImpactScore      int      `json:"impact_score"`
	TransitiveCauses []string `json:"transitive_causes,omitempty"`
	TransitiveEffect []string `json:"transitive_effects,omitempty"`
}

// BlockedResult aggregates every attached blocked state, sorted by impact
// score then days blocked. Summary format keeps the aggregates and the
// oldest blocker but drops the per-item list.
type BlockedResult struct {
	Format          string        `json:"format"`
	Items           []BlockedItem `json:"items,omitempty"`
	Total           int           `json:"total"`
	HighPriority    int           `json:"high_priority"`
	MeanDaysBlocked float64       `json:"mean_days_blocked"`
	Oldest          *BlockedItem  `json:"oldest,omitempty"`
}

const sinceLayout = "2006-01-02"

// Blocked reads all attached blocked states. Impact score is the count of
// transitive effects regardless of whether the effect list is requested;
// high priority means impact above zero or more than a week blocked.
// Summary format returns the aggregates without the item list.
func (e *Engine) Blocked(opts BlockedOptions) (*BlockedResult, error) {
	if opts.Format == "" {
		opts.Format = "full"
	}
	var cutoff time.Time
	if opts.Since != "" {
		t, err := time.Parse(sinceLayout, opts.Since)
		if err != nil {
			return nil, err
		}
		cutoff = t
	}

	var items []BlockedItem
	for _, st := range e.doc.States {
		if st.Type != ir.StateBlocked || st.NodeID == "" {
			continue
		}
		since := st.Fields["since"]
		var sinceAt time.Time
		if since != "" {
			if t, err := time.Parse(sinceLayout, since); err == nil {
				sinceAt = t
			}
		}
		if !cutoff.IsZero() && (sinceAt.IsZero() || sinceAt.Before(cutoff)) {
			continue
		}
		days := 0
		if !sinceAt.IsZero() && e.now.After(sinceAt) {
			days = int(e.now.Sub(sinceAt).Hours() / 24)
		}

		effects := e.transitiveSet(st.NodeID, e.effectNeighbors)
		item := BlockedItem{
			NodeID:      st.NodeID,
			Content:     e.content(st.NodeID),
			Reason:      st.Fields["reason"],
			Since:       since,
			DaysBlocked: days,
			ImpactScore: len(effects),
		}
		if opts.IncludeTransitiveEffect {
			item.TransitiveEffect = effects
		}
		if opts.IncludeTransitiveCauses {
			item.TransitiveCauses = e.transitiveSet(st.NodeID, e.causeNeighbors)
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ImpactScore != items[j].ImpactScore {
			return items[i].ImpactScore > items[j].ImpactScore
		}
		if items[i].DaysBlocked != items[j].DaysBlocked {
			return items[i].DaysBlocked > items[j].DaysBlocked
		}
		return items[i].NodeID < items[j].NodeID
	})

	res := &BlockedResult{Format: opts.Format, Items: items, Total: len(items)}
	totalDays := 0
	for i := range items {
		it := &items[i]
		if it.ImpactScore > 0 || it.DaysBlocked > 7 {
			res.HighPriority++
		}
		totalDays += it.DaysBlocked
		if res.Oldest == nil || it.DaysBlocked > res.Oldest.DaysBlocked {
			res.Oldest = it
		}
	}
	if len(items) > 0 {
		res.MeanDaysBlocked = float64(totalDays) / float64(len(items))
	}
	if opts.Format == "summary" {
		res.Items = nil
	}
	return res, nil
}

// effectNeighbors: forward over causes and temporal edges.
func (e *Engine) effectNeighbors(id string) []string {
	var out []string
	for _, r := range e.bySource[id] {
		if r.Type == ir.RelCauses || r.Type == ir.RelTemporal {
			out = append(out, r.Target)
		}
	}
	return out
}

// causeNeighbors: backward over derives_from and causes edges.
func (e *Engine) causeNeighbors(id string) []string {
	var out []string
	for _, step := range e.ancestorsOf(id, false) {
		out = append(out, step.node)
	}
	return out
}

// transitiveSet collects the full closure of neighbors, start excluded, in
// discovery order.
func (e *Engine) transitiveSet(start string, neighbors func(string) []string) []string {
	seen := map[string]bool{start: true}
	var order []string
	stack := []string{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range neighbors(cur) {
			if seen[next] {
				continue
			}
			seen[next] = true
			order = append(order, next)
			stack = append(stack, next)
		}
	}
	return order
}
