package query

import "strand/loom/internal/ir"

// AlternativesOptions tunes decision reconstruction.
type AlternativesOptions struct {
	Format              string // "simple", "tree", or "comparison" (default)
	IncludeRationale    bool
	IncludeConsequences bool
	ShowRejectedReasons bool
}

// SimpleDecision is the flat view: the question, its options, and what was
// chosen.
type SimpleDecision struct {
	Question          string   `json:"question"`
	OptionsConsidered []string `json:"options_considered"`
	Chosen            string   `json:"chosen,omitempty"`
	Rationale         string   `json:"rationale,omitempty"`
}

// TreeBranch is one node of the recursive consequence tree.
type TreeBranch struct {
	NodeID         string        `json:"node_id"`
	Content        string        `json:"content"`
	Chosen         bool          `json:"chosen,omitempty"`
	RejectedReason string        `json:"rejected_reason,omitempty"`
	Children       []*TreeBranch `json:"children,omitempty"`
}

// TreeDecision is the tree view rooted at the question.
type TreeDecision struct {
	Question     string        `json:"question"`
	Alternatives []*TreeBranch `json:"alternatives"`
}

// ComparisonEntry is the full per-alternative detail.
type ComparisonEntry struct {
	NodeID           string        `json:"node_id"`
	Content          string        `json:"content"`
	Chosen           bool          `json:"chosen"`
	Rationale        string        `json:"rationale,omitempty"`
	DecidedOn        string        `json:"decided_on,omitempty"`
	RejectionReasons []string      `json:"rejection_reasons,omitempty"`
	Consequences     []string      `json:"consequences,omitempty"`
	Tensions         []TensionEdge `json:"tensions,omitempty"`
}

// DecisionSummary aggregates the comparison.
type DecisionSummary struct {
	Chosen     string   `json:"chosen,omitempty"`
	Rejected   []string `json:"rejected,omitempty"`
	KeyFactors []string `json:"key_factors,omitempty"`
}

// AlternativesResult carries exactly one of the three shapes, tagged by
// Format.
type AlternativesResult struct {
	QuestionID string              `json:"question_id"`
	Format     string              `json:"format"`
	Simple     *SimpleDecision     `json:"simple,omitempty"`
	Tree       *TreeDecision       `json:"tree,omitempty"`
	Comparison *ComparisonDecision `json:"comparison,omitempty"`
}

// ComparisonDecision is the comparison view.
type ComparisonDecision struct {
	Question     string            `json:"question"`
	Alternatives []ComparisonEntry `json:"alternatives"`
	Summary      DecisionSummary   `json:"summary"`
}

// Alternatives reconstructs the decision around a question node. The target
// must be a question; anything else is a WrongTypeError.
func (e *Engine) Alternatives(questionID string, opts AlternativesOptions) (*AlternativesResult, error) {
	q, err := e.Node(questionID)
	if err != nil {
		return nil, err
	}
	if q.Type != ir.NodeQuestion {
		return nil, &WrongTypeError{ID: questionID, Want: ir.NodeQuestion, Got: q.Type}
	}
	if opts.Format == "" {
		opts.Format = "comparison"
	}

	var alts []*ir.Node
	for _, r := range e.bySource[questionID] {
		if r.Type != ir.RelAlternative {
			continue
		}
		if n, ok := e.nodes[r.Target]; ok {
			alts = append(alts, n)
		}
	}

	res := &AlternativesResult{QuestionID: questionID, Format: opts.Format}
	switch opts.Format {
	case "simple":
		res.Simple = e.simpleDecision(q, alts, opts)
	case "tree":
		res.Tree = e.treeDecision(q, alts, opts)
	default:
		res.Comparison = e.comparisonDecision(q, alts, opts)
	}
	return res, nil
}

// decidedState finds the decided state governing an alternative. The id
// match against the state's resolved node is authoritative; matching the
// attached node's content string is kept only as a compatibility fallback
// for documents where the decided marker landed on a restatement of the
// alternative rather than the alternative itself.
func (e *Engine) decidedState(alt *ir.Node) *ir.State {
	for _, st := range e.stateByNode[alt.ID] {
		if st.Type == ir.StateDecided {
			return st
		}
	}
	for _, st := range e.doc.States {
		if st.Type != ir.StateDecided || st.NodeID == "" {
			continue
		}
		if e.content(st.NodeID) == alt.Content {
			return st
		}
	}
	return nil
}

func (e *Engine) simpleDecision(q *ir.Node, alts []*ir.Node, opts AlternativesOptions) *SimpleDecision {
	d := &SimpleDecision{Question: q.Content}
	for _, alt := range alts {
		d.OptionsConsidered = append(d.OptionsConsidered, alt.Content)
		if d.Chosen == "" {
			if st := e.decidedState(alt); st != nil {
				d.Chosen = alt.Content
				if opts.IncludeRationale {
					d.Rationale = st.Fields["rationale"]
				}
			}
		}
	}
	return d
}

func (e *Engine) treeDecision(q *ir.Node, alts []*ir.Node, opts AlternativesOptions) *TreeDecision {
	d := &TreeDecision{Question: q.Content}
	guard := e.depthGuard(0)
	for _, alt := range alts {
		branch := e.buildBranch(alt.ID, guard, map[string]bool{alt.ID: true})
		branch.Chosen = e.decidedState(alt) != nil
		if !branch.Chosen && opts.ShowRejectedReasons {
			if reasons := e.rejectionReasons(alt.ID); len(reasons) > 0 {
				branch.RejectedReason = reasons[0]
			}
		}
		d.Alternatives = append(d.Alternatives, branch)
	}
	return d
}

// buildBranch follows causes-typed children recursively with a per-path
// visited set, so shared consequences appear under every alternative while
// cycles stay bounded.
func (e *Engine) buildBranch(id string, depthLeft int, visited map[string]bool) *TreeBranch {
	b := &TreeBranch{NodeID: id, Content: e.content(id)}
	if depthLeft <= 0 {
		return b
	}
	for _, r := range e.bySource[id] {
		if r.Type != ir.RelCauses || visited[r.Target] {
			continue
		}
		branch := copyVisited(visited)
		branch[r.Target] = true
		b.Children = append(b.Children, e.buildBranch(r.Target, depthLeft-1, branch))
	}
	return b
}

// rejectionReasons mines thought nodes reached via a causes edge out of a
// rejected alternative.
func (e *Engine) rejectionReasons(altID string) []string {
	var out []string
	for _, r := range e.bySource[altID] {
		if r.Type != ir.RelCauses {
			continue
		}
		if n, ok := e.nodes[r.Target]; ok && n.Type == ir.NodeThought {
			out = append(out, n.Content)
		}
	}
	return out
}

func (e *Engine) comparisonDecision(q *ir.Node, alts []*ir.Node, opts AlternativesOptions) *ComparisonDecision {
	d := &ComparisonDecision{Question: q.Content}
	for _, alt := range alts {
		entry := ComparisonEntry{NodeID: alt.ID, Content: alt.Content}
		if st := e.decidedState(alt); st != nil {
			entry.Chosen = true
			if opts.IncludeRationale {
				entry.Rationale = st.Fields["rationale"]
			}
			entry.DecidedOn = st.Fields["on"]
		} else {
			entry.RejectionReasons = e.rejectionReasons(alt.ID)
		}
		if opts.IncludeConsequences {
			for _, r := range e.bySource[alt.ID] {
				if r.Type == ir.RelCauses {
					entry.Consequences = append(entry.Consequences, e.content(r.Target))
				}
			}
		}
		for _, r := range e.doc.Relationships {
			if r.Type != ir.RelTension {
				continue
			}
			if r.Source == alt.ID || r.Target == alt.ID {
				entry.Tensions = append(entry.Tensions, e.tensionEdge(r))
			}
		}
		d.Alternatives = append(d.Alternatives, entry)
	}

	for _, entry := range d.Alternatives {
		if entry.Chosen {
			d.Summary.Chosen = entry.Content
			for _, t := range entry.Tensions {
				if t.Axis != nil {
					d.Summary.KeyFactors = append(d.Summary.KeyFactors, *t.Axis)
				}
			}
		} else {
			d.Summary.Rejected = append(d.Summary.Rejected, entry.Content)
		}
	}
	return d
}
