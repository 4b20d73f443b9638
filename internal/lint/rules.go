package lint

import (
	"fmt"
	"strings"

	"strand/loom/internal/ir"
)

func checkUnlabeledTension(doc *ir.Document, _ *Config) []Diagnostic {
	var diags []Diagnostic
	for _, r := range doc.Relationships {
		if r.Type == ir.RelTension && r.AxisLabel == nil {
			diags = append(diags, Diagnostic{
				Severity:   SeverityError,
				RuleCode:   "unlabeled-tension",
				Message:    "tension relationship has no axis label",
				Line:       r.Provenance.Line,
				Suggestion: "name the tradeoff dimension: a >< [axis] b",
			})
		}
	}
	return diags
}

func checkMissingStateFields(doc *ir.Document, _ *Config) []Diagnostic {
	var diags []Diagnostic
	for _, st := range doc.States {
		required := ir.RequiredStateFields[st.Type]
		var missing []string
		for _, key := range required {
			if _, ok := st.Fields[key]; !ok {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				RuleCode: "missing-state-fields",
				Message: fmt.Sprintf("%s state is missing required field(s): %s",
					st.Type, strings.Join(missing, ", ")),
				Line:       st.Provenance.Line,
				Suggestion: fmt.Sprintf("[%s(%s)]", st.Type, exampleFields(required)),
			})
		}
	}
	return diags
}

func exampleFields(keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + `: "..."`
	}
	return strings.Join(parts, ", ")
}

// operator tokens the parser recognizes; prose starting with one of these is
// a construct that failed to match and fell through.
var operatorTokens = []string{"->", "<-", "<->", "=>", "><", "==", "<>", "||=", "||-", "||+"}

func checkMalformedConstruct(doc *ir.Document, _ *Config) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if n.Type != ir.NodeStatement || n.Content == "" {
			continue
		}
		first := strings.Fields(n.Content)[0]
		for _, op := range operatorTokens {
			if first == op {
				diags = append(diags, Diagnostic{
					Severity:   SeverityError,
					RuleCode:   "malformed-construct",
					Message:    fmt.Sprintf("line starts with %q but has nothing to chain from", first),
					Line:       n.Provenance.Line,
					Suggestion: "continuation lines only work inside a block that already has a node",
				})
				break
			}
		}
		if looksLikeState(n.Content) {
			diags = append(diags, Diagnostic{
				Severity:   SeverityError,
				RuleCode:   "malformed-construct",
				Message:    fmt.Sprintf("%q looks like a state marker but did not parse as one", n.Content),
				Line:       n.Provenance.Line,
				Suggestion: "valid states are [decided(...)], [blocked(...)], [parking(...)], [exploring]",
			})
		}
	}
	return diags
}

func looksLikeState(content string) bool {
	if !strings.HasPrefix(content, "[") || !strings.HasSuffix(content, "]") {
		return false
	}
	inner := content[1 : len(content)-1]
	if p := strings.Index(inner, "("); p >= 0 {
		inner = inner[:p]
	}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return false
	}
	for _, r := range inner {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_') {
			return false
		}
	}
	return true
}

func checkOrphanNodes(doc *ir.Document, cfg *Config) []Diagnostic {
	exempt := make(map[ir.NodeType]bool, len(cfg.OrphanExempt))
	for _, t := range cfg.OrphanExempt {
		exempt[t] = true
	}

	connected := make(map[string]bool)
	for _, r := range doc.Relationships {
		connected[r.Source] = true
		connected[r.Target] = true
	}
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			connected[c] = true
		}
		if len(n.Children) > 0 {
			connected[n.ID] = true
		}
	}

	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if exempt[n.Type] || connected[n.ID] {
			continue
		}
		diags = append(diags, Diagnostic{
			Severity:   SeverityError,
			RuleCode:   "orphan-node",
			Message:    fmt.Sprintf("%s %q has no relationships", n.Type, n.Content),
			Line:       n.Provenance.Line,
			Suggestion: "connect it with ->, <-, or nest it under another node",
		})
	}
	return diags
}

// causalAdjacency builds the directed causal graph in cause-to-effect
// direction: causes edges flow source to target, derives_from edges flow
// target to source (the source derives from, i.e. is caused by, the target).
func causalAdjacency(doc *ir.Document) map[string][]string {
	adj := make(map[string][]string)
	for _, r := range doc.Relationships {
		switch r.Type {
		case ir.RelCauses:
			adj[r.Source] = append(adj[r.Source], r.Target)
		case ir.RelDerivesFrom:
			adj[r.Target] = append(adj[r.Target], r.Source)
		}
	}
	return adj
}

func checkCausalCycles(doc *ir.Document, _ *Config) []Diagnostic {
	adj := causalAdjacency(doc)
	lineOf := make(map[string]int, len(doc.Nodes))
	contentOf := make(map[string]string, len(doc.Nodes))
	for _, n := range doc.Nodes {
		lineOf[n.ID] = n.Provenance.Line
		contentOf[n.ID] = n.Content
	}

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	color := make(map[string]int)
	var diags []Diagnostic
	reported := make(map[string]bool)

	var visit func(id string)
	visit = func(id string) {
		color[id] = inStack
		for _, next := range adj[id] {
			switch color[next] {
			case inStack:
				if !reported[next] {
					reported[next] = true
					diags = append(diags, Diagnostic{
						Severity:   SeverityError,
						RuleCode:   "causal-cycle",
						Message:    fmt.Sprintf("causal cycle through %q", contentOf[next]),
						Line:       lineOf[next],
						Suggestion: "break the loop or model it as a bidirectional relationship",
					})
				}
			case unvisited:
				visit(next)
			}
		}
		color[id] = done
	}

	for _, n := range doc.Nodes {
		if color[n.ID] == unvisited {
			visit(n.ID)
		}
	}
	return diags
}

func checkUnresolvedAlternatives(doc *ir.Document, _ *Config) []Diagnostic {
	terminal := make(map[string]bool)
	for _, st := range doc.States {
		if st.NodeID == "" {
			continue
		}
		if st.Type == ir.StateDecided || st.Type == ir.StateParking {
			terminal[st.NodeID] = true
		}
	}
	altsOf := make(map[string][]string)
	for _, r := range doc.Relationships {
		if r.Type == ir.RelAlternative {
			altsOf[r.Source] = append(altsOf[r.Source], r.Target)
		}
	}

	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if n.Type != ir.NodeQuestion {
			continue
		}
		alts := altsOf[n.ID]
		if len(alts) == 0 {
			continue
		}
		resolved := false
		for _, alt := range alts {
			if terminal[alt] {
				resolved = true
				break
			}
		}
		if !resolved {
			diags = append(diags, Diagnostic{
				Severity:   SeverityError,
				RuleCode:   "unresolved-alternatives",
				Message:    fmt.Sprintf("question %q has %d alternative(s) but no decision", n.Content, len(alts)),
				Line:       n.Provenance.Line,
				Suggestion: "mark one alternative [decided(...)] or park the question [parking(...)]",
			})
		}
	}
	return diags
}

func checkDanglingRelationships(doc *ir.Document, _ *Config) []Diagnostic {
	known := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		known[n.ID] = true
	}
	var diags []Diagnostic
	for _, r := range doc.Relationships {
		for _, end := range []string{r.Source, r.Target} {
			if !known[end] {
				diags = append(diags, Diagnostic{
					Severity: SeverityError,
					RuleCode: "dangling-relationship",
					Message:  fmt.Sprintf("%s relationship references missing node %s", r.Type, end),
					Line:     r.Provenance.Line,
				})
			}
		}
	}
	return diags
}

// recommendedStateFields are optional but advised per state type.
var recommendedStateFields = map[ir.StateType][]string{
	ir.StateDecided: {"confidence"},
	ir.StateBlocked: {"owner"},
	ir.StateParking: {"review"},
}

func checkMissingRecommendedFields(doc *ir.Document, _ *Config) []Diagnostic {
	var diags []Diagnostic
	for _, st := range doc.States {
		for _, key := range recommendedStateFields[st.Type] {
			if _, ok := st.Fields[key]; !ok {
				diags = append(diags, Diagnostic{
					Severity:   SeverityWarning,
					RuleCode:   "missing-recommended-fields",
					Message:    fmt.Sprintf("%s state would benefit from a %q field", st.Type, key),
					Line:       st.Provenance.Line,
					Suggestion: fmt.Sprintf("add %s: \"...\"", key),
				})
			}
		}
	}
	return diags
}

func checkDeepNesting(doc *ir.Document, cfg *Config) []Diagnostic {
	byID := make(map[string]*ir.Node, len(doc.Nodes))
	isChild := make(map[string]bool)
	for _, n := range doc.Nodes {
		byID[n.ID] = n
	}
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}

	depth := make(map[string]int)
	var assign func(id string, d int)
	assign = func(id string, d int) {
		if prev, ok := depth[id]; ok && prev >= d {
			return // already reached at least this deep (also breaks cycles)
		}
		depth[id] = d
		n, ok := byID[id]
		if !ok {
			return
		}
		for _, c := range n.Children {
			assign(c, d+1)
		}
	}
	for _, n := range doc.Nodes {
		if !isChild[n.ID] {
			assign(n.ID, 1)
		}
	}

	limit := cfg.MaxNestingDepth
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if depth[n.ID] == limit+1 {
			diags = append(diags, Diagnostic{
				Severity:   SeverityWarning,
				RuleCode:   "deep-nesting",
				Message:    fmt.Sprintf("node %q is nested %d levels deep (threshold %d)", n.Content, limit+1, limit),
				Line:       n.Provenance.Line,
				Suggestion: "consider flattening or splitting this branch",
			})
		}
	}
	return diags
}

func checkLongCausalChains(doc *ir.Document, cfg *Config) []Diagnostic {
	adj := causalAdjacency(doc)
	hasIncoming := make(map[string]bool)
	for _, targets := range adj {
		for _, t := range targets {
			hasIncoming[t] = true
		}
	}

	// Longest downstream path per node, cycle-guarded by an on-stack set.
	memo := make(map[string]int)
	onStack := make(map[string]bool)
	var longest func(id string) int
	longest = func(id string) int {
		if v, ok := memo[id]; ok {
			return v
		}
		if onStack[id] {
			return 0
		}
		onStack[id] = true
		best := 0
		for _, next := range adj[id] {
			if l := longest(next) + 1; l > best {
				best = l
			}
		}
		onStack[id] = false
		memo[id] = best
		return best
	}

	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if hasIncoming[n.ID] || len(adj[n.ID]) == 0 {
			continue
		}
		if l := longest(n.ID); l > cfg.MaxCausalChain {
			diags = append(diags, Diagnostic{
				Severity:   SeverityWarning,
				RuleCode:   "long-causal-chain",
				Message:    fmt.Sprintf("causal chain from %q is %d links long (threshold %d)", n.Content, l, cfg.MaxCausalChain),
				Line:       n.Provenance.Line,
				Suggestion: "long chains are hard to audit; consider naming intermediate insights",
			})
		}
	}
	return diags
}
