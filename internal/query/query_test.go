package query

import (
	"testing"
	"time"

	"strand/loom/internal/ir"
	"strand/loom/internal/linker"
	"strand/loom/internal/parser"
)

var (
	parseClock = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	queryClock = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
)

func loadSrc(t *testing.T, src string) *Engine {
	t.Helper()
	doc, err := parser.ParseAt(src, "test.strand", parseClock)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	linker.Link(doc)
	return LoadAt(doc, queryClock)
}

func nodeID(t *testing.T, e *Engine, content string) string {
	t.Helper()
	for _, n := range e.doc.Nodes {
		if n.Content == content {
			return n.ID
		}
	}
	t.Fatalf("no node with content %q", content)
	return ""
}

// --- Why ---

func TestWhy_ChainRootAndLength(t *testing.T) {
	e := loadSrc(t, "A <- B\nB <- C")
	res, err := e.Why(nodeID(t, e, "A"), WhyOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.RootCause == nil || res.RootCause.Content != "C" {
		t.Fatalf("root cause = %+v, want C", res.RootCause)
	}
	if len(res.CausalChain) != 2 {
		t.Errorf("causal chain length = %d, want 2", len(res.CausalChain))
	}
	if res.HasMultiplePaths {
		t.Error("single-path ancestry must not flag multiple paths")
	}
}

func TestWhy_MultiplePathsFlag(t *testing.T) {
	e := loadSrc(t, "A <- B\nB <- C\nA <- D")
	res, err := e.Why(nodeID(t, e, "A"), WhyOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.HasMultiplePaths {
		t.Error("two incoming ancestry edges must flag multiple paths")
	}
}

func TestWhy_DiamondFullyExplored(t *testing.T) {
	// A is caused by B and D, both caused by C: the diamond's far corner
	// must be reached through both branches and sit at depth 2.
	e := loadSrc(t, "B -> A\nD -> A\nC -> B\nC -> D")
	res, err := e.Why(nodeID(t, e, "A"), WhyOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Ancestors) != 3 {
		t.Fatalf("expected ancestors B, D, C; got %+v", res.Ancestors)
	}
	if res.RootCause.Content != "C" || res.RootCause.Depth != 2 {
		t.Errorf("root cause = %+v, want C at depth 2", res.RootCause)
	}
}

func TestWhy_CycleSafe(t *testing.T) {
	e := loadSrc(t, "A -> B\nB -> A")
	if _, err := e.Why(nodeID(t, e, "A"), WhyOptions{}); err != nil {
		t.Fatalf("cyclic input must not loop or fail: %v", err)
	}
}

func TestWhy_MinimalFormat(t *testing.T) {
	e := loadSrc(t, "A <- B\nB <- C")
	res, err := e.Why(nodeID(t, e, "A"), WhyOptions{Format: "minimal"})
	if err != nil {
		t.Fatal(err)
	}
	if res.RootContent != "C" {
		t.Errorf("root content = %q, want C", res.RootContent)
	}
	if len(res.Chain) != 2 || res.Chain[0] != "C" || res.Chain[1] != "B" {
		t.Errorf("chain = %v, want [C B]", res.Chain)
	}
	if res.RootCause != nil || res.Ancestors != nil {
		t.Error("minimal format must not carry the structured ancestry")
	}
}

func TestWhy_MaxDepthBounds(t *testing.T) {
	e := loadSrc(t, "A <- B\nB <- C\nC <- D")
	res, err := e.Why(nodeID(t, e, "A"), WhyOptions{MaxDepth: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.RootCause.Content != "C" {
		t.Errorf("depth 2 bound should stop at C, got %q", res.RootCause.Content)
	}
}

func TestWhy_EquivalentNeedsCorrelations(t *testing.T) {
	e := loadSrc(t, "A == B\nB <- C")
	res, err := e.Why(nodeID(t, e, "A"), WhyOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.RootCause != nil {
		t.Error("equivalence must not be followed by default")
	}
	res, err = e.Why(nodeID(t, e, "A"), WhyOptions{IncludeCorrelations: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.RootCause == nil || res.RootCause.Content != "C" {
		t.Error("correlations on: ancestry should pass through the equivalence")
	}
}

func TestWhy_UnknownNode(t *testing.T) {
	e := loadSrc(t, "A -> B")
	_, err := e.Why("0000000000000000", WhyOptions{})
	if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

// --- WhatIf ---

func TestWhatIf_DirectVsIndirect(t *testing.T) {
	e := loadSrc(t, "A -> B\nB -> C\nA => D")
	res, err := e.WhatIf(nodeID(t, e, "A"), WhatIfOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Direct) != 2 {
		t.Errorf("direct = %+v, want B and D", res.Direct)
	}
	if len(res.Indirect) != 1 || res.Indirect[0].Content != "C" {
		t.Errorf("indirect = %+v, want C", res.Indirect)
	}
	if res.TotalAffected != 3 {
		t.Errorf("total = %d, want 3", res.TotalAffected)
	}
}

func TestWhatIf_ExcludeTemporal(t *testing.T) {
	e := loadSrc(t, "A -> B\nA => D")
	res, err := e.WhatIf(nodeID(t, e, "A"), WhatIfOptions{ExcludeTemporal: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalAffected != 1 || res.Direct[0].Content != "B" {
		t.Errorf("temporal consequences should be excluded, got %+v", res.Direct)
	}
}

func TestWhatIf_TensionsWithinDescendants(t *testing.T) {
	e := loadSrc(t, "A -> B\nA -> C\nB >< [speed] C\nX >< [other] Y")
	res, err := e.WhatIf(nodeID(t, e, "A"), WhatIfOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tensions) != 1 {
		t.Fatalf("expected only the in-scope tension, got %d", len(res.Tensions))
	}
	if *res.Tensions[0].Axis != "speed" {
		t.Errorf("axis = %v", res.Tensions[0].Axis)
	}
	for _, d := range res.Direct {
		if !d.InTension {
			t.Errorf("%s participates in a tension and must be flagged", d.Content)
		}
	}
}

func TestWhatIf_SummaryBuckets(t *testing.T) {
	e := loadSrc(t, "A -> data loss risk\nA -> faster deploys\nA -> b >< [speed] c")
	res, err := e.WhatIf(nodeID(t, e, "A"), WhatIfOptions{Format: "summary"})
	if err != nil {
		t.Fatal(err)
	}
	foundRisk := false
	for _, r := range res.Risks {
		if r == "data loss risk" {
			foundRisk = true
		}
	}
	if !foundRisk {
		t.Errorf("keyword match should bucket %q as a risk, got %v", "data loss risk", res.Risks)
	}
	for _, b := range res.Benefits {
		if b == "data loss risk" {
			t.Error("risk content must not appear under benefits")
		}
	}
}

func TestWhatIf_SummaryKeyTradeoff(t *testing.T) {
	e := loadSrc(t, "A -> B\nA -> C\nB >< [cost vs speed] C")
	res, err := e.WhatIf(nodeID(t, e, "A"), WhatIfOptions{Format: "summary"})
	if err != nil {
		t.Fatal(err)
	}
	if res.KeyTradeoff != "cost vs speed" {
		t.Errorf("key tradeoff = %q", res.KeyTradeoff)
	}
}

func TestWhatIf_CycleSafe(t *testing.T) {
	e := loadSrc(t, "A -> B\nB -> C\nC -> A")
	res, err := e.WhatIf(nodeID(t, e, "A"), WhatIfOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalAffected != 2 {
		t.Errorf("cycle must terminate with B and C affected, got %d", res.TotalAffected)
	}
}

func TestWhatIf_ShallowerPathRewritesVia(t *testing.T) {
	// C is first reached at depth 2 through B, then directly at depth 1
	// over the temporal edge; depth and via must describe the same path.
	e := loadSrc(t, "a -> b\nb -> c\na => c")
	res, err := e.WhatIf(nodeID(t, e, "a"), WhatIfOptions{})
	if err != nil {
		t.Fatal(err)
	}
	var c *Descendant
	for i := range res.Direct {
		if res.Direct[i].Content == "c" {
			c = &res.Direct[i]
		}
	}
	if c == nil {
		t.Fatalf("c must be direct after the shallower discovery, got direct=%+v indirect=%+v",
			res.Direct, res.Indirect)
	}
	if c.Depth != 1 || c.Via != ir.RelTemporal {
		t.Errorf("c depth/via = %d/%s, want 1/%s", c.Depth, c.Via, ir.RelTemporal)
	}
	for _, d := range res.Indirect {
		if d.Content == "c" {
			t.Error("c must not also appear as indirect")
		}
	}
}

// --- Tensions ---

func TestTensions_GroupByAxis(t *testing.T) {
	e := loadSrc(t, "a >< [cost] b\nc >< [cost] d\ne >< [risk] f")
	res, err := e.Tensions(TensionsOptions{GroupBy: "axis"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 3 {
		t.Errorf("total = %d, want 3", res.Total)
	}
	if len(res.ByAxis["cost"]) != 2 || len(res.ByAxis["risk"]) != 1 {
		t.Errorf("grouping wrong: %+v", res.ByAxis)
	}
	if res.MostFrequentAxis != "cost" {
		t.Errorf("most frequent axis = %q, want cost", res.MostFrequentAxis)
	}
	if len(res.Axes) != 2 || res.Axes[0] != "cost" || res.Axes[1] != "risk" {
		t.Errorf("axes must be distinct, first-seen order: %v", res.Axes)
	}
}

func TestTensions_TieBrokenByFirstSeen(t *testing.T) {
	e := loadSrc(t, "a >< [risk] b\nc >< [cost] d")
	res, err := e.Tensions(TensionsOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.MostFrequentAxis != "risk" {
		t.Errorf("tie must go to the first-seen axis, got %q", res.MostFrequentAxis)
	}
}

func TestTensions_FilterByAxis(t *testing.T) {
	e := loadSrc(t, "a >< [cost] b\nc >< [risk] d\ne >< f")
	res, err := e.Tensions(TensionsOptions{FilterByAxis: []string{"cost"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 {
		t.Errorf("total = %d, want 1", res.Total)
	}
}

func TestTensions_Scope(t *testing.T) {
	e := loadSrc(t, "A -> B\nA -> C\nB >< [inside] C\nX >< [outside] Y")
	res, err := e.Tensions(TensionsOptions{Scope: nodeID(t, e, "A")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || res.Axes[0] != "inside" {
		t.Errorf("scope should keep only the reachable tension, got %+v", res)
	}
}

func TestTensions_UnlabeledGroupsTogether(t *testing.T) {
	e := loadSrc(t, "a >< b\nc >< d")
	res, err := e.Tensions(TensionsOptions{GroupBy: "axis"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ByAxis[unlabeledAxisKey]) != 2 {
		t.Errorf("unlabeled tensions must group under one key: %+v", res.ByAxis)
	}
}

func TestTensions_IncludeContext(t *testing.T) {
	e := loadSrc(t, "parent -> left\nleft >< [axis] right")
	res, err := e.Tensions(TensionsOptions{IncludeContext: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Flat) != 1 || len(res.Flat[0].SourceContext) != 1 || res.Flat[0].SourceContext[0] != "parent" {
		t.Errorf("context = %+v, want the non-tension parent", res.Flat)
	}
}

// --- Blocked ---

const blockedSrc = "!! waiting on vendor [blocked(reason: \"contract\", since: \"2026-08-18\")]\n" +
	"!! flaky tests -> release slips [blocked(reason: \"ci\", since: \"2026-08-25\")]\n" +
	"release slips -> customers wait\n"

func TestBlocked_SortImpactThenDays(t *testing.T) {
	e := loadSrc(t, blockedSrc)
	res, err := e.Blocked(BlockedOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 {
		t.Fatalf("total = %d, want 2", res.Total)
	}
	// "flaky tests" blocks 2 downstream nodes but is newer; impact wins.
	if res.Items[0].Reason != "ci" || res.Items[0].ImpactScore != 2 {
		t.Errorf("first item = %+v, want the impactful blocker", res.Items[0])
	}
	if res.Items[1].ImpactScore != 0 || res.Items[1].DaysBlocked != 10 {
		t.Errorf("second item = %+v", res.Items[1])
	}
}

func TestBlocked_Aggregates(t *testing.T) {
	e := loadSrc(t, blockedSrc)
	res, err := e.Blocked(BlockedOptions{})
	if err != nil {
		t.Fatal(err)
	}
	// 10 days (impact 0, >7 days) and 3 days (impact 2): both high priority.
	if res.HighPriority != 2 {
		t.Errorf("high priority = %d, want 2", res.HighPriority)
	}
	if res.MeanDaysBlocked != 6.5 {
		t.Errorf("mean days = %v, want 6.5", res.MeanDaysBlocked)
	}
	if res.Oldest == nil || res.Oldest.DaysBlocked != 10 {
		t.Errorf("oldest = %+v", res.Oldest)
	}
}

func TestBlocked_SinceFilter(t *testing.T) {
	e := loadSrc(t, blockedSrc)
	res, err := e.Blocked(BlockedOptions{Since: "2026-08-20"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || res.Items[0].Reason != "ci" {
		t.Errorf("since filter should keep only the newer blocker, got %+v", res.Items)
	}
}

func TestBlocked_TransitiveLists(t *testing.T) {
	e := loadSrc(t, blockedSrc)
	res, err := e.Blocked(BlockedOptions{IncludeTransitiveEffect: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items[0].TransitiveEffect) != 2 {
		t.Errorf("effects = %v, want 2 downstream nodes", res.Items[0].TransitiveEffect)
	}
}

func TestBlocked_SummaryFormat(t *testing.T) {
	e := loadSrc(t, blockedSrc)
	full, err := e.Blocked(BlockedOptions{})
	if err != nil {
		t.Fatal(err)
	}
	sum, err := e.Blocked(BlockedOptions{Format: "summary"})
	if err != nil {
		t.Fatal(err)
	}
	if full.Format != "full" || sum.Format != "summary" {
		t.Errorf("formats = %q / %q", full.Format, sum.Format)
	}
	if len(full.Items) != 2 {
		t.Fatalf("full items = %d, want 2", len(full.Items))
	}
	if len(sum.Items) != 0 {
		t.Errorf("summary must drop the per-item list, got %d items", len(sum.Items))
	}
	if sum.Total != full.Total || sum.HighPriority != full.HighPriority ||
		sum.MeanDaysBlocked != full.MeanDaysBlocked {
		t.Errorf("summary aggregates diverge: %+v vs %+v", sum, full)
	}
	if sum.Oldest == nil || sum.Oldest.DaysBlocked != full.Oldest.DaysBlocked {
		t.Errorf("summary oldest = %+v", sum.Oldest)
	}
}

// --- Path ---

func TestPath_ShortestUndirected(t *testing.T) {
	e := loadSrc(t, "A -> B\nB -> C\nA -> D\nD -> C")
	res, err := e.Path(nodeID(t, e, "A"), nodeID(t, e, "C"), PathOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || len(res.Hops) != 2 {
		t.Fatalf("expected a 2-hop path, got %+v", res)
	}
	if res.Hops[1].Content != "C" {
		t.Errorf("path must end at C, got %q", res.Hops[1].Content)
	}
}

func TestPath_AgainstEdgeDirection(t *testing.T) {
	e := loadSrc(t, "B -> A\nB -> C")
	res, err := e.Path(nodeID(t, e, "A"), nodeID(t, e, "C"), PathOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found {
		t.Error("the path graph is undirected; A-B-C must be reachable")
	}
}

func TestPath_NotFound(t *testing.T) {
	e := loadSrc(t, "A -> B\nX -> Y")
	res, err := e.Path(nodeID(t, e, "A"), nodeID(t, e, "X"), PathOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Found {
		t.Error("disconnected components must report not found")
	}
}

func TestPath_RelTypeFilter(t *testing.T) {
	e := loadSrc(t, "A -> B\nA => C\nC -> B")
	res, err := e.Path(nodeID(t, e, "A"), nodeID(t, e, "B"), PathOptions{
		RelTypes: []ir.RelType{ir.RelCauses},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || len(res.Hops) != 1 {
		t.Errorf("causes-only filter should use the direct edge, got %+v", res)
	}
}
