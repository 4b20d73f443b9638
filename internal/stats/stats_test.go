package stats

import (
	"testing"
	"time"

	"strand/loom/internal/ir"
	"strand/loom/internal/linker"
	"strand/loom/internal/parser"
)

func compile(t *testing.T, src string) *ir.Document {
	t.Helper()
	doc, err := parser.ParseAt(src, "test.strand", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	linker.Link(doc)
	return doc
}

func TestStats_EmptyDocument(t *testing.T) {
	rep := Compute(compile(t, ""), DefaultOptions())
	if rep.TotalNodes != 0 || rep.TotalEdges != 0 || rep.NumComponents != 0 {
		t.Errorf("empty document should report zeros, got %+v", rep)
	}
}

func TestStats_Components(t *testing.T) {
	rep := Compute(compile(t, "a -> b\nb -> c\nd -> e\n"), DefaultOptions())
	if rep.NumComponents != 2 {
		t.Errorf("expected 2 components, got %d", rep.NumComponents)
	}
	if rep.LargestComponent != 3 || rep.SmallestComponent != 2 {
		t.Errorf("component sizes = %d/%d, want 3/2",
			rep.LargestComponent, rep.SmallestComponent)
	}
}

func TestStats_CountsByType(t *testing.T) {
	rep := Compute(compile(t, "? q\n|| x\n.. t\na -> b\n"), DefaultOptions())
	if rep.NodesByType["question"] != 1 || rep.NodesByType["alternative"] != 1 {
		t.Errorf("nodes_by_type = %v", rep.NodesByType)
	}
	if rep.NodesByType["statement"] != 2 {
		t.Errorf("expected 2 statements, got %d", rep.NodesByType["statement"])
	}
	if rep.EdgesByType["causes"] != 1 || rep.EdgesByType["alternative"] != 1 {
		t.Errorf("edges_by_type = %v", rep.EdgesByType)
	}
}

func TestStats_DegreeHistogram(t *testing.T) {
	rep := Compute(compile(t, "a -> b\nlonely\n"), DefaultOptions())
	if rep.DegreeHistogram[0].Count != 1 {
		t.Errorf("expected 1 orphan-degree node, got %d", rep.DegreeHistogram[0].Count)
	}
	if rep.DegreeHistogram[1].Count != 2 {
		t.Errorf("expected 2 degree-1 nodes, got %d", rep.DegreeHistogram[1].Count)
	}
}

func TestStats_Hubs(t *testing.T) {
	rep := Compute(compile(t, "a -> b\na -> c\na -> d\na -> e\n"), DefaultOptions())
	if len(rep.Hubs) != 1 {
		t.Fatalf("expected 1 hub, got %+v", rep.Hubs)
	}
	h := rep.Hubs[0]
	if h.Content != "a" || h.Degree != 4 || h.OutDegree != 4 || h.InDegree != 0 {
		t.Errorf("hub = %+v", h)
	}
}

func TestCutpoints_ChainMiddle(t *testing.T) {
	rep := Compute(compile(t, "a -> b\nb -> c\n"), DefaultOptions())
	if len(rep.CutVertices) != 1 || rep.CutVertices[0].Content != "b" {
		t.Errorf("cut vertices = %+v, want just b", rep.CutVertices)
	}
	if len(rep.Bridges) != 2 {
		t.Errorf("both chain edges are bridges, got %+v", rep.Bridges)
	}
}

func TestCutpoints_CycleHasNone(t *testing.T) {
	rep := Compute(compile(t, "a -> b\nb -> c\nc -> a\n"), DefaultOptions())
	if len(rep.CutVertices) != 0 {
		t.Errorf("cycle has no cut vertices, got %+v", rep.CutVertices)
	}
	if len(rep.Bridges) != 0 {
		t.Errorf("cycle has no bridges, got %+v", rep.Bridges)
	}
}

func TestNearDuplicates_Found(t *testing.T) {
	doc := compile(t, "the cache is stale\ncache is stale\ncompletely unrelated words\n")
	rep := Compute(doc, Options{MinSimilarity: 0.5, TopN: 10})
	if len(rep.NearDuplicates) != 1 {
		t.Fatalf("expected 1 near-duplicate pair, got %+v", rep.NearDuplicates)
	}
	d := rep.NearDuplicates[0]
	if d.Similarity < 0.5 || d.Similarity > 1.0 {
		t.Errorf("similarity out of range: %v", d.Similarity)
	}
}

func TestNearDuplicates_IdenticalTextDifferentType(t *testing.T) {
	// Same wording under different markers hashes to different nodes; the
	// duplicate scan is what surfaces the overlap.
	doc := compile(t, "|| same words\n.. same words\n")
	rep := Compute(doc, DefaultOptions())
	if len(rep.NearDuplicates) != 1 || rep.NearDuplicates[0].Similarity < 0.999 {
		t.Errorf("near duplicates = %+v", rep.NearDuplicates)
	}
}

func TestNearDuplicates_SkipsEmptyContent(t *testing.T) {
	doc := compile(t, "top one\n  child a\n  child b\ntop two\n  child c\n  child d\n")
	rep := Compute(doc, Options{MinSimilarity: 0.01, TopN: 100})
	for _, d := range rep.NearDuplicates {
		if d.AContent == "" || d.BContent == "" {
			t.Errorf("empty-content node leaked into duplicates: %+v", d)
		}
	}
}

func TestTrigramCosine_Bounds(t *testing.T) {
	a := trigramProfile("shared words here")
	if got := trigramCosine(a, a); got < 0.999 {
		t.Errorf("self similarity = %v", got)
	}
	b := trigramProfile("zq")
	if got := trigramCosine(a, b); got > 0.3 {
		t.Errorf("disjoint similarity = %v", got)
	}
	if got := trigramCosine(a, nil); got != 0 {
		t.Errorf("nil profile similarity = %v", got)
	}
}
