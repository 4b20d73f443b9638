package viz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strand/loom/internal/ir"
	"strand/loom/internal/linker"
	"strand/loom/internal/parser"
)

func compileSrc(t *testing.T, src string) *ir.Document {
	t.Helper()
	doc, err := parser.ParseAt(src, "test.strand", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	linker.Link(doc)
	return doc
}

func TestProject_CountsPreserved(t *testing.T) {
	doc := compileSrc(t, "A -> B\n? pick\n|| X [decided(rationale: \"r\", on: \"2026-08-01\")]\n")
	g, err := Project(doc)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, len(doc.Nodes))
	assert.Len(t, g.Edges, len(doc.Relationships))
}

func TestProject_CausalRename(t *testing.T) {
	doc := compileSrc(t, "A -> B\nA => C\n")
	g, err := Project(doc)
	require.NoError(t, err)
	types := make(map[string]int)
	for _, e := range g.Edges {
		types[e.Type]++
	}
	assert.Equal(t, 1, types["causal"], "causes renders as causal")
	assert.Equal(t, 1, types["temporal"])
	assert.Zero(t, types["causes"])
}

func TestProject_StateJoins(t *testing.T) {
	doc := compileSrc(t, "|| use postgres [decided(rationale: \"boring\", on: \"2026-08-01\")]\n")
	g, err := Project(doc)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	require.Len(t, g.Nodes[0].States, 1)
	assert.Equal(t, "decided", g.Nodes[0].States[0].Type)
	assert.Equal(t, "boring", g.Nodes[0].States[0].Fields["rationale"])
}

func TestProject_UnattachedStateSkipped(t *testing.T) {
	doc := compileSrc(t, "only node\n[exploring]\n")
	g, err := Project(doc)
	require.NoError(t, err)
	for _, n := range g.Nodes {
		assert.Empty(t, n.States)
	}
}

func TestProject_TensionAxisAsLabel(t *testing.T) {
	doc := compileSrc(t, "speed >< [cost] quality\n")
	g, err := Project(doc)
	require.NoError(t, err)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "tension", g.Edges[0].Type)
	assert.Equal(t, "cost", g.Edges[0].Label)
}

func TestProject_MappingIsTotal(t *testing.T) {
	for _, nt := range ir.NodeTypes {
		assert.Contains(t, nodeVisual, nt)
	}
	for _, rt := range ir.RelTypes {
		assert.Contains(t, edgeVisual, rt)
	}
}

func TestProject_UnknownTypesDefault(t *testing.T) {
	assert.Equal(t, "thought", NodeVisualType(ir.NodeType("mystery")))
	assert.Equal(t, "causal", EdgeVisualType(ir.RelType("mystery")))
}
