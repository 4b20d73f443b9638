// Package viz projects an IR document into the flat node/edge shape the
// visualization layer consumes. The projection is total and lossless; a
// count check runs on every call.
package viz

import (
	"fmt"

	"strand/loom/internal/ir"
)

// GraphNode is the visual rendition of an IR node.
type GraphNode struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	Type      string           `json:"type"`
	Modifiers []ir.Modifier    `json:"modifiers,omitempty"`
	Children  []string         `json:"children,omitempty"`
	States    []GraphNodeState `json:"states,omitempty"`
}

// GraphNodeState is a state annotation joined onto its node.
type GraphNodeState struct {
	Type   string            `json:"type"`
	Fields map[string]string `json:"fields,omitempty"`
}

// GraphEdge is the visual rendition of an IR relationship.
type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Label  string `json:"label,omitempty"`
}

// GraphData is the complete visualization payload.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// nodeVisual maps every IR node type to its visual type. The mapping is
// identity today but stays explicit so the 1:1 contract is checkable.
var nodeVisual = map[ir.NodeType]string{
	ir.NodeStatement:   "statement",
	ir.NodeQuestion:    "question",
	ir.NodeThought:     "thought",
	ir.NodeAction:      "action",
	ir.NodeBlock:       "block",
	ir.NodeDecision:    "decision",
	ir.NodeBlocker:     "blocker",
	ir.NodeInsight:     "insight",
	ir.NodeCompletion:  "completion",
	ir.NodeAlternative: "alternative",
	ir.NodeExploring:   "exploring",
	ir.NodeParking:     "parking",
}

// edgeVisual maps every IR relationship type to its visual type. The one
// rename is causes -> causal; everything else passes through.
var edgeVisual = map[ir.RelType]string{
	ir.RelCauses:            "causal",
	ir.RelTemporal:          "temporal",
	ir.RelDerivesFrom:       "derives_from",
	ir.RelBidirectional:     "bidirectional",
	ir.RelTension:           "tension",
	ir.RelEquivalent:        "equivalent",
	ir.RelDifferent:         "different",
	ir.RelAlternative:       "alternative",
	ir.RelAlternativeWorse:  "alternative_worse",
	ir.RelAlternativeBetter: "alternative_better",
}

// Defaults for type strings the tables do not know. They exist only here:
// the IR itself never downgrades an unknown type.
const (
	defaultNodeVisual = "thought"
	defaultEdgeVisual = "causal"
)

// NodeVisualType resolves an IR node type to its visual type.
func NodeVisualType(t ir.NodeType) string {
	if v, ok := nodeVisual[t]; ok {
		return v
	}
	return defaultNodeVisual
}

// EdgeVisualType resolves an IR relationship type to its visual type.
func EdgeVisualType(t ir.RelType) string {
	if v, ok := edgeVisual[t]; ok {
		return v
	}
	return defaultEdgeVisual
}

// Project maps a document to GraphData. Every node becomes one visual node,
// every relationship one visual edge; states attach to their resolved node.
// Returns an error if the projected counts disagree with the source counts.
func Project(doc *ir.Document) (*GraphData, error) {
	statesByNode := make(map[string][]*ir.State, len(doc.States))
	attachedBefore := 0
	for _, s := range doc.States {
		if s.NodeID == "" {
			continue
		}
		attachedBefore++
		statesByNode[s.NodeID] = append(statesByNode[s.NodeID], s)
	}

	g := &GraphData{
		Nodes: make([]GraphNode, 0, len(doc.Nodes)),
		Edges: make([]GraphEdge, 0, len(doc.Relationships)),
	}

	joined := 0
	for _, n := range doc.Nodes {
		gn := GraphNode{
			ID:        n.ID,
			Label:     n.Content,
			Type:      NodeVisualType(n.Type),
			Modifiers: n.Modifiers,
			Children:  n.Children,
		}
		for _, s := range statesByNode[n.ID] {
			gn.States = append(gn.States, GraphNodeState{Type: string(s.Type), Fields: s.Fields})
			joined++
		}
		g.Nodes = append(g.Nodes, gn)
	}

	for _, r := range doc.Relationships {
		ge := GraphEdge{
			ID:     r.ID,
			Source: r.Source,
			Target: r.Target,
			Type:   EdgeVisualType(r.Type),
		}
		if r.AxisLabel != nil {
			ge.Label = *r.AxisLabel
		}
		g.Edges = append(g.Edges, ge)
	}

	if err := verifyCounts(doc, g, attachedBefore, joined); err != nil {
		return nil, err
	}
	return g, nil
}

// verifyCounts enforces the lossless contract: node, edge, and attached-state
// counts must survive projection unchanged.
func verifyCounts(doc *ir.Document, g *GraphData, attachedBefore, joined int) error {
	if len(g.Nodes) != len(doc.Nodes) {
		return fmt.Errorf("projection dropped nodes: %d -> %d", len(doc.Nodes), len(g.Nodes))
	}
	if len(g.Edges) != len(doc.Relationships) {
		return fmt.Errorf("projection dropped edges: %d -> %d", len(doc.Relationships), len(g.Edges))
	}
	if joined != attachedBefore {
		return fmt.Errorf("projection dropped states: %d attached, %d joined", attachedBefore, joined)
	}
	return nil
}
