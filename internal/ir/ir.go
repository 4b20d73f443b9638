// Package ir defines the typed graph produced by compiling strand notation:
// nodes, typed relationships, and state annotations, all content-addressed.
package ir

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Version is the IR document schema version.
const Version = "1.0"

// NodeType classifies a unit of thought.
type NodeType string

const (
	NodeStatement   NodeType = "statement"
	NodeQuestion    NodeType = "question"
	NodeThought     NodeType = "thought"
	NodeAction      NodeType = "action"
	NodeBlock       NodeType = "block"
	NodeDecision    NodeType = "decision"
	NodeBlocker     NodeType = "blocker"
	NodeInsight     NodeType = "insight"
	NodeCompletion  NodeType = "completion"
	NodeAlternative NodeType = "alternative"
	NodeExploring   NodeType = "exploring"
	NodeParking     NodeType = "parking"
)

// RelType classifies a directed edge between two nodes.
type RelType string

const (
	RelCauses            RelType = "causes"
	RelTemporal          RelType = "temporal"
	RelDerivesFrom       RelType = "derives_from"
	RelBidirectional     RelType = "bidirectional"
	RelTension           RelType = "tension"
	RelEquivalent        RelType = "equivalent"
	RelDifferent         RelType = "different"
	RelAlternative       RelType = "alternative"
	RelAlternativeWorse  RelType = "alternative_worse"
	RelAlternativeBetter RelType = "alternative_better"
)

// StateType classifies an out-of-band annotation.
type StateType string

const (
	StateDecided   StateType = "decided"
	StateExploring StateType = "exploring"
	StateBlocked   StateType = "blocked"
	StateParking   StateType = "parking"
)

// Modifier is an emphasis prefix carried by a node.
type Modifier string

const (
	ModUrgent         Modifier = "urgent"
	ModStrongPositive Modifier = "strong_positive"
	ModHighConfidence Modifier = "high_confidence"
	ModLowConfidence  Modifier = "low_confidence"
)

// NodeTypes lists every node type the schema knows about.
var NodeTypes = []NodeType{
	NodeStatement, NodeQuestion, NodeThought, NodeAction, NodeBlock,
	NodeDecision, NodeBlocker, NodeInsight, NodeCompletion,
	NodeAlternative, NodeExploring, NodeParking,
}

// RelTypes lists every relationship type the schema knows about.
var RelTypes = []RelType{
	RelCauses, RelTemporal, RelDerivesFrom, RelBidirectional, RelTension,
	RelEquivalent, RelDifferent, RelAlternative, RelAlternativeWorse,
	RelAlternativeBetter,
}

// StateTypes lists every state type the schema knows about.
var StateTypes = []StateType{StateDecided, StateExploring, StateBlocked, StateParking}

// Provenance records where an IR element came from. Line is the 1-indexed
// line in the original source, before indentation preprocessing.
type Provenance struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Timestamp string `json:"timestamp"`
}

// Node is a unit of thought. Immutable once linking completes.
type Node struct {
	ID         string     `json:"id" validate:"required"`
	Type       NodeType   `json:"type" validate:"required"`
	Content    string     `json:"content"`
	Provenance Provenance `json:"provenance"`
	Children   []string   `json:"children"`
	Modifiers  []Modifier `json:"modifiers,omitempty"`
}

// Relationship is a directed, typed edge between two node ids.
// AxisLabel is non-nil only for tension edges; the parser accepts a missing
// axis and the linter rejects it.
type Relationship struct {
	ID         string     `json:"id" validate:"required"`
	Type       RelType    `json:"type" validate:"required"`
	Source     string     `json:"source" validate:"required"`
	Target     string     `json:"target" validate:"required"`
	AxisLabel  *string    `json:"axis_label"`
	Provenance Provenance `json:"provenance"`
}

// State is an annotation attached to exactly one node. NodeID is empty until
// the linker resolves it; a state with no following node stays unattached.
type State struct {
	Type       StateType         `json:"type" validate:"required"`
	Fields     map[string]string `json:"fields"`
	NodeID     string            `json:"node_id"`
	Provenance Provenance        `json:"provenance"`
}

// RequiredStateFields maps each state type to the field keys it must carry.
var RequiredStateFields = map[StateType][]string{
	StateDecided:   {"rationale", "on"},
	StateBlocked:   {"reason", "since"},
	StateParking:   {"why", "until"},
	StateExploring: {},
}

// Invariants advertises graph-level properties to consumers. The linter is
// the enforcement mechanism; these flags are declarative metadata.
type Invariants struct {
	CausalAcyclic      bool `json:"causal_acyclic"`
	AllNodesReachable  bool `json:"all_nodes_reachable"`
	TensionAxesLabeled bool `json:"tension_axes_labeled"`
	StateFieldsPresent bool `json:"state_fields_present"`
}

// Document is the root IR value passed between pipeline stages.
type Document struct {
	Version       string          `json:"version" validate:"required"`
	Nodes         []*Node         `json:"nodes"`
	Relationships []*Relationship `json:"relationships"`
	States        []*State        `json:"states"`
	Invariants    Invariants      `json:"invariants"`
}

// hashSep separates hash input fields so ("ab","c") and ("a","bc") differ.
const hashSep = "\x1f"

func contentHash(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, hashSep)))
	return hex.EncodeToString(sum[:])[:16]
}

// NodeID derives a node's content-addressed identity. Identical
// (type, content, modifiers) triples always collapse to the same id;
// provenance is deliberately excluded.
func NodeID(typ NodeType, content string, mods []Modifier) string {
	parts := make([]string, 0, 2+len(mods))
	parts = append(parts, string(typ), content)
	for _, m := range mods {
		parts = append(parts, string(m))
	}
	return contentHash(parts...)
}

// RelationshipID derives an edge's identity from its defining fields.
// A nil axis and an empty axis hash identically; the linter keeps the
// distinction where it matters.
func RelationshipID(typ RelType, source, target string, axis *string) string {
	a := ""
	if axis != nil {
		a = *axis
	}
	return contentHash(string(typ), source, target, a)
}

// BlockID derives a block node's identity from its ordered direct-child ids
// plus its modifiers.
func BlockID(childIDs []string, mods []Modifier) string {
	parts := make([]string, 0, 1+len(childIDs)+len(mods))
	parts = append(parts, string(NodeBlock))
	parts = append(parts, childIDs...)
	for _, m := range mods {
		parts = append(parts, string(m))
	}
	return contentHash(parts...)
}
