// Package linker resolves the cross-references the grammar cannot express
// locally: state-to-node attachment, question-to-alternative relationships,
// and hierarchical children arrays. Three deterministic passes, run in
// order, over the flat IR collections.
package linker

import "strand/loom/internal/ir"

// Link runs all passes in place. After Link returns the document is
// immutable by convention.
func Link(doc *ir.Document) {
	attachStates(doc)
	linkAlternatives(doc)
	populateChildren(doc)
}

// attachStates binds each state to the first node whose source line is at or
// past the state marker's line. Same-line attachment is supported. A state
// with no following node stays unattached and is dropped by queries that
// index on node_id.
func attachStates(doc *ir.Document) {
	for _, st := range doc.States {
		for _, n := range doc.Nodes {
			if n.Provenance.Line >= st.Provenance.Line {
				st.NodeID = n.ID
				break
			}
		}
	}
}

// linkAlternatives scans forward from each question to the next question
// (or end of document), collecting alternative nodes in between and emitting
// an alternative relationship from the question to each. The relationship's
// provenance comes from the alternative, not the question.
func linkAlternatives(doc *ir.Document) {
	seen := make(map[string]bool, len(doc.Relationships))
	for _, r := range doc.Relationships {
		seen[r.ID] = true
	}
	for i, q := range doc.Nodes {
		if q.Type != ir.NodeQuestion {
			continue
		}
		for _, alt := range doc.Nodes[i+1:] {
			if alt.Type == ir.NodeQuestion {
				break
			}
			if alt.Type != ir.NodeAlternative {
				continue
			}
			id := ir.RelationshipID(ir.RelAlternative, q.ID, alt.ID, nil)
			if seen[id] {
				continue
			}
			seen[id] = true
			doc.Relationships = append(doc.Relationships, &ir.Relationship{
				ID:         id,
				Type:       ir.RelAlternative,
				Source:     q.ID,
				Target:     alt.ID,
				AxisLabel:  nil,
				Provenance: alt.Provenance,
			})
		}
	}
}

// populateChildren fills hierarchical children arrays: every question gets
// the targets of its alternative relationships in order, and every block's
// direct non-block children are hoisted onto the flat-list predecessor of
// the block's first such child. The hoist is what turns "alternative
// followed by an indented list of implications" into the alternative owning
// those implications, without dedicated syntax.
func populateChildren(doc *ir.Document) {
	byID := make(map[string]*ir.Node, len(doc.Nodes))
	index := make(map[string]int, len(doc.Nodes))
	for i, n := range doc.Nodes {
		byID[n.ID] = n
		index[n.ID] = i
	}

	for _, r := range doc.Relationships {
		if r.Type != ir.RelAlternative {
			continue
		}
		q, ok := byID[r.Source]
		if !ok || q.Type != ir.NodeQuestion {
			continue
		}
		q.Children = append(q.Children, r.Target)
	}

	for _, blk := range doc.Nodes {
		if blk.Type != ir.NodeBlock {
			continue
		}
		var hoist []string
		var first *ir.Node
		for _, cid := range blk.Children {
			child, ok := byID[cid]
			if !ok || child.Type == ir.NodeBlock {
				continue
			}
			if first == nil {
				first = child
			}
			hoist = append(hoist, cid)
		}
		if first == nil {
			continue
		}
		idx := index[first.ID]
		if idx == 0 {
			continue
		}
		pred := doc.Nodes[idx-1]
		if pred.Type == ir.NodeBlock {
			continue
		}
		pred.Children = append(pred.Children, hoist...)
	}
}
