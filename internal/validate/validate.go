// Package validate checks a deserialized IR document before downstream use:
// struct tags via go-playground/validator plus structural rules the tags
// cannot express.
package validate

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"strand/loom/internal/ir"
)

var structValidate = validator.New()

// Report is the outcome of validating one document.
type Report struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Document validates an IR document. The full error list is always
// collected; Valid is false if any check failed.
func Document(doc *ir.Document) Report {
	var errs []string

	if err := structValidate.Struct(doc); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				errs = append(errs, fmt.Sprintf("field %s fails %q", ve.Namespace(), ve.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if doc.Version != ir.Version {
		errs = append(errs, fmt.Sprintf("unsupported version %q, want %q", doc.Version, ir.Version))
	}

	errs = append(errs, checkEnums(doc)...)
	errs = append(errs, checkEndpoints(doc)...)
	errs = append(errs, checkDuplicateIDs(doc)...)

	return Report{Valid: len(errs) == 0, Errors: errs}
}

func checkEnums(doc *ir.Document) []string {
	nodeTypes := make(map[ir.NodeType]bool, len(ir.NodeTypes))
	for _, t := range ir.NodeTypes {
		nodeTypes[t] = true
	}
	relTypes := make(map[ir.RelType]bool, len(ir.RelTypes))
	for _, t := range ir.RelTypes {
		relTypes[t] = true
	}
	stateTypes := make(map[ir.StateType]bool, len(ir.StateTypes))
	for _, t := range ir.StateTypes {
		stateTypes[t] = true
	}

	var errs []string
	for _, n := range doc.Nodes {
		if !nodeTypes[n.Type] {
			errs = append(errs, fmt.Sprintf("node %s has unknown type %q", n.ID, n.Type))
		}
	}
	for _, r := range doc.Relationships {
		if !relTypes[r.Type] {
			errs = append(errs, fmt.Sprintf("relationship %s has unknown type %q", r.ID, r.Type))
		}
		if r.Type == ir.RelTension && r.AxisLabel == nil {
			continue // linter territory, not a schema violation
		}
		if r.Type != ir.RelTension && r.AxisLabel != nil {
			errs = append(errs, fmt.Sprintf("relationship %s carries an axis label without being a tension", r.ID))
		}
	}
	for _, s := range doc.States {
		if !stateTypes[s.Type] {
			errs = append(errs, fmt.Sprintf("state at %s:%d has unknown type %q",
				s.Provenance.File, s.Provenance.Line, s.Type))
		}
	}
	return errs
}

// checkEndpoints verifies every relationship endpoint and attached state
// references a node that exists.
func checkEndpoints(doc *ir.Document) []string {
	ids := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		ids[n.ID] = true
	}

	var errs []string
	for _, r := range doc.Relationships {
		if !ids[r.Source] {
			errs = append(errs, fmt.Sprintf("relationship %s source %s not in node collection", r.ID, r.Source))
		}
		if !ids[r.Target] {
			errs = append(errs, fmt.Sprintf("relationship %s target %s not in node collection", r.ID, r.Target))
		}
	}
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if !ids[c] {
				errs = append(errs, fmt.Sprintf("node %s child %s not in node collection", n.ID, c))
			}
		}
	}
	for _, s := range doc.States {
		if s.NodeID != "" && !ids[s.NodeID] {
			errs = append(errs, fmt.Sprintf("state at %s:%d attached to missing node %s",
				s.Provenance.File, s.Provenance.Line, s.NodeID))
		}
	}
	return errs
}

func checkDuplicateIDs(doc *ir.Document) []string {
	var errs []string
	nodeSeen := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if nodeSeen[n.ID] {
			errs = append(errs, fmt.Sprintf("duplicate node id %s", n.ID))
		}
		nodeSeen[n.ID] = true
	}
	relSeen := make(map[string]bool, len(doc.Relationships))
	for _, r := range doc.Relationships {
		if relSeen[r.ID] {
			errs = append(errs, fmt.Sprintf("duplicate relationship id %s", r.ID))
		}
		relSeen[r.ID] = true
	}
	return errs
}
