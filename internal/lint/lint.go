// Package lint checks graph-level invariants over a fully-linked IR
// document. Rules run independently; a panicking rule is recovered and
// logged so one bad rule cannot blank out the rest of the report.
package lint

import (
	"sort"

	"go.uber.org/zap"

	"strand/loom/internal/ir"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one linter finding. Line is 0 when the finding has no
// single source location.
type Diagnostic struct {
	Severity   Severity `json:"severity"`
	RuleCode   string   `json:"rule_code"`
	Message    string   `json:"message"`
	Line       int      `json:"line,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Config holds linter thresholds and exemptions.
type Config struct {
	MaxNestingDepth int
	MaxCausalChain  int
	// OrphanExempt lists node types the orphan rule ignores. Actions and
	// completions are terminal by convention; blocks are containers.
	OrphanExempt []ir.NodeType
}

// DefaultConfig returns the thresholds the CLI ships with.
func DefaultConfig() *Config {
	return &Config{
		MaxNestingDepth: 5,
		MaxCausalChain:  10,
		OrphanExempt:    []ir.NodeType{ir.NodeAction, ir.NodeCompletion, ir.NodeBlock},
	}
}

// Report is the full linter output, sorted errors-before-warnings, then by
// ascending line (diagnostics without a location last), then rule code.
type Report struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	Errors      int          `json:"errors"`
	Warnings    int          `json:"warnings"`
}

// HasErrors reports whether any diagnostic is an error.
func (r *Report) HasErrors() bool { return r.Errors > 0 }

type rule struct {
	name string
	run  func(doc *ir.Document, cfg *Config) []Diagnostic
}

func allRules() []rule {
	return []rule{
		{"unlabeled-tension", checkUnlabeledTension},
		{"missing-state-fields", checkMissingStateFields},
		{"malformed-construct", checkMalformedConstruct},
		{"orphan-node", checkOrphanNodes},
		{"causal-cycle", checkCausalCycles},
		{"unresolved-alternatives", checkUnresolvedAlternatives},
		{"dangling-relationship", checkDanglingRelationships},
		{"missing-recommended-fields", checkMissingRecommendedFields},
		{"deep-nesting", checkDeepNesting},
		{"long-causal-chain", checkLongCausalChains},
	}
}

// Run executes every rule and returns the sorted report.
func Run(doc *ir.Document, cfg *Config, logger *zap.Logger) *Report {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var diags []Diagnostic
	for _, r := range allRules() {
		diags = append(diags, runRule(r, doc, cfg, logger)...)
	}

	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Severity != diags[j].Severity {
			return diags[i].Severity == SeverityError
		}
		li, lj := diags[i].Line, diags[j].Line
		if li != lj {
			if li == 0 {
				return false
			}
			if lj == 0 {
				return true
			}
			return li < lj
		}
		return diags[i].RuleCode < diags[j].RuleCode
	})

	rep := &Report{Diagnostics: diags}
	for _, d := range diags {
		if d.Severity == SeverityError {
			rep.Errors++
		} else {
			rep.Warnings++
		}
	}
	return rep
}

// runRule isolates one rule so a panic is logged and skipped.
func runRule(r rule, doc *ir.Document, cfg *Config, logger *zap.Logger) (diags []Diagnostic) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("lint rule panicked, skipping",
				zap.String("rule", r.name),
				zap.Any("panic", rec))
			diags = nil
		}
	}()
	return r.run(doc, cfg)
}

// Advertise stamps the document's invariants block from the lint report.
// The flags are declarative metadata for consumers; the report itself is
// the enforcement mechanism.
func Advertise(doc *ir.Document, rep *Report) {
	inv := ir.Invariants{
		CausalAcyclic:      true,
		AllNodesReachable:  true,
		TensionAxesLabeled: true,
		StateFieldsPresent: true,
	}
	for _, d := range rep.Diagnostics {
		switch d.RuleCode {
		case "causal-cycle":
			inv.CausalAcyclic = false
		case "orphan-node":
			inv.AllNodesReachable = false
		case "unlabeled-tension":
			inv.TensionAxesLabeled = false
		case "missing-state-fields":
			inv.StateFieldsPresent = false
		}
	}
	doc.Invariants = inv
}
