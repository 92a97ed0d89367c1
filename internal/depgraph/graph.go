// Package depgraph builds the dependency graph between decision-variable
// formulas and raw indicators, classifies the impact of each edge, and
// detects consistency problems (breaking changes, orphans, fragile single
// points of failure).
package depgraph

// Decision is the projection of a decision variable the builder needs.
type Decision struct {
	VarName string `json:"var_name"`
	Formula string `json:"formula"`
}

// DependencyInfo records which raw indicators one decision variable's
// formula resolves to, and how load-bearing those edges are.
type DependencyInfo struct {
	VariableName string   `json:"variable_name"`
	DependsOn    []string `json:"depends_on"`
	Formula      string   `json:"formula"`
	ImpactLevel  Level    `json:"impact_level"`
}

// ImpactAnalysis partitions the findings of a consistency pass.
type ImpactAnalysis struct {
	// BreakingChanges lists decision variables whose formula is non-empty
	// but resolves zero dependencies.
	BreakingChanges []string `json:"breaking_changes"`
	// EnablingChanges lists heuristically suggested new decision-variable
	// names. Suggestions only; never auto-materialized.
	EnablingChanges []string `json:"enabling_changes"`
	// RequiredUpdates lists decision variables resting on exactly one
	// critical-impact dependency.
	RequiredUpdates []string `json:"required_updates"`
	// OrphanedVariables lists raw indicators referenced by no decision
	// variable, in input order.
	OrphanedVariables []string `json:"orphaned_variables"`
}

// Graph is a pure snapshot of the dependency structure at the moment it was
// computed. It is always recomputed from scratch; after any modification it
// must be regenerated before being trusted again.
type Graph struct {
	RawIndicators     []string         `json:"raw_indicators"`
	DecisionVariables []DependencyInfo `json:"decision_variables"`
	ImpactAnalysis    ImpactAnalysis   `json:"impact_analysis"`
}
