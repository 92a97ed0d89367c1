package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medhansh29/ia-agent/internal/depgraph"
	"github.com/medhansh29/ia-agent/internal/model"
	"github.com/medhansh29/ia-agent/internal/textgen"
)

// GenerateVariables produces raw indicators and decision variables from the
// business description. A fresh workflow gets its project id minted here.
func (e *Engine) GenerateVariables(ctx context.Context, snap model.Snapshot) model.Snapshot {
	if snap.ProjectID == "" {
		snap.ProjectID = uuid.NewString()
	}
	e.logger.Info("generating variables", "project_id", snap.ProjectID)

	ragContext := e.context(ctx, snap.Prompt)

	raw, err := e.gen.GenerateRawIndicators(ctx, snap.Prompt, snap.RawIndicators, ragContext)
	if err != nil {
		recordFatal(&snap, "raw_indicator_generation", err)
		return snap
	}
	snap.RawIndicators = normalizeVariables(raw, model.RoleRawIndicator, snap.ProjectID)

	decisions, err := e.gen.GenerateDecisionVariables(ctx, snap.Prompt, snap.RawIndicators, snap.DecisionVariables, ragContext)
	if err != nil {
		// Raw indicators already generated stay on the snapshot.
		recordFatal(&snap, "decision_variable_generation", err)
		return snap
	}
	snap.DecisionVariables = normalizeVariables(decisions, model.RoleDecisionVariable, snap.ProjectID)

	snap.DependencyGraph = e.buildGraph(&snap)
	return snap
}

// ModifyVariables applies a natural-language modification request to the
// variable definitions, keeping formulas consistent with the new set.
func (e *Engine) ModifyVariables(ctx context.Context, snap model.Snapshot) model.Snapshot {
	if strings.TrimSpace(snap.ModificationPrompt) == "" {
		recordFatal(&snap, "missing_modification_prompt", fmt.Errorf("modification prompt is required"))
		return snap
	}
	e.logger.Info("modifying variables", "project_id", snap.ProjectID)
	snap.ModificationHistory = append(snap.ModificationHistory, snap.ModificationPrompt)

	graph := e.buildGraph(&snap)
	mods, err := e.gen.ModifyVariables(ctx, snap.Prompt, snap.ModificationPrompt, snap.RawIndicators, marshalIndent(graph))
	if err != nil {
		recordFatal(&snap, "variable_modification", err)
		return snap
	}

	applyVariableModifications(&snap, mods)
	snap.ModificationReasoning = mods.Reasoning
	return e.SynchronizeVariables(ctx, snap)
}

// AnalyzeDependencies rebuilds the dependency graph from the snapshot's
// current variables. It mutates nothing else and records no findings.
func (e *Engine) AnalyzeDependencies(ctx context.Context, snap model.Snapshot) model.Snapshot {
	snap.DependencyGraph = e.buildGraph(&snap)
	return snap
}

// SynchronizeVariables re-runs dependency analysis after variable edits and
// records advisory warnings for formulas that resolve no dependencies and
// for raw indicators no formula references.
func (e *Engine) SynchronizeVariables(ctx context.Context, snap model.Snapshot) model.Snapshot {
	snap.DependencyGraph = e.buildGraph(&snap)

	var issues model.Issues
	if broken := snap.DependencyGraph.ImpactAnalysis.BreakingChanges; len(broken) > 0 {
		issues.Addf(model.SeverityWarning, "breaking_changes",
			"Decision variables whose formulas resolve no known dependencies: %s.", strings.Join(broken, ", "))
	}
	if orphans := snap.DependencyGraph.ImpactAnalysis.OrphanedVariables; len(orphans) > 0 {
		issues.Addf(model.SeverityWarning, "orphaned_indicators",
			"Raw indicators not referenced by any decision variable: %s.", strings.Join(orphans, ", "))
	}
	snap.RecordIssues(issues)
	return snap
}

// FinalizeVariables persists the current variable definitions.
func (e *Engine) FinalizeVariables(ctx context.Context, snap model.Snapshot) model.Snapshot {
	if e.store == nil {
		recordFatal(&snap, "store_unavailable", fmt.Errorf("no store configured"))
		return snap
	}
	if err := e.store.UpsertVariables(ctx, model.RoleRawIndicator, snap.RawIndicators); err != nil {
		recordFatal(&snap, "finalize_raw_indicators", err)
		return snap
	}
	if err := e.store.UpsertVariables(ctx, model.RoleDecisionVariable, snap.DecisionVariables); err != nil {
		recordFatal(&snap, "finalize_decision_variables", err)
		return snap
	}
	e.logger.Info("finalized variables", "project_id", snap.ProjectID,
		"raw_indicators", len(snap.RawIndicators), "decision_variables", len(snap.DecisionVariables))
	return snap
}

// buildGraph recomputes the dependency graph from the snapshot's current
// variables. Graphs are never patched incrementally.
func (e *Engine) buildGraph(snap *model.Snapshot) *depgraph.Graph {
	decisions := make([]depgraph.Decision, len(snap.DecisionVariables))
	for i, dv := range snap.DecisionVariables {
		decisions[i] = depgraph.Decision{VarName: dv.VarName, Formula: dv.Formula}
	}
	return depgraph.Build(model.VarNames(snap.RawIndicators), decisions)
}

func normalizeVariables(vars []model.Variable, role model.Role, projectID string) []model.Variable {
	taken := make(map[string]bool, len(vars))
	out := make([]model.Variable, 0, len(vars))
	for _, v := range vars {
		v.ApplyDefaults(role, projectID)
		v.VarName = model.UniqueVarName(v.VarName, taken)
		taken[v.VarName] = true
		out = append(out, v)
	}
	return out
}

func applyVariableModifications(snap *model.Snapshot, mods *textgen.VariableModifications) {
	removed := make(map[string]bool, len(mods.RemovedVarNames))
	for _, name := range mods.RemovedVarNames {
		removed[name] = true
	}
	snap.RawIndicators = dropVariables(snap.RawIndicators, removed)
	snap.DecisionVariables = dropVariables(snap.DecisionVariables, removed)

	if len(mods.UpdatedFormulas) > 0 {
		for i := range snap.DecisionVariables {
			if f, ok := mods.UpdatedFormulas[snap.DecisionVariables[i].VarName]; ok {
				snap.DecisionVariables[i].Formula = f
			}
		}
	}

	if len(mods.NewVariables) > 0 {
		taken := make(map[string]bool)
		for _, v := range snap.RawIndicators {
			taken[v.VarName] = true
		}
		for _, v := range snap.DecisionVariables {
			taken[v.VarName] = true
		}
		fallback := determineModificationType(snap.ModificationPrompt)
		for _, nv := range mods.NewVariables {
			role := fallback
			if strings.TrimSpace(nv.Formula) != "" {
				role = model.RoleDecisionVariable
			}
			nv.ApplyDefaults(role, snap.ProjectID)
			nv.VarName = model.UniqueVarName(nv.VarName, taken)
			taken[nv.VarName] = true
			if role == model.RoleDecisionVariable {
				snap.DecisionVariables = append(snap.DecisionVariables, nv)
			} else {
				snap.RawIndicators = append(snap.RawIndicators, nv)
			}
		}
	}
}

func dropVariables(vars []model.Variable, removed map[string]bool) []model.Variable {
	if len(removed) == 0 {
		return vars
	}
	out := vars[:0:0]
	for _, v := range vars {
		if !removed[v.VarName] {
			out = append(out, v)
		}
	}
	return out
}
