package depgraph

import "github.com/medhansh29/ia-agent/internal/formula"

// Build computes a fresh graph from the current variable definitions. Output
// order follows input order for both raw indicators and decision variables,
// so identical inputs always produce an identical graph.
func Build(rawIndicators []string, decisions []Decision) *Graph {
	g := &Graph{
		RawIndicators:     append([]string(nil), rawIndicators...),
		DecisionVariables: make([]DependencyInfo, 0, len(decisions)),
	}

	for _, d := range decisions {
		deps := formula.Scan(d.Formula, rawIndicators)
		g.DecisionVariables = append(g.DecisionVariables, DependencyInfo{
			VariableName: d.VarName,
			DependsOn:    deps,
			Formula:      d.Formula,
			ImpactLevel:  Classify(deps, d.Formula),
		})
	}

	g.ImpactAnalysis = analyze(g)
	return g
}

// analyze derives the consistency findings from an already-built graph. It
// reads only the graph, so re-running it on the same graph yields the same
// findings.
func analyze(g *Graph) ImpactAnalysis {
	ia := ImpactAnalysis{
		BreakingChanges:   []string{},
		EnablingChanges:   []string{},
		RequiredUpdates:   []string{},
		OrphanedVariables: []string{},
	}

	referenced := make(map[string]bool)
	for _, dv := range g.DecisionVariables {
		for _, dep := range dv.DependsOn {
			referenced[dep] = true
		}
		if len(dv.DependsOn) == 0 && !isBlank(dv.Formula) {
			ia.BreakingChanges = append(ia.BreakingChanges, dv.VariableName)
		}
		if len(dv.DependsOn) == 1 && dv.ImpactLevel == LevelCritical {
			ia.RequiredUpdates = append(ia.RequiredUpdates, dv.VariableName)
		}
	}

	for _, ri := range g.RawIndicators {
		if !referenced[ri] {
			ia.OrphanedVariables = append(ia.OrphanedVariables, ri)
		}
	}

	ia.EnablingChanges = SuggestDecisionVariables(g.RawIndicators, g.DecisionVariables)
	return ia
}
