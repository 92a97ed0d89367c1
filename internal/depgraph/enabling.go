package depgraph

import "strings"

// SuggestDecisionVariables proposes aggregate decision variables the raw
// indicator names hint at but no existing decision variable covers. Purely
// name-based heuristics; the caller surfaces these as suggestions and never
// creates variables from them.
func SuggestDecisionVariables(rawIndicators []string, existing []DependencyInfo) []string {
	expenses := 0
	income := 0
	for _, name := range rawIndicators {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "expense") || strings.Contains(lower, "cost") {
			expenses++
		}
		if strings.Contains(lower, "income") || strings.Contains(lower, "revenue") || strings.Contains(lower, "sales") {
			income++
		}
	}

	taken := make(map[string]bool, len(existing))
	for _, dv := range existing {
		taken[dv.VariableName] = true
	}

	suggestions := []string{}
	if expenses >= 2 && !taken["total_expenses"] {
		suggestions = append(suggestions, "total_expenses")
	}
	if income >= 2 && !taken["total_income"] {
		suggestions = append(suggestions, "total_income")
	}
	if expenses >= 1 && income >= 1 && !taken["income_expense_ratio"] {
		suggestions = append(suggestions, "income_expense_ratio")
	}
	return suggestions
}
