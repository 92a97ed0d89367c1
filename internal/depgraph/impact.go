package depgraph

import "github.com/medhansh29/ia-agent/internal/formula"

// Level grades how load-bearing a formula's dependency set is.
type Level string

const (
	LevelCritical Level = "critical"
	LevelModerate Level = "moderate"
	LevelLow      Level = "low"
)

// Classify grades a formula by its resolved dependency count. A non-blank
// formula with no resolvable dependencies is critical: it computes something
// but nothing feeds it. A single dependency combined with control flow is a
// single point of failure, also critical. Multiple dependencies degrade
// gracefully and stay moderate regardless of formula complexity.
func Classify(dependsOn []string, formulaText string) Level {
	switch len(dependsOn) {
	case 0:
		if isBlank(formulaText) {
			return LevelLow
		}
		return LevelCritical
	case 1:
		if formula.HasControlFlow(formulaText) {
			return LevelCritical
		}
		return LevelModerate
	default:
		return LevelModerate
	}
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
