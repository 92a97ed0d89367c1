package textgen

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// ExpressionFormula labels refinement of a question or calculation formula.
	ExpressionFormula = "formula"
	// ExpressionTriggeringCriteria labels refinement of a display condition.
	ExpressionTriggeringCriteria = "triggering_criteria"

	failureMarker = "// LLM FAILED TO RESPOND"
)

type expressionOutput struct {
	Expression string `json:"expression"`
}

// Refiner repairs or generates JavaScript expressions with a bounded retry
// budget. Exhausting the budget yields a sentinel comment string instead of
// an error; consumers must treat any value containing the failure marker as
// missing.
type Refiner struct {
	completer   Completer
	prompts     *PromptBuilder
	maxAttempts int
	delay       time.Duration
}

func NewRefiner(completer Completer) *Refiner {
	return &Refiner{
		completer:   completer,
		prompts:     &PromptBuilder{},
		maxAttempts: 3,
		delay:       2 * time.Second,
	}
}

// IsFailedExpression reports whether the expression is a refinement sentinel.
func IsFailedExpression(expression string) bool {
	return strings.Contains(expression, failureMarker)
}

// Refine returns a usable expression for the target entity. Mandatory
// entities never carry a triggering criteria, so that combination returns
// empty immediately. An existing expression that is neither trivial nor a
// prior failure is kept as-is.
func (r *Refiner) Refine(ctx context.Context, expressionType, target, current string, contextVars []string, mandatory bool) string {
	if mandatory && expressionType == ExpressionTriggeringCriteria {
		return ""
	}

	trimmed := strings.TrimSpace(current)
	if trimmed != "" && trimmed != "return true;" && !IsFailedExpression(trimmed) {
		return trimmed
	}

	prompt := r.prompts.BuildRefinementPrompt(expressionType, target, trimmed, contextVars)
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := waitOrCancel(ctx, r.delay); err != nil {
				break
			}
		}

		resp, err := r.completer.Complete(ctx, prompt)
		if err != nil {
			continue
		}
		var out expressionOutput
		if err := decodeResponse(resp, &out); err != nil {
			continue
		}
		expr := strings.TrimSpace(out.Expression)
		if expr != "" && expr != "return true;" {
			return expr
		}
	}

	return fmt.Sprintf("%s: No expression generated after %d attempts. Review %s.", failureMarker, r.maxAttempts, target)
}

func waitOrCancel(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
