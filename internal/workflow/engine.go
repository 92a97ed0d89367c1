// Package workflow orchestrates the assessment-building steps: variable
// generation, modification, questionnaire generation, impact analysis, and
// persistence. Every step takes a full state snapshot by value and returns a
// new one; nothing is shared between concurrent callers except through the
// store.
package workflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/medhansh29/ia-agent/internal/model"
	"github.com/medhansh29/ia-agent/internal/reconcile"
	"github.com/medhansh29/ia-agent/internal/textgen"
)

// Generator is the text-generation surface the engine depends on.
// *textgen.Service implements it.
type Generator interface {
	GenerateRawIndicators(ctx context.Context, userInput string, existing []model.Variable, ragContext string) ([]model.Variable, error)
	GenerateDecisionVariables(ctx context.Context, userInput string, rawIndicators, existing []model.Variable, ragContext string) ([]model.Variable, error)
	ModifyVariables(ctx context.Context, businessContext, request string, rawIndicators []model.Variable, dependencyJSON string) (*textgen.VariableModifications, error)
	GenerateQuestionnaire(ctx context.Context, userInput string, rawIndicators, decisionVariables []model.Variable, ragContext string) (*model.Questionnaire, error)
	ModifyQuestionnaire(ctx context.Context, businessContext, request string, rawIndicators []model.Variable, q *model.Questionnaire) (*textgen.QuestionnaireModifications, error)
	Remediate(ctx context.Context, uncovered []model.Variable, q *model.Questionnaire) (*textgen.Remediation, error)
}

// ExpressionRefiner repairs formulas and triggering criteria.
// *textgen.Refiner implements it.
type ExpressionRefiner interface {
	Refine(ctx context.Context, expressionType, target, current string, contextVars []string, mandatory bool) string
}

// ContextProvider supplies historical context for generation prompts.
// *retrieval.Retriever implements it; a nil provider means no context.
type ContextProvider interface {
	Context(ctx context.Context, query string) string
}

// Store persists finished results. *storage.SQLiteStore implements it.
type Store interface {
	UpsertVariables(ctx context.Context, role model.Role, vars []model.Variable) error
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error
}

// Engine wires the steps together. All dependencies are injected; the engine
// owns no global state.
type Engine struct {
	gen       Generator
	refiner   ExpressionRefiner
	retriever ContextProvider
	store     Store
	rec       *reconcile.Reconciler
	logger    *slog.Logger
}

func NewEngine(gen Generator, refiner ExpressionRefiner, retriever ContextProvider, store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		gen:       gen,
		refiner:   refiner,
		retriever: retriever,
		store:     store,
		rec:       reconcile.New(gen, logger),
		logger:    logger,
	}
}

func (e *Engine) context(ctx context.Context, query string) string {
	if e.retriever == nil {
		return ""
	}
	return e.retriever.Context(ctx, query)
}

func (e *Engine) refine(ctx context.Context, expressionType, target, current string, contextVars []string, mandatory bool) string {
	if e.refiner == nil {
		return current
	}
	return e.refiner.Refine(ctx, expressionType, target, current, contextVars, mandatory)
}

// recordFatal notes a step-stopping failure on the snapshot. The caller must
// return immediately after, preserving whatever partial state exists.
func recordFatal(snap *model.Snapshot, code string, err error) {
	var issues model.Issues
	issues.Addf(model.SeverityFatal, code, "%v", err)
	snap.RecordIssues(issues)
}

func marshalIndent(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}

// determineModificationType guesses which variable kind a modification
// request primarily targets, for routing new variables that carry no formula.
func determineModificationType(request string) model.Role {
	lower := strings.ToLower(request)
	decisionHits := strings.Count(lower, "decision variable") + strings.Count(lower, "formula") + strings.Count(lower, "calculation")
	rawHits := strings.Count(lower, "raw indicator") + strings.Count(lower, "indicator") + strings.Count(lower, "data point")
	if decisionHits > rawHits {
		return model.RoleDecisionVariable
	}
	return model.RoleRawIndicator
}
