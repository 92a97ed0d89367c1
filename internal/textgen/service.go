package textgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medhansh29/ia-agent/internal/model"
)

// VariableModifications is the decoded response to a variable modification
// request.
type VariableModifications struct {
	NewVariables    []model.Variable  `json:"new_variables"`
	RemovedVarNames []string          `json:"removed_variables"`
	UpdatedFormulas map[string]string `json:"updated_formulas"`
	Reasoning       string            `json:"reasoning"`
}

// SectionPatch is a partial section update keyed by order. The model sends
// only the fields it wants changed, so every field except the key is a
// pointer: nil means "leave alone", not "reset to zero".
type SectionPatch struct {
	Order                int              `json:"order"`
	Title                *string          `json:"title"`
	Description          *string          `json:"description"`
	Rationale            *string          `json:"rationale"`
	IsMandatory          *bool            `json:"is_mandatory"`
	TriggeringCriteria   *string          `json:"triggering_criteria"`
	CoreQuestions        []model.Question `json:"core_questions"`
	ConditionalQuestions []model.Question `json:"conditional_questions"`
}

// QuestionPatch is a partial question update keyed by variable_name.
type QuestionPatch struct {
	VariableName       string   `json:"variable_name"`
	Text               *string  `json:"text"`
	Type               *string  `json:"type"`
	TriggeringCriteria *string  `json:"triggering_criteria"`
	RawIndicators      []string `json:"raw_indicators"`
	Formula            *string  `json:"formula"`
	IsConditional      *bool    `json:"is_conditional"`
}

// QuestionnaireModifications is the decoded response to a questionnaire
// modification request.
type QuestionnaireModifications struct {
	AddedSections                []model.Section  `json:"added_sections"`
	UpdatedSections              []SectionPatch   `json:"updated_sections"`
	RemovedSectionOrders         []int            `json:"removed_section_orders"`
	AddedQuestions               []model.Question `json:"added_questions"`
	UpdatedQuestions             []QuestionPatch  `json:"updated_questions"`
	RemovedQuestionVariableNames []string         `json:"removed_question_variable_names"`
	Reasoning                    string           `json:"reasoning"`
}

// Remediation is the decoded response to a coverage remediation request.
type Remediation struct {
	AddedQuestions     []model.Question  `json:"added_questions"`
	UpdatedCalculation map[string]string `json:"updated_raw_indicator_calculation"`
}

type rawIndicatorsOutput struct {
	RawIndicators []model.Variable `json:"raw_indicators"`
}

type decisionVariablesOutput struct {
	DecisionVariables []model.Variable `json:"decision_variables"`
}

// Service layers the domain generation calls on top of a Completer.
type Service struct {
	completer Completer
	prompts   *PromptBuilder
}

func NewService(completer Completer) *Service {
	return &Service{
		completer: completer,
		prompts:   &PromptBuilder{},
	}
}

// GenerateRawIndicators asks the model for raw indicators matching the
// business description. Existing variables are passed for reference so a
// regeneration refines rather than restarts.
func (s *Service) GenerateRawIndicators(ctx context.Context, userInput string, existing []model.Variable, ragContext string) ([]model.Variable, error) {
	prompt := s.prompts.BuildRawIndicatorsPrompt(userInput, mustJSON(existing), ragContext)
	resp, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("raw indicator generation failed: %w", err)
	}
	var out rawIndicatorsOutput
	if err := decodeResponse(resp, &out); err != nil {
		return nil, fmt.Errorf("raw indicator generation returned malformed output: %w", err)
	}
	if len(out.RawIndicators) == 0 {
		return nil, fmt.Errorf("raw indicator generation returned no variables")
	}
	return out.RawIndicators, nil
}

// GenerateDecisionVariables asks the model for decision variables derivable
// from the given raw indicators.
func (s *Service) GenerateDecisionVariables(ctx context.Context, userInput string, rawIndicators, existing []model.Variable, ragContext string) ([]model.Variable, error) {
	prompt := s.prompts.BuildDecisionVariablesPrompt(userInput, mustJSON(rawIndicators), mustJSON(existing), ragContext)
	resp, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("decision variable generation failed: %w", err)
	}
	var out decisionVariablesOutput
	if err := decodeResponse(resp, &out); err != nil {
		return nil, fmt.Errorf("decision variable generation returned malformed output: %w", err)
	}
	if len(out.DecisionVariables) == 0 {
		return nil, fmt.Errorf("decision variable generation returned no variables")
	}
	return out.DecisionVariables, nil
}

// ModifyVariables asks the model for a consistent set of changes to the
// variable definitions. The dependency analysis is passed in so the model
// sees which formulas break when an indicator changes.
func (s *Service) ModifyVariables(ctx context.Context, businessContext, request string, rawIndicators []model.Variable, dependencyJSON string) (*VariableModifications, error) {
	names := strings.Join(model.VarNames(rawIndicators), ", ")
	prompt := s.prompts.BuildVariableModificationsPrompt(businessContext, names, dependencyJSON, request)
	resp, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("variable modification failed: %w", err)
	}
	var out VariableModifications
	if err := decodeResponse(resp, &out); err != nil {
		return nil, fmt.Errorf("variable modification returned malformed output: %w", err)
	}
	return &out, nil
}

// GenerateQuestionnaire asks the model for a sectioned questionnaire covering
// every raw indicator.
func (s *Service) GenerateQuestionnaire(ctx context.Context, userInput string, rawIndicators, decisionVariables []model.Variable, ragContext string) (*model.Questionnaire, error) {
	prompt := s.prompts.BuildQuestionnairePrompt(userInput, mustJSON(rawIndicators), mustJSON(decisionVariables), ragContext)
	resp, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("questionnaire generation failed: %w", err)
	}
	var out model.Questionnaire
	if err := decodeResponse(resp, &out); err != nil {
		return nil, fmt.Errorf("questionnaire generation returned malformed output: %w", err)
	}
	if len(out.Sections) == 0 {
		return nil, fmt.Errorf("questionnaire generation returned no sections")
	}
	return &out, nil
}

// ModifyQuestionnaire asks the model for a consistent set of changes to an
// existing questionnaire.
func (s *Service) ModifyQuestionnaire(ctx context.Context, businessContext, request string, rawIndicators []model.Variable, q *model.Questionnaire) (*QuestionnaireModifications, error) {
	names := strings.Join(model.VarNames(rawIndicators), ", ")
	prompt := s.prompts.BuildQuestionnaireModificationsPrompt(businessContext, names, mustJSON(q), request)
	resp, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("questionnaire modification failed: %w", err)
	}
	var out QuestionnaireModifications
	if err := decodeResponse(resp, &out); err != nil {
		return nil, fmt.Errorf("questionnaire modification returned malformed output: %w", err)
	}
	return &out, nil
}

// Remediate asks the model for new questions covering the listed raw
// indicators plus any calculation updates they imply.
func (s *Service) Remediate(ctx context.Context, uncovered []model.Variable, q *model.Questionnaire) (*Remediation, error) {
	prompt := s.prompts.BuildRemediationPrompt(mustJSON(uncovered), mustJSON(q))
	resp, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("remediation failed: %w", err)
	}
	var out Remediation
	if err := decodeResponse(resp, &out); err != nil {
		return nil, fmt.Errorf("remediation returned malformed output: %w", err)
	}
	return &out, nil
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}
