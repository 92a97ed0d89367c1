package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/medhansh29/ia-agent/internal/model"
	"github.com/medhansh29/ia-agent/internal/textgen"
)

// GenerateQuestionnaire produces a sectioned questionnaire covering the
// current raw indicators. Validation findings accumulate on the snapshot's
// error field without stopping the step.
func (e *Engine) GenerateQuestionnaire(ctx context.Context, snap model.Snapshot) model.Snapshot {
	if len(snap.RawIndicators) == 0 {
		recordFatal(&snap, "missing_raw_indicators", fmt.Errorf("raw indicators are required before questionnaire generation"))
		return snap
	}
	e.logger.Info("generating questionnaire", "project_id", snap.ProjectID)

	ragContext := e.context(ctx, snap.Prompt)
	q, err := e.gen.GenerateQuestionnaire(ctx, snap.Prompt, snap.RawIndicators, snap.DecisionVariables, ragContext)
	if err != nil {
		recordFatal(&snap, "questionnaire_generation", err)
		return snap
	}

	var issues model.Issues
	e.normalizeQuestionnaire(ctx, q, snap.ProjectID, &issues)
	snap.RecordIssues(issues)

	snap.Questionnaire = q
	snap.QuestionnaireTitle = q.Title
	return snap
}

// ModifyQuestionnaire applies a natural-language modification request to the
// questionnaire structure.
func (e *Engine) ModifyQuestionnaire(ctx context.Context, snap model.Snapshot) model.Snapshot {
	if snap.Questionnaire == nil {
		recordFatal(&snap, "missing_questionnaire", fmt.Errorf("questionnaire is required before modification"))
		return snap
	}
	if strings.TrimSpace(snap.ModificationPrompt) == "" {
		recordFatal(&snap, "missing_modification_prompt", fmt.Errorf("modification prompt is required"))
		return snap
	}
	e.logger.Info("modifying questionnaire", "project_id", snap.ProjectID)
	snap.ModificationHistory = append(snap.ModificationHistory, snap.ModificationPrompt)

	mods, err := e.gen.ModifyQuestionnaire(ctx, snap.Prompt, snap.ModificationPrompt, snap.RawIndicators, snap.Questionnaire)
	if err != nil {
		recordFatal(&snap, "questionnaire_modification", err)
		return snap
	}

	q := snap.Questionnaire.Clone()
	var issues model.Issues
	applyQuestionnaireModifications(q, mods, snap.ProjectID, &issues)
	e.normalizeQuestionnaire(ctx, q, snap.ProjectID, &issues)
	snap.RecordIssues(issues)

	snap.Questionnaire = q
	snap.ModificationReasoning = mods.Reasoning
	return snap
}

// normalizeQuestionnaire validates sections and questions in place and runs
// expression refinement over criteria and formulas that need it.
func (e *Engine) normalizeQuestionnaire(ctx context.Context, q *model.Questionnaire, projectID string, issues *model.Issues) {
	q.NormalizeOrders()

	contextVars := make([]string, 0)
	for name := range q.QuestionVarNames() {
		contextVars = append(contextVars, name)
	}
	sort.Strings(contextVars)

	for i := range q.Sections {
		section := &q.Sections[i]
		model.ValidateSection(section, projectID, issues)

		if !section.IsMandatory && section.TriggeringCriteria != "" {
			section.TriggeringCriteria = e.refine(ctx, textgen.ExpressionTriggeringCriteria,
				fmt.Sprintf("section '%s'", section.Title), section.TriggeringCriteria, contextVars, false)
		}

		seen := make(map[string]bool)
		for _, list := range []*[]model.Question{&section.CoreQuestions, &section.ConditionalQuestions} {
			for j := range *list {
				question := &(*list)[j]
				model.ValidateQuestion(question, projectID, seen, issues)

				if question.IsConditional && question.TriggeringCriteria != "" {
					question.TriggeringCriteria = e.refine(ctx, textgen.ExpressionTriggeringCriteria,
						fmt.Sprintf("question '%s'", question.VariableName), question.TriggeringCriteria, contextVars, false)
				}
				if textgen.IsFailedExpression(question.Formula) {
					question.Formula = e.refine(ctx, textgen.ExpressionFormula,
						fmt.Sprintf("question '%s'", question.VariableName), question.Formula, contextVars, false)
				}
			}
		}
	}
}

func applyQuestionnaireModifications(q *model.Questionnaire, mods *textgen.QuestionnaireModifications, projectID string, issues *model.Issues) {
	if len(mods.RemovedSectionOrders) > 0 {
		removed := make(map[int]bool, len(mods.RemovedSectionOrders))
		for _, order := range mods.RemovedSectionOrders {
			removed[order] = true
		}
		kept := q.Sections[:0:0]
		for _, s := range q.Sections {
			if !removed[s.Order] {
				kept = append(kept, s)
			}
		}
		q.Sections = kept
	}

	for _, patch := range mods.UpdatedSections {
		found := false
		for i := range q.Sections {
			if q.Sections[i].Order == patch.Order {
				mergeSection(&q.Sections[i], patch)
				found = true
				break
			}
		}
		if !found {
			issues.Addf(model.SeverityValidation, "section_not_found",
				"Update targeted a section order that does not exist: %d", patch.Order)
		}
	}

	for _, added := range mods.AddedSections {
		if added.Order == 0 {
			added.Order = q.NextOrder()
		}
		q.Sections = append(q.Sections, added)
	}

	if len(mods.RemovedQuestionVariableNames) > 0 {
		removed := make(map[string]bool, len(mods.RemovedQuestionVariableNames))
		for _, name := range mods.RemovedQuestionVariableNames {
			removed[name] = true
		}
		for i := range q.Sections {
			q.Sections[i].CoreQuestions = dropQuestions(q.Sections[i].CoreQuestions, removed)
			q.Sections[i].ConditionalQuestions = dropQuestions(q.Sections[i].ConditionalQuestions, removed)
		}
	}

	for _, patch := range mods.UpdatedQuestions {
		if !patchQuestion(q, patch) {
			issues.Addf(model.SeverityValidation, "question_not_found",
				"Update targeted a question variable_name that does not exist: %s", patch.VariableName)
		}
	}

	if len(mods.AddedQuestions) > 0 {
		target := firstMandatorySection(q)
		existing := q.QuestionVarNames()
		for _, question := range mods.AddedQuestions {
			if existing[question.VariableName] {
				issues.Addf(model.SeverityValidation, "duplicate_question",
					"Skipped adding duplicate question with variable_name '%s'.", question.VariableName)
				continue
			}
			question.ApplyDefaults(projectID)
			target.CoreQuestions = append(target.CoreQuestions, question)
			existing[question.VariableName] = true
		}
	}
}

// mergeSection overlays the patch onto the section. Fields the patch leaves
// nil keep their current values; updates carry only what changed.
func mergeSection(dst *model.Section, patch textgen.SectionPatch) {
	if patch.Title != nil {
		dst.Title = *patch.Title
	}
	if patch.Description != nil {
		dst.Description = *patch.Description
	}
	if patch.Rationale != nil {
		dst.Rationale = *patch.Rationale
	}
	if patch.IsMandatory != nil {
		dst.IsMandatory = *patch.IsMandatory
	}
	if patch.TriggeringCriteria != nil {
		dst.TriggeringCriteria = *patch.TriggeringCriteria
	}
	if patch.CoreQuestions != nil {
		dst.CoreQuestions = patch.CoreQuestions
	}
	if patch.ConditionalQuestions != nil {
		dst.ConditionalQuestions = patch.ConditionalQuestions
	}
}

// patchQuestion merges a partial update onto the question it targets. The
// question's identity and any field the patch omits survive.
func patchQuestion(q *model.Questionnaire, patch textgen.QuestionPatch) bool {
	for i := range q.Sections {
		for _, list := range []*[]model.Question{&q.Sections[i].CoreQuestions, &q.Sections[i].ConditionalQuestions} {
			for j := range *list {
				if (*list)[j].VariableName != patch.VariableName {
					continue
				}
				dst := &(*list)[j]
				if patch.Text != nil {
					dst.Text = *patch.Text
				}
				if patch.Type != nil {
					dst.Type = *patch.Type
				}
				if patch.TriggeringCriteria != nil {
					dst.TriggeringCriteria = *patch.TriggeringCriteria
				}
				if patch.RawIndicators != nil {
					dst.RawIndicators = patch.RawIndicators
				}
				if patch.Formula != nil {
					dst.Formula = *patch.Formula
				}
				if patch.IsConditional != nil {
					dst.IsConditional = *patch.IsConditional
				}
				return true
			}
		}
	}
	return false
}

func dropQuestions(questions []model.Question, removed map[string]bool) []model.Question {
	out := questions[:0:0]
	for _, question := range questions {
		if !removed[question.VariableName] {
			out = append(out, question)
		}
	}
	return out
}

func firstMandatorySection(q *model.Questionnaire) *model.Section {
	for i := range q.Sections {
		if q.Sections[i].IsMandatory {
			return &q.Sections[i]
		}
	}
	if len(q.Sections) > 0 {
		return &q.Sections[0]
	}
	q.Sections = append(q.Sections, model.Section{
		Title:         "Additional Questions",
		Order:         q.NextOrder(),
		IsMandatory:   true,
		CoreQuestions: []model.Question{},
	})
	return &q.Sections[len(q.Sections)-1]
}
