// Package reconcile checks that every raw indicator is captured by the
// questionnaire and repairs the gaps. A pass scans coverage, synthesizes
// placeholder indicators for names questions reference but the variable set
// lacks, and, when a remediation client is available, asks it for new
// questions covering the gaps. One call is one pass; callers decide whether
// to scan again after remediation.
package reconcile

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/medhansh29/ia-agent/internal/formula"
	"github.com/medhansh29/ia-agent/internal/model"
	"github.com/medhansh29/ia-agent/internal/textgen"
)

// RemediationClient generates questions for raw indicators the questionnaire
// fails to cover. A nil client limits the reconciler to scan-only passes.
type RemediationClient interface {
	Remediate(ctx context.Context, uncovered []model.Variable, q *model.Questionnaire) (*textgen.Remediation, error)
}

// Result is the outcome of one reconciliation pass. RawIndicators and
// Questionnaire are copies; the caller's inputs are never mutated.
type Result struct {
	RawIndicators []model.Variable
	Questionnaire *model.Questionnaire

	// Uncovered lists existing raw indicators no question captures, in
	// input order.
	Uncovered []string
	// ReferencedButMissing lists names questions reference that were absent
	// from the variable set; each got a placeholder indicator.
	ReferencedButMissing []string
	// ProblematicCalculations lists raw indicators whose calculation formula
	// references a question variable that does not exist.
	ProblematicCalculations []string

	AddedQuestions []model.Question
	Issues         model.Issues
	Remediated     bool
}

// Clean reports whether the pass found nothing to address.
func (r *Result) Clean() bool {
	return len(r.Uncovered) == 0 && len(r.ReferencedButMissing) == 0 && len(r.ProblematicCalculations) == 0
}

// Reconciler runs coverage passes over a questionnaire.
type Reconciler struct {
	client RemediationClient
	logger *slog.Logger
}

func New(client RemediationClient, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{client: client, logger: logger}
}

// Run performs one pass: scan, synthesize placeholders, and remediate when a
// client is available. A remediation failure is fatal for the pass but the
// partial state (placeholders already added) is kept in the result.
func (r *Reconciler) Run(ctx context.Context, projectID string, rawIndicators []model.Variable, q *model.Questionnaire) *Result {
	result := &Result{
		RawIndicators: append([]model.Variable(nil), rawIndicators...),
		Questionnaire: q.Clone(),
	}
	if len(rawIndicators) == 0 || result.Questionnaire == nil {
		return result
	}
	if result.Questionnaire.RawIndicatorCalculation == nil {
		result.Questionnaire.RawIndicatorCalculation = map[string]string{}
	}

	r.scan(result, projectID)

	varsToAddress := r.varsToAddress(result)
	if len(varsToAddress) == 0 {
		r.logger.Info("questionnaire covers all raw indicators", "project_id", projectID)
		return result
	}

	result.Issues.Add(model.SeverityWarning, "coverage_gap",
		"Some raw indicators are not fully covered by questionnaire questions or have problematic calculations.")
	r.logger.Warn("raw indicators need attention", "project_id", projectID, "vars", varsToAddress)

	if r.client == nil {
		result.Issues.Addf(model.SeverityWarning, "remediation_skipped",
			"Remediation unavailable; raw indicators needing attention: %s", strings.Join(varsToAddress, ", "))
		return result
	}

	r.remediate(ctx, projectID, result, varsToAddress)
	return result
}

func (r *Reconciler) scan(result *Result, projectID string) {
	known := make(map[string]bool, len(result.RawIndicators))
	for _, ri := range result.RawIndicators {
		known[ri.VarName] = true
	}

	covered := make(map[string]bool)
	questionVars := result.Questionnaire.QuestionVarNames()
	seenMissing := make(map[string]bool)

	for i := range result.Questionnaire.Sections {
		for _, question := range result.Questionnaire.Sections[i].Questions() {
			for _, name := range question.RawIndicators {
				covered[name] = true
				if !known[name] && !seenMissing[name] {
					seenMissing[name] = true
					result.ReferencedButMissing = append(result.ReferencedButMissing, name)
				}
			}
		}
	}

	// Placeholders are synthesized during the scan itself, not as part of
	// remediation; a scan-only pass still creates them.
	for _, name := range result.ReferencedButMissing {
		r.logger.Info("adding placeholder raw indicator", "project_id", projectID, "var_name", name)
		result.RawIndicators = append(result.RawIndicators, model.NewPlaceholder(name, projectID))
		known[name] = true
	}

	for _, ri := range result.RawIndicators {
		if !covered[ri.VarName] {
			result.Uncovered = append(result.Uncovered, ri.VarName)
		}
	}

	calcVars := make([]string, 0, len(result.Questionnaire.RawIndicatorCalculation))
	for name := range result.Questionnaire.RawIndicatorCalculation {
		calcVars = append(calcVars, name)
	}
	sort.Strings(calcVars)
	for _, name := range calcVars {
		if !known[name] {
			continue
		}
		calc := result.Questionnaire.RawIndicatorCalculation[name]
		for _, ref := range formula.QuestionRefs(calc) {
			if !questionVars[ref] {
				result.ProblematicCalculations = append(result.ProblematicCalculations, name)
				r.logger.Warn("calculation references missing question variable",
					"raw_indicator", name, "question_var", ref)
				break
			}
		}
	}
}

func (r *Reconciler) varsToAddress(result *Result) []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]string{result.Uncovered, result.ProblematicCalculations, result.ReferencedButMissing} {
		for _, name := range group {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func (r *Reconciler) remediate(ctx context.Context, projectID string, result *Result, varsToAddress []string) {
	indicators := model.IndexByVarName(result.RawIndicators)
	uncovered := make([]model.Variable, 0, len(varsToAddress))
	for _, name := range varsToAddress {
		if ri, ok := indicators[name]; ok {
			uncovered = append(uncovered, *ri)
		}
	}

	remediation, err := r.client.Remediate(ctx, uncovered, result.Questionnaire)
	if err != nil {
		result.Issues.Addf(model.SeverityFatal, "remediation_failed",
			"Error during questionnaire impact remediation: %v", err)
		return
	}

	if len(remediation.AddedQuestions) > 0 {
		target := r.targetSection(result.Questionnaire)
		// Duplicates are checked against the whole questionnaire, not just
		// the target section: variable_names are unique questionnaire-wide,
		// so a collision in any section makes the added question unusable.
		existing := result.Questionnaire.QuestionVarNames()

		for _, question := range remediation.AddedQuestions {
			if existing[question.VariableName] {
				result.Issues.Addf(model.SeverityWarning, "duplicate_question",
					"Skipped adding duplicate question with variable_name '%s' to section '%s'.",
					question.VariableName, target.Title)
				continue
			}
			question.ApplyDefaults(projectID)
			target.CoreQuestions = append(target.CoreQuestions, question)
			existing[question.VariableName] = true
			result.AddedQuestions = append(result.AddedQuestions, question)
		}
		r.logger.Info("added remediation questions",
			"project_id", projectID, "section", target.Title, "count", len(result.AddedQuestions))
	}

	for name, calc := range remediation.UpdatedCalculation {
		result.Questionnaire.RawIndicatorCalculation[name] = calc
	}

	result.Remediated = true
	result.Issues.Add(model.SeverityWarning, "remediation_attempted",
		"Some raw indicators were flagged and an attempt was made to add questions. Review updated questionnaire and calculation map.")
}

// targetSection picks where remediation questions land: the first mandatory
// section, else the first section, else a synthesized trailing section.
func (r *Reconciler) targetSection(q *model.Questionnaire) *model.Section {
	for i := range q.Sections {
		if q.Sections[i].IsMandatory {
			return &q.Sections[i]
		}
	}
	if len(q.Sections) > 0 {
		return &q.Sections[0]
	}
	q.Sections = append(q.Sections, model.Section{
		Title:         "Remediation Questions",
		Description:   "Questions added to cover raw indicators missing from the original questionnaire.",
		Order:         q.NextOrder(),
		IsMandatory:   true,
		CoreQuestions: []model.Question{},
	})
	return &q.Sections[len(q.Sections)-1]
}
