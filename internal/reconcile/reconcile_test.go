package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhansh29/ia-agent/internal/model"
	"github.com/medhansh29/ia-agent/internal/textgen"
)

type stubRemediator struct {
	remediation *textgen.Remediation
	err         error
	gotVars     []model.Variable
}

func (s *stubRemediator) Remediate(ctx context.Context, uncovered []model.Variable, q *model.Questionnaire) (*textgen.Remediation, error) {
	s.gotVars = uncovered
	if s.err != nil {
		return nil, s.err
	}
	return s.remediation, nil
}

func indicator(varName string) model.Variable {
	v := model.Variable{VarName: varName, Name: model.TitleFromVarName(varName)}
	v.ApplyDefaults(model.RoleRawIndicator, "proj-1")
	return v
}

func question(varName string, rawIndicators ...string) model.Question {
	return model.Question{
		ID:            model.Key{ProjectID: "proj-1", BaseID: "q-" + varName},
		Text:          "About " + varName,
		Type:          "float",
		VariableName:  varName,
		RawIndicators: rawIndicators,
		Formula:       "x = " + varName,
	}
}

func TestRun_CleanPassIsNoOp(t *testing.T) {
	raw := []model.Variable{indicator("daily_sales")}
	q := &model.Questionnaire{
		Sections: []model.Section{
			{Title: "Sales", Order: 1, IsMandatory: true, CoreQuestions: []model.Question{
				question("q_daily_sales", "daily_sales"),
			}},
		},
		RawIndicatorCalculation: map[string]string{"daily_sales": "return q_daily_sales;"},
	}

	rec := New(&stubRemediator{}, nil)
	result := rec.Run(context.Background(), "proj-1", raw, q)

	assert.True(t, result.Clean())
	assert.Empty(t, result.Issues)
	assert.False(t, result.Remediated)
	assert.Equal(t, raw, result.RawIndicators)
	assert.Equal(t, q, result.Questionnaire)
}

func TestRun_SynthesizesPlaceholderForMissingReference(t *testing.T) {
	raw := []model.Variable{indicator("daily_sales")}
	q := &model.Questionnaire{
		Sections: []model.Section{
			{Title: "Sales", Order: 1, IsMandatory: true, CoreQuestions: []model.Question{
				question("q_daily_sales", "daily_sales", "ghost_var"),
			}},
		},
	}

	// Scan-only pass: placeholders appear even without a remediation client.
	rec := New(nil, nil)
	result := rec.Run(context.Background(), "proj-1", raw, q)

	require.Len(t, result.RawIndicators, 2)
	placeholder := result.RawIndicators[1]
	assert.Equal(t, "ghost_var", placeholder.VarName)
	assert.Equal(t, "Ghost Var", placeholder.Name)
	assert.Equal(t, model.DefaultImpactWeight, placeholder.ImpactWeight)
	assert.Equal(t, []string{"ghost_var"}, result.ReferencedButMissing)
	assert.True(t, result.Issues.HasFatal() == false)

	// Inputs are never mutated.
	assert.Len(t, raw, 1)
}

func TestRun_ScanOnlyWarnsWithoutClient(t *testing.T) {
	raw := []model.Variable{indicator("daily_sales"), indicator("operating_days")}
	q := &model.Questionnaire{
		Sections: []model.Section{
			{Title: "Sales", Order: 1, IsMandatory: true, CoreQuestions: []model.Question{
				question("q_daily_sales", "daily_sales"),
			}},
		},
	}

	rec := New(nil, nil)
	result := rec.Run(context.Background(), "proj-1", raw, q)

	assert.Equal(t, []string{"operating_days"}, result.Uncovered)
	assert.False(t, result.Remediated)
	rendered := result.Issues.Render()
	assert.Contains(t, rendered, "operating_days")
}

func TestRun_RemediationAddsQuestions(t *testing.T) {
	raw := []model.Variable{indicator("daily_sales"), indicator("operating_days")}
	q := &model.Questionnaire{
		Sections: []model.Section{
			{Title: "Intro", Order: 1, IsMandatory: false, TriggeringCriteria: "return true;"},
			{Title: "Sales", Order: 2, IsMandatory: true, CoreQuestions: []model.Question{
				question("q_daily_sales", "daily_sales"),
			}},
		},
	}

	stub := &stubRemediator{remediation: &textgen.Remediation{
		AddedQuestions: []model.Question{
			{Text: "How many days a week do you open?", Type: "integer",
				VariableName: "q_operating_days", RawIndicators: []string{"operating_days"},
				Formula: "operating_days = q_operating_days"},
		},
		UpdatedCalculation: map[string]string{"operating_days": "return q_operating_days;"},
	}}
	rec := New(stub, nil)
	result := rec.Run(context.Background(), "proj-1", raw, q)

	require.True(t, result.Remediated)
	require.Len(t, result.AddedQuestions, 1)

	// Questions land in the first mandatory section, not the optional one.
	sales := result.Questionnaire.Sections[1]
	require.Len(t, sales.CoreQuestions, 2)
	added := sales.CoreQuestions[1]
	assert.Equal(t, "q_operating_days", added.VariableName)
	assert.NotEmpty(t, added.ID.BaseID)
	assert.Equal(t, "proj-1", added.ID.ProjectID)

	assert.Equal(t, "return q_operating_days;", result.Questionnaire.RawIndicatorCalculation["operating_days"])

	// The remediation client saw the uncovered indicator.
	require.Len(t, stub.gotVars, 1)
	assert.Equal(t, "operating_days", stub.gotVars[0].VarName)
}

func TestRun_DuplicateRemediationQuestionsAreSkipped(t *testing.T) {
	raw := []model.Variable{indicator("daily_sales"), indicator("operating_days")}
	q := &model.Questionnaire{
		Sections: []model.Section{
			{Title: "Sales", Order: 1, IsMandatory: true, CoreQuestions: []model.Question{
				question("q_daily_sales", "daily_sales"),
			}},
		},
	}

	stub := &stubRemediator{remediation: &textgen.Remediation{
		AddedQuestions: []model.Question{
			{Text: "Duplicate", Type: "float", VariableName: "q_daily_sales",
				RawIndicators: []string{"operating_days"}, Formula: "x"},
		},
	}}
	rec := New(stub, nil)
	result := rec.Run(context.Background(), "proj-1", raw, q)

	assert.Empty(t, result.AddedQuestions)
	assert.Len(t, result.Questionnaire.Sections[0].CoreQuestions, 1)
	assert.Contains(t, result.Issues.Render(), "duplicate question")
	assert.True(t, result.Remediated)
}

func TestRun_DuplicateCheckSpansAllSections(t *testing.T) {
	raw := []model.Variable{indicator("daily_sales"), indicator("operating_days")}
	q := &model.Questionnaire{
		Sections: []model.Section{
			{Title: "Sales", Order: 1, IsMandatory: true, CoreQuestions: []model.Question{}},
			{Title: "Extras", Order: 2, IsMandatory: false, TriggeringCriteria: "return true;",
				CoreQuestions: []model.Question{question("q_daily_sales", "daily_sales")}},
		},
	}

	// The colliding variable_name lives outside the target section; it must
	// still be skipped because variable_names are unique questionnaire-wide.
	stub := &stubRemediator{remediation: &textgen.Remediation{
		AddedQuestions: []model.Question{
			{Text: "Duplicate elsewhere", Type: "float", VariableName: "q_daily_sales",
				RawIndicators: []string{"operating_days"}, Formula: "x"},
		},
	}}
	rec := New(stub, nil)
	result := rec.Run(context.Background(), "proj-1", raw, q)

	assert.Empty(t, result.AddedQuestions)
	assert.Empty(t, result.Questionnaire.Sections[0].CoreQuestions)
	assert.Contains(t, result.Issues.Render(), "duplicate question")
}

func TestRun_RemediationFailureIsFatalButKeepsPartialState(t *testing.T) {
	raw := []model.Variable{indicator("daily_sales")}
	q := &model.Questionnaire{
		Sections: []model.Section{
			{Title: "Sales", Order: 1, IsMandatory: true, CoreQuestions: []model.Question{
				question("q_daily_sales", "daily_sales", "ghost_var"),
			}},
		},
	}

	stub := &stubRemediator{err: fmt.Errorf("remediation returned malformed output")}
	rec := New(stub, nil)
	result := rec.Run(context.Background(), "proj-1", raw, q)

	assert.True(t, result.Issues.HasFatal())
	assert.False(t, result.Remediated)
	// The placeholder added during scanning survives the failure.
	require.Len(t, result.RawIndicators, 2)
	assert.Equal(t, "ghost_var", result.RawIndicators[1].VarName)
}

func TestRun_ProblematicCalculationDetected(t *testing.T) {
	raw := []model.Variable{indicator("daily_sales")}
	q := &model.Questionnaire{
		Sections: []model.Section{
			{Title: "Sales", Order: 1, IsMandatory: true, CoreQuestions: []model.Question{
				question("q_daily_sales", "daily_sales"),
			}},
		},
		RawIndicatorCalculation: map[string]string{"daily_sales": "return q_gone_question * 2;"},
	}

	rec := New(nil, nil)
	result := rec.Run(context.Background(), "proj-1", raw, q)

	assert.Equal(t, []string{"daily_sales"}, result.ProblematicCalculations)
	assert.False(t, result.Clean())
}

func TestRun_SynthesizesSectionWhenNoneExist(t *testing.T) {
	raw := []model.Variable{indicator("daily_sales")}
	q := &model.Questionnaire{Sections: []model.Section{}}

	stub := &stubRemediator{remediation: &textgen.Remediation{
		AddedQuestions: []model.Question{
			{Text: "What are your daily sales?", Type: "float", VariableName: "q_daily_sales",
				RawIndicators: []string{"daily_sales"}, Formula: "daily_sales = q_daily_sales"},
		},
	}}
	rec := New(stub, nil)
	result := rec.Run(context.Background(), "proj-1", raw, q)

	require.Len(t, result.Questionnaire.Sections, 1)
	section := result.Questionnaire.Sections[0]
	assert.Equal(t, "Remediation Questions", section.Title)
	assert.Equal(t, 1, section.Order)
	assert.True(t, section.IsMandatory)
	require.Len(t, section.CoreQuestions, 1)
}
