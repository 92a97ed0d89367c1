package textgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhansh29/ia-agent/internal/model"
)

type cannedCompleter struct {
	response string
	prompt   string
}

func (c *cannedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompt = prompt
	return c.response, nil
}

func TestGenerateRawIndicators(t *testing.T) {
	t.Run("Decodes string ids into keys", func(t *testing.T) {
		c := &cannedCompleter{response: `{
			"raw_indicators": [
				{"id": "ri-1", "name": "Daily Sales", "var_name": "daily_sales", "type": "float", "impact_score": 80}
			]
		}`}
		svc := NewService(c)

		vars, err := svc.GenerateRawIndicators(context.Background(), "small grocery store", nil, "")

		require.NoError(t, err)
		require.Len(t, vars, 1)
		assert.Equal(t, "ri-1", vars[0].ID.BaseID)
		assert.Equal(t, "daily_sales", vars[0].VarName)
	})

	t.Run("Empty variable list is an error", func(t *testing.T) {
		c := &cannedCompleter{response: `{"raw_indicators": []}`}
		svc := NewService(c)

		_, err := svc.GenerateRawIndicators(context.Background(), "small grocery store", nil, "")

		assert.Error(t, err)
	})

	t.Run("Historical context lands in the prompt", func(t *testing.T) {
		c := &cannedCompleter{response: `{"raw_indicators": [{"id": "x", "name": "X", "var_name": "x"}]}`}
		svc := NewService(c)

		_, err := svc.GenerateRawIndicators(context.Background(), "tailor shop", nil, "Flow ID: 12, Category: Retail")

		require.NoError(t, err)
		assert.Contains(t, c.prompt, "Flow ID: 12, Category: Retail")
	})
}

func TestModifyQuestionnaire(t *testing.T) {
	q := &model.Questionnaire{
		Title: "Grocery Assessment",
		Sections: []model.Section{
			{Title: "Basics", Order: 1, IsMandatory: true},
		},
	}

	c := &cannedCompleter{response: `{
		"added_questions": [
			{"id": "q-9", "text": "What is your monthly rent?", "type": "float", "variable_name": "q_rent", "raw_indicators": ["rent"], "formula": "rent = q_rent"}
		],
		"removed_question_variable_names": ["q_old"],
		"reasoning": "Rent replaces the outdated overhead question."
	}`}
	svc := NewService(c)

	mods, err := svc.ModifyQuestionnaire(context.Background(), "grocery store", "ask about rent", nil, q)

	require.NoError(t, err)
	require.Len(t, mods.AddedQuestions, 1)
	assert.Equal(t, "q_rent", mods.AddedQuestions[0].VariableName)
	assert.Equal(t, []string{"q_old"}, mods.RemovedQuestionVariableNames)
	assert.Contains(t, c.prompt, "Grocery Assessment")
}

func TestRemediate(t *testing.T) {
	t.Run("Decodes questions and calculation updates", func(t *testing.T) {
		c := &cannedCompleter{response: `{
			"added_questions": [
				{"id": "q-7", "text": "How many days a week do you open?", "type": "integer", "variable_name": "q_operating_days", "raw_indicators": ["operating_days"], "formula": "operating_days = q_operating_days"}
			],
			"updated_raw_indicator_calculation": {"operating_days": "return q_operating_days;"}
		}`}
		svc := NewService(c)

		rem, err := svc.Remediate(context.Background(), []model.Variable{{VarName: "operating_days"}}, &model.Questionnaire{})

		require.NoError(t, err)
		require.Len(t, rem.AddedQuestions, 1)
		assert.Equal(t, "return q_operating_days;", rem.UpdatedCalculation["operating_days"])
	})

	t.Run("Malformed shape is an error", func(t *testing.T) {
		c := &cannedCompleter{response: `{"added_questions": "none"}`}
		svc := NewService(c)

		_, err := svc.Remediate(context.Background(), nil, &model.Questionnaire{})

		assert.Error(t, err)
	})
}
