package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScan(t *testing.T) {
	known := []string{"daily_sales", "operating_days", "other"}

	t.Run("Whole-token matches only", func(t *testing.T) {
		got := Scan("return daily_sales * operating_days;", known)
		assert.Equal(t, []string{"daily_sales", "operating_days"}, got)
	})

	t.Run("Word boundary excludes partial matches", func(t *testing.T) {
		got := Scan("return dailysales * 2;", known)
		assert.Empty(t, got)
	})

	t.Run("No match inside longer identifiers", func(t *testing.T) {
		got := Scan("return daily_sales_total;", known)
		assert.Empty(t, got)
	})

	t.Run("Empty expression", func(t *testing.T) {
		assert.Empty(t, Scan("", known))
		assert.Empty(t, Scan("   \t\n", known))
	})

	t.Run("No known names", func(t *testing.T) {
		assert.Empty(t, Scan("return daily_sales;", nil))
	})

	t.Run("Result is subset of known names", func(t *testing.T) {
		got := Scan("return q_income + mystery_var * daily_sales;", known)
		for _, name := range got {
			assert.Contains(t, known, name)
		}
	})

	t.Run("Question-prefixed token resolves to known base name", func(t *testing.T) {
		got := Scan("return q_daily_sales * 4;", known)
		assert.Equal(t, []string{"daily_sales"}, got)
	})

	t.Run("Question-prefixed token with unknown base is ignored", func(t *testing.T) {
		got := Scan("return q_num_employees;", known)
		assert.Empty(t, got)
	})

	t.Run("Duplicates collapse", func(t *testing.T) {
		got := Scan("return daily_sales + daily_sales + q_daily_sales;", known)
		assert.Equal(t, []string{"daily_sales"}, got)
	})
}

func TestQuestionRefs(t *testing.T) {
	t.Run("Extracts in appearance order", func(t *testing.T) {
		got := QuestionRefs("return q_rent + q_utilities - q_rent;")
		assert.Equal(t, []string{"q_rent", "q_utilities"}, got)
	})

	t.Run("No refs", func(t *testing.T) {
		assert.Empty(t, QuestionRefs("return rent + utilities;"))
	})

	t.Run("Word-bounded", func(t *testing.T) {
		got := QuestionRefs("return freq_visits;")
		assert.Empty(t, got)
	})
}

func TestHasControlFlow(t *testing.T) {
	assert.True(t, HasControlFlow("return x * 2;"))
	assert.True(t, HasControlFlow("if (x > 0) { y = 1; }"))
	assert.False(t, HasControlFlow("x_plus_one"))
	assert.False(t, HasControlFlow("forecast * 2")) // 'for' must be a whole word
}
