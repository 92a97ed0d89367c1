package textgen

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", fmt.Errorf("no scripted response for call %d", i)
}

func newTestRefiner(c Completer) *Refiner {
	r := NewRefiner(c)
	r.delay = time.Millisecond
	return r
}

func TestRefine(t *testing.T) {
	t.Run("Mandatory criteria is always empty", func(t *testing.T) {
		c := &scriptedCompleter{}
		r := newTestRefiner(c)

		got := r.Refine(context.Background(), ExpressionTriggeringCriteria, "section 'Basics'", "return q_x > 0;", nil, true)

		assert.Empty(t, got)
		assert.Zero(t, c.calls)
	})

	t.Run("Keeps an existing non-trivial expression", func(t *testing.T) {
		c := &scriptedCompleter{}
		r := newTestRefiner(c)

		got := r.Refine(context.Background(), ExpressionFormula, "question 'q_rent'", "return q_rent * 12;", nil, false)

		assert.Equal(t, "return q_rent * 12;", got)
		assert.Zero(t, c.calls)
	})

	t.Run("Regenerates trivial expressions", func(t *testing.T) {
		c := &scriptedCompleter{responses: []string{`{"expression": "return q_income > 5000;"}`}}
		r := newTestRefiner(c)

		got := r.Refine(context.Background(), ExpressionTriggeringCriteria, "section 'Seasonal'", "return true;", []string{"q_income"}, false)

		assert.Equal(t, "return q_income > 5000;", got)
	})

	t.Run("Retries through failures", func(t *testing.T) {
		c := &scriptedCompleter{
			errs:      []error{fmt.Errorf("rate limited"), nil},
			responses: []string{"", `{"expression": "return q_staff_count >= 2;"}`},
		}
		r := newTestRefiner(c)

		got := r.Refine(context.Background(), ExpressionTriggeringCriteria, "question 'q_staff'", "", []string{"q_staff_count"}, false)

		assert.Equal(t, "return q_staff_count >= 2;", got)
		assert.Equal(t, 2, c.calls)
	})

	t.Run("Exhausted budget yields the failure sentinel", func(t *testing.T) {
		c := &scriptedCompleter{
			errs: []error{fmt.Errorf("down"), fmt.Errorf("down"), fmt.Errorf("down")},
		}
		r := newTestRefiner(c)

		got := r.Refine(context.Background(), ExpressionFormula, "question 'q_misc'", "", nil, false)

		require.True(t, IsFailedExpression(got))
		assert.Contains(t, got, "question 'q_misc'")
		assert.Equal(t, 3, c.calls)
	})

	t.Run("Prior sentinel triggers regeneration", func(t *testing.T) {
		c := &scriptedCompleter{responses: []string{`{"expression": "return q_sales * 7;"}`}}
		r := newTestRefiner(c)

		prior := "// LLM FAILED TO RESPOND: No expression generated after 3 attempts. Review question 'q_sales'."
		got := r.Refine(context.Background(), ExpressionFormula, "question 'q_sales'", prior, nil, false)

		assert.Equal(t, "return q_sales * 7;", got)
	})
}
