package model

import (
	"sort"

	"github.com/google/uuid"
)

// Question is a single survey question. Its variable_name stores the answer
// and is unique within the questionnaire.
type Question struct {
	ID                 Key      `json:"id"`
	Text               string   `json:"text"`
	Type               string   `json:"type"`
	VariableName       string   `json:"variable_name"`
	TriggeringCriteria string   `json:"triggering_criteria,omitempty"`
	RawIndicators      []string `json:"raw_indicators"`
	Formula            string   `json:"formula,omitempty"`
	IsConditional      bool     `json:"is_conditional"`
}

// ApplyDefaults assigns a base id when missing and scopes the key to the
// project. Non-conditional questions must not carry triggering criteria.
func (q *Question) ApplyDefaults(projectID string) {
	if q.ID.BaseID == "" {
		q.ID.BaseID = uuid.NewString()
	}
	q.ID.ProjectID = projectID
	if !q.IsConditional {
		q.TriggeringCriteria = ""
	}
}

// Section groups questions. Optional sections (IsMandatory=false) require a
// triggering criteria; mandatory sections must not carry one.
type Section struct {
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	Order                int        `json:"order"`
	IsMandatory          bool       `json:"is_mandatory"`
	Rationale            string     `json:"rationale,omitempty"`
	TriggeringCriteria   string     `json:"triggering_criteria,omitempty"`
	CoreQuestions        []Question `json:"core_questions"`
	ConditionalQuestions []Question `json:"conditional_questions"`
}

// Questions returns core then conditional questions of the section.
func (s *Section) Questions() []Question {
	out := make([]Question, 0, len(s.CoreQuestions)+len(s.ConditionalQuestions))
	out = append(out, s.CoreQuestions...)
	out = append(out, s.ConditionalQuestions...)
	return out
}

// Questionnaire is the ordered survey structure plus the calculation map from
// raw indicator var_names to formulas over question variable_names.
type Questionnaire struct {
	Title                   string            `json:"title,omitempty"`
	Sections                []Section         `json:"sections"`
	RawIndicatorCalculation map[string]string `json:"raw_indicator_calculation,omitempty"`
}

// QuestionVarNames returns the set of all question variable_names.
func (q *Questionnaire) QuestionVarNames() map[string]bool {
	names := make(map[string]bool)
	for i := range q.Sections {
		for _, question := range q.Sections[i].Questions() {
			if question.VariableName != "" {
				names[question.VariableName] = true
			}
		}
	}
	return names
}

// NextOrder returns the order number following the highest existing section.
func (q *Questionnaire) NextOrder() int {
	max := 0
	for _, s := range q.Sections {
		if s.Order > max {
			max = s.Order
		}
	}
	return max + 1
}

// NormalizeOrders re-numbers sections contiguously from 1, preserving the
// current relative ordering. Called after section removal.
func (q *Questionnaire) NormalizeOrders() {
	sort.SliceStable(q.Sections, func(i, j int) bool {
		return q.Sections[i].Order < q.Sections[j].Order
	})
	for i := range q.Sections {
		q.Sections[i].Order = i + 1
	}
}

// Clone returns a deep copy. Snapshots are passed by value between workflow
// steps; the questionnaire pointer is the one shared structure that needs
// explicit copying before mutation.
func (q *Questionnaire) Clone() *Questionnaire {
	if q == nil {
		return nil
	}
	out := &Questionnaire{Title: q.Title}
	out.Sections = make([]Section, len(q.Sections))
	for i, s := range q.Sections {
		cs := s
		cs.CoreQuestions = cloneQuestions(s.CoreQuestions)
		cs.ConditionalQuestions = cloneQuestions(s.ConditionalQuestions)
		out.Sections[i] = cs
	}
	if q.RawIndicatorCalculation != nil {
		out.RawIndicatorCalculation = make(map[string]string, len(q.RawIndicatorCalculation))
		for k, v := range q.RawIndicatorCalculation {
			out.RawIndicatorCalculation[k] = v
		}
	}
	return out
}

func cloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		cq := q
		cq.RawIndicators = append([]string(nil), q.RawIndicators...)
		out[i] = cq
	}
	return out
}
