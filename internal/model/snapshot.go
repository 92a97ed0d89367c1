package model

import "github.com/medhansh29/ia-agent/internal/depgraph"

// Snapshot is the full workflow state passed into and out of every step.
// Steps receive a snapshot by value, compute, and return a new one; nothing
// is shared between concurrent callers except through the persistence layer.
type Snapshot struct {
	Prompt                string          `json:"prompt"`
	ModificationPrompt    string          `json:"modification_prompt,omitempty"`
	ModificationHistory   []string        `json:"modification_history,omitempty"`
	ModificationReasoning string          `json:"modification_reasoning,omitempty"`
	ProjectID             string          `json:"project_id,omitempty"`
	QuestionnaireTitle    string          `json:"questionnaire_title,omitempty"`
	RawIndicators         []Variable      `json:"raw_indicators,omitempty"`
	DecisionVariables     []Variable      `json:"decision_variables,omitempty"`
	Questionnaire         *Questionnaire  `json:"questionnaire,omitempty"`
	DependencyGraph       *depgraph.Graph `json:"dependency_graph,omitempty"`
	Error                 string          `json:"error,omitempty"`
}

// RecordIssues renders the findings onto the snapshot's error string,
// appending to whatever earlier steps accumulated.
func (s *Snapshot) RecordIssues(issues Issues) {
	rendered := issues.Render()
	if rendered == "" {
		return
	}
	if s.Error == "" {
		s.Error = rendered
		return
	}
	s.Error = s.Error + " | " + rendered
}

// ClearError resets the accumulated error string. A clean reconciliation
// pass clears findings recorded by earlier passes.
func (s *Snapshot) ClearError() {
	s.Error = ""
}
