package model

// ValidateSection normalizes a section in place and records validation
// findings. Mandatory sections carry no triggering criteria; optional
// sections must have one. A missing criteria is an error, never defaulted.
func ValidateSection(s *Section, projectID string, issues *Issues) {
	if !s.IsMandatory {
		if s.TriggeringCriteria == "" {
			title := s.Title
			if title == "" {
				title = "Untitled"
			}
			issues.Addf(SeverityValidation, "section_missing_criteria",
				"Optional section missing triggering_criteria: %s", title)
		}
	} else {
		s.TriggeringCriteria = ""
	}

	if s.CoreQuestions == nil {
		s.CoreQuestions = []Question{}
	}
	if s.ConditionalQuestions == nil {
		s.ConditionalQuestions = []Question{}
	}
}

// ValidateQuestion applies defaults and records validation findings. The
// seen set collects question variable_names across the questionnaire.
func ValidateQuestion(q *Question, projectID string, seen map[string]bool, issues *Issues) {
	q.ApplyDefaults(projectID)

	if q.IsConditional && q.TriggeringCriteria == "" {
		text := q.Text
		if text == "" {
			text = "Untitled"
		}
		issues.Addf(SeverityValidation, "question_missing_criteria",
			"Conditional question missing triggering_criteria: %s", text)
	}

	missing := ""
	switch {
	case q.Text == "":
		missing = "text"
	case q.Type == "":
		missing = "type"
	case q.VariableName == "":
		missing = "variable_name"
	case len(q.RawIndicators) == 0:
		missing = "raw_indicators"
	case q.Formula == "":
		missing = "formula"
	}
	if missing != "" {
		text := q.Text
		if text == "" {
			text = "Untitled"
		}
		issues.Addf(SeverityValidation, "question_missing_field",
			"Question missing required field '%s': %s", missing, text)
		return
	}

	if seen != nil {
		seen[q.VariableName] = true
	}
}
