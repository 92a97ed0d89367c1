package model

import (
	"fmt"
	"strings"
)

// Severity grades a workflow finding.
type Severity string

const (
	// SeverityValidation marks a structural defect in generated content;
	// the step continues and the finding accumulates.
	SeverityValidation Severity = "validation"
	// SeverityWarning marks a resolution finding (uncovered, orphaned,
	// problematic); it may trigger remediation but is never fatal.
	SeverityWarning Severity = "warning"
	// SeverityFatal marks an external-service failure; the step returns
	// early, preserving whatever partial state existed.
	SeverityFatal Severity = "fatal"
)

// Issue is one structured finding. Issues are kept structured inside the
// workflow and rendered to the snapshot's single error string only at the
// step boundary, which is what the orchestration layer forwards to users.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// Issues accumulates findings across a workflow step.
type Issues []Issue

// Add appends a finding.
func (is *Issues) Add(sev Severity, code, msg string) {
	*is = append(*is, Issue{Severity: sev, Code: code, Message: msg})
}

// Addf appends a formatted finding.
func (is *Issues) Addf(sev Severity, code, format string, args ...any) {
	is.Add(sev, code, fmt.Sprintf(format, args...))
}

// HasFatal reports whether any finding requires an early return.
func (is Issues) HasFatal() bool {
	for _, i := range is {
		if i.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// Render flattens the findings into the single human-readable string carried
// on the snapshot.
func (is Issues) Render() string {
	if len(is) == 0 {
		return ""
	}
	parts := make([]string, len(is))
	for i, issue := range is {
		switch issue.Severity {
		case SeverityFatal:
			parts[i] = "Error: " + issue.Message
		case SeverityWarning:
			parts[i] = "Warning: " + issue.Message
		default:
			parts[i] = issue.Message
		}
	}
	return strings.Join(parts, " | ")
}
