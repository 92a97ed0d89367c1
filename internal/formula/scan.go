// Package formula extracts variable references from formula text. Formulas
// are untrusted free text produced by a generative service and may not even
// be syntactically valid, so scanning is deliberately lexical: whole-token
// matching against a known name set, never evaluation or real parsing.
// False positives from comments or string literals are accepted.
package formula

import (
	"regexp"
	"sort"
	"strings"
)

var (
	identRe       = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	questionRefRe = regexp.MustCompile(`\bq_[A-Za-z_][A-Za-z0-9_]*\b`)
	controlFlowRe = regexp.MustCompile(`\b(return|if|while|for)\b`)
)

// Scan returns the subset of known names that appear as whole tokens in the
// expression, sorted for deterministic output. Tokens of the form q_<suffix>
// additionally resolve to <suffix> when the suffix is a known name.
func Scan(expression string, known []string) []string {
	if strings.TrimSpace(expression) == "" || len(known) == 0 {
		return nil
	}

	knownSet := make(map[string]bool, len(known))
	for _, name := range known {
		knownSet[name] = true
	}

	found := make(map[string]bool)
	for _, tok := range identRe.FindAllString(expression, -1) {
		if knownSet[tok] {
			found[tok] = true
			continue
		}
		if suffix, ok := strings.CutPrefix(tok, "q_"); ok && knownSet[suffix] {
			found[suffix] = true
		}
	}

	if len(found) == 0 {
		return nil
	}
	out := make([]string, 0, len(found))
	for name := range found {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// QuestionRefs returns the q_-prefixed tokens in the expression, in first
// appearance order, deduplicated. Used to cross-check calculation formulas
// against existing question variable_names.
func QuestionRefs(expression string) []string {
	matches := questionRefRe.FindAllString(expression, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// HasControlFlow reports whether the formula contains a control-flow keyword
// (return, if, while, for) as a whole word.
func HasControlFlow(expression string) bool {
	return controlFlowRe.MatchString(expression)
}
