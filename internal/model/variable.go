package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role discriminates the two variable kinds sharing the Variable shape.
type Role string

const (
	// RoleRawIndicator marks a leaf data point collected directly from an answer.
	RoleRawIndicator Role = "raw_indicator"
	// RoleDecisionVariable marks a derived value computed via a formula.
	RoleDecisionVariable Role = "decision_variable"
)

// Key identifies a record within a project. The two parts are carried
// structurally; the flattened form exists only at the storage boundary.
type Key struct {
	ProjectID string `json:"project_id,omitempty"`
	BaseID    string `json:"base_id"`
}

// UnmarshalJSON accepts either the structured form or a bare string. The
// generation service emits plain string ids; those land in BaseID and get
// project-scoped by ApplyDefaults.
func (k *Key) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		k.ProjectID = ""
		k.BaseID = s
		return nil
	}
	type plain Key
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*k = Key(p)
	return nil
}

// RecordID renders the flattened storage id for the key.
func (k Key) RecordID() string {
	if k.ProjectID == "" {
		return k.BaseID
	}
	return k.ProjectID + "_" + k.BaseID
}

// PlaceholderFormula is the default formula assigned to a decision variable
// that has not been populated yet.
const PlaceholderFormula = "// Placeholder formula - please define based on raw indicators"

// PlaceholderDescription marks raw indicators auto-created by the reconciler
// for names referenced by questions but absent from the known set.
const PlaceholderDescription = "Auto-generated placeholder for missing raw indicator"

// DefaultImpactWeight is the midpoint weight applied when generation omits one.
const DefaultImpactWeight = 50

// Variable is a raw indicator or a decision variable, discriminated by Role.
type Variable struct {
	ID              Key     `json:"id"`
	Name            string  `json:"name"`
	VarName         string  `json:"var_name"`
	Role            Role    `json:"role"`
	Description     string  `json:"description,omitempty"`
	Formula         string  `json:"formula,omitempty"` // decision variables only
	Type            string  `json:"type,omitempty"`
	ImpactWeight    int     `json:"impact_score"`
	WeightRationale string  `json:"priority_rationale,omitempty"`
	Value           *string `json:"value"`
}

// ApplyDefaults normalizes a generated variable in place: it assigns a base id
// when missing, scopes the key to the project, normalizes var_name, and fills
// the role-specific defaults.
func (v *Variable) ApplyDefaults(role Role, projectID string) {
	if v.ID.BaseID == "" {
		v.ID.BaseID = uuid.NewString()
	}
	v.ID.ProjectID = projectID
	v.Role = role
	v.Value = nil

	if v.Name == "" {
		v.Name = fmt.Sprintf("Unnamed Variable %s", v.ID.BaseID)
	}
	if v.VarName == "" {
		v.VarName = NormalizeVarName(v.Name)
	} else {
		v.VarName = NormalizeVarName(v.VarName)
	}
	if v.ImpactWeight <= 0 {
		v.ImpactWeight = DefaultImpactWeight
	}
	if v.Description == "" {
		label := "Raw indicator"
		if role == RoleDecisionVariable {
			label = "Decision variable"
		}
		v.Description = fmt.Sprintf("%s for %s", label, v.Name)
	}
	if v.WeightRationale == "" {
		v.WeightRationale = fmt.Sprintf("Weight %d assigned based on importance for income assessment", v.ImpactWeight)
	}

	if role == RoleRawIndicator {
		v.Formula = ""
		if v.Type == "" {
			v.Type = "text"
		}
	} else {
		if v.Formula == "" {
			v.Formula = PlaceholderFormula
		}
		if v.Type == "" {
			v.Type = "float"
		}
	}
}

// NewPlaceholder synthesizes a raw indicator for a var_name referenced by a
// question but absent from the known set.
func NewPlaceholder(varName, projectID string) Variable {
	return Variable{
		ID:              Key{ProjectID: projectID, BaseID: uuid.NewString()},
		Name:            TitleFromVarName(varName),
		VarName:         varName,
		Role:            RoleRawIndicator,
		Description:     fmt.Sprintf("Placeholder for %s referenced by a question but not initially defined.", varName),
		Type:            "text",
		ImpactWeight:    DefaultImpactWeight,
		WeightRationale: PlaceholderDescription,
	}
}

// NormalizeVarName converts a label to the snake_case form used for all
// cross-referencing (formulas, question mappings, dependency graphs).
func NormalizeVarName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "")
	return s
}

// TitleFromVarName renders a human-readable label from a snake_case name.
func TitleFromVarName(varName string) string {
	parts := strings.Split(varName, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// UniqueVarName resolves a collision against taken names by suffixing.
func UniqueVarName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if !taken[candidate] {
			return candidate
		}
	}
}

// VarNames projects the var_name of each variable, preserving order.
func VarNames(vars []Variable) []string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.VarName
	}
	return names
}

// IndexByVarName builds a lookup from var_name to the variable itself.
func IndexByVarName(vars []Variable) map[string]*Variable {
	idx := make(map[string]*Variable, len(vars))
	for i := range vars {
		idx[vars[i].VarName] = &vars[i]
	}
	return idx
}
