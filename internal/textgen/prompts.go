package textgen

import (
	"fmt"
	"strings"
)

// PromptBuilder constructs standardized prompts for each generation task.
type PromptBuilder struct{}

const contextHeader = "\n--- Supplementary Context from Historical Data (use to inspire and refine, but prioritize the main task and schema adherence) ---\n"

func appendContext(sb *strings.Builder, ragContext string) {
	if strings.TrimSpace(ragContext) == "" {
		return
	}
	sb.WriteString(contextHeader)
	sb.WriteString(ragContext)
	sb.WriteString("\n----------------------------------------------------------------------\n")
}

func (pb *PromptBuilder) BuildRawIndicatorsPrompt(userInput, existingJSON, ragContext string) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant for a fintech company lending to subprime customers with thin credit files. ")
	sb.WriteString("Your task is to identify the most impactful trade or business specific raw indicators, gathered through user interviews, that assess a small business owner's income. ")
	sb.WriteString("The clients are small businesses with no steady source of income like a salary.\n\n")
	sb.WriteString("For each variable provide: 'id' (unique string), 'name' (display name), 'var_name' (snake_case, e.g. 'avg_daily_customers'), ")
	sb.WriteString("'impact_score' (integer 0-100, higher means more important), 'description', 'priority_rationale', ")
	sb.WriteString("'formula' (always null for raw indicators), 'type' (one of 'text', 'integer', 'float', 'boolean', 'dropdown'), and 'value' (always null).\n")
	sb.WriteString("Generate at least 15 realistic raw indicators relevant to small business income assessment. ")
	sb.WriteString("Use the business context in the user's prompt; the businesses operate in India, so use Rupees and metric units.\n")
	appendContext(&sb, ragContext)
	sb.WriteString("\nUser input: ")
	sb.WriteString(userInput)
	sb.WriteString("\nExisting variables to consider for modification or reference:\n")
	sb.WriteString(existingJSON)
	sb.WriteString("\n\nRespond with a JSON object: {\"raw_indicators\": [ ...variable objects... ]}. Ensure 'formula' is null for every raw indicator.")
	return sb.String()
}

func (pb *PromptBuilder) BuildDecisionVariablesPrompt(userInput, rawJSON, existingJSON, ragContext string) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant helping a fintech company generate decision variables from raw indicators. ")
	sb.WriteString("Each decision variable must be directly calculable from the raw indicators or other decision variables.\n\n")
	sb.WriteString("For each decision variable provide: 'id', 'name', 'var_name', 'impact_score' (integer 0-100), 'description', ")
	sb.WriteString("'priority_rationale' (why this variable matters for income assessment), 'type' (e.g. 'float'), and a 'formula': ")
	sb.WriteString("a JavaScript expression computing its value from other var_names, e.g. 'return q_daily_sales * q_num_days_week * 4;'. 'value' must be null.\n")
	sb.WriteString("Generate at least 10 decision variables relevant to small business income assessment. ")
	sb.WriteString("Only include variables directly calculable from the provided raw indicators. ")
	sb.WriteString("Use the business context in the user's prompt; use Rupees and metric units.\n")
	appendContext(&sb, ragContext)
	sb.WriteString("\nRaw indicators:\n")
	sb.WriteString(rawJSON)
	sb.WriteString("\nExisting decision variables to consider for modification or reference:\n")
	sb.WriteString(existingJSON)
	sb.WriteString("\nUser input: ")
	sb.WriteString(userInput)
	sb.WriteString("\n\nRespond with a JSON object: {\"decision_variables\": [ ...variable objects... ]}. Every formula must be a valid JavaScript expression.")
	return sb.String()
}

func (pb *PromptBuilder) BuildVariableModificationsPrompt(businessContext, rawNames, dependencyJSON, request string) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant making intelligent modifications to a financial assessment system. ")
	sb.WriteString("Raw indicators are basic data points collected from interviews; decision variables are calculated from them via JavaScript formulas. ")
	sb.WriteString("When raw indicators change, dependent decision variables may break; keep the system consistent.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- When a raw indicator is split or renamed, prefer updating existing decision variables' formulas over creating new decision variables.\n")
	sb.WriteString("- Only create new decision variables when explicitly requested.\n")
	sb.WriteString("- Remove variables whose dependencies no longer exist, or repair their formulas.\n\n")
	fmt.Fprintf(&sb, "Business context: %s\n\n", businessContext)
	fmt.Fprintf(&sb, "Raw indicators available: %s\n\n", rawNames)
	sb.WriteString("Decision variables and their dependencies:\n")
	sb.WriteString(dependencyJSON)
	fmt.Fprintf(&sb, "\n\nModification request: %s\n\n", request)
	sb.WriteString("Respond with a JSON object with keys: 'new_variables' (array of variable objects, may be empty), ")
	sb.WriteString("'removed_variables' (array of var_names to remove), 'updated_formulas' (object mapping var_name to new JavaScript formula), ")
	sb.WriteString("and 'reasoning' (why each change is necessary).")
	return sb.String()
}

func (pb *PromptBuilder) BuildQuestionnairePrompt(userInput, rawJSON, decisionJSON, ragContext string) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant that designs comprehensive questionnaires for small business financial assessment. ")
	sb.WriteString("Generate a questionnaire organized into sections, plus a concise top-level 'title' summarizing the business context.\n\n")
	sb.WriteString("Section properties: 'title', 'description', 'order', 'is_mandatory' (mostly true; at most one or two optional sections), ")
	sb.WriteString("'rationale', 'triggering_criteria' (required when is_mandatory is false, null otherwise), ")
	sb.WriteString("'core_questions' and 'conditional_questions' (both lists must be present).\n\n")
	sb.WriteString("Question properties: 'id', 'text', 'type' (one of 'text', 'integer', 'float', 'boolean', 'dropdown'), ")
	sb.WriteString("'variable_name' (unique snake_case), 'raw_indicators' (list of var_names this question helps capture), ")
	sb.WriteString("'formula' (JavaScript mapping the answer onto raw indicators), 'is_conditional' (mostly false), ")
	sb.WriteString("and 'triggering_criteria' (required when is_conditional is true, null otherwise).\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Section mandatory and question conditional flags are independent.\n")
	sb.WriteString("- Every optional section and every conditional question must carry a triggering criteria.\n")
	sb.WriteString("- At most one conditional question per section.\n")
	sb.WriteString("- More than one question may map to a single raw indicator for granularity.\n")
	sb.WriteString("- Every raw indicator must be covered by at least one question.\n")
	sb.WriteString("- Generate 25-50 questions across at least 4-7 sections.\n")
	sb.WriteString("- Questions must fit the business context; use Rupees and metric units.\n")
	appendContext(&sb, ragContext)
	sb.WriteString("\nUser prompt: ")
	sb.WriteString(userInput)
	sb.WriteString("\nRaw indicators to cover:\n")
	sb.WriteString(rawJSON)
	sb.WriteString("\nDecision variables:\n")
	sb.WriteString(decisionJSON)
	sb.WriteString("\n\nRespond with a JSON object: {\"title\": ..., \"sections\": [...], \"raw_indicator_calculation\": {raw indicator var_name -> JavaScript formula over q_-prefixed question variable_names}}.")
	return sb.String()
}

func (pb *PromptBuilder) BuildQuestionnaireModificationsPrompt(businessContext, rawNames, questionnaireJSON, request string) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant making intelligent modifications to a financial assessment questionnaire. ")
	sb.WriteString("Questions are organized into sections with core and conditional questions; each question maps to one or more raw indicators, ")
	sb.WriteString("and raw indicators must remain fully covered by the questionnaire.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Prefer modifying existing questions over creating new ones; create new questions only when no existing question can be adapted.\n")
	sb.WriteString("- Avoid duplicating or overlapping questions.\n")
	sb.WriteString("- Keep the question flow logical and user-friendly.\n\n")
	fmt.Fprintf(&sb, "Business context: %s\n\n", businessContext)
	fmt.Fprintf(&sb, "Raw indicators available: %s\n\n", rawNames)
	sb.WriteString("Current questionnaire structure:\n")
	sb.WriteString(questionnaireJSON)
	fmt.Fprintf(&sb, "\n\nModification request: %s\n\n", request)
	sb.WriteString("Respond with a JSON object with keys: 'added_sections', 'updated_sections', 'removed_section_orders', ")
	sb.WriteString("'added_questions', 'updated_questions', 'removed_question_variable_names', and 'reasoning'. ")
	sb.WriteString("Updates are partial: each 'updated_sections' entry carries the target 'order' plus only the fields to change, ")
	sb.WriteString("and each 'updated_questions' entry carries the target 'variable_name' plus only the fields to change; omitted fields keep their current values.")
	return sb.String()
}

func (pb *PromptBuilder) BuildRemediationPrompt(uncoveredJSON, questionnaireJSON string) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant generating missing survey questions. A questionnaire has been modified, ")
	sb.WriteString("and some raw indicators are no longer adequately captured or their calculation formulas reference missing question data. ")
	sb.WriteString("Suggest new, simple, direct questions for the specified raw indicators.\n\n")
	sb.WriteString("For each question provide: 'id' (unique string), 'text' (simple, clear language), 'type' (e.g. 'integer', 'float', 'text'), ")
	sb.WriteString("'variable_name' (unique snake_case), 'triggering_criteria' (null if not conditional), ")
	sb.WriteString("'raw_indicators' (list of var_names it helps capture), and 'formula' describing how its answer contributes.\n\n")
	sb.WriteString("Raw indicators needing new questions:\n")
	sb.WriteString(uncoveredJSON)
	sb.WriteString("\n\nCurrent questionnaire context:\n")
	sb.WriteString(questionnaireJSON)
	sb.WriteString("\n\nRespond with a JSON object: {\"added_questions\": [ ...question objects... ], ")
	sb.WriteString("\"updated_raw_indicator_calculation\": {raw indicator var_name -> JavaScript formula using the variable_names of the questions you generate}}.")
	return sb.String()
}

func (pb *PromptBuilder) BuildRefinementPrompt(expressionType, target, current string, contextVars []string) string {
	var sb strings.Builder
	sb.WriteString("You are a JavaScript expert. Refine or generate a JavaScript expression for financial assessment logic. ")
	sb.WriteString("It must be concise, syntactically correct, and semantically meaningful. ")
	sb.WriteString("A triggering criteria must return a boolean; a formula must return a calculated value. ")
	sb.WriteString("Variables from previous questions are available with a 'q_' prefix, e.g. 'q_income'. ")
	sb.WriteString("Avoid simplistic 'return true;' or empty expressions.\n\n")
	fmt.Fprintf(&sb, "Expression type: %s\n", expressionType)
	fmt.Fprintf(&sb, "Target: %s\n", target)
	fmt.Fprintf(&sb, "Available question variables: %s\n", strings.Join(contextVars, ", "))
	fmt.Fprintf(&sb, "Expression to refine: %s\n\n", current)
	sb.WriteString("Consider logical operators (&&, ||, !), numerical comparisons, string comparisons, or specific-value checks. ")
	sb.WriteString("Example: {\"expression\": \"return q_has_dependents === true && q_income_source === \\\"Self-employed\\\";\"}.\n")
	sb.WriteString("Respond with only a JSON object of the form {\"expression\": \"...\"}.")
	return sb.String()
}
