// Package storage persists workflow results to SQLite: variable definitions,
// flattened questionnaire rows, the originating prompt, and the embedded
// retrieval corpus.
package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/medhansh29/ia-agent/internal/model"
	"github.com/medhansh29/ia-agent/internal/retrieval"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	variableColumns := `(
		id TEXT PRIMARY KEY,
		project_id TEXT,
		base_id TEXT,
		name TEXT,
		var_name TEXT,
		description TEXT,
		formula TEXT,
		type TEXT,
		impact_score INTEGER,
		priority_rationale TEXT,
		value TEXT
	);`

	queries := []string{
		`CREATE TABLE IF NOT EXISTS raw_indicators ` + variableColumns,
		`CREATE TABLE IF NOT EXISTS decision_variables ` + variableColumns,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			project_id TEXT,
			section_number INTEGER,
			question_name TEXT,
			section_name TEXT,
			section_description TEXT,
			is_mandatory BOOLEAN,
			section_triggering_criteria TEXT,
			question_var_name TEXT,
			impacted_raw_indicators JSON,
			question_triggering_criteria TEXT,
			is_conditional BOOLEAN,
			formula TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS prompts (
			id TEXT PRIMARY KEY,
			project_id TEXT,
			prompt TEXT,
			title TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			content JSON,
			embedding BLOB
		);`,
		`CREATE INDEX IF NOT EXISTS idx_raw_indicators_project ON raw_indicators(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_decision_variables_project ON decision_variables(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_project ON questions(project_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

const upsertVariableSQL = `
	INSERT INTO %s (id, project_id, base_id, name, var_name, description, formula, type, impact_score, priority_rationale, value)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		project_id=excluded.project_id,
		base_id=excluded.base_id,
		name=excluded.name,
		var_name=excluded.var_name,
		description=excluded.description,
		formula=excluded.formula,
		type=excluded.type,
		impact_score=excluded.impact_score,
		priority_rationale=excluded.priority_rationale,
		value=excluded.value
`

func variableTable(role model.Role) (string, error) {
	switch role {
	case model.RoleRawIndicator:
		return "raw_indicators", nil
	case model.RoleDecisionVariable:
		return "decision_variables", nil
	default:
		return "", fmt.Errorf("unknown variable role: %s", role)
	}
}

// UpsertVariables writes the variables of a single role to its table.
func (s *SQLiteStore) UpsertVariables(ctx context.Context, role model.Role, vars []model.Variable) error {
	if len(vars) == 0 {
		return nil
	}
	table, err := variableTable(role)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(upsertVariableSQL, table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range vars {
		var value sql.NullString
		if v.Value != nil {
			value = sql.NullString{String: *v.Value, Valid: true}
		}
		if _, err := stmt.Exec(v.ID.RecordID(), v.ID.ProjectID, v.ID.BaseID, v.Name, v.VarName,
			v.Description, v.Formula, v.Type, v.ImpactWeight, v.WeightRationale, value); err != nil {
			return fmt.Errorf("failed to upsert %s %s: %w", role, v.VarName, err)
		}
	}

	return tx.Commit()
}

// LoadVariables reads back all variables of a role for a project, in var_name
// order.
func (s *SQLiteStore) LoadVariables(ctx context.Context, role model.Role, projectID string) ([]model.Variable, error) {
	table, err := variableTable(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT project_id, base_id, name, var_name, description, formula, type, impact_score, priority_rationale, value
		FROM %s WHERE project_id = ? ORDER BY var_name`, table)
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out []model.Variable
	for rows.Next() {
		var v model.Variable
		var value sql.NullString
		if err := rows.Scan(&v.ID.ProjectID, &v.ID.BaseID, &v.Name, &v.VarName,
			&v.Description, &v.Formula, &v.Type, &v.ImpactWeight, &v.WeightRationale, &value); err != nil {
			return nil, fmt.Errorf("failed to scan variable: %w", err)
		}
		v.Role = role
		if value.Valid {
			v.Value = &value.String
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type impactedIndicator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SaveSnapshot persists the full workflow result: both variable sets, the
// questionnaire flattened into one row per question, and the prompt record.
// Each table is written in its own transaction; a failure leaves earlier
// tables written and is reported to the caller.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	if err := s.UpsertVariables(ctx, model.RoleRawIndicator, snap.RawIndicators); err != nil {
		return err
	}
	if err := s.UpsertVariables(ctx, model.RoleDecisionVariable, snap.DecisionVariables); err != nil {
		return err
	}
	if snap.Questionnaire != nil {
		if err := s.upsertQuestions(ctx, snap); err != nil {
			return err
		}
	}
	return s.upsertPrompt(ctx, snap)
}

func (s *SQLiteStore) upsertQuestions(ctx context.Context, snap *model.Snapshot) error {
	indicators := model.IndexByVarName(snap.RawIndicators)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (id, project_id, section_number, question_name, section_name, section_description,
			is_mandatory, section_triggering_criteria, question_var_name, impacted_raw_indicators,
			question_triggering_criteria, is_conditional, formula)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id=excluded.project_id,
			section_number=excluded.section_number,
			question_name=excluded.question_name,
			section_name=excluded.section_name,
			section_description=excluded.section_description,
			is_mandatory=excluded.is_mandatory,
			section_triggering_criteria=excluded.section_triggering_criteria,
			question_var_name=excluded.question_var_name,
			impacted_raw_indicators=excluded.impacted_raw_indicators,
			question_triggering_criteria=excluded.question_triggering_criteria,
			is_conditional=excluded.is_conditional,
			formula=excluded.formula
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, section := range snap.Questionnaire.Sections {
		for _, question := range section.Questions() {
			var impacted []impactedIndicator
			for _, varName := range question.RawIndicators {
				if ri, ok := indicators[varName]; ok {
					impacted = append(impacted, impactedIndicator{ID: ri.ID.RecordID(), Name: ri.Name})
				}
			}
			impactedJSON, _ := json.Marshal(impacted)

			if _, err := stmt.Exec(question.ID.RecordID(), snap.ProjectID, section.Order, question.Text,
				section.Title, section.Description, section.IsMandatory, section.TriggeringCriteria,
				question.VariableName, impactedJSON, question.TriggeringCriteria, question.IsConditional,
				question.Formula); err != nil {
				return fmt.Errorf("failed to upsert question %s: %w", question.VariableName, err)
			}
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) upsertPrompt(ctx context.Context, snap *model.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prompts (id, project_id, prompt, title) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id=excluded.project_id,
			prompt=excluded.prompt,
			title=excluded.title
	`, snap.ProjectID, snap.ProjectID, snap.Prompt, snap.QuestionnaireTitle)
	if err != nil {
		return fmt.Errorf("failed to upsert prompt: %w", err)
	}
	return nil
}

// CountQuestions reports how many question rows exist for a project.
func (s *SQLiteStore) CountQuestions(ctx context.Context, projectID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions WHERE project_id = ?", projectID).Scan(&n)
	return n, err
}

// --- retrieval.Index implementation ---

// Add persists embedded corpus entries.
func (s *SQLiteStore) Add(ctx context.Context, items []retrieval.VectorItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, content, embedding) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content=excluded.content, embedding=excluded.embedding
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		stored := item
		stored.Embedding = nil
		contentJSON, err := json.Marshal(stored)
		if err != nil {
			continue
		}

		buf := new(bytes.Buffer)
		if err := binary.Write(buf, binary.LittleEndian, item.Embedding); err != nil {
			return err
		}

		if _, err := stmt.Exec(item.ID, contentJSON, buf.Bytes()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Search scans all stored embeddings with cosine similarity. The corpus is a
// few hundred entries, so a full scan per query is fast enough.
func (s *SQLiteStore) Search(ctx context.Context, queryVector []float32, topK int) ([]retrieval.VectorItem, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT content, embedding FROM chunks")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type candidate struct {
		item  retrieval.VectorItem
		score float32
	}
	var candidates []candidate

	for rows.Next() {
		var contentJSON []byte
		var embeddingBlob []byte
		if err := rows.Scan(&contentJSON, &embeddingBlob); err != nil {
			return nil, err
		}

		var item retrieval.VectorItem
		if err := json.Unmarshal(contentJSON, &item); err != nil {
			continue
		}

		embedding := make([]float32, len(embeddingBlob)/4)
		if err := binary.Read(bytes.NewReader(embeddingBlob), binary.LittleEndian, &embedding); err != nil {
			continue
		}

		candidates = append(candidates, candidate{
			item:  item,
			score: retrieval.CosineSimilarity(queryVector, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[i].score < candidates[j].score {
				candidates[i], candidates[j] = candidates[j], candidates[i]
			}
		}
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	result := make([]retrieval.VectorItem, len(candidates))
	for i, c := range candidates {
		result[i] = c.item
	}
	return result, nil
}

// CountChunks reports whether the corpus has been ingested already.
func (s *SQLiteStore) CountChunks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}
