// File path: internal/sqlgen/orchestrator.go
package sqlgen

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/querypilot/querypilot/internal/common"
	"github.com/querypilot/querypilot/internal/database"
)

// Executor is the slice of the database connector the orchestrator needs.
type Executor interface {
	ExecuteQuery(ctx context.Context, query string, args ...any) database.ExecResult
	AllTables(ctx context.Context) []string
	SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error)
}

// SchemaSource resolves the schema text fed into the generation prompt.
type SchemaSource interface {
	RelevantSchema(ctx context.Context, query string, maxTables int) string
}

// GenerateResult is the full outcome of one question-to-SQL run: generated
// SQL, its validation, and optionally execution rows and an explanation.
type GenerateResult struct {
	Success     bool                 `json:"success"`
	Question    string               `json:"question"`
	SQL         string               `json:"sql,omitempty"`
	Backend     string               `json:"backend,omitempty"`
	Validation  *Validation          `json:"validation,omitempty"`
	Execution   *database.ExecResult `json:"execution,omitempty"`
	Explanation *Explanation         `json:"explanation,omitempty"`
	Err         string               `json:"error,omitempty"`
}

// Orchestrator wires schema retrieval, generation, validation, and optional
// execution into one pipeline. Collaborators are injected; every failure is
// reported in the result value.
type Orchestrator struct {
	backend   Backend
	schemas   SchemaSource
	db        Executor
	explainer *Explainer

	maxSchemaTables int
	sampleTables    int
}

// OrchestratorOption adjusts orchestrator construction.
type OrchestratorOption func(*Orchestrator)

// WithExplainer enables explanation attachment for executed queries.
func WithExplainer(explainer *Explainer) OrchestratorOption {
	return func(o *Orchestrator) { o.explainer = explainer }
}

func NewOrchestrator(backend Backend, schemas SchemaSource, db Executor, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		backend:         backend,
		schemas:         schemas,
		db:              db,
		maxSchemaTables: 5,
		sampleTables:    3,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// GenerateSQL resolves schema context for the question, runs the generation
// backend, and validates the produced statement against the live table list.
// Success requires both a non-empty statement and a safe validation.
// sampleRows caps how many rows are read per table when sample data is
// requested; zero or less uses the connector's default.
func (o *Orchestrator) GenerateSQL(ctx context.Context, question string, includeSamples bool, sampleRows int) GenerateResult {
	logger := common.Logger()
	result := GenerateResult{Question: question, Backend: o.backend.Name()}

	schemaContext := o.schemas.RelevantSchema(ctx, question, o.maxSchemaTables)
	sampleData := ""
	if includeSamples {
		sampleData = o.sampleDataBlock(ctx, sampleRows)
	}

	generated := o.backend.Generate(ctx, question, schemaContext, sampleData)
	if generated.Err != "" {
		result.Err = generated.Err
		return result
	}
	sql := strings.TrimSpace(generated.SQL)
	if sql == "" {
		result.Err = "No SQL generated"
		return result
	}
	if strings.HasPrefix(sql, "CANNOT_GENERATE") {
		result.Err = strings.TrimSpace(strings.TrimPrefix(sql, "CANNOT_GENERATE:"))
		if result.Err == "" {
			result.Err = "Cannot generate SQL for this question"
		}
		return result
	}

	validation := Validate(sql, o.db.AllTables(ctx))
	result.SQL = sql
	result.Validation = &validation
	result.Success = validation.IsSafe
	if !validation.IsSafe {
		logger.Warn("sqlgen: generated query failed validation",
			"risk_score", validation.RiskScore, "issues", validation.Issues)
	}
	return result
}

// GenerateAndExecute generates, then runs the statement when generation and
// validation both pass. Execution failures keep the generated SQL in the
// result so the caller can inspect it.
func (o *Orchestrator) GenerateAndExecute(ctx context.Context, question string, includeSamples bool, sampleRows int, explain bool) GenerateResult {
	result := o.GenerateSQL(ctx, question, includeSamples, sampleRows)
	if !result.Success {
		return result
	}
	exec := o.db.ExecuteQuery(ctx, result.SQL)
	result.Execution = &exec
	if !exec.Success {
		result.Success = false
		result.Err = "Execution failed: " + exec.Err
		return result
	}
	if explain && o.explainer != nil {
		explanation := o.explainer.Explain(ctx, result.SQL)
		if explanation.Success {
			result.Explanation = &explanation
		}
	}
	return result
}

// Execute runs a caller-supplied statement after validation. Unsafe
// statements are rejected without touching the database.
func (o *Orchestrator) Execute(ctx context.Context, sql string) GenerateResult {
	result := GenerateResult{SQL: sql}
	validation := Validate(sql, o.db.AllTables(ctx))
	result.Validation = &validation
	if !validation.IsSafe {
		result.Err = "Query rejected: " + strings.Join(validation.Issues, "; ")
		return result
	}
	exec := o.db.ExecuteQuery(ctx, sql)
	result.Execution = &exec
	result.Success = exec.Success
	if !exec.Success {
		result.Err = "Execution failed: " + exec.Err
	}
	return result
}

// Suggestions returns example questions appropriate for the demo schema.
func (o *Orchestrator) Suggestions(limit int) []string {
	suggestions := []string{
		"Show all customers",
		"Show all products",
		"How many orders are there?",
		"What is the average price of products?",
		"List all orders for customer John Doe",
	}
	if limit > 0 && limit < len(suggestions) {
		return suggestions[:limit]
	}
	return suggestions
}

// sampleDataBlock collects a few rows from the first tables to anchor the
// prompt in real values. Best effort; unreadable tables are skipped.
func (o *Orchestrator) sampleDataBlock(ctx context.Context, limit int) string {
	tables := o.db.AllTables(ctx)
	if len(tables) > o.sampleTables {
		tables = tables[:o.sampleTables]
	}
	var parts []string
	for _, table := range tables {
		rows, err := o.db.SampleRows(ctx, table, limit)
		if err != nil || len(rows) == 0 {
			continue
		}
		encoded, err := json.Marshal(rows)
		if err != nil {
			continue
		}
		parts = append(parts, table+": "+string(encoded))
	}
	return strings.Join(parts, "\n")
}
