// File path: internal/sqlgen/orchestrator_test.go
package sqlgen

import (
	"context"
	"strings"
	"testing"

	"github.com/querypilot/querypilot/internal/database"
)

type fakeBackend struct {
	result       GenerationResult
	lastQuestion string
	lastContext  string
	lastSamples  string
}

func (f *fakeBackend) Generate(ctx context.Context, question, schemaContext, sampleData string) GenerationResult {
	f.lastQuestion = question
	f.lastContext = schemaContext
	f.lastSamples = sampleData
	return f.result
}

func (f *fakeBackend) Name() string { return "fake" }

type fakeSchemaSource struct {
	schema string
}

func (f *fakeSchemaSource) RelevantSchema(ctx context.Context, query string, maxTables int) string {
	return f.schema
}

type fakeExecutor struct {
	tables     []string
	execResult database.ExecResult
	sampleRows map[string][]map[string]any
	executed   []string
}

func (f *fakeExecutor) ExecuteQuery(ctx context.Context, query string, args ...any) database.ExecResult {
	f.executed = append(f.executed, query)
	return f.execResult
}

func (f *fakeExecutor) AllTables(ctx context.Context) []string {
	return f.tables
}

func (f *fakeExecutor) SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	return f.sampleRows[table], nil
}

func newTestOrchestrator(backend Backend, db Executor) *Orchestrator {
	return NewOrchestrator(backend, &fakeSchemaSource{schema: "Table: customers"}, db)
}

func TestGenerateSQLSuccess(t *testing.T) {
	backend := &fakeBackend{result: GenerationResult{Success: true, SQL: "SELECT * FROM customers;"}}
	db := &fakeExecutor{tables: []string{"customers"}}
	orch := newTestOrchestrator(backend, db)

	result := orch.GenerateSQL(context.Background(), "Show all customers", false, 0)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Err)
	}
	if result.SQL != "SELECT * FROM customers;" {
		t.Fatalf("unexpected sql: %q", result.SQL)
	}
	if result.Validation == nil || !result.Validation.IsSafe {
		t.Fatalf("expected safe validation, got %+v", result.Validation)
	}
	if backend.lastContext != "Table: customers" {
		t.Fatalf("schema context not passed through, got %q", backend.lastContext)
	}
	if backend.lastSamples != "" {
		t.Fatal("sample data must be empty when not requested")
	}
}

func TestGenerateSQLEmptyOutput(t *testing.T) {
	backend := &fakeBackend{result: GenerationResult{Success: true, SQL: "  "}}
	orch := newTestOrchestrator(backend, &fakeExecutor{})

	result := orch.GenerateSQL(context.Background(), "anything", false, 0)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Err != "No SQL generated" {
		t.Fatalf("unexpected error: %q", result.Err)
	}
}

func TestGenerateSQLRefusal(t *testing.T) {
	backend := &fakeBackend{result: GenerationResult{Success: true, SQL: "CANNOT_GENERATE: no matching table"}}
	orch := newTestOrchestrator(backend, &fakeExecutor{})

	result := orch.GenerateSQL(context.Background(), "impossible question", false, 0)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Err != "no matching table" {
		t.Fatalf("unexpected error: %q", result.Err)
	}
}

func TestGenerateSQLUnsafeStatement(t *testing.T) {
	backend := &fakeBackend{result: GenerationResult{Success: true, SQL: "DROP TABLE customers;"}}
	db := &fakeExecutor{tables: []string{"customers"}}
	orch := newTestOrchestrator(backend, db)

	result := orch.GenerateSQL(context.Background(), "delete everything", false, 0)
	if result.Success {
		t.Fatal("unsafe statement must not succeed")
	}
	if result.Validation == nil || result.Validation.IsSafe {
		t.Fatal("expected unsafe validation")
	}
	if result.SQL == "" {
		t.Fatal("generated sql must be kept for inspection")
	}
}

func TestGenerateSQLIncludesSampleData(t *testing.T) {
	backend := &fakeBackend{result: GenerationResult{Success: true, SQL: "SELECT * FROM customers;"}}
	db := &fakeExecutor{
		tables: []string{"customers"},
		sampleRows: map[string][]map[string]any{
			"customers": {{"id": 1, "name": "John Doe"}},
		},
	}
	orch := newTestOrchestrator(backend, db)

	orch.GenerateSQL(context.Background(), "Show all customers", true, 1)
	if !strings.Contains(backend.lastSamples, "customers:") {
		t.Fatalf("expected sample block, got %q", backend.lastSamples)
	}
	if !strings.Contains(backend.lastSamples, "John Doe") {
		t.Fatalf("expected row values in sample block, got %q", backend.lastSamples)
	}
}

func TestGenerateAndExecuteSuccess(t *testing.T) {
	backend := &fakeBackend{result: GenerationResult{Success: true, SQL: "SELECT * FROM customers;"}}
	db := &fakeExecutor{
		tables: []string{"customers"},
		execResult: database.ExecResult{
			Success:  true,
			Rows:     []map[string]any{{"id": int64(1)}},
			RowCount: 1,
		},
	}
	orch := newTestOrchestrator(backend, db)

	result := orch.GenerateAndExecute(context.Background(), "Show all customers", false, 0, false)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Err)
	}
	if result.Execution == nil || result.Execution.RowCount != 1 {
		t.Fatalf("unexpected execution result: %+v", result.Execution)
	}
	if len(db.executed) != 1 || db.executed[0] != "SELECT * FROM customers;" {
		t.Fatalf("unexpected executed statements: %v", db.executed)
	}
}

func TestGenerateAndExecuteSkipsExecutionOnFailure(t *testing.T) {
	backend := &fakeBackend{result: GenerationResult{Err: "LLM client not initialized"}}
	db := &fakeExecutor{}
	orch := newTestOrchestrator(backend, db)

	result := orch.GenerateAndExecute(context.Background(), "anything", false, 0, false)
	if result.Success {
		t.Fatal("expected failure")
	}
	if len(db.executed) != 0 {
		t.Fatal("nothing should execute after generation failure")
	}
}

func TestGenerateAndExecuteReportsExecutionError(t *testing.T) {
	backend := &fakeBackend{result: GenerationResult{Success: true, SQL: "SELECT * FROM customers;"}}
	db := &fakeExecutor{
		tables:     []string{"customers"},
		execResult: database.ExecResult{Err: "no such table: customers"},
	}
	orch := newTestOrchestrator(backend, db)

	result := orch.GenerateAndExecute(context.Background(), "Show all customers", false, 0, false)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Err != "Execution failed: no such table: customers" {
		t.Fatalf("unexpected error: %q", result.Err)
	}
	if result.SQL == "" {
		t.Fatal("generated sql must survive execution failure")
	}
}

func TestExecuteRejectsUnsafeStatement(t *testing.T) {
	db := &fakeExecutor{tables: []string{"customers"}}
	orch := newTestOrchestrator(&fakeBackend{}, db)

	result := orch.Execute(context.Background(), "DELETE FROM customers")
	if result.Success {
		t.Fatal("expected rejection")
	}
	if !strings.HasPrefix(result.Err, "Query rejected:") {
		t.Fatalf("unexpected error: %q", result.Err)
	}
	if len(db.executed) != 0 {
		t.Fatal("rejected statement must not reach the database")
	}
}

func TestSuggestionsLimit(t *testing.T) {
	orch := newTestOrchestrator(&fakeBackend{}, &fakeExecutor{})
	all := orch.Suggestions(0)
	if len(all) != 5 {
		t.Fatalf("expected 5 suggestions, got %d", len(all))
	}
	if all[0] != "Show all customers" {
		t.Fatalf("unexpected first suggestion: %q", all[0])
	}
	limited := orch.Suggestions(2)
	if len(limited) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(limited))
	}
	oversized := orch.Suggestions(50)
	if len(oversized) != 5 {
		t.Fatalf("limit above length must return all, got %d", len(oversized))
	}
}
