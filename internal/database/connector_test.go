// File path: internal/database/connector_test.go
package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestConnector(t *testing.T, opts ...Option) *Connector {
	t.Helper()
	cfg := Config{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}
	cfg.applyDefaults()
	c := NewConnector(cfg, opts...)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	statements := []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER, order_date TEXT)`,
		`INSERT INTO customers (name, email) VALUES ('John Doe', 'john@example.com'), ('Jane Roe', 'jane@example.com')`,
		`INSERT INTO orders (customer_id, order_date) VALUES (1, '2024-01-15')`,
	}
	for _, stmt := range statements {
		result := c.ExecuteQuery(ctx, stmt)
		if !result.Success {
			t.Fatalf("setup %q failed: %s", stmt, result.Err)
		}
	}
	return c
}

func TestExecuteQueryReturnsRows(t *testing.T) {
	c := newTestConnector(t)
	result := c.ExecuteQuery(context.Background(), "SELECT id, name FROM customers ORDER BY id")
	if !result.Success {
		t.Fatalf("query failed: %s", result.Err)
	}
	if result.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", result.RowCount)
	}
	if len(result.Columns) != 2 || result.Columns[0] != "id" {
		t.Fatalf("unexpected columns: %v", result.Columns)
	}
	if name, _ := result.Rows[0]["name"].(string); name != "John Doe" {
		t.Fatalf("unexpected first row: %v", result.Rows[0])
	}
	if result.ExecutionTime < 0 {
		t.Fatalf("execution time must be non-negative, got %v", result.ExecutionTime)
	}
}

func TestExecuteQueryReportsErrors(t *testing.T) {
	c := newTestConnector(t)
	result := c.ExecuteQuery(context.Background(), "SELECT * FROM missing_table")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Err == "" {
		t.Fatal("expected error detail")
	}
}

func TestAllTablesExcludesInternal(t *testing.T) {
	c := newTestConnector(t)
	tables := c.AllTables(context.Background())
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %v", tables)
	}
	if tables[0] != "customers" || tables[1] != "orders" {
		t.Fatalf("unexpected table order: %v", tables)
	}
}

func TestTableSchemaIntrospection(t *testing.T) {
	c := newTestConnector(t)
	schema, ok := c.TableSchema(context.Background(), "customers")
	if !ok {
		t.Fatal("expected introspection to succeed")
	}
	if len(schema.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %v", schema.Columns)
	}
	if schema.Columns[1].Name != "name" || schema.Columns[1].Nullable {
		t.Fatalf("expected non-nullable name column, got %+v", schema.Columns[1])
	}
	if !schema.Columns[2].Nullable {
		t.Fatalf("expected nullable email column, got %+v", schema.Columns[2])
	}
}

func TestFullSchemaUsesCacheUntilExpiry(t *testing.T) {
	current := time.Unix(1000, 0)
	clock := func() time.Time { return current }
	c := newTestConnector(t, WithClock(clock))
	ctx := context.Background()

	first := c.FullSchema(ctx)
	if len(first) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(first))
	}

	// A new table is invisible while the cache is fresh.
	if result := c.ExecuteQuery(ctx, "CREATE TABLE products (id INTEGER PRIMARY KEY)"); !result.Success {
		t.Fatalf("create failed: %s", result.Err)
	}
	if cached := c.FullSchema(ctx); len(cached) != 2 {
		t.Fatalf("expected cached schema, got %d tables", len(cached))
	}

	current = current.Add(10 * time.Minute)
	if refreshed := c.FullSchema(ctx); len(refreshed) != 3 {
		t.Fatalf("expected refreshed schema, got %d tables", len(refreshed))
	}
}

func TestInvalidateSchemaForcesReload(t *testing.T) {
	c := newTestConnector(t)
	ctx := context.Background()
	c.FullSchema(ctx)
	if result := c.ExecuteQuery(ctx, "CREATE TABLE products (id INTEGER PRIMARY KEY)"); !result.Success {
		t.Fatalf("create failed: %s", result.Err)
	}
	c.InvalidateSchema()
	if schema := c.FullSchema(ctx); len(schema) != 3 {
		t.Fatalf("expected 3 tables after invalidate, got %d", len(schema))
	}
}

func TestSampleRows(t *testing.T) {
	c := newTestConnector(t)
	rows, err := c.SampleRows(context.Background(), "customers", 1)
	if err != nil {
		t.Fatalf("sample rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent(`cust"omers`); got != `"cust""omers"` {
		t.Fatalf("unexpected quoting: %s", got)
	}
}

func TestSchemaPrompt(t *testing.T) {
	c := newTestConnector(t)
	text := c.SchemaForPrompt(context.Background())
	if text == "" {
		t.Fatal("expected prompt text")
	}
	for _, want := range []string{"Database Schema:", "Table: customers", "- email (TEXT)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("prompt missing %q:\n%s", want, text)
		}
	}
}
