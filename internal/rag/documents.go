// File path: internal/rag/documents.go
package rag

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/querypilot/querypilot/internal/database"
)

// Document kinds stored in the vector collection.
const (
	kindTable  = "table"
	kindColumn = "column"
	kindSample = "sample"
	kindHash   = "hash"
)

func tableDocID(table string) string  { return "table_" + table }
func sampleDocID(table string) string { return "sample_" + table }
func hashDocID(hash string) string    { return "schema_hash_" + hash }

func columnDocID(table, column string) string {
	return fmt.Sprintf("column_%s_%s", table, column)
}

// tableDocument renders a prose summary of one table for embedding.
func tableDocument(table database.TableSchema) string {
	descriptions := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		descriptions = append(descriptions, fmt.Sprintf("%s (%s)", col.Name, col.Type))
	}
	return fmt.Sprintf(
		"Table '%s' contains %d columns: %s. This table can be queried using SELECT statements.",
		table.Name, len(table.Columns), strings.Join(descriptions, ", "),
	)
}

// columnDocument renders a prose description of one column, enriched with
// semantic hints inferred from the column name.
func columnDocument(table string, col database.Column) string {
	hints := columnHints(col.Name)
	hintStr := ""
	if len(hints) > 0 {
		hintStr = fmt.Sprintf(" Used for: %s.", strings.Join(hints, ", "))
	}
	return fmt.Sprintf("Column '%s' in table '%s' has type %s.%s", col.Name, table, col.Type, hintStr)
}

// columnHints maps common naming conventions to semantic hint phrases. A
// column may carry several hints.
func columnHints(name string) []string {
	lower := strings.ToLower(name)
	var hints []string
	if strings.Contains(lower, "id") {
		hints = append(hints, "identifier/primary key")
	}
	if strings.Contains(lower, "name") {
		hints = append(hints, "text/name field")
	}
	if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
		hints = append(hints, "datetime field")
	}
	if strings.Contains(lower, "price") || strings.Contains(lower, "amount") || strings.Contains(lower, "cost") {
		hints = append(hints, "monetary value")
	}
	if strings.Contains(lower, "count") || strings.Contains(lower, "quantity") {
		hints = append(hints, "numeric count")
	}
	if strings.Contains(lower, "email") {
		hints = append(hints, "email address")
	}
	if strings.Contains(lower, "status") || strings.Contains(lower, "state") {
		hints = append(hints, "status/state field")
	}
	if strings.Contains(lower, "is_") || strings.Contains(lower, "has_") {
		hints = append(hints, "boolean flag")
	}
	return hints
}

// sampleDocument renders sample rows as a document. Rows are JSON-encoded so
// the text is deterministic.
func sampleDocument(table string, rows []map[string]any) string {
	encoded, err := json.Marshal(rows)
	if err != nil {
		encoded = []byte(fmt.Sprintf("%v", rows))
	}
	return fmt.Sprintf("Sample data from %s: %s", table, encoded)
}

// schemaHash computes a short content hash of the schema, stable across table
// ordering, used to skip redundant re-embedding.
func schemaHash(schema database.Schema) string {
	sorted := make(database.Schema, len(schema))
	copy(sorted, schema)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	var b strings.Builder
	for _, table := range sorted {
		b.WriteString(table.Name)
		for _, col := range table.Columns {
			fmt.Fprintf(&b, "|%s:%s:%t", col.Name, col.Type, col.Nullable)
		}
		b.WriteString(";")
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:16]
}
