// File path: internal/database/schema.go
package database

import (
	"strings"
)

// Column describes a single column of a relational table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableSchema holds the ordered column set of one table.
type TableSchema struct {
	Name    string   `json:"table_name"`
	Columns []Column `json:"columns"`
}

// Schema is the full database schema, tables in the order reported by the
// driver. It is rebuilt wholesale on every introspection, never mutated in
// place.
type Schema []TableSchema

// Tables returns the table names in schema order.
func (s Schema) Tables() []string {
	names := make([]string, 0, len(s))
	for _, table := range s {
		names = append(names, table.Name)
	}
	return names
}

// Table returns the schema for the named table, matching case-insensitively.
func (s Schema) Table(name string) (TableSchema, bool) {
	for _, table := range s {
		if strings.EqualFold(table.Name, name) {
			return table, true
		}
	}
	return TableSchema{}, false
}

// Prompt renders the schema as the human-readable block embedded in model
// prompts.
func (s Schema) Prompt() string {
	if len(s) == 0 {
		return "No tables found."
	}
	var b strings.Builder
	b.WriteString("Database Schema:\n")
	b.WriteString(strings.Repeat("=", 40))
	for _, table := range s {
		b.WriteString("\n\nTable: ")
		b.WriteString(table.Name)
		for _, col := range table.Columns {
			b.WriteString("\n  - ")
			b.WriteString(col.Name)
			b.WriteString(" (")
			b.WriteString(col.Type)
			b.WriteString(")")
		}
	}
	return b.String()
}
