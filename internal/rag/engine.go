// File path: internal/rag/engine.go
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/querypilot/querypilot/internal/common"
	"github.com/querypilot/querypilot/internal/database"
	"github.com/querypilot/querypilot/internal/vector"
)

// Introspector is the slice of the database connector the engine needs.
type Introspector interface {
	FullSchema(ctx context.Context) database.Schema
	SchemaForPrompt(ctx context.Context) string
	TableSchema(ctx context.Context, table string) (database.TableSchema, bool)
	SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error)
}

// Engine indexes the database schema into the vector store and retrieves the
// schema context most relevant to a question. Failures during indexing or
// retrieval are reported in result values, never raised to the caller.
type Engine struct {
	db    Introspector
	store vector.Store

	sampleRows int
}

// IndexResult reports one indexing pass.
type IndexResult struct {
	Success        bool   `json:"success"`
	TablesIndexed  int    `json:"tables_indexed"`
	DocumentsAdded int    `json:"documents_added"`
	Message        string `json:"message,omitempty"`
	Err            string `json:"error,omitempty"`
}

// ColumnMatch is one retrieved column with its similarity-derived relevance
// in [0,1].
type ColumnMatch struct {
	Table     string  `json:"table"`
	Column    string  `json:"column"`
	Type      string  `json:"type"`
	Relevance float64 `json:"relevance"`
}

// RetrievalResult is the ephemeral outcome of one context retrieval.
type RetrievalResult struct {
	Success bool          `json:"success"`
	Context string        `json:"context"`
	Tables  []string      `json:"tables"`
	Columns []ColumnMatch `json:"columns"`
	Err     string        `json:"error,omitempty"`
}

// Stats describes the current state of the vector index.
type Stats struct {
	Initialized bool   `json:"initialized"`
	Collection  string `json:"collection,omitempty"`
	Documents   int    `json:"document_count"`
	Err         string `json:"error,omitempty"`
}

const (
	// contextPartLimit caps how many matched document texts are folded into
	// the context block.
	contextPartLimit = 10
	// relevantSchemaCandidates is the wider candidate count used when
	// resolving relevant tables for a prompt.
	relevantSchemaCandidates = 20
)

func NewEngine(db Introspector, store vector.Store) *Engine {
	return &Engine{db: db, store: store, sampleRows: 2}
}

// Initialized reports whether the vector collection is reachable.
func (e *Engine) Initialized() bool {
	return e != nil && e.store != nil && e.store.Available()
}

// IndexSchema writes one document per table, per column, and per table's
// sample rows, plus a hash marker, into the vector collection in a single
// batch. Unless force is set, an unchanged schema (matching hash marker)
// makes the call a no-op success. Forcing deletes every existing document
// first.
func (e *Engine) IndexSchema(ctx context.Context, force bool) IndexResult {
	logger := common.Logger()
	result := IndexResult{}
	if e == nil || e.store == nil {
		result.Err = "vector store not configured"
		return result
	}
	schema := e.db.FullSchema(ctx)
	hash := schemaHash(schema)

	if !force {
		existing, err := e.store.Get(ctx, []string{hashDocID(hash)})
		if err != nil {
			logger.Error("rag: hash lookup failed", "error", err)
			result.Err = err.Error()
			return result
		}
		if len(existing) > 0 {
			logger.Info("rag: schema already indexed, skipping", "hash", hash)
			result.Success = true
			result.Message = "Schema already indexed"
			return result
		}
	} else {
		if err := e.clearCollection(ctx); err != nil {
			logger.Warn("rag: clearing collection failed", "error", err)
		}
	}

	docs := make([]vector.Document, 0, len(schema)*4+1)
	for _, table := range schema {
		docs = append(docs, vector.Document{
			ID:   tableDocID(table.Name),
			Text: tableDocument(table),
			Metadata: map[string]any{
				"kind":         kindTable,
				"table_name":   table.Name,
				"column_count": len(table.Columns),
			},
		})
		for _, col := range table.Columns {
			docs = append(docs, vector.Document{
				ID:   columnDocID(table.Name, col.Name),
				Text: columnDocument(table.Name, col),
				Metadata: map[string]any{
					"kind":        kindColumn,
					"table_name":  table.Name,
					"column_name": col.Name,
					"column_type": col.Type,
				},
			})
		}
		// Sample documents are best effort; a failed read skips the table.
		rows, err := e.db.SampleRows(ctx, table.Name, e.sampleRows)
		if err != nil {
			logger.Warn("rag: sample rows unavailable", "table", table.Name, "error", err)
		} else if len(rows) > 0 {
			docs = append(docs, vector.Document{
				ID:   sampleDocID(table.Name),
				Text: sampleDocument(table.Name, rows),
				Metadata: map[string]any{
					"kind":       kindSample,
					"table_name": table.Name,
				},
			})
		}
	}
	docs = append(docs, vector.Document{
		ID:       hashDocID(hash),
		Text:     "Schema hash: " + hash,
		Metadata: map[string]any{"kind": kindHash},
	})

	if err := e.store.Add(ctx, docs); err != nil {
		logger.Error("rag: indexing schema failed", "error", err)
		result.Err = err.Error()
		return result
	}
	result.Success = true
	result.TablesIndexed = len(schema)
	result.DocumentsAdded = len(docs)
	logger.Info("rag: schema indexed", "tables", len(schema), "documents", len(docs))
	return result
}

func (e *Engine) clearCollection(ctx context.Context) error {
	ids, err := e.store.Get(ctx, nil)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return e.store.Delete(ctx, ids)
}

// RetrieveContext runs a nearest-neighbor query and partitions the matches by
// kind into a table set and column list. Each column entry carries
// relevance = 1 - distance. Matched texts are concatenated into a context
// block capped at the first ten entries.
func (e *Engine) RetrieveContext(ctx context.Context, query string, topK int, includeSamples bool) RetrievalResult {
	logger := common.Logger()
	result := RetrievalResult{}
	if e == nil || e.store == nil {
		result.Err = "vector store not configured"
		return result
	}
	matches, err := e.store.Query(ctx, query, topK)
	if err != nil {
		logger.Error("rag: retrieval failed", "error", err)
		result.Err = err.Error()
		return result
	}
	if len(matches) == 0 {
		result.Err = "no results found"
		return result
	}
	var (
		tables  []string
		seen    = make(map[string]struct{})
		columns []ColumnMatch
		parts   []string
	)
	addTable := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		tables = append(tables, name)
	}
	for _, match := range matches {
		kind, _ := match.Metadata["kind"].(string)
		tableName, _ := match.Metadata["table_name"].(string)
		switch kind {
		case kindTable:
			addTable(tableName)
			parts = append(parts, match.Text)
		case kindColumn:
			addTable(tableName)
			columnName, _ := match.Metadata["column_name"].(string)
			columnType, _ := match.Metadata["column_type"].(string)
			columns = append(columns, ColumnMatch{
				Table:     tableName,
				Column:    columnName,
				Type:      columnType,
				Relevance: 1 - match.Distance,
			})
			parts = append(parts, match.Text)
		case kindSample:
			if includeSamples {
				addTable(tableName)
				parts = append(parts, match.Text)
			}
		}
	}
	result.Success = true
	result.Tables = tables
	result.Columns = columns
	result.Context = buildContextBlock(tables, parts)
	return result
}

func buildContextBlock(tables, parts []string) string {
	lines := []string{
		"Retrieved Context:",
		strings.Repeat("-", 40),
		"Relevant tables: " + strings.Join(tables, ", "),
		"",
		"Details:",
	}
	if len(parts) > contextPartLimit {
		parts = parts[:contextPartLimit]
	}
	for _, part := range parts {
		lines = append(lines, "- "+part)
	}
	return strings.Join(lines, "\n")
}

// RelevantSchema resolves the schema text supplied to the model prompt. When
// retrieval fails or matches no tables, the full schema is used instead.
func (e *Engine) RelevantSchema(ctx context.Context, query string, maxTables int) string {
	retrieval := e.RetrieveContext(ctx, query, relevantSchemaCandidates, false)
	if !retrieval.Success || len(retrieval.Tables) == 0 {
		return e.db.SchemaForPrompt(ctx)
	}
	relevant := retrieval.Tables
	if maxTables > 0 && len(relevant) > maxTables {
		relevant = relevant[:maxTables]
	}
	var b strings.Builder
	b.WriteString("Relevant Database Schema:\n")
	b.WriteString(strings.Repeat("=", 40))
	for _, name := range relevant {
		table, ok := e.db.TableSchema(ctx, name)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n\nTable: %s", table.Name)
		for _, col := range table.Columns {
			fmt.Fprintf(&b, "\n  - %s (%s)", col.Name, col.Type)
		}
	}
	return b.String()
}

// IndexStats reports collection state for diagnostics.
func (e *Engine) IndexStats(ctx context.Context) Stats {
	if !e.Initialized() {
		return Stats{Initialized: false}
	}
	stats := Stats{Initialized: true, Collection: e.store.Collection()}
	count, err := e.store.Count(ctx)
	if err != nil {
		stats.Err = err.Error()
		return stats
	}
	stats.Documents = count
	return stats
}
