// File path: internal/database/connector.go
package database

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/querypilot/querypilot/internal/common"
)

// Connector owns the pooled connection to the relational database and exposes
// schema introspection plus guarded query execution. Introspection degrades to
// an empty schema when the database is unreachable so callers fall back to
// "no tables found" instead of failing.
type Connector struct {
	cfg   Config
	cache *schemaCache

	mu        sync.RWMutex
	db        *sqlx.DB
	connected bool
}

// ExecResult is the structured outcome of one query execution.
type ExecResult struct {
	Success       bool             `json:"success"`
	Rows          []map[string]any `json:"rows,omitempty"`
	Columns       []string         `json:"columns,omitempty"`
	RowCount      int64            `json:"row_count"`
	ExecutionTime float64          `json:"execution_time"`
	Err           string           `json:"error,omitempty"`
}

type Option func(*Connector)

// WithClock injects the clock used by the schema cache.
func WithClock(now Clock) Option {
	return func(c *Connector) {
		c.cache = newSchemaCache(c.cfg.SchemaTTL, now)
	}
}

func NewConnector(cfg Config, opts ...Option) *Connector {
	c := &Connector{cfg: cfg}
	c.cache = newSchemaCache(cfg.SchemaTTL, nil)
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Connect opens (or reopens) the pooled connection and verifies it with a
// ping.
func (c *Connector) Connect(ctx context.Context) error {
	logger := common.Logger()
	driver, dsn, err := c.cfg.dataSourceName()
	if err != nil {
		return err
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(c.cfg.MaxOpenConns)
	db.SetMaxIdleConns(c.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(c.cfg.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping %s: %w", driver, err)
	}
	c.mu.Lock()
	if c.db != nil {
		c.db.Close()
	}
	c.db = db
	c.connected = true
	c.mu.Unlock()
	logger.Info("database: connected", "driver", driver)
	return nil
}

func (c *Connector) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.db != nil
}

func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Connector) handle() *sqlx.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// withReconnect runs fn, attempting a single reconnect when the first pass
// fails.
func (c *Connector) withReconnect(ctx context.Context, fn func(db *sqlx.DB) error) error {
	db := c.handle()
	if db != nil {
		if err := fn(db); err == nil {
			return nil
		}
	}
	if err := c.Connect(ctx); err != nil {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		return err
	}
	return fn(c.handle())
}

// ExecuteQuery runs one SQL statement, routing SELECT-prefixed text through
// the row reader and everything else through Exec. Failures are reported in
// the result, not returned.
func (c *Connector) ExecuteQuery(ctx context.Context, query string, args ...any) ExecResult {
	logger := common.Logger()
	start := time.Now()
	result := ExecResult{}
	isRead := strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
	err := c.withReconnect(ctx, func(db *sqlx.DB) error {
		if isRead {
			rows, err := db.QueryxContext(ctx, query, args...)
			if err != nil {
				return err
			}
			defer rows.Close()
			columns, err := rows.Columns()
			if err != nil {
				return err
			}
			var data []map[string]any
			for rows.Next() {
				row := make(map[string]any, len(columns))
				if err := rows.MapScan(row); err != nil {
					return err
				}
				data = append(data, row)
			}
			if err := rows.Err(); err != nil {
				return err
			}
			result.Rows = data
			result.Columns = columns
			result.RowCount = int64(len(data))
			return nil
		}
		res, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, _ := res.RowsAffected()
		result.RowCount = affected
		return nil
	})
	result.ExecutionTime = time.Since(start).Seconds()
	if err != nil {
		logger.Error("database: query failed", "error", err)
		result.Err = err.Error()
		return result
	}
	result.Success = true
	return result
}

// AllTables lists user tables. On failure it returns an empty list after one
// reconnect attempt.
func (c *Connector) AllTables(ctx context.Context) []string {
	logger := common.Logger()
	var tables []string
	err := c.withReconnect(ctx, func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &tables, c.listTablesQuery())
	})
	if err != nil {
		logger.Error("database: listing tables failed", "error", err)
		return nil
	}
	return tables
}

func (c *Connector) listTablesQuery() string {
	if c.isPostgres() {
		return `SELECT table_name FROM information_schema.tables
			WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
			ORDER BY table_name`
	}
	return `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
}

func (c *Connector) isPostgres() bool {
	switch strings.ToLower(strings.TrimSpace(c.cfg.Driver)) {
	case "postgres", "postgresql", "pgx":
		return true
	}
	return false
}

// TableSchema introspects one table's ordered column set.
func (c *Connector) TableSchema(ctx context.Context, table string) (TableSchema, bool) {
	logger := common.Logger()
	schema := TableSchema{Name: table}
	err := c.withReconnect(ctx, func(db *sqlx.DB) error {
		columns, err := c.introspectColumns(ctx, db, table)
		if err != nil {
			return err
		}
		schema.Columns = columns
		return nil
	})
	if err != nil {
		logger.Error("database: table introspection failed", "table", table, "error", err)
		return TableSchema{}, false
	}
	return schema, true
}

func (c *Connector) introspectColumns(ctx context.Context, db *sqlx.DB, table string) ([]Column, error) {
	if c.isPostgres() {
		rows, err := db.QueryxContext(ctx, `SELECT column_name, data_type, is_nullable
			FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = $1
			ORDER BY ordinal_position`, table)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var columns []Column
		for rows.Next() {
			var name, dataType, nullable string
			if err := rows.Scan(&name, &dataType, &nullable); err != nil {
				return nil, err
			}
			columns = append(columns, Column{
				Name:     name,
				Type:     strings.ToUpper(dataType),
				Nullable: strings.EqualFold(nullable, "YES"),
			})
		}
		return columns, rows.Err()
	}
	rows, err := db.QueryxContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var columns []Column
	for rows.Next() {
		var (
			cid         int
			name, ctype string
			notNull     int
			dfltValue   any
			pk          int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, Column{Name: name, Type: ctype, Nullable: notNull == 0})
	}
	return columns, rows.Err()
}

// FullSchema introspects every table, serving from the TTL cache when fresh.
func (c *Connector) FullSchema(ctx context.Context) Schema {
	if cached, ok := c.cache.get(); ok {
		return cached
	}
	tables := c.AllTables(ctx)
	schema := make(Schema, 0, len(tables))
	for _, table := range tables {
		if tableSchema, ok := c.TableSchema(ctx, table); ok {
			schema = append(schema, tableSchema)
		}
	}
	c.cache.set(schema)
	return schema
}

// SchemaForPrompt renders the full schema as prompt text.
func (c *Connector) SchemaForPrompt(ctx context.Context) string {
	return c.FullSchema(ctx).Prompt()
}

// InvalidateSchema drops the cached schema so the next lookup re-introspects.
func (c *Connector) InvalidateSchema() {
	c.cache.invalidate()
}

// SampleRows fetches up to limit rows from the table for prompt and index
// context.
func (c *Connector) SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = c.cfg.SampleRowLimit
	}
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table), limit)
	result := c.ExecuteQuery(ctx, query)
	if !result.Success {
		return nil, fmt.Errorf("sample rows for %s: %s", table, result.Err)
	}
	return result.Rows, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
