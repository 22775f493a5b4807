package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteAdapter runs the property store on SQLite. Used for local corpora
// and tests; the address column holds the JSON document as text.
type SQLiteAdapter struct {
	db     *sql.DB
	config *SQLiteConfig
}

// SQLiteConfig SQLite connection config
type SQLiteConfig struct {
	FilePath string // DB file path, ":memory:" for in-memory
}

// NewSQLiteAdapter creates SQLite adapter
func NewSQLiteAdapter(config *SQLiteConfig) *SQLiteAdapter {
	return &SQLiteAdapter{
		config: config,
	}
}

// Connect connects to database
func (a *SQLiteAdapter) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite", a.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	return nil
}

// Close closes connection
func (a *SQLiteAdapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// ExecuteQuery executes query
func (a *SQLiteAdapter) ExecuteQuery(ctx context.Context, query string) (*QueryResult, error) {
	start := time.Now()

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return failedResult(err, start), err
	}
	defer rows.Close()

	return collectRows(rows, start)
}

// GetDatabaseType gets database type
func (a *SQLiteAdapter) GetDatabaseType() string {
	return "SQLite"
}

// DryRunSQL validates syntax with EXPLAIN QUERY PLAN, without executing.
func (a *SQLiteAdapter) DryRunSQL(ctx context.Context, sql string) error {
	_, err := a.ExecuteQuery(ctx, fmt.Sprintf("EXPLAIN QUERY PLAN %s", sql))
	return err
}
