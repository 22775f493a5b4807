package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgreSQLAdapter runs the property store on PostgreSQL. This is the
// production target: the address column is JSONB and the ->> extraction in
// county predicates is native.
type PostgreSQLAdapter struct {
	db     *sql.DB
	config *PostgreSQLConfig
}

// PostgreSQLConfig PostgreSQL connection config
type PostgreSQLConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string // disable, require, verify-ca, verify-full
}

// NewPostgreSQLAdapter creates PostgreSQL adapter
func NewPostgreSQLAdapter(config *PostgreSQLConfig) *PostgreSQLAdapter {
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}
	return &PostgreSQLAdapter{
		config: config,
	}
}

// Connect connects to database
func (a *PostgreSQLAdapter) Connect(ctx context.Context) error {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		a.config.Host,
		a.config.Port,
		a.config.User,
		a.config.Password,
		a.config.Database,
		a.config.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
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
func (a *PostgreSQLAdapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// ExecuteQuery executes query
func (a *PostgreSQLAdapter) ExecuteQuery(ctx context.Context, query string) (*QueryResult, error) {
	start := time.Now()

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return failedResult(err, start), err
	}
	defer rows.Close()

	return collectRows(rows, start)
}

// GetDatabaseType gets database type
func (a *PostgreSQLAdapter) GetDatabaseType() string {
	return "PostgreSQL"
}

// DryRunSQL validates syntax with EXPLAIN, without executing.
func (a *PostgreSQLAdapter) DryRunSQL(ctx context.Context, sql string) error {
	_, err := a.ExecuteQuery(ctx, fmt.Sprintf("EXPLAIN %s", sql))
	return err
}
