package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLAdapter runs the property store on MySQL. County extraction falls
// back to JSON_UNQUOTE/JSON_EXTRACT semantics on the address column.
type MySQLAdapter struct {
	db     *sql.DB
	config *MySQLConfig
}

// MySQLConfig MySQL connection config
type MySQLConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// NewMySQLAdapter creates MySQL adapter
func NewMySQLAdapter(config *MySQLConfig) *MySQLAdapter {
	return &MySQLAdapter{
		config: config,
	}
}

// Connect connects to database
func (a *MySQLAdapter) Connect(ctx context.Context) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		a.config.User,
		a.config.Password,
		a.config.Host,
		a.config.Port,
		a.config.Database,
	)

	db, err := sql.Open("mysql", dsn)
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
func (a *MySQLAdapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// ExecuteQuery executes query
func (a *MySQLAdapter) ExecuteQuery(ctx context.Context, query string) (*QueryResult, error) {
	start := time.Now()

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return failedResult(err, start), err
	}
	defer rows.Close()

	return collectRows(rows, start)
}

// GetDatabaseType gets database type
func (a *MySQLAdapter) GetDatabaseType() string {
	return "MySQL"
}

// DryRunSQL validates syntax with EXPLAIN, without executing.
func (a *MySQLAdapter) DryRunSQL(ctx context.Context, sql string) error {
	_, err := a.ExecuteQuery(ctx, fmt.Sprintf("EXPLAIN %s", sql))
	return err
}
