package adapter

import (
	"context"
)

// DBAdapter is the connectivity layer over the property store: connect and
// execute SQL, no ORM.
type DBAdapter interface {
	// Connect opens the connection pool.
	Connect(ctx context.Context) error

	// Close releases the pool.
	Close() error

	// ExecuteQuery runs a statement and materializes rows, column names and
	// timing into a QueryResult.
	ExecuteQuery(ctx context.Context, query string) (*QueryResult, error)

	// GetDatabaseType returns "MySQL", "PostgreSQL" or "SQLite".
	GetDatabaseType() string

	// DryRunSQL validates statement syntax without executing it.
	DryRunSQL(ctx context.Context, sql string) error
}

// QueryResult is the materialized outcome of one statement. Immutable after
// creation: rows stay in server-supplied order and are never reordered.
type QueryResult struct {
	Columns       []string // column names, positional
	Rows          []Row    // data rows
	RowCount      int
	ExecutionTime int64    // wall clock, milliseconds
	Errors        []string // store-reported errors; non-empty means the statement failed
	Warnings      []string
}

// Row holds one result tuple; values align positionally with
// QueryResult.Columns.
type Row struct {
	Values []Cell
}

// Cell returns the value for a named column, or a null cell when the column
// is absent.
func (r Row) Cell(columns []string, name string) Cell {
	for i, col := range columns {
		if col == name && i < len(r.Values) {
			return r.Values[i]
		}
	}
	return Cell{Kind: CellNull}
}

// DBConfig is the generic connection config consumed by the factory.
type DBConfig struct {
	Type     string // "mysql", "postgresql", "sqlite"
	Host     string
	Port     int
	Database string
	User     string
	Password string

	// SQLite only
	FilePath string
}

// NewAdapter creates the adapter matching config.Type.
func NewAdapter(config *DBConfig) (DBAdapter, error) {
	switch config.Type {
	case "mysql":
		return NewMySQLAdapter(&MySQLConfig{
			Host:     config.Host,
			Port:     config.Port,
			Database: config.Database,
			User:     config.User,
			Password: config.Password,
		}), nil
	case "postgresql":
		return NewPostgreSQLAdapter(&PostgreSQLConfig{
			Host:     config.Host,
			Port:     config.Port,
			Database: config.Database,
			User:     config.User,
			Password: config.Password,
		}), nil
	case "sqlite":
		return NewSQLiteAdapter(&SQLiteConfig{
			FilePath: config.FilePath,
		}), nil
	default:
		return nil, &UnsupportedDatabaseError{Type: config.Type}
	}
}

// UnsupportedDatabaseError reports an unknown config.Type.
type UnsupportedDatabaseError struct {
	Type string
}

func (e *UnsupportedDatabaseError) Error() string {
	return "unsupported database type: " + e.Type
}
