package executor

import (
	"context"
	"time"

	"propquery/internal/adapter"
)

// DefaultTimeout bounds a single statement execution.
const DefaultTimeout = 30 * time.Second

// Executor runs SQL against the property store. It never returns an error
// to the loop: store rejections and timeouts land in the result's Errors
// list so validation can treat them as issues.
type Executor struct {
	adapter adapter.DBAdapter
	timeout time.Duration
}

// New creates an executor over the adapter. timeout <= 0 selects
// DefaultTimeout.
func New(db adapter.DBAdapter, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{adapter: db, timeout: timeout}
}

// Execute runs one statement. The scoped context guarantees the connection
// is released on success, error and cancellation alike.
func (e *Executor) Execute(ctx context.Context, sql string) *adapter.QueryResult {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	result, err := e.adapter.ExecuteQuery(ctx, sql)
	if err != nil {
		if result != nil {
			return result
		}
		return &adapter.QueryResult{
			Errors:        []string{err.Error()},
			ExecutionTime: time.Since(start).Milliseconds(),
		}
	}
	return result
}

// DryRun checks a statement without executing it, via the adapter's
// EXPLAIN path. The returned error is advisory; callers decide whether a
// failing statement is still worth running.
func (e *Executor) DryRun(ctx context.Context, sql string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.adapter.DryRunSQL(ctx, sql)
}

// DatabaseType reports the backing store flavor.
func (e *Executor) DatabaseType() string {
	return e.adapter.GetDatabaseType()
}
