package adapter

import (
	"database/sql"
	"time"
)

// collectRows materializes a sql.Rows cursor into a QueryResult. Rows are
// kept in cursor order.
func collectRows(rows *sql.Rows, start time.Time) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		cells := make([]Cell, len(columns))
		for i, val := range values {
			cells[i] = cellFromValue(val)
		}
		result = append(result, Row{Values: cells})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &QueryResult{
		Columns:       columns,
		Rows:          result,
		RowCount:      len(result),
		ExecutionTime: time.Since(start).Milliseconds(),
	}, nil
}

// failedResult wraps a driver error into a QueryResult so callers that never
// throw can carry it forward.
func failedResult(err error, start time.Time) *QueryResult {
	return &QueryResult{
		Errors:        []string{err.Error()},
		ExecutionTime: time.Since(start).Milliseconds(),
	}
}
