package validator

import (
	"fmt"
	"strings"

	"propquery/internal/adapter"
	"propquery/internal/constraints"
)

// Validator decides whether an execution result satisfies a Constraints
// record. Pure: no I/O, no state.
type Validator struct{}

// New creates a validator.
func New() *Validator {
	return &Validator{}
}

// Validate inspects the result and the SQL text against the constraints.
// All SQL inspection happens on the lowercased statement.
func (v *Validator) Validate(result *adapter.QueryResult, c *constraints.Constraints, sql string) (bool, []Issue) {
	var issues []Issue
	lower := strings.ToLower(sql)

	for _, msg := range result.Errors {
		issues = append(issues, ExecutionError{Msg: msg})
	}

	// Cardinality band. Skip when execution already failed: a zero row count
	// from a rejected statement says nothing about the band.
	if len(result.Errors) == 0 {
		if result.RowCount < c.ExpectedMin {
			issues = append(issues, TooFewRows{Got: result.RowCount, Min: c.ExpectedMin})
		}
		if c.ExpectedMax > 0 && result.RowCount > c.ExpectedMax {
			issues = append(issues, TooManyRows{Got: result.RowCount, Max: c.ExpectedMax})
		}
	}

	if c.Aggregation == constraints.AggCount {
		if !strings.Contains(lower, "count(") {
			issues = append(issues, AggregationShape{Reason: "missing COUNT"})
		} else if len(result.Errors) == 0 && result.RowCount == 0 {
			issues = append(issues, AggregationShape{Reason: "empty aggregate"})
		}
	}

	for _, county := range c.Counties {
		if !strings.Contains(lower, county) {
			continue
		}
		misused := fmt.Sprintf("property_type ilike '%%%s%%'", county)
		if strings.Contains(lower, misused) && !strings.Contains(lower, "address->>'county'") {
			issues = append(issues, CountyFieldMisuse{County: county})
		}
	}

	if c.PriceRange.Bounded() && strings.Contains(lower, "asking_price") && !strings.Contains(lower, "between") {
		issues = append(issues, PriceRangeEncoding{Reason: "missing BETWEEN"})
	}

	return len(issues) == 0, issues
}

// Summarize renders issues into the human-readable list carried by the
// correction history.
func Summarize(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.String()
	}
	return out
}
