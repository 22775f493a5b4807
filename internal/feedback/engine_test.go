package feedback

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propquery/internal/adapter"
	"propquery/internal/learning"
)

// scriptedAdapter returns results from a script keyed on SQL content and
// counts executions and dry runs.
type scriptedAdapter struct {
	respond    func(sql string) *adapter.QueryResult
	executions int
	dryRuns    int
}

func (s *scriptedAdapter) Connect(context.Context) error { return nil }
func (s *scriptedAdapter) Close() error                  { return nil }
func (s *scriptedAdapter) GetDatabaseType() string       { return "SQLite" }

func (s *scriptedAdapter) DryRunSQL(context.Context, string) error {
	s.dryRuns++
	return nil
}

func (s *scriptedAdapter) ExecuteQuery(_ context.Context, sql string) (*adapter.QueryResult, error) {
	s.executions++
	return s.respond(sql), nil
}

func rowsResult(n int) *adapter.QueryResult {
	rows := make([]adapter.Row, n)
	for i := range rows {
		rows[i] = adapter.Row{Values: []adapter.Cell{{Kind: adapter.CellInt, Int: int64(i)}}}
	}
	return &adapter.QueryResult{Columns: []string{"id"}, Rows: rows, RowCount: n}
}

func newTestEngine(t *testing.T, db adapter.DBAdapter, maxIter int, withStore bool) (*Engine, *learning.Store) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MaxIterations = maxIter

	var store *learning.Store
	if withStore {
		var err error
		store, err = learning.Open(filepath.Join(t.TempDir(), "learning.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
	}
	return NewEngine(cfg, db, store), store
}

func TestProcessSuccessWithoutCorrections(t *testing.T) {
	db := &scriptedAdapter{respond: func(string) *adapter.QueryResult {
		return rowsResult(10)
	}}
	engine, _ := newTestEngine(t, db, 3, false)

	candidate := "SELECT id, listing_url, address, zoning FROM p WHERE address->>'county' ILIKE '%fulton%'"
	env := engine.Process(context.Background(), "gas stations in fulton county", candidate)

	assert.Equal(t, learning.StatusSuccess, env.Status)
	assert.Equal(t, 0, env.IterationCount)
	assert.Empty(t, env.History)
	assert.Equal(t, candidate, env.FinalSQL)
	assert.Equal(t, 10, env.Result.RowCount)
	assert.Equal(t, 1, db.executions)
	assert.Contains(t, env.Explanation, "without corrections")
}

func TestProcessCorrectsCountyMisuse(t *testing.T) {
	db := &scriptedAdapter{respond: func(sql string) *adapter.QueryResult {
		if strings.Contains(sql, "address->>'county'") {
			return rowsResult(10)
		}
		return rowsResult(0)
	}}
	engine, _ := newTestEngine(t, db, 3, false)

	candidate := "SELECT listing_url, address, zoning FROM p WHERE property_type ILIKE '%fulton%'"
	env := engine.Process(context.Background(), "gas stations in fulton county", candidate)

	assert.Equal(t, learning.StatusCorrected, env.Status)
	assert.Equal(t, 1, env.IterationCount)
	require.Len(t, env.History, 1)
	assert.Contains(t, env.FinalSQL, "address->>'county' ILIKE '%fulton%'")
	assert.Equal(t, 10, env.Result.RowCount)
	assert.Equal(t, candidate, env.History[0].OriginalQuery)
	assert.Equal(t, env.FinalSQL, env.History[0].CorrectedQuery)
	assert.Equal(t, 2, db.executions)
	// Every applied correction gets a syntax check before its execution.
	assert.Equal(t, 1, db.dryRuns)
}

func TestProcessCorrectsAggregationShape(t *testing.T) {
	db := &scriptedAdapter{respond: func(string) *adapter.QueryResult {
		return rowsResult(1)
	}}
	engine, _ := newTestEngine(t, db, 3, false)

	candidate := "SELECT id FROM p WHERE address->>'county' ILIKE '%fulton%'"
	env := engine.Process(context.Background(), "how many gas stations in fulton county", candidate)

	assert.Equal(t, learning.StatusCorrected, env.Status)
	assert.Equal(t, 1, env.IterationCount)
	assert.Contains(t, env.FinalSQL, "COUNT(*)")
}

func TestProcessCorrectsPriceEncoding(t *testing.T) {
	db := &scriptedAdapter{respond: func(string) *adapter.QueryResult {
		return rowsResult(20)
	}}
	engine, _ := newTestEngine(t, db, 3, false)

	candidate := "SELECT listing_url, address, zoning FROM p WHERE address->>'county' ILIKE '%fulton%' AND asking_price >= 500000 AND asking_price <= 1000000"
	env := engine.Process(context.Background(), "properties in fulton county between $500k and $1m", candidate)

	assert.Equal(t, learning.StatusCorrected, env.Status)
	assert.Contains(t, env.FinalSQL, "asking_price BETWEEN 500000 AND 1000000")
}

func TestProcessCorrectsLonePriceBound(t *testing.T) {
	db := &scriptedAdapter{respond: func(sql string) *adapter.QueryResult {
		if strings.Contains(sql, "address->>'county'") && strings.Contains(sql, "BETWEEN") {
			return rowsResult(10)
		}
		return rowsResult(0)
	}}
	engine, _ := newTestEngine(t, db, 3, false)

	candidate := "SELECT listing_url, address, zoning FROM p WHERE property_type ILIKE '%walton%' AND asking_price < 500000"
	env := engine.Process(context.Background(), "gas stations in walton county under $500k", candidate)

	assert.Equal(t, learning.StatusCorrected, env.Status)
	assert.Equal(t, 1, env.IterationCount)
	assert.Contains(t, env.FinalSQL, "address->>'county' ILIKE '%walton%'")
	assert.Contains(t, env.FinalSQL, "asking_price BETWEEN 0 AND 500000")
	assert.NotContains(t, env.FinalSQL, "asking_price <")
	assert.Equal(t, 2, db.executions)
}

func TestProcessFailsWhenNoCorrectionApplies(t *testing.T) {
	db := &scriptedAdapter{respond: func(string) *adapter.QueryResult {
		return rowsResult(0)
	}}
	engine, _ := newTestEngine(t, db, 3, false)

	candidate := "SELECT listing_url, address, zoning FROM p WHERE address->>'county' ILIKE '%fulton%' AND (property_type ILIKE '%gas%' OR property_subtype ILIKE '%gas%')"
	env := engine.Process(context.Background(), "gas stations in fulton county", candidate)

	assert.Equal(t, learning.StatusFailed, env.Status)
	assert.Equal(t, 0, env.IterationCount)
	assert.Empty(t, env.History)
	assert.Equal(t, candidate, env.FinalSQL)
	assert.Equal(t, 1, db.executions)
	assert.Contains(t, env.Explanation, "no corrections could be applied")
}

func TestProcessStopsAtMaxIterations(t *testing.T) {
	db := &scriptedAdapter{respond: func(string) *adapter.QueryResult {
		return rowsResult(0)
	}}
	engine, _ := newTestEngine(t, db, 1, false)

	candidate := "SELECT listing_url, address, zoning FROM p WHERE property_type ILIKE '%fulton%'"
	env := engine.Process(context.Background(), "gas stations in fulton county", candidate)

	assert.Equal(t, learning.StatusMaxIterations, env.Status)
	assert.Equal(t, 1, env.IterationCount)
	require.Len(t, env.History, 1)
	assert.Contains(t, env.FinalSQL, "address->>'county'")
	// One loop execution plus the final run of the corrected SQL.
	assert.Equal(t, 2, db.executions)
}

func TestProcessZeroIterationBudget(t *testing.T) {
	db := &scriptedAdapter{respond: func(string) *adapter.QueryResult {
		return rowsResult(0)
	}}
	engine, _ := newTestEngine(t, db, 0, false)

	candidate := "SELECT listing_url, address, zoning FROM p WHERE property_type ILIKE '%fulton%'"
	env := engine.Process(context.Background(), "gas stations in fulton county", candidate)

	assert.Equal(t, learning.StatusMaxIterations, env.Status)
	assert.Equal(t, 0, env.IterationCount)
	assert.Empty(t, env.History)
	assert.Equal(t, candidate, env.FinalSQL)
	assert.Equal(t, 1, db.executions)
}

func TestProcessZeroBudgetStillSucceeds(t *testing.T) {
	db := &scriptedAdapter{respond: func(string) *adapter.QueryResult {
		return rowsResult(10)
	}}
	engine, _ := newTestEngine(t, db, 0, false)

	candidate := "SELECT id, listing_url, address, zoning FROM p WHERE address->>'county' ILIKE '%fulton%'"
	env := engine.Process(context.Background(), "gas stations in fulton county", candidate)

	assert.Equal(t, learning.StatusSuccess, env.Status)
	assert.Equal(t, 1, db.executions)
}

func TestProcessRecordsOutcomeInStore(t *testing.T) {
	db := &scriptedAdapter{respond: func(sql string) *adapter.QueryResult {
		if strings.Contains(sql, "address->>'county'") {
			return rowsResult(10)
		}
		return rowsResult(0)
	}}
	engine, store := newTestEngine(t, db, 3, true)

	userInput := "gas stations in fulton county"
	candidate := "SELECT listing_url, address, zoning FROM p WHERE property_type ILIKE '%fulton%'"
	env := engine.Process(context.Background(), userInput, candidate)
	require.Equal(t, learning.StatusCorrected, env.Status)

	rec, err := store.Get(learning.QueryHash(userInput, candidate))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, candidate, rec.OriginalQuery)
	assert.Equal(t, env.FinalSQL, rec.CorrectedQuery)
	assert.Equal(t, learning.StatusCorrected, rec.Status)
	assert.Equal(t, 1, rec.IterationCount)
	assert.Contains(t, rec.CorrectionReason, "county filter")

	stats, err := engine.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)

	recs, err := engine.Recommendations()
	require.NoError(t, err)
	assert.NotEmpty(t, recs)

	engine.PrintSummary()
}

func TestProcessExecutionErrorsSurfaceInEnvelope(t *testing.T) {
	db := &scriptedAdapter{respond: func(string) *adapter.QueryResult {
		return &adapter.QueryResult{Errors: []string{"no such table: q"}}
	}}
	engine, _ := newTestEngine(t, db, 3, false)

	candidate := "SELECT listing_url, address, zoning FROM q WHERE address->>'county' ILIKE '%fulton%'"
	env := engine.Process(context.Background(), "gas stations in fulton county", candidate)

	assert.Equal(t, learning.StatusFailed, env.Status)
	require.NotEmpty(t, env.Result.Errors)
	assert.Contains(t, env.Result.Errors[0], "no such table")
}

func TestStatsWithoutStore(t *testing.T) {
	engine, _ := newTestEngine(t, &scriptedAdapter{respond: func(string) *adapter.QueryResult {
		return rowsResult(1)
	}}, 3, false)

	_, err := engine.Stats()
	assert.Error(t, err)
}
