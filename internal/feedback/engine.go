package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"propquery/internal/adapter"
	"propquery/internal/constraints"
	"propquery/internal/corrector"
	"propquery/internal/executor"
	"propquery/internal/learning"
	"propquery/internal/logger"
	"propquery/internal/reporter"
	"propquery/internal/schema"
	"propquery/internal/validator"
)

// CorrectionStep records one iteration of the repair loop.
type CorrectionStep struct {
	Iteration        int      `json:"iteration"`
	Issues           []string `json:"issues"`
	CorrectionReason string   `json:"correction_reason"`
	OriginalQuery    string   `json:"original_query"`
	CorrectedQuery   string   `json:"corrected_query"`
}

// Envelope is the response returned for every request, terminal state
// included. Status is the caller's primary signal; Result.Errors and
// Explanation are secondary.
type Envelope struct {
	FinalSQL       string                   `json:"final_sql"`
	Result         *adapter.QueryResult     `json:"result"`
	Status         learning.Status          `json:"status"`
	IterationCount int                      `json:"iteration_count"`
	History        []CorrectionStep         `json:"history"`
	Constraints    *constraints.Constraints `json:"constraints"`
	Explanation    string                   `json:"explanation"`
}

// Engine drives the execute/validate/correct loop for one request at a
// time. A request's state machine is sequential; the engine itself may be
// shared across goroutines because every collaborator is either immutable
// (schema map, validator) or internally synchronized (learning store).
type Engine struct {
	cfg       *Config
	schema    *schema.Map
	extractor *constraints.Extractor
	exec      *executor.Executor
	validator *validator.Validator
	corrector *corrector.Corrector
	store     *learning.Store
	log       *logger.Logger
}

// NewEngine wires the engine from explicit collaborators. The learning
// store's lifecycle belongs to the caller.
func NewEngine(cfg *Config, db adapter.DBAdapter, store *learning.Store) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	m := cfg.schemaMap()
	log := logger.New(cfg.Debug)

	ext := constraints.NewExtractor(m)
	ext.Debugf = log.Debug

	var patterns corrector.PatternSource
	if store != nil {
		patterns = store
	}

	return &Engine{
		cfg:       cfg,
		schema:    m,
		extractor: ext,
		exec:      executor.New(db, cfg.ExecutionTimeout),
		validator: validator.New(),
		corrector: corrector.New(m, patterns),
		store:     store,
		log:       log,
	}
}

// Schema exposes the engine's schema map (read-only).
func (e *Engine) Schema() *schema.Map {
	return e.schema
}

// Process runs the feedback loop for one request and always returns a
// well-formed envelope; it never raises to the caller.
func (e *Engine) Process(ctx context.Context, userInput, candidateSQL string) *Envelope {
	start := time.Now()
	e.log.Phase("Query Processing")
	e.log.Info("Processing query: %s", truncate(userInput, 100))

	cons := e.extractor.Extract(userInput)
	e.log.Debug("Extracted constraints: counties=%v types=%v agg=%s band=[%d,%d]",
		cons.Counties, cons.PropertyTypes, cons.Aggregation, cons.ExpectedMin, cons.ExpectedMax)

	currentSQL := candidateSQL
	status := learning.StatusSuccess
	var history []CorrectionStep
	var lastResult *adapter.QueryResult
	resultStale := false

	for iter := 0; ; {
		lastResult = e.exec.Execute(ctx, currentSQL)
		iter++

		ok, issues := e.validator.Validate(lastResult, cons, currentSQL)
		if ok {
			break
		}
		e.log.Warn("Iteration %d validation issues: %v", iter, validator.Summarize(issues))

		// Degenerate budget: no corrections allowed at all.
		if iter > e.cfg.MaxIterations {
			status = learning.StatusMaxIterations
			break
		}

		correctedSQL, reason := e.corrector.Correct(currentSQL, cons, issues, userInput)
		if correctedSQL == currentSQL {
			// A pass that changes nothing is terminal and does not count
			// toward iteration_count, which tracks applied corrections.
			e.log.Warn("No corrections could be applied")
			status = learning.StatusFailed
			break
		}

		if err := e.exec.DryRun(ctx, correctedSQL); err != nil {
			e.log.Warn("Corrected SQL failed syntax check: %v", err)
		}

		history = append(history, CorrectionStep{
			Iteration:        iter,
			Issues:           validator.Summarize(issues),
			CorrectionReason: reason,
			OriginalQuery:    currentSQL,
			CorrectedQuery:   correctedSQL,
		})
		currentSQL = correctedSQL
		status = learning.StatusCorrected

		if iter == e.cfg.MaxIterations {
			e.log.Warn("Maximum iterations reached")
			status = learning.StatusMaxIterations
			resultStale = true
			break
		}
	}

	// When the loop broke right after a correction, the last execution
	// predates the final SQL; run it once more so the envelope reflects it.
	finalResult := lastResult
	if resultStale {
		finalResult = e.exec.Execute(ctx, currentSQL)
	}

	envelope := &Envelope{
		FinalSQL:       currentSQL,
		Result:         finalResult,
		Status:         status,
		IterationCount: len(history),
		History:        history,
		Constraints:    cons,
		Explanation:    explain(history, status),
	}

	// The store write is last and non-fatal: a persistence failure must not
	// cost the caller their envelope.
	if e.store != nil {
		if err := e.storeRecord(userInput, candidateSQL, envelope); err != nil {
			e.log.Error("Failed to store feedback record: %v", err)
		}
	}

	e.log.RequestDone(string(status), envelope.IterationCount, time.Since(start))
	return envelope
}

func (e *Engine) storeRecord(userInput, originalSQL string, env *Envelope) error {
	var reasons []string
	for _, step := range env.History {
		reasons = append(reasons, step.CorrectionReason)
	}

	return e.store.Put(&learning.Record{
		QueryHash:        learning.QueryHash(userInput, originalSQL),
		OriginalQuery:    originalSQL,
		CorrectedQuery:   env.FinalSQL,
		UserInput:        userInput,
		Constraints:      env.Constraints,
		CorrectionReason: strings.Join(reasons, "; "),
		Timestamp:        time.Now(),
		IterationCount:   env.IterationCount,
		Status:           env.Status,
	})
}

// Stats summarizes the learning store.
func (e *Engine) Stats() (*learning.Stats, error) {
	if e.store == nil {
		return nil, fmt.Errorf("no learning store configured")
	}
	return e.store.Stats()
}

// Recommendations derives advice from the learning store's correction
// history.
func (e *Engine) Recommendations() ([]string, error) {
	if e.store == nil {
		return nil, fmt.Errorf("no learning store configured")
	}
	return reporter.New(e.store).Recommendations()
}

// PrintSummary prints lifetime request totals accumulated by the engine's
// logger.
func (e *Engine) PrintSummary() {
	e.log.PrintSummary()
}

// explain renders the correction history into a standalone narrative.
func explain(history []CorrectionStep, status learning.Status) string {
	if status == learning.StatusSuccess {
		return "Query executed successfully without corrections."
	}
	if len(history) == 0 {
		return "Query failed validation but no corrections could be applied."
	}

	var statusMsg string
	switch status {
	case learning.StatusCorrected:
		statusMsg = "Query was successfully corrected."
	case learning.StatusFailed:
		statusMsg = "Query corrections failed."
	case learning.StatusMaxIterations:
		statusMsg = "Maximum correction attempts reached."
	default:
		statusMsg = "Unknown status."
	}

	parts := make([]string, len(history))
	for i, step := range history {
		parts[i] = fmt.Sprintf("Iteration %d: %s", step.Iteration, step.CorrectionReason)
	}
	return statusMsg + " Corrections applied: " + strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
