package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"propquery/internal/adapter"
	"propquery/internal/candidate"
	"propquery/internal/feedback"
	"propquery/internal/learning"
	"propquery/internal/llm"
)

// ─────────────────────────────────────────────────────
// ANSI color helpers
// ─────────────────────────────────────────────────────

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
)

func header(title string) {
	line := strings.Repeat("━", 60)
	fmt.Printf("\n%s%s%s\n", cyan+bold, line, reset)
	fmt.Printf("%s  %s%s\n", cyan+bold, title, reset)
	fmt.Printf("%s%s%s\n\n", cyan+bold, line, reset)
}

func info(label, value string) {
	fmt.Printf("  %s%-20s%s %s\n", dim, label, reset, value)
}

func success(msg string) {
	fmt.Printf("  %s✓%s %s\n", green, reset, msg)
}

func warn(msg string) {
	fmt.Printf("  %s⚠%s %s\n", yellow, reset, msg)
}

func codeBlock(title, content string) {
	fmt.Printf("\n%s┌─ %s%s\n", blue, title, reset)
	for _, line := range strings.Split(content, "\n") {
		fmt.Printf("%s│%s %s\n", blue, reset, line)
	}
	fmt.Printf("%s└─%s\n", blue, reset)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// ─────────────────────────────────────────────────────
// Main
// ─────────────────────────────────────────────────────

func main() {
	dbType := flag.String("db-type", "sqlite", "Database: sqlite | postgresql | mysql")
	dbPath := flag.String("db-path", "properties.db", "SQLite database file")
	host := flag.String("host", "localhost", "Database host (postgresql/mysql)")
	port := flag.Int("port", 5432, "Database port (postgresql/mysql)")
	dbName := flag.String("db-name", "properties", "Database name (postgresql/mysql)")
	user := flag.String("user", "postgres", "Database user (postgresql/mysql)")
	password := flag.String("password", "", "Database password (postgresql/mysql)")
	storePath := flag.String("store", "learning.db", "Learning store file (empty disables)")
	question := flag.String("q", "", "Natural-language question")
	candidateSQL := flag.String("sql", "", "Candidate SQL (skips candidate generation)")
	source := flag.String("source", "builder", "Candidate source: builder | llm")
	model := flag.String("model", "default", "Model profile from llm_config.json (llm source)")
	maxIter := flag.Int("max-iter", 3, "Maximum correction iterations")
	debug := flag.Bool("debug", false, "Enable extraction debug output")
	asJSON := flag.Bool("json", false, "Print the full envelope as JSON")
	flag.Parse()

	if *question == "" {
		fatal("-q is required")
	}

	header("Property Query Engine")
	info("Database:", *dbType)
	info("Question:", *question)
	info("Max iterations:", fmt.Sprintf("%d", *maxIter))

	db, err := adapter.NewAdapter(&adapter.DBConfig{
		Type:     *dbType,
		Host:     *host,
		Port:     *port,
		Database: *dbName,
		User:     *user,
		Password: *password,
		FilePath: *dbPath,
	})
	if err != nil {
		fatal("%v", err)
	}
	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		fatal("connect: %v", err)
	}
	defer db.Close()

	var store *learning.Store
	if *storePath != "" {
		store, err = learning.Open(*storePath)
		if err != nil {
			fatal("open learning store: %v", err)
		}
		defer store.Close()
	}

	cfg := feedback.DefaultConfig()
	cfg.MaxIterations = *maxIter
	cfg.Debug = *debug
	engine := feedback.NewEngine(cfg, db, store)

	sql := *candidateSQL
	if sql == "" {
		src, err := buildSource(*source, *model, engine)
		if err != nil {
			fatal("%v", err)
		}
		start := time.Now()
		sql, err = src.Candidate(ctx, *question)
		if err != nil {
			fatal("candidate generation: %v", err)
		}
		info("Candidate in:", fmt.Sprintf("%.2fs", time.Since(start).Seconds()))
	}
	codeBlock("Candidate SQL", sql)

	env := engine.Process(ctx, *question, sql)

	if *asJSON {
		out, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			fatal("marshal envelope: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	codeBlock("Final SQL", env.FinalSQL)
	info("Status:", string(env.Status))
	info("Iterations:", fmt.Sprintf("%d", env.IterationCount))
	info("Rows:", fmt.Sprintf("%d", env.Result.RowCount))
	fmt.Println()
	fmt.Printf("  %s\n", env.Explanation)

	for _, step := range env.History {
		warn(fmt.Sprintf("iteration %d: %s", step.Iteration, step.CorrectionReason))
	}

	if len(env.Result.Errors) > 0 {
		for _, e := range env.Result.Errors {
			warn(e)
		}
		os.Exit(1)
	}

	printRows(env.Result)
	engine.PrintSummary()
	success("done")
}

func buildSource(kind, model string, engine *feedback.Engine) (candidate.Source, error) {
	switch kind {
	case "builder":
		return candidate.NewBuilderSource(engine.Schema()), nil
	case "llm":
		cfg, err := llm.LoadConfig()
		if err != nil {
			return nil, err
		}
		mc, err := cfg.Model(model)
		if err != nil {
			return nil, err
		}
		client, err := llm.CreateLLM(mc)
		if err != nil {
			return nil, fmt.Errorf("create LLM client: %w", err)
		}
		return candidate.NewLLMSource(client, engine.Schema()), nil
	default:
		return nil, fmt.Errorf("unknown candidate source %q", kind)
	}
}

func printRows(result *adapter.QueryResult) {
	if len(result.Rows) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("  %s%s%s\n", dim, strings.Join(result.Columns, " | "), reset)
	limit := len(result.Rows)
	if limit > 20 {
		limit = 20
	}
	for _, row := range result.Rows[:limit] {
		parts := make([]string, len(row.Values))
		for i, cell := range row.Values {
			parts[i] = cell.String()
		}
		fmt.Printf("  %s\n", strings.Join(parts, " | "))
	}
	if len(result.Rows) > limit {
		fmt.Printf("  %s... %d more rows%s\n", dim, len(result.Rows)-limit, reset)
	}
}
