package logger

import (
	"fmt"
	"sync"
	"time"
)

// Logger is the engine's progress logger. Debug output (constraint
// extraction warnings) is gated; everything else always prints.
type Logger struct {
	mu        sync.Mutex
	debug     bool
	startTime time.Time

	requests  int
	corrected int
	failed    int
}

// New creates a logger. debug enables extraction-warning output.
func New(debug bool) *Logger {
	return &Logger{
		debug:     debug,
		startTime: time.Now(),
	}
}

// Phase prints a phase banner.
func (l *Logger) Phase(phase string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("📍 %s\n", phase)
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
}

// RequestDone records one processed request for the summary.
func (l *Logger) RequestDone(status string, iterations int, elapsed time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.requests++
	switch status {
	case "corrected":
		l.corrected++
	case "failed", "max_iterations":
		l.failed++
	}

	fmt.Printf("📊 Request done: status=%s iterations=%d (%.2fs)\n",
		status, iterations, elapsed.Seconds())
}

// PrintSummary prints totals for the process lifetime.
func (l *Logger) PrintSummary() {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("📊 Engine Summary\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	fmt.Printf("Requests: %d\n", l.requests)
	fmt.Printf("✓ Corrected: %d\n", l.corrected)
	fmt.Printf("✗ Failed: %d\n", l.failed)
	fmt.Printf("⏱️  Uptime: %.1fs\n\n", time.Since(l.startTime).Seconds())
}

// Info prints info
func (l *Logger) Info(format string, args ...interface{}) {
	fmt.Printf("ℹ️  "+format+"\n", args...)
}

// Warn prints warning
func (l *Logger) Warn(format string, args ...interface{}) {
	fmt.Printf("⚠️  "+format+"\n", args...)
}

// Error prints error
func (l *Logger) Error(format string, args ...interface{}) {
	fmt.Printf("❌ "+format+"\n", args...)
}

// Debug prints only when debug output is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	fmt.Printf("🔍 "+format+"\n", args...)
}
