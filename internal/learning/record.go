package learning

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"propquery/internal/constraints"
)

// Status is the terminal state of one processed request.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusCorrected     Status = "corrected"
	StatusFailed        Status = "failed"
	StatusMaxIterations Status = "max_iterations"
)

// Record is the durable trail of one processed request: what SQL came in,
// what left, and why.
type Record struct {
	ID               int64
	QueryHash        string
	OriginalQuery    string
	CorrectedQuery   string
	UserInput        string
	Constraints      *constraints.Constraints
	CorrectionReason string
	Timestamp        time.Time
	IterationCount   int
	Status           Status
}

// QueryHash fingerprints the (user input, original SQL) pair. The hex MD5 of
// "input:sql" is the upsert key in the store.
func QueryHash(userInput, originalSQL string) string {
	sum := md5.Sum([]byte(userInput + ":" + originalSQL))
	return hex.EncodeToString(sum[:])
}
