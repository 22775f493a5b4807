package learning

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"propquery/internal/constraints"
)

// similarScanWindow bounds how many recent corrected records the similarity
// scoring considers.
const similarScanWindow = 50

// Store persists feedback records in SQLite. Writes are serialized by a
// mutex and committed before Put returns; reads within the process see every
// prior write.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (and if needed initializes) the learning database at path.
// ":memory:" is accepted for throwaway stores.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open learning store: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS feedback_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query_hash TEXT UNIQUE,
			original_query TEXT,
			corrected_query TEXT,
			user_input TEXT,
			constraints TEXT,
			correction_reason TEXT,
			timestamp TEXT,
			iteration_count INTEGER,
			validation_status TEXT
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create feedback_records: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_query_hash ON feedback_records(query_hash)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create query hash index: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put upserts a record by query_hash. A second call with the same hash
// overwrites every prior field; last writer wins.
func (s *Store) Put(rec *Record) error {
	constraintsJSON, err := json.Marshal(rec.Constraints)
	if err != nil {
		return fmt.Errorf("failed to serialize constraints: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO feedback_records
		(query_hash, original_query, corrected_query, user_input,
		 constraints, correction_reason, timestamp, iteration_count,
		 validation_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.QueryHash,
		rec.OriginalQuery,
		rec.CorrectedQuery,
		rec.UserInput,
		string(constraintsJSON),
		rec.CorrectionReason,
		rec.Timestamp.Format(time.RFC3339),
		rec.IterationCount,
		string(rec.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to store feedback record: %w", err)
	}
	return nil
}

// Get returns the record for a query hash, nil when absent.
func (s *Store) Get(queryHash string) (*Record, error) {
	rows, err := s.db.Query(`
		SELECT id, query_hash, original_query, corrected_query, user_input,
		       constraints, correction_reason, timestamp, iteration_count,
		       validation_status
		FROM feedback_records WHERE query_hash = ?`, queryHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Similar returns up to limit CORRECTED records most similar to the given
// constraint shape. Scoring: shared aggregation tag, overlapping counties,
// overlapping property types; newest first among ties. At minimum this
// degrades to "newest corrected first".
func (s *Store) Similar(c *constraints.Constraints, limit int) ([]*Record, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT id, query_hash, original_query, corrected_query, user_input,
		       constraints, correction_reason, timestamp, iteration_count,
		       validation_status
		FROM feedback_records
		WHERE validation_status = 'corrected'
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, similarScanWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar corrections: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return shapeScore(c, records[i].Constraints) > shapeScore(c, records[j].Constraints)
	})

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// shapeScore counts shared constraint dimensions between two records.
func shapeScore(a, b *constraints.Constraints) int {
	if a == nil || b == nil {
		return 0
	}
	score := 0
	if a.Aggregation != constraints.AggNone && a.Aggregation == b.Aggregation {
		score++
	}
	for _, county := range a.Counties {
		if b.HasCounty(county) {
			score++
			break
		}
	}
	for _, t := range a.PropertyTypes {
		if b.HasPropertyType(t) {
			score++
			break
		}
	}
	return score
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		var rec Record
		var constraintsJSON, timestamp, status string
		if err := rows.Scan(&rec.ID, &rec.QueryHash, &rec.OriginalQuery,
			&rec.CorrectedQuery, &rec.UserInput, &constraintsJSON,
			&rec.CorrectionReason, &timestamp, &rec.IterationCount,
			&status); err != nil {
			return nil, err
		}

		rec.Status = Status(status)
		if ts, err := time.Parse(time.RFC3339, timestamp); err == nil {
			rec.Timestamp = ts
		}
		var c constraints.Constraints
		if err := json.Unmarshal([]byte(constraintsJSON), &c); err == nil {
			rec.Constraints = &c
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
