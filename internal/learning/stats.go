package learning

import "fmt"

// ReasonCount pairs a correction reason with its occurrence count.
type ReasonCount struct {
	Reason string
	Count  int
}

// Stats summarizes the learning store for reporting.
type Stats struct {
	Total                int
	StatusHistogram      map[string]int
	AvgIterations        float64
	TopCorrectionReasons []ReasonCount // at most 5, most frequent first
}

// Stats aggregates totals, the status histogram, the average iteration count
// and the five most frequent correction reasons.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{StatusHistogram: make(map[string]int)}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM feedback_records`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count feedback records: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT validation_status, COUNT(*)
		FROM feedback_records
		GROUP BY validation_status`)
	if err != nil {
		return nil, fmt.Errorf("failed to read status histogram: %w", err)
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.StatusHistogram[status] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var avg *float64
	if err := s.db.QueryRow(`SELECT AVG(iteration_count) FROM feedback_records`).Scan(&avg); err != nil {
		return nil, fmt.Errorf("failed to read average iterations: %w", err)
	}
	if avg != nil {
		stats.AvgIterations = *avg
	}

	rows, err = s.db.Query(`
		SELECT correction_reason, COUNT(*)
		FROM feedback_records
		WHERE correction_reason != ''
		GROUP BY correction_reason
		ORDER BY COUNT(*) DESC, correction_reason
		LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("failed to read top correction reasons: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rc ReasonCount
		if err := rows.Scan(&rc.Reason, &rc.Count); err != nil {
			return nil, err
		}
		stats.TopCorrectionReasons = append(stats.TopCorrectionReasons, rc)
	}
	return stats, rows.Err()
}
