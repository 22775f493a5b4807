package reporter

import (
	"fmt"
	"sort"
	"strings"

	"propquery/internal/learning"
)

// StatsSource supplies learning-store summaries. *learning.Store satisfies
// it.
type StatsSource interface {
	Stats() (*learning.Stats, error)
}

// Reporter renders read-only summaries over the learning store.
type Reporter struct {
	source StatsSource
}

// New creates a reporter over the stats source.
func New(source StatsSource) *Reporter {
	return &Reporter{source: source}
}

// PerformanceReport renders totals, the status histogram, the average
// iteration count and the top correction reasons.
func (r *Reporter) PerformanceReport() (string, error) {
	stats, err := r.source.Stats()
	if err != nil {
		return "", fmt.Errorf("failed to read learning stats: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Query Correction Performance Report\n")
	sb.WriteString("======================================\n\n")
	sb.WriteString(fmt.Sprintf("Total queries processed: %d\n", stats.Total))
	sb.WriteString(fmt.Sprintf("Average iterations: %.2f\n\n", stats.AvgIterations))

	sb.WriteString("Status distribution:\n")
	statuses := make([]string, 0, len(stats.StatusHistogram))
	for status := range stats.StatusHistogram {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		count := stats.StatusHistogram[status]
		pct := 0.0
		if stats.Total > 0 {
			pct = float64(count) / float64(stats.Total) * 100
		}
		sb.WriteString(fmt.Sprintf("  %-16s %6d  (%.1f%%)\n", status, count, pct))
	}

	if len(stats.TopCorrectionReasons) > 0 {
		sb.WriteString("\nTop correction reasons:\n")
		for i, rc := range stats.TopCorrectionReasons {
			sb.WriteString(fmt.Sprintf("  %d. [%dx] %s\n", i+1, rc.Count, rc.Reason))
		}
	}

	return sb.String(), nil
}

// Recommendations derives textual advice from the dominant correction
// reasons.
func (r *Reporter) Recommendations() ([]string, error) {
	stats, err := r.source.Stats()
	if err != nil {
		return nil, fmt.Errorf("failed to read learning stats: %w", err)
	}

	var recs []string
	for _, rc := range stats.TopCorrectionReasons {
		reason := strings.ToLower(rc.Reason)
		switch {
		case strings.Contains(reason, "county filter"):
			recs = append(recs, "County filters are frequently misapplied - ensure candidate SQL targets the JSON address field (address->>'county'), not property_type.")
		case strings.Contains(reason, "count(*)"):
			recs = append(recs, "Aggregation intents often arrive without COUNT(*) - candidate generation should emit an aggregate projection for how-many questions.")
		case strings.Contains(reason, "between"):
			recs = append(recs, "Finite price ranges should be encoded with BETWEEN instead of inequality pairs.")
		case strings.Contains(reason, "broadened"):
			recs = append(recs, "Narrow property-type predicates undershoot expected cardinality - broaden searches across property_type and property_subtype synonyms up front.")
		case strings.Contains(reason, "display columns"):
			recs = append(recs, "Listing projections frequently drop listing_url/address/zoning - include the display columns in candidate SQL.")
		}
	}

	failed := stats.StatusHistogram[string(learning.StatusFailed)] +
		stats.StatusHistogram[string(learning.StatusMaxIterations)]
	if stats.Total > 0 && failed*4 >= stats.Total {
		recs = append(recs, fmt.Sprintf("%d of %d queries did not converge - review the correction strategies against recent failed records.", failed, stats.Total))
	}

	if len(recs) == 0 {
		recs = append(recs, "No recurring correction patterns detected.")
	}
	return recs, nil
}
