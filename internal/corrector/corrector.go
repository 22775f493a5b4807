package corrector

import (
	"fmt"
	"regexp"
	"strings"

	"propquery/internal/constraints"
	"propquery/internal/learning"
	"propquery/internal/schema"
	"propquery/internal/validator"
)

// learnedPatternLimit is the number of prior corrections consulted per
// repair attempt.
const learnedPatternLimit = 2

// essentialColumns must appear in every non-aggregate projection for
// downstream display.
var essentialColumns = []string{"listing_url", "address", "zoning"}

var (
	priceInequalityPattern  = regexp.MustCompile(`(?i)asking_price\s*>=?\s*[\d.]+\s+AND\s+asking_price\s*<=?\s*[\d.]+`)
	priceSingleBoundPattern = regexp.MustCompile(`(?i)asking_price\s*(?:<=?|>=?)\s*[\d.]+`)
	selectClausePattern     = regexp.MustCompile(`(?is)SELECT\s+(.+?)\s+FROM`)
	groupByTailPattern      = regexp.MustCompile(`(?i),\s*asking_price|asking_price\s*,\s*`)
)

// PatternSource supplies prior correction trails for similar constraint
// shapes. *learning.Store satisfies it.
type PatternSource interface {
	Similar(c *constraints.Constraints, limit int) ([]*learning.Record, error)
}

// Corrector synthesizes a repaired SQL statement from validation issues.
// Strategies run in a fixed order; any subset may fire. When none does, the
// original SQL comes back untouched and the orchestrator treats that as a
// failure to converge.
type Corrector struct {
	schema   *schema.Map
	patterns PatternSource // optional
}

// New creates a corrector. patterns may be nil to disable learned repairs.
func New(m *schema.Map, patterns PatternSource) *Corrector {
	return &Corrector{schema: m, patterns: patterns}
}

// Correct applies the repair strategies and returns the corrected SQL with a
// human-readable reason trail.
func (c *Corrector) Correct(sql string, cons *constraints.Constraints, issues []validator.Issue, userInput string) (string, string) {
	corrected := sql
	var applied []string

	corrected, applied = c.fixCountyFilters(corrected, issues, applied)
	corrected, applied = c.fixAggregationShape(corrected, cons, issues, applied)
	corrected, applied = c.broadenPropertyTypes(corrected, cons, issues, applied)
	corrected, applied = c.fixPriceEncoding(corrected, cons, issues, applied)
	corrected, applied = c.ensureEssentialColumns(corrected, applied)
	corrected, applied = c.applyLearnedPatterns(corrected, cons, applied)

	if len(applied) == 0 {
		return sql, "No specific corrections applied"
	}
	return corrected, strings.Join(applied, "; ")
}

// fixCountyFilters rewrites property_type county searches into address
// searches, one per CountyFieldMisuse issue.
func (c *Corrector) fixCountyFilters(sql string, issues []validator.Issue, applied []string) (string, []string) {
	for _, issue := range issues {
		misuse, ok := issue.(validator.CountyFieldMisuse)
		if !ok {
			continue
		}
		fixed := replaceCountyMisuse(sql, misuse.County)
		if fixed != sql {
			sql = fixed
			applied = append(applied, fmt.Sprintf("Fixed %s county filter to use address field", misuse.County))
		}
	}
	return sql, applied
}

func replaceCountyMisuse(sql, county string) string {
	pattern := regexp.MustCompile(`(?i)property_type\s+ILIKE\s+'%` + regexp.QuoteMeta(county) + `%'`)
	return pattern.ReplaceAllString(sql, fmt.Sprintf("address->>'county' ILIKE '%%%s%%'", county))
}

// fixAggregationShape inserts COUNT(*) into the projection when the intent
// demands it, and drops asking_price from an existing GROUP BY.
func (c *Corrector) fixAggregationShape(sql string, cons *constraints.Constraints, issues []validator.Issue, applied []string) (string, []string) {
	hasShapeIssue := false
	for _, issue := range issues {
		if issue.Kind() == validator.KindAggregationShape {
			hasShapeIssue = true
			break
		}
	}
	if !hasShapeIssue || cons.Aggregation != constraints.AggCount {
		return sql, applied
	}

	upper := strings.ToUpper(sql)
	if !strings.Contains(upper, "COUNT(") {
		if idx := strings.Index(upper, "SELECT "); idx >= 0 {
			sql = sql[:idx+len("SELECT ")] + "COUNT(*), " + sql[idx+len("SELECT "):]
			applied = append(applied, "Added COUNT(*) to aggregation query")
		}
	}

	if gb := strings.Index(strings.ToUpper(sql), "GROUP BY"); gb >= 0 {
		tail := sql[gb:]
		if strings.Contains(strings.ToLower(tail), "asking_price") {
			sql = sql[:gb] + groupByTailPattern.ReplaceAllString(tail, "")
			applied = append(applied, "Removed asking_price from GROUP BY clause")
		}
	}

	return sql, applied
}

// broadenPropertyTypes replaces a narrow property_type predicate with the
// OR-of-synonyms expression when the result undershot the band.
func (c *Corrector) broadenPropertyTypes(sql string, cons *constraints.Constraints, issues []validator.Issue, applied []string) (string, []string) {
	tooFew := false
	for _, issue := range issues {
		if issue.Kind() == validator.KindTooFewRows {
			tooFew = true
			break
		}
	}
	if !tooFew {
		return sql, applied
	}

	for _, canonical := range cons.PropertyTypes {
		broad := c.schema.PropertyTypePredicate(canonical)
		if broad == "" {
			continue
		}
		// Already broadened: the subtype half of the expression is present.
		if strings.Contains(strings.ToLower(sql), "property_subtype ilike") {
			continue
		}

		surfaces := append([]string{canonical, strings.ReplaceAll(canonical, "_", " ")},
			c.schema.Synonyms(canonical)...)
		for _, surface := range surfaces {
			pattern := regexp.MustCompile(`(?i)property_type\s+ILIKE\s+'%` + regexp.QuoteMeta(surface) + `%'`)
			if pattern.MatchString(sql) {
				sql = pattern.ReplaceAllString(sql, broad)
				applied = append(applied, fmt.Sprintf("Broadened %s search to include subtypes", canonical))
				break
			}
		}
	}
	return sql, applied
}

// fixPriceEncoding folds asking_price inequalities into BETWEEN. An
// inequality pair is rewritten as a unit; a lone bound ("under $500k"
// renders as asking_price < 500000) is rewritten from the extracted range.
func (c *Corrector) fixPriceEncoding(sql string, cons *constraints.Constraints, issues []validator.Issue, applied []string) (string, []string) {
	hasIssue := false
	for _, issue := range issues {
		if issue.Kind() == validator.KindPriceRangeEncoding {
			hasIssue = true
			break
		}
	}
	if !hasIssue || !cons.PriceRange.Bounded() {
		return sql, applied
	}

	between := fmt.Sprintf("asking_price BETWEEN %s AND %s",
		formatNumber(cons.PriceRange.Lo), formatNumber(cons.PriceRange.Hi))
	switch {
	case priceInequalityPattern.MatchString(sql):
		sql = priceInequalityPattern.ReplaceAllString(sql, between)
		applied = append(applied, "Converted price range to BETWEEN clause")
	case priceSingleBoundPattern.MatchString(sql):
		sql = priceSingleBoundPattern.ReplaceAllString(sql, between)
		applied = append(applied, "Converted price bound to BETWEEN clause")
	}
	return sql, applied
}

// ensureEssentialColumns appends listing_url/address/zoning to non-aggregate
// projections that dropped them.
func (c *Corrector) ensureEssentialColumns(sql string, applied []string) (string, []string) {
	upper := strings.ToUpper(sql)
	for _, marker := range []string{"GROUP BY", "COUNT(", "SUM(", "AVG(", "MIN(", "MAX("} {
		if strings.Contains(upper, marker) {
			return sql, applied
		}
	}

	m := selectClausePattern.FindStringSubmatch(sql)
	if m == nil {
		return sql, applied
	}
	current := m[1]
	currentLower := strings.ToLower(current)

	var missing []string
	for _, col := range essentialColumns {
		if !strings.Contains(currentLower, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return sql, applied
	}

	sql = strings.Replace(sql, current, current+", "+strings.Join(missing, ", "), 1)
	applied = append(applied, "Added essential display columns: "+strings.Join(missing, ", "))
	return sql, applied
}

// applyLearnedPatterns consults prior corrections with a similar constraint
// shape and replays county remapping when the current SQL still carries the
// misused form.
func (c *Corrector) applyLearnedPatterns(sql string, cons *constraints.Constraints, applied []string) (string, []string) {
	if c.patterns == nil || len(cons.Counties) == 0 {
		return sql, applied
	}

	records, err := c.patterns.Similar(cons, learnedPatternLimit)
	if err != nil {
		// The store is advisory here; a read failure must not block repair.
		return sql, applied
	}

	for _, rec := range records {
		if !strings.Contains(strings.ToLower(rec.CorrectionReason), "county filter") {
			continue
		}
		for _, county := range cons.Counties {
			fixed := replaceCountyMisuse(sql, county)
			if fixed != sql {
				sql = fixed
				applied = append(applied, "Applied learned county correction pattern")
				break
			}
		}
	}
	return sql, applied
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
