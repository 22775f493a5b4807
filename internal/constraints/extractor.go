package constraints

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"propquery/internal/schema"
)

// Extraction patterns. All matching happens on the lowercased utterance.
var (
	priceBetweenPattern = regexp.MustCompile(`between\s*\$?([\d,]+(?:\.\d+)?)([km]?)\s*(?:and|to|-)\s*\$?([\d,]+(?:\.\d+)?)([km]?)`)
	priceUnderPattern   = regexp.MustCompile(`under\s*\$?([\d,]+(?:\.\d+)?)([km]?)`)
	priceOverPattern    = regexp.MustCompile(`over\s*\$?([\d,]+(?:\.\d+)?)([km]?)`)

	acresRangePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:to|-|and)\s*(\d+(?:\.\d+)?)\s*acres?`)
	acresOverPattern  = regexp.MustCompile(`over\s*(\d+(?:\.\d+)?)\s*acres?`)
	acresExactPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*acres?`)

	sqftRangePattern  = regexp.MustCompile(`(\d+(?:,\d+)?)\s*(?:to|-|and)\s*(\d+(?:,\d+)?)\s*(?:sq\.?\s*ft\.?|square\s*feet?|sqft)`)
	sqftSinglePattern = regexp.MustCompile(`(\d+(?:,\d+)?)\s*(?:sq\.?\s*ft\.?|square\s*feet?|sqft)`)

	limitPatterns = []*regexp.Regexp{
		regexp.MustCompile(`first\s+(\d+)`),
		regexp.MustCompile(`top\s+(\d+)`),
		regexp.MustCompile(`(\d+)\s+properties`),
		regexp.MustCompile(`limit\s+(\d+)`),
	}

	wordPattern = regexp.MustCompile(`[a-z][a-z-]*`)
)

// Extractor turns a user utterance into a Constraints record. It never
// fails: absent patterns leave fields empty. Deterministic for a given
// utterance and schema map.
type Extractor struct {
	schema *schema.Map

	// Debugf, when set, receives extraction warnings (partial matches that
	// produced no constraint). Never surfaced to callers.
	Debugf func(format string, args ...interface{})
}

// NewExtractor creates an extractor over the given schema map.
func NewExtractor(m *schema.Map) *Extractor {
	return &Extractor{schema: m}
}

// Extract parses the utterance into a Constraints record.
func (e *Extractor) Extract(utterance string) *Constraints {
	q := strings.ToLower(utterance)

	c := &Constraints{
		Counties:      e.extractCounties(q),
		PriceRange:    e.extractPriceRange(q),
		PropertyTypes: e.extractPropertyTypes(q),
		Aggregation:   extractAggregation(q),
		OrderBy:       extractOrderBy(q),
		Limit:         extractLimit(q),
		Filters:       extractFilters(q),
	}
	e.extractSizeRanges(q, c)

	if c.Aggregation != AggNone {
		c.GroupBy = extractGroupBy(q)
	}

	c.ExpectedMin, c.ExpectedMax = estimateResultBand(c)
	return c
}

func (e *Extractor) debugf(format string, args ...interface{}) {
	if e.Debugf != nil {
		e.Debugf(format, args...)
	}
}

// extractCounties scans for any token from the closed county list.
func (e *Extractor) extractCounties(q string) []string {
	var found []string
	for _, county := range e.schema.Counties() {
		if strings.Contains(q, county) {
			found = append(found, county)
		}
	}
	// "de kalb" and "dekalb" are both legal tokens; a match on one must not
	// duplicate the county when both surface forms appear.
	sort.Strings(found)
	return found
}

// extractPropertyTypes maps surface forms onto canonical types via the
// synonym table. Whole-word matching (plural tolerated) so "station" does
// not fire on "stationery".
func (e *Extractor) extractPropertyTypes(q string) []string {
	seen := make(map[string]bool)
	words := wordPattern.FindAllString(q, -1)
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	for _, canonical := range e.schema.PropertyTypes() {
		for _, syn := range e.schema.Synonyms(canonical) {
			if strings.Contains(syn, " ") || strings.Contains(syn, "-") {
				if strings.Contains(q, syn) {
					seen[canonical] = true
					break
				}
			} else if wordSet[syn] || wordSet[syn+"s"] {
				seen[canonical] = true
				break
			}
		}
	}

	var found []string
	for t := range seen {
		found = append(found, t)
	}
	sort.Strings(found)
	return found
}

// extractPriceRange recognizes "between $A and $B", "under $A", "over $A"
// with k/m scaling. "under" yields (0, A); "over" yields (A, +inf).
func (e *Extractor) extractPriceRange(q string) *Range {
	if m := priceBetweenPattern.FindStringSubmatch(q); m != nil {
		lo, ok1 := parseAmount(m[1], m[2])
		hi, ok2 := parseAmount(m[3], m[4])
		if !ok1 || !ok2 {
			e.debugf("price range matched but did not parse: %q", m[0])
			return nil
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		return &Range{Lo: lo, Hi: hi}
	}

	// "over N acres" is a size expression, not a price; only treat under/over
	// as price when a dollar amount (or bare number without a size unit)
	// follows.
	if m := priceUnderPattern.FindStringSubmatch(q); m != nil && !followedByAcres(q, m[0]) {
		hi, ok := parseAmount(m[1], m[2])
		if !ok {
			e.debugf("price bound matched but did not parse: %q", m[0])
			return nil
		}
		return &Range{Lo: 0, Hi: hi}
	}

	if m := priceOverPattern.FindStringSubmatch(q); m != nil && !followedByAcres(q, m[0]) {
		lo, ok := parseAmount(m[1], m[2])
		if !ok {
			e.debugf("price bound matched but did not parse: %q", m[0])
			return nil
		}
		return &Range{Lo: lo, Unbounded: true}
	}

	return nil
}

// followedByAcres reports whether the matched numeric expression is
// immediately followed by an acres unit in the utterance.
func followedByAcres(q, match string) bool {
	idx := strings.Index(q, match)
	if idx < 0 {
		return false
	}
	rest := strings.TrimLeft(q[idx+len(match):], " ")
	return strings.HasPrefix(rest, "acre")
}

// extractSizeRanges fills SizeRange (acres) and the supplemental square
// footage ranges.
func (e *Extractor) extractSizeRanges(q string, c *Constraints) {
	if m := acresRangePattern.FindStringSubmatch(q); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		if lo > hi {
			lo, hi = hi, lo
		}
		c.SizeRange = &Range{Lo: lo, Hi: hi}
	} else if m := acresOverPattern.FindStringSubmatch(q); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		c.SizeRange = &Range{Lo: lo, Unbounded: true}
	} else if m := acresExactPattern.FindStringSubmatch(q); m != nil {
		// Exact acreage only when no range wording is present.
		if !strings.Contains(q, " to ") && !strings.Contains(q, "over") && !strings.Contains(q, "under") {
			v, _ := strconv.ParseFloat(m[1], 64)
			c.SizeRange = &Range{Lo: v, Hi: v}
		}
	}

	isBuilding := strings.Contains(q, "building") || strings.Contains(q, "structure") || strings.Contains(q, "indoor")

	if m := sqftRangePattern.FindStringSubmatch(q); m != nil {
		lo, _ := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		hi, _ := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if lo > hi {
			lo, hi = hi, lo
		}
		r := &Range{Lo: lo, Hi: hi}
		if isBuilding {
			c.BuildingRange = r
		} else {
			c.SqftRange = r
		}
	} else if m := sqftSinglePattern.FindStringSubmatch(q); m != nil {
		v, _ := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		r := &Range{Lo: v, Unbounded: true}
		if strings.Contains(q, "under") {
			r = &Range{Lo: 0, Hi: v}
		}
		if isBuilding {
			c.BuildingRange = r
		} else {
			c.SqftRange = r
		}
	}
}

func extractAggregation(q string) Aggregation {
	switch {
	case strings.Contains(q, "how many") || containsWord(q, "count") || strings.Contains(q, "number of"):
		return AggCount
	case strings.Contains(q, "average") || containsWord(q, "avg"):
		return AggAvg
	case containsWord(q, "sum") || containsWord(q, "total"):
		return AggSum
	case strings.Contains(q, "maximum") || containsWord(q, "max"):
		return AggMax
	case strings.Contains(q, "minimum") || containsWord(q, "min"):
		return AggMin
	}
	return AggNone
}

func extractGroupBy(q string) string {
	switch {
	case strings.Contains(q, "counties") || strings.Contains(q, "county count") ||
		strings.Contains(q, "by county") || strings.Contains(q, "per county") ||
		strings.Contains(q, "each county"):
		return "county"
	case strings.Contains(q, "by type") || strings.Contains(q, "types count") ||
		strings.Contains(q, "types statistics") || strings.Contains(q, "by property type"):
		return "property_type"
	}
	return ""
}

func extractOrderBy(q string) *Order {
	switch {
	case strings.Contains(q, "cheapest") || strings.Contains(q, "lowest price"):
		return &Order{Column: "asking_price", Direction: "ASC"}
	case strings.Contains(q, "expensive") || strings.Contains(q, "highest"):
		return &Order{Column: "asking_price", Direction: "DESC"}
	case strings.Contains(q, "largest") || strings.Contains(q, "biggest"):
		return &Order{Column: "size_acres", Direction: "DESC"}
	case strings.Contains(q, "smallest"):
		return &Order{Column: "size_acres", Direction: "ASC"}
	}
	return nil
}

func extractLimit(q string) int {
	for _, p := range limitPatterns {
		if m := p.FindStringSubmatch(q); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

func extractFilters(q string) map[string]string {
	filters := make(map[string]string)

	if containsWord(q, "vacant") || containsWord(q, "empty") {
		filters["status"] = "Vacant"
	}
	if containsWord(q, "available") {
		filters["status"] = "Available"
	}
	if strings.Contains(q, "for sale") {
		filters["status"] = "For Sale"
	}
	if containsWord(q, "sold") {
		filters["status"] = "Sold"
	}
	if containsWord(q, "active") {
		filters["status"] = "Active"
	}
	if containsWord(q, "traffic") {
		filters["has_traffic_data"] = "true"
	}
	if containsWord(q, "income") {
		filters["has_income_data"] = "true"
	}

	if len(filters) == 0 {
		return nil
	}
	return filters
}

// estimateResultBand infers the expected cardinality band from the shape of
// the constraints. Aggregations expect narrow bands; broad listings wide
// ones.
func estimateResultBand(c *Constraints) (int, int) {
	if c.Aggregation != AggNone {
		if c.GroupBy != "" {
			return 1, 20
		}
		return 1, 1
	}
	hasCounty := len(c.Counties) > 0
	hasType := len(c.PropertyTypes) > 0
	switch {
	case hasCounty && hasType:
		return 1, 100
	case hasCounty || hasType:
		return 5, 500
	default:
		return 10, 1000
	}
}

// parseAmount converts "500"/"1,250" plus an optional k/m suffix into base
// currency units.
func parseAmount(num, suffix string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch suffix {
	case "k":
		v *= 1_000
	case "m":
		v *= 1_000_000
	}
	return v, true
}

func containsWord(q, word string) bool {
	idx := 0
	for {
		i := strings.Index(q[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordByte(q[i-1])
		afterIdx := i + len(word)
		after := afterIdx >= len(q) || !isWordByte(q[afterIdx])
		if before && after {
			return true
		}
		idx = i + len(word)
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
