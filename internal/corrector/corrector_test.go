package corrector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propquery/internal/constraints"
	"propquery/internal/learning"
	"propquery/internal/schema"
	"propquery/internal/validator"
)

type fakePatterns struct {
	records []*learning.Record
	err     error
}

func (f *fakePatterns) Similar(_ *constraints.Constraints, limit int) ([]*learning.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func newCorrector(patterns PatternSource) *Corrector {
	return New(schema.NewMap(), patterns)
}

func TestCorrectCountyMisuse(t *testing.T) {
	c := newCorrector(nil)
	cons := &constraints.Constraints{Counties: []string{"fulton"}}
	sql := "SELECT listing_url, address, zoning FROM p WHERE property_type ILIKE '%fulton%'"
	issues := []validator.Issue{validator.CountyFieldMisuse{County: "fulton"}}

	corrected, reason := c.Correct(sql, cons, issues, "gas stations in fulton")
	assert.Contains(t, corrected, "address->>'county' ILIKE '%fulton%'")
	assert.NotContains(t, corrected, "property_type ILIKE '%fulton%'")
	assert.Contains(t, reason, "county filter")
}

func TestCorrectAddsCount(t *testing.T) {
	c := newCorrector(nil)
	cons := &constraints.Constraints{Aggregation: constraints.AggCount}
	sql := "SELECT id FROM p"
	issues := []validator.Issue{validator.AggregationShape{Reason: "missing COUNT"}}

	corrected, reason := c.Correct(sql, cons, issues, "how many properties")
	assert.Contains(t, corrected, "SELECT COUNT(*), id")
	assert.Contains(t, reason, "COUNT(*)")
}

func TestCorrectDropsAskingPriceFromGroupBy(t *testing.T) {
	c := newCorrector(nil)
	cons := &constraints.Constraints{Aggregation: constraints.AggCount}
	sql := "SELECT COUNT(*) FROM p GROUP BY property_type, asking_price"
	issues := []validator.Issue{validator.AggregationShape{Reason: "empty aggregate"}}

	corrected, reason := c.Correct(sql, cons, issues, "count by type")
	assert.NotContains(t, corrected, "asking_price")
	assert.Contains(t, corrected, "GROUP BY property_type")
	assert.Contains(t, reason, "GROUP BY")
}

func TestCorrectBroadensPropertyTypes(t *testing.T) {
	c := newCorrector(nil)
	cons := &constraints.Constraints{PropertyTypes: []string{"gas_station"}, ExpectedMin: 5}
	sql := "SELECT listing_url, address, zoning FROM p WHERE property_type ILIKE '%gas station%'"
	issues := []validator.Issue{validator.TooFewRows{Got: 0, Min: 5}}

	corrected, reason := c.Correct(sql, cons, issues, "gas stations")
	assert.Contains(t, corrected, "property_subtype ILIKE '%fuel%'")
	assert.Contains(t, reason, "Broadened")
}

func TestCorrectBroadeningIsIdempotent(t *testing.T) {
	c := newCorrector(nil)
	cons := &constraints.Constraints{PropertyTypes: []string{"gas_station"}, ExpectedMin: 5}
	sql := "SELECT listing_url, address, zoning FROM p WHERE (property_type ILIKE '%gas%' OR property_subtype ILIKE '%gas%')"
	issues := []validator.Issue{validator.TooFewRows{Got: 0, Min: 5}}

	corrected, reason := c.Correct(sql, cons, issues, "gas stations")
	assert.Equal(t, sql, corrected)
	assert.Equal(t, "No specific corrections applied", reason)
}

func TestCorrectPriceToBetween(t *testing.T) {
	c := newCorrector(nil)
	cons := &constraints.Constraints{PriceRange: &constraints.Range{Lo: 500000, Hi: 1000000}}
	sql := "SELECT listing_url, address, zoning FROM p WHERE asking_price >= 500000 AND asking_price <= 1000000"
	issues := []validator.Issue{validator.PriceRangeEncoding{Reason: "missing BETWEEN"}}

	corrected, reason := c.Correct(sql, cons, issues, "between 500k and 1m")
	assert.Contains(t, corrected, "asking_price BETWEEN 500000 AND 1000000")
	assert.NotContains(t, corrected, ">=")
	assert.Contains(t, reason, "BETWEEN")
}

func TestCorrectLonePriceBoundToBetween(t *testing.T) {
	c := newCorrector(nil)
	cons := &constraints.Constraints{PriceRange: &constraints.Range{Lo: 0, Hi: 500000}}
	sql := "SELECT listing_url, address, zoning FROM p WHERE asking_price < 500000"
	issues := []validator.Issue{validator.PriceRangeEncoding{Reason: "missing BETWEEN"}}

	corrected, reason := c.Correct(sql, cons, issues, "under 500k")
	assert.Contains(t, corrected, "asking_price BETWEEN 0 AND 500000")
	assert.NotContains(t, corrected, "asking_price <")
	assert.Contains(t, reason, "BETWEEN")
}

func TestCorrectLoneLowerBoundToBetween(t *testing.T) {
	c := newCorrector(nil)
	cons := &constraints.Constraints{PriceRange: &constraints.Range{Lo: 750000, Hi: 2000000}}
	sql := "SELECT listing_url, address, zoning FROM p WHERE asking_price >= 750000"
	issues := []validator.Issue{validator.PriceRangeEncoding{Reason: "missing BETWEEN"}}

	corrected, _ := c.Correct(sql, cons, issues, "between 750k and 2m")
	assert.Contains(t, corrected, "asking_price BETWEEN 750000 AND 2000000")
	assert.NotContains(t, corrected, ">=")
}

func TestCorrectAddsEssentialColumns(t *testing.T) {
	c := newCorrector(nil)
	cons := &constraints.Constraints{}
	sql := "SELECT id, name FROM p WHERE status = 'Vacant'"

	corrected, reason := c.Correct(sql, cons, nil, "vacant properties")
	assert.Contains(t, corrected, "listing_url")
	assert.Contains(t, corrected, "address")
	assert.Contains(t, corrected, "zoning")
	assert.Contains(t, reason, "essential display columns")
}

func TestCorrectSkipsEssentialColumnsForAggregates(t *testing.T) {
	c := newCorrector(nil)
	cons := &constraints.Constraints{}
	sql := "SELECT COUNT(*) FROM p"

	corrected, reason := c.Correct(sql, cons, nil, "how many")
	assert.Equal(t, sql, corrected)
	assert.Equal(t, "No specific corrections applied", reason)
}

func TestCorrectNoChange(t *testing.T) {
	c := newCorrector(nil)
	cons := &constraints.Constraints{}
	sql := "SELECT id, listing_url, address, zoning FROM p"

	corrected, reason := c.Correct(sql, cons, nil, "properties")
	assert.Equal(t, sql, corrected)
	assert.Equal(t, "No specific corrections applied", reason)
}

func TestCorrectAppliesLearnedPattern(t *testing.T) {
	patterns := &fakePatterns{records: []*learning.Record{{
		CorrectionReason: "Fixed fulton county filter to use address field",
		Status:           learning.StatusCorrected,
	}}}
	c := newCorrector(patterns)
	cons := &constraints.Constraints{Counties: []string{"fulton"}}
	sql := "SELECT listing_url, address, zoning FROM p WHERE property_type ILIKE '%fulton%'"

	// No misuse issue reported; the learned pattern alone drives the fix.
	corrected, reason := c.Correct(sql, cons, nil, "gas stations in fulton")
	assert.Contains(t, corrected, "address->>'county' ILIKE '%fulton%'")
	assert.Contains(t, reason, "learned county correction")
}

func TestCorrectLearnedPatternReadFailureIsIgnored(t *testing.T) {
	patterns := &fakePatterns{err: assert.AnError}
	c := newCorrector(patterns)
	cons := &constraints.Constraints{Counties: []string{"fulton"}}
	sql := "SELECT listing_url, address, zoning FROM p"

	corrected, reason := c.Correct(sql, cons, nil, "fulton properties")
	assert.Equal(t, sql, corrected)
	assert.Equal(t, "No specific corrections applied", reason)
}

func TestCorrectChainsMultipleFixes(t *testing.T) {
	c := newCorrector(nil)
	cons := &constraints.Constraints{
		Counties:   []string{"fulton"},
		PriceRange: &constraints.Range{Lo: 100000, Hi: 500000},
	}
	sql := "SELECT listing_url, address, zoning FROM p WHERE property_type ILIKE '%fulton%' AND asking_price >= 100000 AND asking_price <= 500000"
	issues := []validator.Issue{
		validator.CountyFieldMisuse{County: "fulton"},
		validator.PriceRangeEncoding{Reason: "missing BETWEEN"},
	}

	corrected, reason := c.Correct(sql, cons, issues, "fulton under 500k")
	assert.Contains(t, corrected, "address->>'county' ILIKE '%fulton%'")
	assert.Contains(t, corrected, "asking_price BETWEEN 100000 AND 500000")
	require.Contains(t, reason, "; ")
}
