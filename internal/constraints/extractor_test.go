package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propquery/internal/schema"
)

func newExtractor() *Extractor {
	return NewExtractor(schema.NewMap())
}

func TestExtractCountyAndType(t *testing.T) {
	e := newExtractor()

	c := e.Extract("how many gas stations in fulton county")
	assert.Equal(t, []string{"fulton"}, c.Counties)
	assert.Equal(t, []string{"gas_station"}, c.PropertyTypes)
	assert.Equal(t, AggCount, c.Aggregation)
	assert.Equal(t, "", c.GroupBy)
	assert.Equal(t, 1, c.ExpectedMin)
	assert.Equal(t, 1, c.ExpectedMax)
}

func TestExtractPluralType(t *testing.T) {
	e := newExtractor()

	c := e.Extract("show me the top 10 cheapest restaurants")
	assert.Equal(t, []string{"restaurant"}, c.PropertyTypes)
	assert.Equal(t, 10, c.Limit)
	require.NotNil(t, c.OrderBy)
	assert.Equal(t, "asking_price", c.OrderBy.Column)
	assert.Equal(t, "ASC", c.OrderBy.Direction)
}

func TestExtractPriceBetween(t *testing.T) {
	e := newExtractor()

	c := e.Extract("gas stations between $500k and $1.2m")
	require.NotNil(t, c.PriceRange)
	assert.Equal(t, 500000.0, c.PriceRange.Lo)
	assert.Equal(t, 1200000.0, c.PriceRange.Hi)
	assert.False(t, c.PriceRange.Unbounded)
}

func TestExtractPriceUnder(t *testing.T) {
	e := newExtractor()

	c := e.Extract("properties in fulton county under $2m")
	require.NotNil(t, c.PriceRange)
	assert.Equal(t, 0.0, c.PriceRange.Lo)
	assert.Equal(t, 2000000.0, c.PriceRange.Hi)
	assert.Equal(t, 5, c.ExpectedMin)
	assert.Equal(t, 500, c.ExpectedMax)
}

func TestExtractPriceOverUnbounded(t *testing.T) {
	e := newExtractor()

	c := e.Extract("properties over $750k")
	require.NotNil(t, c.PriceRange)
	assert.Equal(t, 750000.0, c.PriceRange.Lo)
	assert.True(t, c.PriceRange.Unbounded)
}

func TestOverAcresIsNotAPrice(t *testing.T) {
	e := newExtractor()

	c := e.Extract("land over 5 acres in cobb county")
	assert.Nil(t, c.PriceRange)
	require.NotNil(t, c.SizeRange)
	assert.Equal(t, 5.0, c.SizeRange.Lo)
	assert.True(t, c.SizeRange.Unbounded)
	assert.Equal(t, []string{"cobb"}, c.Counties)
}

func TestExtractAcresRange(t *testing.T) {
	e := newExtractor()

	c := e.Extract("parcels from 5 to 10 acres")
	require.NotNil(t, c.SizeRange)
	assert.Equal(t, 5.0, c.SizeRange.Lo)
	assert.Equal(t, 10.0, c.SizeRange.Hi)
}

func TestExtractSqftRanges(t *testing.T) {
	e := newExtractor()

	c := e.Extract("retail space 1,000 to 2,000 sqft")
	require.NotNil(t, c.SqftRange)
	assert.Equal(t, 1000.0, c.SqftRange.Lo)
	assert.Equal(t, 2000.0, c.SqftRange.Hi)
	assert.Nil(t, c.BuildingRange)

	c = e.Extract("buildings 2,000 to 5,000 sqft")
	require.NotNil(t, c.BuildingRange)
	assert.Equal(t, 2000.0, c.BuildingRange.Lo)
	assert.Equal(t, 5000.0, c.BuildingRange.Hi)
}

func TestExtractGroupBy(t *testing.T) {
	e := newExtractor()

	c := e.Extract("count properties by county")
	assert.Equal(t, AggCount, c.Aggregation)
	assert.Equal(t, "county", c.GroupBy)
	assert.Equal(t, 1, c.ExpectedMin)
	assert.Equal(t, 20, c.ExpectedMax)

	c = e.Extract("number of listings by property type")
	assert.Equal(t, AggCount, c.Aggregation)
	assert.Equal(t, "property_type", c.GroupBy)
}

func TestExtractAggregations(t *testing.T) {
	e := newExtractor()

	assert.Equal(t, AggAvg, e.Extract("average asking price in fulton").Aggregation)
	assert.Equal(t, AggSum, e.Extract("total value of listings").Aggregation)
	assert.Equal(t, AggMax, e.Extract("maximum price in cobb").Aggregation)
	assert.Equal(t, AggMin, e.Extract("minimum price in cobb").Aggregation)
	assert.Equal(t, AggNone, e.Extract("gas stations in cobb").Aggregation)
}

func TestExtractFilters(t *testing.T) {
	e := newExtractor()

	c := e.Extract("vacant land in fulton county")
	assert.Equal(t, "Vacant", c.Filters["status"])

	c = e.Extract("properties with traffic data")
	assert.Equal(t, "true", c.Filters["has_traffic_data"])

	c = e.Extract("gas stations in cobb")
	assert.Nil(t, c.Filters)
}

func TestExtractLimit(t *testing.T) {
	e := newExtractor()

	assert.Equal(t, 5, e.Extract("first 5 properties").Limit)
	assert.Equal(t, 25, e.Extract("top 25 listings").Limit)
	assert.Equal(t, 0, e.Extract("gas stations in cobb").Limit)
}

func TestExtractEmptyUtterance(t *testing.T) {
	e := newExtractor()

	c := e.Extract("")
	assert.Empty(t, c.Counties)
	assert.Empty(t, c.PropertyTypes)
	assert.Nil(t, c.PriceRange)
	assert.Equal(t, AggNone, c.Aggregation)
	assert.Equal(t, 10, c.ExpectedMin)
	assert.Equal(t, 1000, c.ExpectedMax)
}

func TestExtractDeterministic(t *testing.T) {
	e := newExtractor()
	utterance := "how many gas stations in fulton county under $2m"

	first := e.Extract(utterance)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Extract(utterance))
	}
}

func TestParseAmount(t *testing.T) {
	v, ok := parseAmount("1,250", "")
	require.True(t, ok)
	assert.Equal(t, 1250.0, v)

	v, ok = parseAmount("500", "k")
	require.True(t, ok)
	assert.Equal(t, 500000.0, v)

	v, ok = parseAmount("1.5", "m")
	require.True(t, ok)
	assert.Equal(t, 1500000.0, v)

	_, ok = parseAmount("", "k")
	assert.False(t, ok)
}
