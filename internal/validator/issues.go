package validator

import "fmt"

// Kind discriminates Issue variants.
type Kind string

const (
	KindTooFewRows         Kind = "too_few_rows"
	KindTooManyRows        Kind = "too_many_rows"
	KindExecutionError     Kind = "execution_error"
	KindAggregationShape   Kind = "aggregation_shape"
	KindCountyFieldMisuse  Kind = "county_field_misuse"
	KindPriceRangeEncoding Kind = "price_range_encoding"
)

// Issue describes one way an execution result failed validation. Each
// variant carries the data the corrector needs to repair it.
type Issue interface {
	Kind() Kind
	String() string
}

// TooFewRows: the result undershot the expected cardinality band.
type TooFewRows struct {
	Got int
	Min int
}

func (i TooFewRows) Kind() Kind { return KindTooFewRows }
func (i TooFewRows) String() string {
	return fmt.Sprintf("too few results: got %d, expected at least %d", i.Got, i.Min)
}

// TooManyRows: the result overshot the expected cardinality band.
type TooManyRows struct {
	Got int
	Max int
}

func (i TooManyRows) Kind() Kind { return KindTooManyRows }
func (i TooManyRows) String() string {
	return fmt.Sprintf("too many results: got %d, expected at most %d", i.Got, i.Max)
}

// ExecutionError: the store rejected or timed out the statement.
type ExecutionError struct {
	Msg string
}

func (i ExecutionError) Kind() Kind     { return KindExecutionError }
func (i ExecutionError) String() string { return "execution error: " + i.Msg }

// AggregationShape: the SQL does not have the shape an aggregation intent
// requires (missing COUNT, empty aggregate).
type AggregationShape struct {
	Reason string
}

func (i AggregationShape) Kind() Kind     { return KindAggregationShape }
func (i AggregationShape) String() string { return "aggregation shape: " + i.Reason }

// CountyFieldMisuse: a county token is filtered through property_type
// instead of the JSON address field.
type CountyFieldMisuse struct {
	County string
}

func (i CountyFieldMisuse) Kind() Kind { return KindCountyFieldMisuse }
func (i CountyFieldMisuse) String() string {
	return fmt.Sprintf("county %q filtered through property_type instead of address", i.County)
}

// PriceRangeEncoding: a finite price range is encoded without BETWEEN.
type PriceRangeEncoding struct {
	Reason string
}

func (i PriceRangeEncoding) Kind() Kind     { return KindPriceRangeEncoding }
func (i PriceRangeEncoding) String() string { return "price range encoding: " + i.Reason }
