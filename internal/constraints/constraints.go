package constraints

// Aggregation is the summary intent extracted from an utterance.
type Aggregation string

const (
	AggNone  Aggregation = ""
	AggCount Aggregation = "COUNT"
	AggSum   Aggregation = "SUM"
	AggAvg   Aggregation = "AVG"
	AggMin   Aggregation = "MIN"
	AggMax   Aggregation = "MAX"
)

// Range is an ordered numeric interval. Unbounded marks an open upper bound
// ("over $500k"); Hi is meaningless when it is set.
type Range struct {
	Lo        float64 `json:"lo"`
	Hi        float64 `json:"hi"`
	Unbounded bool    `json:"unbounded,omitempty"`
}

// Bounded reports whether both ends of the range are finite.
func (r *Range) Bounded() bool {
	return r != nil && !r.Unbounded
}

// Order is an ordering preference extracted from an utterance.
type Order struct {
	Column    string `json:"column"`
	Direction string `json:"direction"` // ASC or DESC
}

// Constraints is the structured interpretation of a user utterance. It is
// produced once per request by the Extractor and handed read-only to the
// validator, corrector and learning store.
type Constraints struct {
	Counties      []string          `json:"counties"`
	PriceRange    *Range            `json:"price_range,omitempty"`
	SizeRange     *Range            `json:"size_range,omitempty"` // acres
	SqftRange     *Range            `json:"sqft_range,omitempty"`
	BuildingRange *Range            `json:"building_sqft_range,omitempty"`
	PropertyTypes []string          `json:"property_types"`
	Aggregation   Aggregation       `json:"aggregation_type,omitempty"`
	GroupBy       string            `json:"group_by,omitempty"` // "county" or "property_type"
	OrderBy       *Order            `json:"order_by,omitempty"`
	Limit         int               `json:"limit,omitempty"`
	Filters       map[string]string `json:"filters,omitempty"`
	ExpectedMin   int               `json:"expected_min_results"`
	ExpectedMax   int               `json:"expected_max_results"`
}

// HasCounty reports whether the county token was extracted.
func (c *Constraints) HasCounty(county string) bool {
	for _, got := range c.Counties {
		if got == county {
			return true
		}
	}
	return false
}

// HasPropertyType reports whether the canonical type was extracted.
func (c *Constraints) HasPropertyType(canonical string) bool {
	for _, got := range c.PropertyTypes {
		if got == canonical {
			return true
		}
	}
	return false
}
