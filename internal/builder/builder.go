package builder

import (
	"fmt"
	"strings"

	"propquery/internal/constraints"
	"propquery/internal/schema"
)

// DefaultTable is the physical property table the engine targets.
const DefaultTable = "Georgia Properties"

// baseColumns is the minimum projection for listing queries. listing_url,
// address and zoning are required by downstream display; dropping them is a
// validation issue the corrector repairs.
var baseColumns = []string{
	"id", "name", "property_type", "property_subtype", "asking_price",
	"listing_url", "address", "zoning",
}

// Builder emits SQL directly from a Constraints record. It is a pure
// function of the constraints: same record, same SQL.
type Builder struct {
	schema       *schema.Map
	table        string
	defaultLimit int
	defaultOrder constraints.Order
}

// Option configures a Builder.
type Option func(*Builder)

// WithTable overrides the physical table name.
func WithTable(name string) Option {
	return func(b *Builder) { b.table = name }
}

// WithDefaultLimit overrides the LIMIT applied when the constraints carry
// none.
func WithDefaultLimit(n int) Option {
	return func(b *Builder) { b.defaultLimit = n }
}

// WithDefaultOrder overrides the ORDER BY applied when the constraints carry
// none.
func WithDefaultOrder(column, direction string) Option {
	return func(b *Builder) {
		b.defaultOrder = constraints.Order{Column: column, Direction: direction}
	}
}

// New creates a builder over the given schema map.
func New(m *schema.Map, opts ...Option) *Builder {
	b := &Builder{
		schema:       m,
		table:        DefaultTable,
		defaultLimit: 50,
		defaultOrder: constraints.Order{Column: "asking_price", Direction: "ASC"},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build emits a SELECT statement implementing the constraints.
func (b *Builder) Build(c *constraints.Constraints) string {
	if c.Aggregation != constraints.AggNone {
		return b.buildAggregate(c)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.projection(c), ", "))
	sb.WriteString(fmt.Sprintf("\nFROM %q", b.table))

	if where := b.whereClause(c); where != "" {
		sb.WriteString("\nWHERE ")
		sb.WriteString(where)
	}

	order := b.defaultOrder
	if c.OrderBy != nil {
		order = *c.OrderBy
	}
	sb.WriteString(fmt.Sprintf("\nORDER BY %s %s", order.Column, order.Direction))

	limit := b.defaultLimit
	if c.Limit > 0 {
		limit = c.Limit
	}
	sb.WriteString(fmt.Sprintf("\nLIMIT %d", limit))

	return sb.String()
}

// buildAggregate emits the aggregation forms. County and property-type
// grouping produce a GROUP BY with per-group counts; everything else is a
// scalar aggregate. Aggregates carry no LIMIT.
func (b *Builder) buildAggregate(c *constraints.Constraints) string {
	where := b.whereClause(c)

	switch c.GroupBy {
	case "county":
		cond := "address->>'county' IS NOT NULL"
		if where != "" {
			cond += " AND " + where
		}
		return fmt.Sprintf("SELECT address->>'county' AS county, COUNT(*) AS property_count\nFROM %q\nWHERE %s\nGROUP BY address->>'county'\nORDER BY property_count DESC", b.table, cond)
	case "property_type":
		cond := "property_type IS NOT NULL"
		if where != "" {
			cond += " AND " + where
		}
		return fmt.Sprintf("SELECT property_type, COUNT(*) AS property_count\nFROM %q\nWHERE %s\nGROUP BY property_type\nORDER BY property_count DESC", b.table, cond)
	}

	var projection string
	switch c.Aggregation {
	case constraints.AggCount:
		projection = "COUNT(*) AS total_properties"
	default:
		agg := string(c.Aggregation)
		projection = fmt.Sprintf("%s(asking_price) AS %s_asking_price", agg, strings.ToLower(agg))
	}

	sql := fmt.Sprintf("SELECT %s\nFROM %q", projection, b.table)
	if where != "" {
		sql += "\nWHERE " + where
	}
	return sql
}

// projection returns the base columns plus any size or traffic column a
// constraint references.
func (b *Builder) projection(c *constraints.Constraints) []string {
	cols := append([]string(nil), baseColumns...)
	if c.SizeRange != nil {
		cols = append(cols, b.schema.SizeColumn("acres"))
	}
	if c.SqftRange != nil {
		cols = append(cols, b.schema.SizeColumn("sqft"))
	}
	if c.BuildingRange != nil {
		cols = append(cols, b.schema.SizeColumn("building"))
	}
	if c.Filters["has_traffic_data"] == "true" {
		cols = append(cols, "traffic_count_aadt")
	}
	return cols
}

// whereClause composes predicates with AND: counties (OR-joined), ranges,
// property-type broadening, status equality.
func (b *Builder) whereClause(c *constraints.Constraints) string {
	var conds []string

	if len(c.Counties) > 0 {
		var parts []string
		for _, county := range c.Counties {
			if p := b.schema.CountyPredicate(county); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 1 {
			conds = append(conds, parts[0])
		} else if len(parts) > 1 {
			conds = append(conds, "("+strings.Join(parts, " OR ")+")")
		}
	}

	if len(c.PropertyTypes) > 0 {
		var parts []string
		for _, t := range c.PropertyTypes {
			if p := b.schema.PropertyTypePredicate(t); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 1 {
			conds = append(conds, parts[0])
		} else if len(parts) > 1 {
			conds = append(conds, "("+strings.Join(parts, " OR ")+")")
		}
	}

	if p := rangeCondition("asking_price", c.PriceRange); p != "" {
		conds = append(conds, p)
	}
	if p := rangeCondition(b.schema.SizeColumn("acres"), c.SizeRange); p != "" {
		conds = append(conds, p)
	}
	if p := rangeCondition(b.schema.SizeColumn("sqft"), c.SqftRange); p != "" {
		conds = append(conds, p)
	}
	if p := rangeCondition(b.schema.SizeColumn("building"), c.BuildingRange); p != "" {
		conds = append(conds, p)
	}

	if status, ok := c.Filters["status"]; ok {
		conds = append(conds, fmt.Sprintf("status = '%s'", status))
	}
	if c.Filters["has_traffic_data"] == "true" {
		conds = append(conds, "traffic_count_aadt IS NOT NULL")
	}

	return strings.Join(conds, " AND ")
}

// rangeCondition encodes a range as BETWEEN when both bounds are finite,
// and as a single inequality otherwise.
func rangeCondition(column string, r *constraints.Range) string {
	if r == nil || column == "" {
		return ""
	}
	if r.Unbounded {
		return fmt.Sprintf("%s >= %s", column, formatNumber(r.Lo))
	}
	// An exact value is a degenerate range; BETWEEN N AND N keeps every
	// bounded range on one encoding.
	return fmt.Sprintf("%s BETWEEN %s AND %s", column, formatNumber(r.Lo), formatNumber(r.Hi))
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
