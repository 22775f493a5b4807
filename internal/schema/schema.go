package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Map translates natural-language concepts (county names, property-type
// synonyms, size units) into SQL fragments over the property table.
// Immutable after construction; safe for concurrent reads.
type Map struct {
	counties map[string]bool
	synonyms map[string][]string
	sizeCols map[string]string
}

// DefaultCounties is the closed list of Georgia county tokens.
var DefaultCounties = []string{
	"appling", "atkinson", "bacon", "baker", "baldwin", "banks", "barrow",
	"bartow", "ben hill", "berrien", "bibb", "bleckley", "brantley", "brooks",
	"bryan", "bulloch", "burke", "butts", "calhoun", "camden", "candler",
	"carroll", "catoosa", "charlton", "chatham", "chattahoochee", "chattooga",
	"cherokee", "clarke", "clay", "clayton", "clinch", "cobb", "coffee",
	"colquitt", "columbia", "cook", "coweta", "crawford", "crisp", "dade",
	"dawson", "decatur", "dekalb", "de kalb", "dodge", "dooly", "dougherty",
	"douglas", "early", "echols", "effingham", "elbert", "emanuel", "evans",
	"fannin", "fayette", "floyd", "forsyth", "franklin", "fulton", "gilmer",
	"glascock", "glynn", "gordon", "grady", "greene", "gwinnett", "habersham",
	"hall", "hancock", "haralson", "harris", "hart", "heard", "henry",
	"houston", "irwin", "jackson", "jasper", "jeff davis", "jefferson",
	"jenkins", "johnson", "jones", "lamar", "lanier", "laurens", "lee",
	"liberty", "lincoln", "long", "lowndes", "lumpkin", "macon", "madison",
	"marion", "mcduffie", "mcintosh", "meriwether", "miller", "mitchell",
	"monroe", "montgomery", "morgan", "murray", "muscogee", "newton", "oconee",
	"oglethorpe", "paulding", "peach", "pickens", "pierce", "pike", "polk",
	"pulaski", "putnam", "quitman", "rabun", "randolph", "richmond", "rockdale",
	"schley", "screven", "seminole", "spalding", "stephens", "stewart",
	"sumter", "talbot", "taliaferro", "tattnall", "taylor", "telfair",
	"terrell", "thomas", "tift", "toombs", "towns", "treutlen", "troup",
	"turner", "twiggs", "union", "upson", "walker", "walton", "ware",
	"warren", "washington", "wayne", "webster", "wheeler", "white", "whitfield",
	"wilcox", "wilkes", "wilkinson", "worth",
}

// DefaultSynonyms maps a canonical property type to the surface forms that
// should broaden its ILIKE search across property_type and property_subtype.
var DefaultSynonyms = map[string][]string{
	"gas_station":       {"gas", "gasoline", "fuel", "petrol", "station"},
	"convenience_store": {"convenience", "c-store", "corner", "mini mart", "quick mart"},
	"restaurant":        {"restaurant", "dining", "food", "eatery", "qsr", "fast food"},
	"retail":            {"retail", "store", "shop", "commercial"},
	"office":            {"office", "professional"},
	"vacant":            {"vacant", "empty"},
	"commercial":        {"commercial"},
}

// defaultSizeColumns maps size-unit tokens to physical columns.
var defaultSizeColumns = map[string]string{
	"acres":    "size_acres",
	"sqft":     "size_sqft",
	"lot":      "size_sqft",
	"building": "building_sqft",
}

// NewMap creates a schema map with the default Georgia county list and
// property-type synonym table.
func NewMap() *Map {
	return NewMapWith(DefaultCounties, DefaultSynonyms)
}

// NewMapWith creates a schema map from explicit token lists. The inputs are
// copied; callers may not mutate the map afterwards through them.
func NewMapWith(counties []string, synonyms map[string][]string) *Map {
	m := &Map{
		counties: make(map[string]bool, len(counties)),
		synonyms: make(map[string][]string, len(synonyms)),
		sizeCols: defaultSizeColumns,
	}
	for _, c := range counties {
		m.counties[strings.ToLower(c)] = true
	}
	for canonical, syns := range synonyms {
		m.synonyms[canonical] = append([]string(nil), syns...)
	}
	return m
}

// Counties returns the canonical county tokens in sorted order.
func (m *Map) Counties() []string {
	out := make([]string, 0, len(m.counties))
	for c := range m.counties {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// IsCounty reports whether token is a legal county token.
func (m *Map) IsCounty(token string) bool {
	return m.counties[strings.ToLower(token)]
}

// CountyPredicate returns the SQL fragment filtering by county through the
// JSON address field, or "" for unknown tokens.
func (m *Map) CountyPredicate(token string) string {
	token = strings.ToLower(token)
	if !m.counties[token] {
		return ""
	}
	return fmt.Sprintf("address->>'county' ILIKE '%%%s%%'", token)
}

// PropertyTypes returns the canonical property-type tokens in sorted order.
func (m *Map) PropertyTypes() []string {
	out := make([]string, 0, len(m.synonyms))
	for t := range m.synonyms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Synonyms returns the synonym set for a canonical property type, nil for
// unknown tokens.
func (m *Map) Synonyms(canonical string) []string {
	syns, ok := m.synonyms[canonical]
	if !ok {
		return nil
	}
	return append([]string(nil), syns...)
}

// CanonicalType resolves a surface form to its canonical property type.
// Longer synonyms win so that "gas station" is not shadowed by "station".
func (m *Map) CanonicalType(surface string) (string, bool) {
	surface = strings.ToLower(strings.TrimSpace(surface))
	best := ""
	bestLen := 0
	for canonical, syns := range m.synonyms {
		if surface == canonical {
			return canonical, true
		}
		for _, s := range syns {
			if surface == s && len(s) > bestLen {
				best = canonical
				bestLen = len(s)
			}
		}
	}
	if best != "" {
		return best, true
	}
	return "", false
}

// PropertyTypePredicate broadens a canonical type to an OR of ILIKE clauses
// across property_type and property_subtype using its synonym set.
// Returns "" for unknown tokens.
func (m *Map) PropertyTypePredicate(canonical string) string {
	syns, ok := m.synonyms[canonical]
	if !ok || len(syns) == 0 {
		return ""
	}
	parts := make([]string, 0, len(syns)*2)
	for _, s := range syns {
		parts = append(parts,
			fmt.Sprintf("property_type ILIKE '%%%s%%'", s),
			fmt.Sprintf("property_subtype ILIKE '%%%s%%'", s))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// SizeColumn maps a size-unit token to its physical column, "" if unknown.
func (m *Map) SizeColumn(unit string) string {
	return m.sizeCols[strings.ToLower(unit)]
}
