package feedback

import (
	"time"

	"propquery/internal/schema"
)

// Config is the closed set of engine options.
type Config struct {
	// MaxIterations bounds how many corrections one request may receive.
	MaxIterations int

	// DefaultLimit is applied by the SQL builder when the constraints carry
	// no explicit limit.
	DefaultLimit int

	// Default ordering for listing queries.
	DefaultOrderColumn    string
	DefaultOrderDirection string

	// ExecutionTimeout bounds a single statement.
	ExecutionTimeout time.Duration

	// CountyList and PropertyTypeSynonyms override the schema map token
	// tables; nil selects the Georgia defaults.
	CountyList           []string
	PropertyTypeSynonyms map[string][]string

	// Debug enables extraction-warning logging.
	Debug bool
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxIterations:         3,
		DefaultLimit:          50,
		DefaultOrderColumn:    "asking_price",
		DefaultOrderDirection: "ASC",
		ExecutionTimeout:      30 * time.Second,
	}
}

// schemaMap builds the schema map the config describes.
func (c *Config) schemaMap() *schema.Map {
	counties := c.CountyList
	if counties == nil {
		counties = schema.DefaultCounties
	}
	synonyms := c.PropertyTypeSynonyms
	if synonyms == nil {
		synonyms = schema.DefaultSynonyms
	}
	return schema.NewMapWith(counties, synonyms)
}
