package adapter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CellKind tags the runtime type of a result cell.
type CellKind int

const (
	CellNull CellKind = iota
	CellInt
	CellFloat
	CellText
	CellJSON
)

// Cell is a tagged result value. Downstream logic dispatches on Kind instead
// of reflecting over driver-specific types.
type Cell struct {
	Kind  CellKind
	Int   int64
	Float float64
	Text  string // also carries raw JSON for CellJSON
}

// cellFromValue converts a database/sql scan value into a Cell. Byte slices
// become text; text that parses as a JSON object or array is tagged CellJSON
// (the address column is JSONB in the property store).
func cellFromValue(v interface{}) Cell {
	switch val := v.(type) {
	case nil:
		return Cell{Kind: CellNull}
	case int64:
		return Cell{Kind: CellInt, Int: val}
	case int:
		return Cell{Kind: CellInt, Int: int64(val)}
	case float64:
		return Cell{Kind: CellFloat, Float: val}
	case bool:
		if val {
			return Cell{Kind: CellInt, Int: 1}
		}
		return Cell{Kind: CellInt, Int: 0}
	case time.Time:
		return Cell{Kind: CellText, Text: val.Format(time.RFC3339)}
	case []byte:
		return textCell(string(val))
	case string:
		return textCell(val)
	default:
		return Cell{Kind: CellText, Text: fmt.Sprintf("%v", val)}
	}
}

func textCell(s string) Cell {
	trimmed := strings.TrimSpace(s)
	if (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) && json.Valid([]byte(trimmed)) {
		return Cell{Kind: CellJSON, Text: s}
	}
	return Cell{Kind: CellText, Text: s}
}

// IsNull reports whether the cell is SQL NULL.
func (c Cell) IsNull() bool {
	return c.Kind == CellNull
}

// String renders the cell for display and logging.
func (c Cell) String() string {
	switch c.Kind {
	case CellNull:
		return "NULL"
	case CellInt:
		return fmt.Sprintf("%d", c.Int)
	case CellFloat:
		return fmt.Sprintf("%g", c.Float)
	default:
		return c.Text
	}
}

// AsFloat returns the numeric value of an Int or Float cell.
func (c Cell) AsFloat() (float64, bool) {
	switch c.Kind {
	case CellInt:
		return float64(c.Int), true
	case CellFloat:
		return c.Float, true
	}
	return 0, false
}

// JSONField extracts a string field from a CellJSON value, "" if absent.
func (c Cell) JSONField(name string) string {
	if c.Kind != CellJSON {
		return ""
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(c.Text), &obj); err != nil {
		return ""
	}
	if s, ok := obj[name].(string); ok {
		return s
	}
	return ""
}
