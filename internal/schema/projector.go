package schema

import (
	"encoding/json"
	"time"
)

// Projector flattens merged nested records into rows with the fixed column
// set of its schema. Projection of each column is independent: a path that
// fails to resolve yields the column default, so every row has identical
// column membership.
type Projector struct {
	schema Schema
}

// NewProjector creates a projector over the given schema.
func NewProjector(schema Schema) *Projector {
	return &Projector{schema: schema}
}

// Project resolves every declared column against the merged record and
// normalizes time and metadata values for the output format.
func (p *Projector) Project(record map[string]interface{}) map[string]interface{} {
	row := make(map[string]interface{}, len(p.schema))
	for _, col := range p.schema {
		value, ok := col.Path.Resolve(record)
		if !ok {
			value = col.Default
		}
		if timeColumns[col.Name] {
			value = normalizeTime(value)
		}
		if col.Name == ColEventMetadata {
			value = serializeMetadata(value)
		}
		row[col.Name] = value
	}
	return row
}

// Columns returns the schema column names in declaration order.
func (p *Projector) Columns() []string {
	names := make([]string, len(p.schema))
	for i, col := range p.schema {
		names[i] = col.Name
	}
	return names
}

// normalizeTime converts timestamps to RFC3339 strings. Integer values are
// epoch milliseconds, which some metadata-driven events carry instead of a
// structured timestamp.
func normalizeTime(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC().Format(time.RFC3339)
	case int:
		return time.UnixMilli(int64(v)).UTC().Format(time.RFC3339)
	case int64:
		return time.UnixMilli(v).UTC().Format(time.RFC3339)
	case float64:
		return time.UnixMilli(int64(v)).UTC().Format(time.RFC3339)
	default:
		return value
	}
}

// serializeMetadata forces the open-ended metadata substructure to a single
// string. Its shape varies per event type; leaving it nested would change
// the row schema between events.
func serializeMetadata(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
