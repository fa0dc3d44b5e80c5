package schema

// Column maps one output column to its source path in the merged record.
// Default is the value used when the path does not resolve; nil serializes
// to an explicit JSON null, never an omitted key.
type Column struct {
	Name    string
	Path    Path
	Default interface{}
}

// Schema is the ordered, fixed column set of the output rows. Every row
// carries every column regardless of which source fields were present; the
// storage format is schema-sensitive and heterogeneous rows would corrupt
// downstream readers.
type Schema []Column

// Column names referenced elsewhere in the pipeline.
const (
	ColEventMetadata = "event_metadata"
	ColDeprecated    = "deprecated_versions"
)

// timeColumns are projected values normalized to RFC3339 strings.
var timeColumns = map[string]bool{
	"start_time":                  true,
	"end_time":                    true,
	"last_updated_time":           true,
	"affected_entity_last_update": true,
	"ingestion_time":              true,
}

// DefaultSchema returns the output schema for flattened health event rows.
func DefaultSchema() Schema {
	columns := []struct {
		name string
		path string
	}{
		{"payer_account_id", "payer_account_id"},
		{"account_id", "awsAccountId"},
		{"event_code", "event.eventTypeCode"},
		{"event_category", "event.eventTypeCategory"},
		{"event_scope", "event.eventScopeCode"},
		{"status_code", "event.statusCode"},
		{"service", "event.service"},
		{"region", "event.region"},
		{"event_description", "eventDescription.latestDescription"},
		{"affected_entity_value", "entityValue"},
		{"affected_entity_arn", "entityArn"},
		{"affected_entity_status_code", "entityStatusCode"},
		{"affected_entity_last_update", "entityLastUpdatedTime"},
		{"affected_entity_url", "entityUrl"},
		{"availability_zone", "event.availabilityZone"},
		{ColDeprecated, "deprecated_versions"},
		{"tags", "tags"},
		{"start_time", "event.startTime"},
		{"end_time", "event.endTime"},
		{"last_updated_time", "event.lastUpdatedTime"},
		{ColEventMetadata, "eventMetadata"},
		{"event_source", "event_source"},
		{"event_arn", "event.arn"},
		{"ingestion_time", "ingestion_time"},
	}

	schema := make(Schema, 0, len(columns))
	for _, c := range columns {
		schema = append(schema, Column{Name: c.name, Path: ParsePath(c.path)})
	}
	return schema
}
