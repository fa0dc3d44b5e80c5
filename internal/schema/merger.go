package schema

import (
	"time"

	"github.com/beacondata/beacon/internal/health"
)

// Merge precedence, lowest to highest: base event fields, detail fields,
// entity fields. The only genuine collisions are awsAccountId and eventArn,
// where the entity record is authoritative for its own row.

// BaseEventRecord builds the lowest-priority layer of a merged record from
// an event reference. Seeding the reference under "event" keeps the event
// identity columns populated even when no detail record matches an entity.
func BaseEventRecord(ref health.EventRef, payerID string, ingestion time.Time) map[string]interface{} {
	return map[string]interface{}{
		"event": map[string]interface{}{
			"arn":            ref.Arn,
			"eventScopeCode": string(ref.ScopeCode),
		},
		"payer_account_id": payerID,
		"event_source":     health.EventSource,
		"ingestion_time":   ingestion,
	}
}

// Merge combines record layers by shallow overlay; later layers win on key
// collisions. Nil layers are skipped. The inputs are not mutated.
func Merge(layers ...map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})
	for _, layer := range layers {
		for key, value := range layer {
			merged[key] = value
		}
	}
	return merged
}

// SelectDetail picks the detail record for an entity's (accountId, eventArn)
// key. When several records match, the one with the greatest event
// lastUpdatedTime wins; on ties or absent timestamps the record retrieved
// later wins.
func SelectDetail(details []health.EventDetails, accountID, eventArn string) (health.EventDetails, bool) {
	var best health.EventDetails
	found := false
	for _, d := range details {
		if d.AccountID != accountID || d.Event.Arn != eventArn {
			continue
		}
		if found && olderThan(d.Event.LastUpdatedTime, best.Event.LastUpdatedTime) {
			continue
		}
		best = d
		found = true
	}
	return best, found
}

// olderThan reports whether a is strictly older than b. Absent timestamps
// never count as older, so later retrieval order wins by default.
func olderThan(a, b *time.Time) bool {
	return a != nil && b != nil && a.Before(*b)
}

// MergeEventRows produces the merged nested records for one event: one per
// affected entity, or exactly one for the whole event when it has no
// distinguishable entities.
func MergeEventRows(base map[string]interface{}, details []health.EventDetails, entities []health.AffectedEntity) []map[string]interface{} {
	if len(entities) == 0 {
		if len(details) > 0 {
			return []map[string]interface{}{Merge(base, detailOverlay(details[0]))}
		}
		return []map[string]interface{}{Merge(base)}
	}

	rows := make([]map[string]interface{}, 0, len(entities))
	for _, entity := range entities {
		layers := []map[string]interface{}{base}
		if detail, ok := SelectDetail(details, entity.AccountID, entity.EventArn); ok {
			layers = append(layers, detailOverlay(detail))
		}
		layers = append(layers, entityOverlay(entity))
		rows = append(rows, Merge(layers...))
	}
	return rows
}

// detailOverlay converts a detail record into a merge layer. The transient
// deprecated_versions metadata sub-key is promoted to its own column source
// and removed from the metadata before serialization.
func detailOverlay(detail health.EventDetails) map[string]interface{} {
	overlay := map[string]interface{}{
		"event": eventToMap(detail.Event),
	}
	if detail.AccountID != "" {
		overlay["awsAccountId"] = detail.AccountID
	}
	if detail.LatestDescription != "" {
		overlay["eventDescription"] = map[string]interface{}{
			"latestDescription": detail.LatestDescription,
		}
	}

	metadata := make(map[string]string, len(detail.Metadata))
	for key, value := range detail.Metadata {
		metadata[key] = value
	}
	if deprecated, ok := metadata["deprecated_versions"]; ok {
		overlay["deprecated_versions"] = deprecated
		delete(metadata, "deprecated_versions")
	}
	if len(metadata) == 0 {
		overlay["eventMetadata"] = ""
	} else {
		overlay["eventMetadata"] = metadata
	}

	return overlay
}

// entityOverlay converts an affected-entity record into the highest-priority
// merge layer. Status and last-updated are renamed to entity-prefixed keys
// so they do not collide with the event-level fields.
func entityOverlay(entity health.AffectedEntity) map[string]interface{} {
	overlay := map[string]interface{}{
		"awsAccountId":          entity.AccountID,
		"eventArn":              entity.EventArn,
		"entityValue":           entity.Value,
		"entityArn":             entity.Arn,
		"entityUrl":             entity.URL,
		"entityStatusCode":      entity.StatusCode,
		"entityLastUpdatedTime": entity.LastUpdatedTime,
	}
	if len(entity.Tags) > 0 {
		overlay["tags"] = entity.Tags
	}
	return overlay
}

// eventToMap exposes event fields under the source paths the schema
// declares. Zero-valued fields are omitted so they project to null rather
// than empty strings.
func eventToMap(ev health.Event) map[string]interface{} {
	m := make(map[string]interface{})
	setIf := func(key, value string) {
		if value != "" {
			m[key] = value
		}
	}
	setIf("arn", ev.Arn)
	setIf("service", ev.Service)
	setIf("eventTypeCode", ev.TypeCode)
	setIf("eventTypeCategory", ev.TypeCategory)
	setIf("region", ev.Region)
	setIf("availabilityZone", ev.AvailabilityZone)
	setIf("statusCode", ev.StatusCode)
	setIf("eventScopeCode", string(ev.ScopeCode))
	if ev.StartTime != nil {
		m["startTime"] = *ev.StartTime
	}
	if ev.EndTime != nil {
		m["endTime"] = *ev.EndTime
	}
	if ev.LastUpdatedTime != nil {
		m["lastUpdatedTime"] = *ev.LastUpdatedTime
	}
	return m
}
