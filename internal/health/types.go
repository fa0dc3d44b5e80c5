// Package health defines the domain types and client interface for
// organization-wide AWS Health event collection.
package health

import "time"

// Scope is the visibility scope of a health event.
type Scope string

const (
	ScopePublic          Scope = "PUBLIC"
	ScopeAccountSpecific Scope = "ACCOUNT_SPECIFIC"
	ScopeNone            Scope = "NONE"
)

// NoAccount is the synthetic affected-account sentinel for PUBLIC events.
// A public event has no enumerable affected-account set; the sentinel keeps
// chunking and filter construction uniform across scopes.
const NoAccount = ""

// EventSource identifies the upstream producer in every output row.
const EventSource = "aws.health"

// EventRef is the minimal identity of a health event: ARN plus scope.
// References are created by the discovery phase and handed to detail
// workers through the manifest.
type EventRef struct {
	Arn       string `json:"eventArn"`
	ScopeCode Scope  `json:"eventScopeCode"`
}

// Account identifies a member account of the organization as handed over
// by the orchestrator's account collector.
type Account struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	PayerID     string `json:"payer_id"`
}

// Event carries the event-level fields returned by the detail API.
type Event struct {
	Arn              string
	Service          string
	TypeCode         string
	TypeCategory     string
	Region           string
	AvailabilityZone string
	StatusCode       string
	ScopeCode        Scope
	StartTime        *time.Time
	EndTime          *time.Time
	LastUpdatedTime  *time.Time
}

// EventDetails is one detail record, keyed by (event ARN, account id).
// Metadata is provider-defined and shape-unstable; it stays an opaque
// string map here and is serialized to a single string in the output row.
type EventDetails struct {
	AccountID         string
	Event             Event
	LatestDescription string
	Metadata          map[string]string
}

// AffectedEntity is one affected-entity record, keyed by
// (event ARN, account id, entity value).
type AffectedEntity struct {
	AccountID       string
	EventArn        string
	Value           string
	Arn             string
	URL             string
	StatusCode      string
	LastUpdatedTime *time.Time
	Tags            map[string]string
}

// EventFilter narrows organization event discovery.
type EventFilter struct {
	// From bounds discovery by last-updated time (the watermark window start).
	From time.Time
	// Regions is the optional region allow-list, already including the
	// "global" pseudo-region when set.
	Regions []string
}

// AccountFilter selects detail and entity records for one (event, account)
// pair. AccountID may be NoAccount for public events, in which case the
// filter applies to the event alone.
type AccountFilter struct {
	EventArn  string
	AccountID string
}
