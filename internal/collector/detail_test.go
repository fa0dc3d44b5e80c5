package collector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/beacondata/beacon/internal/health"
	"github.com/beacondata/beacon/internal/observability"
	"github.com/beacondata/beacon/internal/schema"
	"github.com/beacondata/beacon/internal/storage"
)

var testIngestion = time.Date(2026, 8, 31, 6, 30, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

// readRows decodes every newline-delimited JSON row written under the
// payer's detail prefix. Exactly one output object is expected.
func readRows(t *testing.T, store *storage.LocalStorage) (string, []map[string]interface{}) {
	t.Helper()
	objects, err := store.List(context.Background(), "health/health-detail-data")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("got %d detail objects, want 1", len(objects))
	}

	data, err := store.Get(objects[0].Key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	var rows []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		var row map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			t.Fatalf("row does not decode: %v", err)
		}
		rows = append(rows, row)
	}
	return objects[0].Key, rows
}

func TestDetailRun_PublicEventNeverListsAccounts(t *testing.T) {
	store := newLocalStore(t)
	api := &fakeAPI{
		details: []health.EventDetails{{
			AccountID: health.NoAccount,
			Event: health.Event{
				Arn:      "arn:public",
				Service:  "EC2",
				TypeCode: "AWS_EC2_OPERATIONAL_ISSUE",
			},
			LatestDescription: "degraded networking",
		}},
	}
	w := NewDetailWorker(testConfig(), store, api, observability.NewRunStats())

	refs := []health.EventRef{{Arn: "arn:public", ScopeCode: health.ScopePublic}}
	n, err := w.Run(context.Background(), testAccount, testIngestion, refs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != 1 {
		t.Errorf("wrote %d rows, want 1", n)
	}
	if len(api.accountCalls) != 0 {
		t.Errorf("affected-accounts API called for a PUBLIC event: %v", api.accountCalls)
	}
	if len(api.detailFilters) != 1 {
		t.Fatalf("got %d detail calls, want 1", len(api.detailFilters))
	}
	filter := api.detailFilters[0][0]
	if filter.AccountID != health.NoAccount || filter.EventArn != "arn:public" {
		t.Errorf("public filter = %+v, want NoAccount sentinel", filter)
	}
}

func TestDetailRun_ChunksAccountsAtProviderLimit(t *testing.T) {
	accounts := make([]string, 25)
	for i := range accounts {
		accounts[i] = fmt.Sprintf("%012d", i+1)
	}
	api := &fakeAPI{accounts: map[string][]string{"arn:big": accounts}}
	w := NewDetailWorker(testConfig(), newLocalStore(t), api, observability.NewRunStats())

	refs := []health.EventRef{{Arn: "arn:big", ScopeCode: health.ScopeAccountSpecific}}
	if _, err := w.Run(context.Background(), testAccount, testIngestion, refs); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(api.accountCalls) != 1 {
		t.Errorf("got %d affected-account calls, want 1", len(api.accountCalls))
	}
	if len(api.detailFilters) != 3 || len(api.entityFilters) != 3 {
		t.Fatalf("got %d detail / %d entity calls, want 3 each",
			len(api.detailFilters), len(api.entityFilters))
	}
	sizes := []int{len(api.detailFilters[0]), len(api.detailFilters[1]), len(api.detailFilters[2])}
	if sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 5 {
		t.Errorf("chunk sizes = %v, want [10 10 5]", sizes)
	}
}

func TestDetailRun_RowPerEntityAndRowPerBareEvent(t *testing.T) {
	store := newLocalStore(t)
	updated := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		accounts: map[string][]string{
			"arn:entities": {"111122223333"},
			"arn:bare":     {"111122223333"},
		},
		details: []health.EventDetails{{
			AccountID: "111122223333",
			Event: health.Event{
				Arn:             "arn:entities",
				Service:         "RDS",
				TypeCode:        "AWS_RDS_MAINTENANCE_SCHEDULED",
				TypeCategory:    "scheduledChange",
				Region:          "eu-west-1",
				StatusCode:      "upcoming",
				ScopeCode:       health.ScopeAccountSpecific,
				StartTime:       timePtr(updated.Add(24 * time.Hour)),
				LastUpdatedTime: timePtr(updated),
			},
			LatestDescription: "maintenance window scheduled",
			Metadata:          map[string]string{"window": "tuesday"},
		}},
	}
	w := NewDetailWorker(testConfig(), store, api, observability.NewRunStats())

	api.entities = []health.AffectedEntity{
		{AccountID: "111122223333", EventArn: "arn:entities", Value: "db-1", StatusCode: "PENDING", LastUpdatedTime: timePtr(updated)},
		{AccountID: "111122223333", EventArn: "arn:entities", Value: "db-2", StatusCode: "PENDING"},
		{AccountID: "111122223333", EventArn: "arn:entities", Value: "db-3", StatusCode: "RESOLVED"},
	}
	refs := []health.EventRef{{Arn: "arn:entities", ScopeCode: health.ScopeAccountSpecific}}
	n, err := w.Run(context.Background(), testAccount, testIngestion, refs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("wrote %d rows, want 3 (one per entity)", n)
	}

	key, rows := readRows(t, store)
	keyPattern := regexp.MustCompile(
		`^health/health-detail-data/payer_id=999988887777/year=2026/month=08/day=31/` +
			`2026-08-31-06-30-00-[0-9a-f-]{36}\.json$`)
	if !keyPattern.MatchString(key) {
		t.Errorf("detail key %q does not match the partition layout", key)
	}

	columns := schema.NewProjector(schema.DefaultSchema()).Columns()
	for i, row := range rows {
		if len(row) != len(columns) {
			t.Errorf("row %d has %d columns, want %d", i, len(row), len(columns))
		}
		for _, col := range columns {
			if _, ok := row[col]; !ok {
				t.Errorf("row %d missing column %s", i, col)
			}
		}
	}

	values := map[string]bool{}
	for _, row := range rows {
		values[row["affected_entity_value"].(string)] = true
		if row["payer_account_id"] != testAccount.PayerID {
			t.Errorf("payer_account_id = %v", row["payer_account_id"])
		}
		if row["event_description"] != "maintenance window scheduled" {
			t.Errorf("event_description = %v", row["event_description"])
		}
		if row["event_metadata"] != `{"window":"tuesday"}` {
			t.Errorf("event_metadata = %v", row["event_metadata"])
		}
		if row["ingestion_time"] != testIngestion.Format(time.RFC3339) {
			t.Errorf("ingestion_time = %v", row["ingestion_time"])
		}
	}
	for _, want := range []string{"db-1", "db-2", "db-3"} {
		if !values[want] {
			t.Errorf("no row for entity %s", want)
		}
	}
}

func TestDetailRun_EventWithoutEntitiesYieldsOneRow(t *testing.T) {
	store := newLocalStore(t)
	api := &fakeAPI{
		accounts: map[string][]string{"arn:bare": {"444455556666"}},
		details: []health.EventDetails{{
			AccountID: "444455556666",
			Event:     health.Event{Arn: "arn:bare", Service: "S3", TypeCode: "AWS_S3_ISSUE"},
		}},
	}
	w := NewDetailWorker(testConfig(), store, api, observability.NewRunStats())

	refs := []health.EventRef{{Arn: "arn:bare", ScopeCode: health.ScopeAccountSpecific}}
	n, err := w.Run(context.Background(), testAccount, testIngestion, refs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("wrote %d rows, want 1", n)
	}

	_, rows := readRows(t, store)
	row := rows[0]
	if row["event_arn"] != "arn:bare" {
		t.Errorf("event_arn = %v", row["event_arn"])
	}
	if row["affected_entity_value"] != nil {
		t.Errorf("affected_entity_value = %v, want explicit null", row["affected_entity_value"])
	}
	if row["account_id"] != "444455556666" {
		t.Errorf("account_id = %v", row["account_id"])
	}
}

func TestDetailRun_MultiChunkEventWithoutEntitiesYieldsOneRow(t *testing.T) {
	store := newLocalStore(t)
	accounts := make([]string, 25)
	for i := range accounts {
		accounts[i] = fmt.Sprintf("%012d", i+1)
	}
	api := &fakeAPI{accounts: map[string][]string{"arn:wide": accounts}}
	w := NewDetailWorker(testConfig(), store, api, observability.NewRunStats())

	// The zero-entity fallback is decided per event, not per chunk: three
	// chunks with no entities anywhere must still collapse to one row.
	refs := []health.EventRef{{Arn: "arn:wide", ScopeCode: health.ScopeAccountSpecific}}
	n, err := w.Run(context.Background(), testAccount, testIngestion, refs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("wrote %d rows for one event with zero entities, want 1", n)
	}

	_, rows := readRows(t, store)
	if rows[0]["event_arn"] != "arn:wide" {
		t.Errorf("event_arn = %v", rows[0]["event_arn"])
	}
}

func TestDetailRun_EntitiesInOneChunkSuppressFallbackRows(t *testing.T) {
	store := newLocalStore(t)
	accounts := make([]string, 25)
	for i := range accounts {
		accounts[i] = fmt.Sprintf("%012d", i+1)
	}
	api := &fakeAPI{
		accounts: map[string][]string{"arn:wide": accounts},
		entities: []health.AffectedEntity{
			// Matches an account in the last chunk only.
			{AccountID: "000000000025", EventArn: "arn:wide", Value: "vol-1"},
		},
	}
	w := NewDetailWorker(testConfig(), store, api, observability.NewRunStats())

	refs := []health.EventRef{{Arn: "arn:wide", ScopeCode: health.ScopeAccountSpecific}}
	n, err := w.Run(context.Background(), testAccount, testIngestion, refs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("wrote %d rows, want 1 (the single entity row, no bare-event rows)", n)
	}

	_, rows := readRows(t, store)
	if rows[0]["affected_entity_value"] != "vol-1" {
		t.Errorf("affected_entity_value = %v, want the entity row", rows[0]["affected_entity_value"])
	}
}

func TestDetailRun_MixedSliceRowCount(t *testing.T) {
	store := newLocalStore(t)
	api := &fakeAPI{
		accounts: map[string][]string{
			"arn:with-entities": {"111122223333"},
			"arn:without":       {"111122223333"},
		},
		entities: []health.AffectedEntity{
			{AccountID: "111122223333", EventArn: "arn:with-entities", Value: "i-1"},
			{AccountID: "111122223333", EventArn: "arn:with-entities", Value: "i-2"},
			{AccountID: "111122223333", EventArn: "arn:with-entities", Value: "i-3"},
		},
	}
	w := NewDetailWorker(testConfig(), store, api, observability.NewRunStats())

	// One event resolving to three entities plus one resolving to none
	// yields four rows in a single output object.
	refs := []health.EventRef{
		{Arn: "arn:with-entities", ScopeCode: health.ScopeAccountSpecific},
		{Arn: "arn:without", ScopeCode: health.ScopeAccountSpecific},
	}
	n, err := w.Run(context.Background(), testAccount, testIngestion, refs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != 4 {
		t.Errorf("wrote %d rows, want 4", n)
	}
	if _, rows := readRows(t, store); len(rows) != 4 {
		t.Errorf("output object holds %d rows, want 4", len(rows))
	}
}

func TestDetailRun_ChunkFailureSkipsChunkOnly(t *testing.T) {
	store := newLocalStore(t)
	stats := observability.NewRunStats()
	api := &fakeAPI{
		accounts:   map[string][]string{"arn:x": {"111122223333"}},
		detailsErr: fmt.Errorf("throttled"),
	}
	w := NewDetailWorker(testConfig(), store, api, stats)

	refs := []health.EventRef{{Arn: "arn:x", ScopeCode: health.ScopeAccountSpecific}}
	n, err := w.Run(context.Background(), testAccount, testIngestion, refs)
	if err != nil {
		t.Fatalf("chunk failure must not fail the invocation: %v", err)
	}
	if n != 0 {
		t.Errorf("wrote %d rows from a failed chunk", n)
	}
	if stats.Get(observability.CounterChunkErrors) != 1 {
		t.Errorf("chunk_errors = %d, want 1", stats.Get(observability.CounterChunkErrors))
	}
	if objects, _ := store.List(context.Background(), "health"); len(objects) != 0 {
		t.Errorf("empty invocation must not upload, found %d objects", len(objects))
	}
}

func TestDetailRun_EmptySliceUploadsNothing(t *testing.T) {
	store := newLocalStore(t)
	w := NewDetailWorker(testConfig(), store, &fakeAPI{}, observability.NewRunStats())

	n, err := w.Run(context.Background(), testAccount, testIngestion, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != 0 {
		t.Errorf("wrote %d rows, want 0", n)
	}
	if objects, _ := store.List(context.Background(), "health"); len(objects) != 0 {
		t.Errorf("empty invocation must not upload, found %d objects", len(objects))
	}
}

func TestDetailRun_AffectedAccountsMemoizedAcrossRepeats(t *testing.T) {
	api := &fakeAPI{accounts: map[string][]string{"arn:dup": {"111122223333"}}}
	w := NewDetailWorker(testConfig(), newLocalStore(t), api, observability.NewRunStats())

	refs := []health.EventRef{
		{Arn: "arn:dup", ScopeCode: health.ScopeAccountSpecific},
		{Arn: "arn:dup", ScopeCode: health.ScopeAccountSpecific},
	}
	if _, err := w.Run(context.Background(), testAccount, testIngestion, refs); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(api.accountCalls) != 1 {
		t.Errorf("got %d affected-account calls for a repeated event, want 1", len(api.accountCalls))
	}
}
