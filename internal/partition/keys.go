// Package partition defines the date-partitioned output key layout and the
// buffered row writer for detail output objects.
package partition

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SummaryDataPrefix returns the root prefix for a payer's summary output.
// The watermark resolver lists this prefix to find prior output recency.
func SummaryDataPrefix(prefix, payerID string) string {
	return fmt.Sprintf("%s/%s-summary-data/payer_id=%s", prefix, prefix, payerID)
}

// DetailDataPrefix returns the root prefix for a payer's detail output.
func DetailDataPrefix(prefix, payerID string) string {
	return fmt.Sprintf("%s/%s-detail-data/payer_id=%s", prefix, prefix, payerID)
}

// dayPartition renders the hive-style date partition for t.
func dayPartition(t time.Time) string {
	return t.UTC().Format("year=2006/month=01/day=02")
}

// SummaryKey returns the manifest object key for an ingestion time. The key
// is deterministic per calendar day: a re-run for the same day overwrites
// the earlier manifest instead of accumulating.
func SummaryKey(prefix, payerID string, ingestion time.Time) string {
	return fmt.Sprintf("%s/%s/%s.csv",
		SummaryDataPrefix(prefix, payerID),
		dayPartition(ingestion),
		ingestion.UTC().Format("2006-01-02"))
}

// DetailDayPrefix returns the day partition prefix holding all detail
// output for an ingestion day. The summary phase deletes this prefix before
// re-triggering so re-runs never accumulate duplicate rows.
func DetailDayPrefix(prefix, payerID string, ingestion time.Time) string {
	return fmt.Sprintf("%s/%s", DetailDataPrefix(prefix, payerID), dayPartition(ingestion))
}

// DetailKey returns a unique detail output key for one worker invocation.
// The random suffix avoids collisions between workers writing concurrently
// into the same day partition.
func DetailKey(prefix, payerID string, ingestion time.Time) string {
	return fmt.Sprintf("%s/%s-%s.json",
		DetailDayPrefix(prefix, payerID, ingestion),
		ingestion.UTC().Format("2006-01-02-15-04-05"),
		uuid.New())
}
