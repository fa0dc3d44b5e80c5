package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/beacondata/beacon/internal/cache"
	"github.com/beacondata/beacon/internal/config"
	"github.com/beacondata/beacon/internal/errors"
	"github.com/beacondata/beacon/internal/health"
	"github.com/beacondata/beacon/internal/observability"
	"github.com/beacondata/beacon/internal/partition"
	"github.com/beacondata/beacon/internal/schema"
	"github.com/beacondata/beacon/internal/storage"
)

// DetailWorker resolves one manifest slice into flattened output rows.
// Each worker buffers its rows and uploads a single uniquely-named object,
// so concurrent workers for the same day never collide.
type DetailWorker struct {
	cfg      *config.Config
	store    storage.ObjectStorage
	api      health.API
	accounts *cache.Memo[[]string]
	stats    *observability.RunStats
}

// NewDetailWorker wires a detail worker for one invocation.
func NewDetailWorker(cfg *config.Config, store storage.ObjectStorage, api health.API, stats *observability.RunStats) *DetailWorker {
	return &DetailWorker{
		cfg:      cfg,
		store:    store,
		api:      api,
		accounts: cache.NewMemo[[]string](0),
		stats:    stats,
	}
}

// Run processes the event references of one manifest slice and returns the
// number of rows written. A chunk-level provider failure skips that chunk
// and continues; only upload failures abort the invocation.
func (w *DetailWorker) Run(ctx context.Context, account health.Account, ingestion time.Time, refs []health.EventRef) (int, error) {
	projector := schema.NewProjector(schema.DefaultSchema())
	writer := partition.NewRowWriter()

	for _, ref := range refs {
		if err := w.collectEvent(ctx, projector, writer, account, ingestion, ref); err != nil {
			return 0, err
		}
	}

	key := partition.DetailKey(w.cfg.Prefix, account.PayerID, ingestion)
	written, err := writer.Flush(ctx, w.store, key)
	if err != nil {
		return 0, errors.NewStorageError(errors.CodeUploadFailed,
			"upload detail output "+key, err)
	}
	if written {
		log.Printf("wrote %d rows to %s", writer.Count(), key)
	}
	w.stats.Add(observability.CounterRows, int64(writer.Count()))
	return writer.Count(), nil
}

// collectEvent fans one event out over its affected accounts in chunks of
// at most the provider limit. Detail and entity records are accumulated
// across all chunks and merged once per event: the zero-entity fallback row
// is an event-level rule, so merging per chunk would fabricate a bare row
// for every chunk without entities.
func (w *DetailWorker) collectEvent(ctx context.Context, projector *schema.Projector, writer *partition.RowWriter, account health.Account, ingestion time.Time, ref health.EventRef) error {
	accounts, err := w.affectedAccounts(ctx, ref)
	if err != nil {
		// A missing account set means no filters can be built for this
		// event at all; skip it rather than fail the whole slice.
		log.Printf("skipping event: %v",
			errors.NewDetailError("list affected accounts for "+ref.Arn, err))
		w.stats.Incr(observability.CounterChunkErrors)
		return nil
	}
	w.stats.Add(observability.CounterAccounts, int64(len(accounts)))

	var details []health.EventDetails
	var entities []health.AffectedEntity
	succeeded := 0
	for _, chunk := range health.Chunks(accounts, w.cfg.ChunkLimit) {
		filters := make([]health.AccountFilter, 0, len(chunk))
		for _, accountID := range chunk {
			filters = append(filters, health.AccountFilter{EventArn: ref.Arn, AccountID: accountID})
		}

		chunkDetails, err := w.api.DescribeEventDetails(ctx, filters)
		if err != nil {
			log.Printf("skipping chunk: %v", errors.NewDetailError(
				fmt.Sprintf("describe details for %s (%d accounts)", ref.Arn, len(chunk)), err))
			w.stats.Incr(observability.CounterChunkErrors)
			continue
		}
		w.stats.Incr(observability.CounterAPICalls)

		chunkEntities, err := w.api.ListAffectedEntities(ctx, filters)
		if err != nil {
			log.Printf("skipping chunk: %v", errors.NewDetailError(
				fmt.Sprintf("list entities for %s (%d accounts)", ref.Arn, len(chunk)), err))
			w.stats.Incr(observability.CounterChunkErrors)
			continue
		}
		w.stats.Incr(observability.CounterAPICalls)

		details = append(details, chunkDetails...)
		entities = append(entities, chunkEntities...)
		succeeded++
	}

	// No chunk yielded results, either because every chunk failed or the
	// event had no accounts to fan out over; there is nothing to merge.
	if succeeded == 0 {
		return nil
	}

	base := schema.BaseEventRecord(ref, account.PayerID, ingestion)
	for _, record := range schema.MergeEventRows(base, details, entities) {
		if err := writer.Append(projector.Project(record)); err != nil {
			return errors.NewInternalError("encode output row", err)
		}
	}
	return nil
}

// affectedAccounts returns the account fan-out set for one event. PUBLIC
// events have no enumerable account set: they map to the single NoAccount
// sentinel and never hit the affected-accounts API. Account-specific sets
// are memoized per event ARN because manifest slices can repeat an event.
func (w *DetailWorker) affectedAccounts(ctx context.Context, ref health.EventRef) ([]string, error) {
	if ref.ScopeCode == health.ScopePublic {
		return []string{health.NoAccount}, nil
	}
	return w.accounts.GetOrFill(ref.Arn, func() ([]string, error) {
		w.stats.Incr(observability.CounterAPICalls)
		return w.api.ListAffectedAccounts(ctx, ref.Arn)
	})
}
