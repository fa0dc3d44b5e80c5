// Package collector implements the two phases of the collection pipeline:
// summary discovery with detail-phase handoff, and the chunked detail
// fan-out worker.
package collector

import (
	"context"
	"log"
	"time"

	"github.com/beacondata/beacon/internal/config"
	"github.com/beacondata/beacon/internal/errors"
	"github.com/beacondata/beacon/internal/health"
	"github.com/beacondata/beacon/internal/manifest"
	"github.com/beacondata/beacon/internal/observability"
	"github.com/beacondata/beacon/internal/partition"
	"github.com/beacondata/beacon/internal/storage"
	"github.com/beacondata/beacon/internal/trigger"
	"github.com/beacondata/beacon/internal/watermark"
)

// SummaryCollector discovers organization events updated since the
// watermark, writes the manifest, clears any stale detail output for the
// ingestion day, and starts the detail workflow.
type SummaryCollector struct {
	cfg      *config.Config
	store    storage.ObjectStorage
	api      health.API
	resolver *watermark.Resolver
	trig     trigger.Trigger
	stats    *observability.RunStats
	now      func() time.Time
}

// NewSummaryCollector wires a summary collector for one invocation.
func NewSummaryCollector(cfg *config.Config, store storage.ObjectStorage, api health.API, trig trigger.Trigger, stats *observability.RunStats) *SummaryCollector {
	return &SummaryCollector{
		cfg:      cfg,
		store:    store,
		api:      api,
		resolver: watermark.NewResolver(store),
		trig:     trig,
		stats:    stats,
		now:      time.Now,
	}
}

// Run executes the summary phase for one member account and returns the
// number of discovered events. Zero discovered events is a clean no-op:
// nothing is written, nothing is deleted, and no workflow starts, so the
// watermark stays where the last productive run left it.
func (c *SummaryCollector) Run(ctx context.Context, account health.Account) (int, error) {
	summaryPrefix := partition.SummaryDataPrefix(c.cfg.Prefix, account.PayerID)

	window, err := c.resolver.Resolve(ctx, summaryPrefix, c.cfg.Lookback())
	if err != nil {
		return 0, errors.NewDiscoveryError(errors.CodeWatermarkFailed,
			"resolve collection window", err)
	}
	log.Printf("collecting events for account %s in window [%s, %s]",
		account.AccountID, window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))

	refs, err := c.api.ListOrganizationEvents(ctx, health.EventFilter{
		From:    window.Start,
		Regions: c.cfg.RegionFilter(),
	})
	if err != nil {
		if health.IsOrganizationViewDisabled(err) {
			log.Printf("organizational view is not enabled for account %s, skipping", account.AccountID)
			return 0, nil
		}
		return 0, errors.NewDiscoveryError(errors.CodeDiscoveryFailed,
			"list organization events", err)
	}
	c.stats.Add(observability.CounterEvents, int64(len(refs)))

	if len(refs) == 0 {
		log.Printf("no updated events for account %s, nothing to do", account.AccountID)
		return 0, nil
	}

	encoded, err := manifest.Encode(refs)
	if err != nil {
		return 0, errors.NewInternalError("encode manifest", err)
	}

	ingestion := c.now().UTC()
	key := partition.SummaryKey(c.cfg.Prefix, account.PayerID, ingestion)
	if err := c.store.Put(ctx, key, encoded); err != nil {
		return 0, errors.NewStorageError(errors.CodeUploadFailed,
			"upload manifest "+key, err)
	}
	log.Printf("wrote manifest %s with %d events", key, len(refs))

	// Clear any detail output already written for this ingestion day before
	// triggering, so a re-run replaces rather than accumulates. A failed
	// delete must abort the trigger: fanning out on top of surviving output
	// would duplicate rows.
	detailPrefix := partition.DetailDayPrefix(c.cfg.Prefix, account.PayerID, ingestion)
	deleted, err := c.store.DeletePrefix(ctx, detailPrefix)
	if err != nil {
		return 0, errors.NewStorageError(errors.CodeDeleteFailed,
			"clear stale detail output under "+detailPrefix, err)
	}
	if deleted > 0 {
		log.Printf("cleared %d stale detail objects under %s", deleted, detailPrefix)
	}

	err = c.trig.StartDetailWorkflow(ctx, trigger.DetailJob{
		Bucket:        c.cfg.Bucket,
		File:          key,
		Account:       account,
		IngestionTime: ingestion.Unix(),
	})
	if err != nil {
		return 0, errors.NewTriggerError("start detail workflow", err)
	}

	return len(refs), nil
}
