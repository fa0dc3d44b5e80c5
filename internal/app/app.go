// Package app wires configuration, storage, and the collection pipeline
// into a single invocation handler.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/beacondata/beacon/internal/collector"
	"github.com/beacondata/beacon/internal/config"
	"github.com/beacondata/beacon/internal/health"
	"github.com/beacondata/beacon/internal/identity"
	"github.com/beacondata/beacon/internal/observability"
	"github.com/beacondata/beacon/internal/storage"
	"github.com/beacondata/beacon/internal/trigger"
)

// HealthAPIFactory builds a Health client for one member account.
type HealthAPIFactory func(ctx context.Context, accountID, roleName string) (health.API, error)

// Result is the invocation response returned to the orchestrator.
type Result struct {
	Status   string `json:"statusCode"`
	Recorded int    `json:"recorded"`
}

// App holds the shared resources of one collector process.
type App struct {
	cfg          *config.Config
	store        storage.ObjectStorage
	trig         trigger.Trigger
	newHealthAPI HealthAPIFactory
}

// New initializes storage and the workflow trigger from configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var store storage.ObjectStorage
	var err error
	switch cfg.Storage.Type {
	case "local":
		store, err = storage.NewLocalStorage(cfg.Storage.Path)
	case "s3":
		store, err = storage.NewS3Storage(ctx, cfg.Bucket, storage.S3Config{
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Printf("storage initialized: type=%s", cfg.Storage.Type)

	var trig trigger.Trigger
	if cfg.DetailStateMachineARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		trig = trigger.NewSFNTrigger(sfn.NewFromConfig(awsCfg), cfg.DetailStateMachineARN)
	} else {
		// Local development without an orchestrator: the manifest is still
		// written, the detail phase just has to be invoked by hand.
		trig = logTrigger{}
	}

	return &App{
		cfg:          cfg,
		store:        store,
		trig:         trig,
		newHealthAPI: identity.NewHealthAPI,
	}, nil
}

// Handle parses one invocation payload and runs the phase it selects.
func (a *App) Handle(ctx context.Context, raw json.RawMessage) (Result, error) {
	inv, err := ParsePayload(raw)
	if err != nil {
		return Result{}, err
	}

	api, err := a.newHealthAPI(ctx, inv.Account.AccountID, a.cfg.RoleName)
	if err != nil {
		return Result{}, fmt.Errorf("build health client for account %s: %w", inv.Account.AccountID, err)
	}

	stats := observability.NewRunStats()
	var recorded int
	switch inv.Mode {
	case ModeSummary:
		recorded, err = collector.NewSummaryCollector(a.cfg, a.store, api, a.trig, stats).
			Run(ctx, inv.Account)
	case ModeDetail:
		ingestion := time.Unix(inv.IngestionTime, 0).UTC()
		recorded, err = collector.NewDetailWorker(a.cfg, a.store, api, stats).
			Run(ctx, inv.Account, ingestion, inv.Items)
	}
	if err != nil {
		return Result{}, err
	}

	log.Printf("%s run for account %s finished: %s", inv.Mode, inv.Account.AccountID, stats.Summary())
	return Result{Status: "200", Recorded: recorded}, nil
}

// logTrigger satisfies trigger.Trigger when no state machine is configured.
type logTrigger struct{}

func (logTrigger) StartDetailWorkflow(ctx context.Context, job trigger.DetailJob) error {
	log.Printf("no detail state machine configured; manifest %s ready for manual fan-out", job.File)
	return nil
}
