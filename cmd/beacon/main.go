// Package main implements the beacon collector binary.
// On AWS Lambda it serves both pipeline phases behind one handler; run
// locally it processes a single payload from a file or stdin and exits.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/beacondata/beacon/internal/app"
	"github.com/beacondata/beacon/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		payloadFile string
		showVersion bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&payloadFile, "payload", "", "Path to an invocation payload for local runs (- for stdin)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Beacon - Organization Health Event Collector\n\n")
		fmt.Fprintf(os.Stderr, "Usage: beacon [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  beacon --config /etc/beacon/config.yaml --payload summary.json\n")
		fmt.Fprintf(os.Stderr, "  echo '{\"account\": \"...\"}' | beacon --payload -\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  BEACON_BUCKET           Output bucket\n")
		fmt.Fprintf(os.Stderr, "  BEACON_PREFIX           Output key prefix\n")
		fmt.Fprintf(os.Stderr, "  BEACON_ROLE_NAME        Collection role assumed in member accounts\n")
		fmt.Fprintf(os.Stderr, "  BEACON_REGIONS          Comma-separated region allow-list\n")
		fmt.Fprintf(os.Stderr, "  BEACON_LOOKBACK_DAYS    Watermark lookback horizon\n")
		fmt.Fprintf(os.Stderr, "  BEACON_DETAIL_SM_ARN    Detail workflow state machine ARN\n")
		fmt.Fprintf(os.Stderr, "  BEACON_STORAGE_TYPE     Storage type (local, s3)\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("beacon version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		lambda.Start(application.Handle)
		return
	}

	raw, err := readPayload(payloadFile)
	if err != nil {
		log.Fatalf("Failed to read payload: %v", err)
	}

	result, err := application.Handle(ctx, raw)
	if err != nil {
		log.Fatalf("Invocation failed: %v", err)
	}
	fmt.Printf("status=%s recorded=%d\n", result.Status, result.Recorded)
}

// readPayload reads the invocation payload from a file or stdin.
func readPayload(path string) (json.RawMessage, error) {
	switch path {
	case "":
		return nil, fmt.Errorf("no payload given; use --payload FILE or --payload -")
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}
