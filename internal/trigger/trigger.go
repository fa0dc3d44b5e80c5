// Package trigger starts the detail-phase workflow on the orchestrator.
package trigger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/beacondata/beacon/internal/health"
)

// DetailJob is the handoff contract between the summary and detail phases.
// The orchestrator slices the manifest and fans the slices out to detail
// worker invocations.
type DetailJob struct {
	Bucket        string         `json:"bucket"`
	File          string         `json:"file"`
	Account       health.Account `json:"account"`
	IngestionTime int64          `json:"ingestion_time"`
}

// Trigger starts a detail workflow execution. The job is consumed exactly
// once by the orchestrator's fan-out.
type Trigger interface {
	StartDetailWorkflow(ctx context.Context, job DetailJob) error
}

// SFNTrigger implements Trigger against AWS Step Functions.
type SFNTrigger struct {
	client          *sfn.Client
	stateMachineARN string
}

// NewSFNTrigger creates a trigger for the given state machine.
func NewSFNTrigger(client *sfn.Client, stateMachineARN string) *SFNTrigger {
	return &SFNTrigger{client: client, stateMachineARN: stateMachineARN}
}

// StartDetailWorkflow starts one execution carrying the job as input.
func (t *SFNTrigger) StartDetailWorkflow(ctx context.Context, job DetailJob) error {
	input, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode detail job: %w", err)
	}

	_, err = t.client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(t.stateMachineARN),
		Input:           aws.String(string(input)),
	})
	if err != nil {
		return fmt.Errorf("start detail workflow: %w", err)
	}
	return nil
}
