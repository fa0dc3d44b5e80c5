package app

import (
	"encoding/json"
	"fmt"

	"github.com/beacondata/beacon/internal/errors"
	"github.com/beacondata/beacon/internal/health"
)

// Mode selects which pipeline phase an invocation runs.
type Mode string

const (
	ModeSummary Mode = "summary"
	ModeDetail  Mode = "detail"
)

// Payload is the raw invocation shape. The summary phase receives the
// member account as a JSON string under "account"; the detail phase
// receives the orchestrator's batch envelope plus a manifest slice.
type Payload struct {
	Account    string            `json:"account"`
	BatchInput *BatchInput       `json:"BatchInput"`
	Items      []health.EventRef `json:"Items"`
}

// BatchInput is the per-batch context the orchestrator attaches to every
// detail invocation of one workflow execution.
type BatchInput struct {
	Account       health.Account `json:"account"`
	IngestionTime int64          `json:"ingestion_time"`
}

// Invocation is the parsed, phase-dispatched form of a payload.
type Invocation struct {
	Mode          Mode
	Account       health.Account
	IngestionTime int64
	Items         []health.EventRef
}

// ParsePayload decodes and validates a raw invocation payload, determining
// the phase from its shape. A payload carrying both phase markers is
// treated as a detail invocation: BatchInput is the more specific shape.
func ParsePayload(raw json.RawMessage) (Invocation, error) {
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Invocation{}, errors.NewValidationError(errors.CodeBadInvocation,
			fmt.Sprintf("payload is not valid JSON: %v", err))
	}

	switch {
	case payload.BatchInput != nil:
		account := payload.BatchInput.Account
		if account.AccountID == "" || account.PayerID == "" {
			return Invocation{}, errors.NewValidationError(errors.CodeMissingField,
				"detail invocation requires BatchInput.account with account_id and payer_id")
		}
		if payload.BatchInput.IngestionTime <= 0 {
			return Invocation{}, errors.NewValidationError(errors.CodeMissingField,
				"detail invocation requires BatchInput.ingestion_time")
		}
		return Invocation{
			Mode:          ModeDetail,
			Account:       account,
			IngestionTime: payload.BatchInput.IngestionTime,
			Items:         payload.Items,
		}, nil

	case payload.Account != "":
		var account health.Account
		if err := json.Unmarshal([]byte(payload.Account), &account); err != nil {
			return Invocation{}, errors.NewValidationError(errors.CodeBadInvocation,
				fmt.Sprintf("account field is not a valid account JSON string: %v", err))
		}
		if account.AccountID == "" || account.PayerID == "" {
			return Invocation{}, errors.NewValidationError(errors.CodeMissingField,
				"summary invocation requires account_id and payer_id")
		}
		return Invocation{Mode: ModeSummary, Account: account}, nil

	default:
		return Invocation{}, errors.NewValidationError(errors.CodeBadInvocation,
			"payload carries neither a summary account nor a detail BatchInput")
	}
}
