// Package manifest encodes and decodes the event-reference manifest that
// hands discovered events from the summary phase to the detail fan-out.
package manifest

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/beacondata/beacon/internal/health"
)

// Column order of the manifest csv. The manifest carries the minimal event
// identity only; everything else is re-fetched by the detail phase.
var header = []string{"eventArn", "eventScopeCode"}

// Encode renders event references as a csv manifest, one reference per line.
func Encode(refs []health.EventRef) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write manifest header: %w", err)
	}
	for _, ref := range refs {
		if err := w.Write([]string{ref.Arn, string(ref.ScopeCode)}); err != nil {
			return nil, fmt.Errorf("write manifest row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush manifest: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode parses a manifest back into event references. The orchestrator
// slices the manifest itself; Decode exists for tooling and verification.
func Decode(data []byte) ([]health.EventRef, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("manifest is empty")
	}
	if len(records[0]) != len(header) || records[0][0] != header[0] || records[0][1] != header[1] {
		return nil, fmt.Errorf("unexpected manifest header: %v", records[0])
	}

	refs := make([]health.EventRef, 0, len(records)-1)
	for _, record := range records[1:] {
		refs = append(refs, health.EventRef{
			Arn:       record[0],
			ScopeCode: health.Scope(record[1]),
		})
	}
	return refs, nil
}
