package partition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/beacondata/beacon/internal/storage"
)

// RowWriter accumulates flattened rows as newline-delimited JSON and
// uploads the whole buffer in one put. Rows are appended whole, so a killed
// invocation leaves at most a missing object, never a truncated row in one.
type RowWriter struct {
	buf   bytes.Buffer
	count int
}

// NewRowWriter creates an empty row writer.
func NewRowWriter() *RowWriter {
	return &RowWriter{}
}

// Append serializes one row and adds it to the buffer.
func (w *RowWriter) Append(row map[string]interface{}) error {
	encoded, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	w.buf.Write(encoded)
	w.buf.WriteByte('\n')
	w.count++
	return nil
}

// Count returns the number of rows appended so far.
func (w *RowWriter) Count() int {
	return w.count
}

// Flush uploads the buffered rows to the given key. An empty buffer uploads
// nothing and reports false.
func (w *RowWriter) Flush(ctx context.Context, store storage.ObjectStorage, key string) (bool, error) {
	if w.count == 0 {
		return false, nil
	}
	if err := store.Put(ctx, key, w.buf.Bytes()); err != nil {
		return false, err
	}
	return true, nil
}
