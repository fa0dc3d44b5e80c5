// Package watermark computes the incremental collection window from prior
// output recency.
package watermark

import (
	"context"
	"fmt"
	"time"

	"github.com/beacondata/beacon/internal/storage"
)

// Window is the time range for one discovery run.
type Window struct {
	Start time.Time
	End   time.Time
}

// Resolver derives the next collection window by inspecting existing output
// under a storage prefix. The watermark is never persisted on its own:
// recomputing it from object last-modified times keeps the resolver
// stateless. Deleted or never-written output simply widens the window
// back to the lookback horizon.
type Resolver struct {
	store storage.ObjectStorage
	now   func() time.Time
}

// NewResolver creates a resolver over the given object storage.
func NewResolver(store storage.ObjectStorage) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// Resolve lists prior output under prefix and returns the next window:
// start is the most recent last-modified time within the horizon, bounded
// below by now-horizon; end is now. An empty listing is a full-horizon
// window, not an error.
func (r *Resolver) Resolve(ctx context.Context, prefix string, horizon time.Duration) (Window, error) {
	end := r.now().UTC()
	start := end.Add(-horizon)

	objects, err := r.store.List(ctx, prefix)
	if err != nil {
		return Window{}, fmt.Errorf("list prior output under %s: %w", prefix, err)
	}

	for _, obj := range objects {
		if modified := obj.LastModified.UTC(); modified.After(start) {
			start = modified
		}
	}

	return Window{Start: start, End: end}, nil
}
