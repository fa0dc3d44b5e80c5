// Package storage provides object storage abstractions for the collected output.
package storage

import (
	"context"
	"errors"
	"time"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrUploadFailed   = errors.New("upload failed")
	ErrListFailed     = errors.New("list failed")
	ErrDeleteFailed   = errors.New("delete failed")
)

// ObjectInfo describes a stored object. LastModified feeds the watermark
// computation, which keys the collection window off prior output recency.
type ObjectInfo struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// ObjectStorage abstracts the object store consumed and produced by the
// pipeline. Implementations include S3 and a local filesystem for testing.
type ObjectStorage interface {
	// Put uploads an object built in memory. Every object this pipeline
	// writes (manifest csv, detail row files) is assembled in a single pass
	// before upload, so there are no partial writes of an object.
	Put(ctx context.Context, key string, body []byte) error

	// List returns all objects under the given prefix with their
	// last-modified times. An empty prefix listing is not an error.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Delete removes a single object. Deleting a missing object is a no-op.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every object under the given prefix and returns
	// the number of objects removed. Used for the idempotent same-day
	// overwrite before re-triggering the detail phase.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Exists checks if an object exists in storage.
	Exists(ctx context.Context, key string) (bool, error)
}
