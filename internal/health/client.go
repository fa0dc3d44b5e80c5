package health

import (
	"context"
	"errors"
	"strings"
)

// ErrOrganizationViewDisabled indicates the payer account does not have the
// organizational view capability enabled. This is an expected configuration
// gap, not a pipeline fault: the caller logs it and terminates cleanly.
var ErrOrganizationViewDisabled = errors.New("organizational view is not enabled for this account")

// API is the organization-wide Health surface the pipeline consumes.
// Pagination is handled inside implementations; callers see full result sets.
type API interface {
	// ListOrganizationEvents pages through event discovery filtered by the
	// given window and optional region allow-list.
	ListOrganizationEvents(ctx context.Context, filter EventFilter) ([]EventRef, error)

	// ListAffectedAccounts pages through the affected-account set of one
	// event. Never called for PUBLIC events.
	ListAffectedAccounts(ctx context.Context, eventArn string) ([]string, error)

	// DescribeEventDetails retrieves detail records for up to ChunkLimit
	// (event, account) filters. The underlying API takes the whole batch in
	// one call and returns a single page.
	DescribeEventDetails(ctx context.Context, filters []AccountFilter) ([]EventDetails, error)

	// ListAffectedEntities pages through entity records for up to ChunkLimit
	// (event, account) filters.
	ListAffectedEntities(ctx context.Context, filters []AccountFilter) ([]AffectedEntity, error)
}

// IsOrganizationViewDisabled reports whether err means the organizational
// view capability is missing. The service reports this condition in the
// error message rather than with a dedicated error type.
func IsOrganizationViewDisabled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrOrganizationViewDisabled) {
		return true
	}
	return strings.Contains(err.Error(), "Organizational View feature is not enabled")
}

// Chunks partitions items into slices of at most size elements. The last
// chunk holds the remainder.
func Chunks[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
