// Package source defines the capability every market source implements.
// The orchestrator depends only on this interface, never on a source's
// concrete schema.
package source

import (
	"context"

	"adjacent/internal/models"
)

// Adapter fetches one exchange's listings and normalizes them into
// canonical Market records. Implementations are stateless per invocation;
// transient HTTP and auth state lives inside the call.
type Adapter interface {
	Platform() string

	// Extract paginates the source to exhaustion and returns normalized
	// records. A transport or decode failure mid-pagination truncates the
	// result to the pages already fetched (logged, not returned as an
	// error); an error is returned only when nothing could be fetched at
	// all, e.g. authentication failed.
	Extract(ctx context.Context) ([]models.Market, error)
}

// AuditSink receives each adapter's raw pre-normalization payload for
// audit/replay. Writes are best-effort: callers log failures and move on.
type AuditSink interface {
	Put(ctx context.Context, key string, payload []byte) error
}
