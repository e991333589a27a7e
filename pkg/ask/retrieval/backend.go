package retrieval

import (
	"context"
	"errors"

	"asksite-be/internal/entity"
	"asksite-be/pkg/store"
)

// ErrBackendUnavailable marks a retrieval backend that failed or timed
// out. The request only fails when every configured backend does.
var ErrBackendUnavailable = errors.New("retrieval backend unavailable")

// Backend is one tenant-scoped source of candidates. Implementations
// must only ever return content belonging to the given tenant.
type Backend interface {
	Name() string
	Query(ctx context.Context, tenant *entity.Tenant, query string, k int) ([]store.Candidate, error)
}
