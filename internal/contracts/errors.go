package contracts

import "github.com/wonny/screener/backend/pkg/httputil"

var (
	// ErrNotFound means the upstream answered 404 or the row does not exist
	ErrNotFound = httputil.ErrNotFound

	// ErrUpstream matches any *UpstreamError
	ErrUpstream = httputil.ErrUpstream
)

// UpstreamError is a non-2xx answer from a collaborator service
type UpstreamError = httputil.UpstreamError
