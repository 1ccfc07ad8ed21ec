package httputil

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the upstream answered 404
	ErrNotFound = errors.New("not found")

	// ErrUpstream matches any *UpstreamError
	ErrUpstream = errors.New("upstream error")
)

// UpstreamError is a non-2xx answer from an upstream service
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Message)
}

// Is lets errors.Is match ErrUpstream, and ErrNotFound for 404s
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrNotFound:
		return e.StatusCode == 404
	}
	return false
}
