package scraper

import (
	"errors"
	"fmt"
)

// Failure sentinels. Each fetch failure wraps exactly one of these so callers
// can branch on kind with errors.Is.
var (
	ErrNetwork         = errors.New("connection failed")
	ErrTimeout         = errors.New("request timed out")
	ErrBadStatus       = errors.New("non-success status")
	ErrNotHTML         = errors.New("non-html content type")
	ErrParse           = errors.New("malformed html")
	ErrUnreachableSeed = errors.New("seed url unreachable")
)

// FetchError carries the failure kind and the underlying cause for a single
// URL. Per-page failures are recoverable: the crawl records them and moves on.
type FetchError struct {
	URL  string
	Kind error
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// FailureKind maps an error to the stable kind string recorded in a
// SiteResult.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrUnreachableSeed):
		return "unreachable_seed"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrBadStatus):
		return "status"
	case errors.Is(err, ErrNotHTML):
		return "content_type"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrNetwork):
		return "network"
	default:
		return "unknown"
	}
}
