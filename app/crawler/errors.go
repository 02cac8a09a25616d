package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyRedirects is returned when a redirect chain exceeds the
	// configured maximum.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrResponseTooLarge is returned when a response body exceeds the
	// configured byte ceiling.
	ErrResponseTooLarge = errors.New("response too large")

	// ErrOffline is returned by the offline cache policy when the
	// requested URL is not present in the cache.
	ErrOffline = errors.New("not in cache and network disabled")
)

// NetworkError wraps connection, DNS and timeout failures so callers can
// treat them uniformly via errors.As.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
