package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed marks any failed network attempt: transport errors and
	// non-2xx responses alike.
	ErrFetchFailed = errors.New("catalog: fetch failed")
	// ErrCatalogUnavailable is returned when the network attempt failed and
	// no valid cached catalog exists.
	ErrCatalogUnavailable = errors.New("catalog: unavailable")
)

// StatusError reports a non-2xx response from the remote API.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: GET %s returned status %d", e.URL, e.StatusCode)
}

// Is lets errors.Is(err, ErrFetchFailed) match a StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrFetchFailed
}
