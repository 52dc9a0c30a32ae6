package syncer

import (
	"errors"
	"fmt"
)

// ErrCacheExhausted is reported when a remote failure could not be absorbed
// because the tag has no cached records to fall back to.
var ErrCacheExhausted = errors.New("no cached data to fall back to")

// FetchError is the outright failure of a sync call. It matches both
// ErrCacheExhausted and the underlying remote or storage error.
type FetchError struct {
	Tag  string
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("sync %s page %d: %v (%v)", e.Tag, e.Page, e.Err, ErrCacheExhausted)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrCacheExhausted, e.Err}
}
