package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrStructuralDrift means the source page no longer matches the
	// parsing heuristics (anchor phrase or schedule table missing). It
	// aborts the affected thread, never the process.
	ErrStructuralDrift = errors.New("page structure no longer matches expectations")

	ErrEmptyContent  = errors.New("empty content")
	ErrNoThread      = errors.New("no thread link found on board page")
	ErrAlreadySeen   = errors.New("record already exists")
	ErrNoListing     = errors.New("no items found on listing page")
	ErrMaxRetries    = errors.New("max retries exceeded")
	ErrUnparseable   = errors.New("unparseable fragment")
	ErrStoreDisabled = errors.New("store is not configured")
)

// FetchError wraps navigation, selector-wait and click failures against the
// browser capability.
type FetchError struct {
	URL       string
	Op        string
	Err       error
	Retryable bool
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ItemError wraps any failure while handling one discovered item. It is
// caught at the per-item boundary, logged and skipped; sibling items are
// unaffected.
type ItemError struct {
	Title string
	URL   string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %q (%s): %v", e.Title, e.URL, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// StoreError wraps datastore failures.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s on %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
