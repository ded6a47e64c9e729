// Package feed provides the use cases for assembling the picture-of-the-day feed.
// It walks calendar dates backward from a start date, classifies every date as
// found, absent, malformed or failed, and collects exactly the requested number
// of entries with their thumbnails materialized in the local cache.
package feed

import (
	"errors"
	"fmt"
	"time"

	"apod-feed/internal/domain/entity"
)

// Sentinel errors for feed operations.
var (
	// ErrNotFound indicates that the server confirmed a resource does not exist.
	// Missing pages are expected: publication gaps, future dates and downtime all produce it.
	ErrNotFound = errors.New("resource not found")

	// ErrFetchFailed indicates a transport failure or an unexpected HTTP status.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrMalformedPage indicates that a fetched page does not match the expected template.
	ErrMalformedPage = errors.New("malformed page")

	// ErrCacheWrite indicates that a downloaded file could not be stored locally.
	ErrCacheWrite = errors.New("cache write failed")

	// ErrExhaustedHistory indicates that the walk passed the first published date.
	ErrExhaustedHistory = errors.New("publication history exhausted")

	// ErrInvalidCount indicates a requested entry count below 1.
	ErrInvalidCount = errors.New("entry count must be at least 1")
)

// FetchError wraps a failure that is not a confirmed "not found".
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches ErrFetchFailed.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// ParseError names the page element that was missing or empty.
type ParseError struct {
	Element string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse page: %s: %s", e.Element, e.Reason)
}

// Is matches ErrMalformedPage.
func (e *ParseError) Is(target error) bool { return target == ErrMalformedPage }

// ExhaustedHistoryError is returned when the walk reaches the first published date
// before collecting the requested number of entries. Entries holds what was collected.
type ExhaustedHistoryError struct {
	Requested int
	Collected int
	Oldest    time.Time
	Entries   []entity.Entry
}

func (e *ExhaustedHistoryError) Error() string {
	return fmt.Sprintf("publication history exhausted at %s: collected %d of %d entries",
		e.Oldest.Format(entity.InputLayout), e.Collected, e.Requested)
}

// Is matches ErrExhaustedHistory.
func (e *ExhaustedHistoryError) Is(target error) bool { return target == ErrExhaustedHistory }

// ImageNotFoundError reports a listed entry whose full image is confirmed absent.
type ImageNotFoundError struct {
	Date    time.Time
	PageURL string
}

func (e *ImageNotFoundError) Error() string {
	return fmt.Sprintf("there is no APOD image for %s; see %s", entity.DisplayDate(e.Date), e.PageURL)
}

// Is matches ErrNotFound.
func (e *ImageNotFoundError) Is(target error) bool { return target == ErrNotFound }
