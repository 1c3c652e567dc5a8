package downloader

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the source reports the media as removed or
	// region-blocked.
	ErrUnavailable = errors.New("media is unavailable")
	// ErrPrivate means the source reports the media as private.
	ErrPrivate = errors.New("media is private")
	// ErrNoFormats means metadata extraction succeeded but exposed no
	// downloadable formats.
	ErrNoFormats = errors.New("no downloadable formats found")
	// ErrOutputMissing means the extractor finished but no output file
	// could be located.
	ErrOutputMissing = errors.New("output file not found after download")
)

// Error is the normalized failure reported by the extractor. It keeps
// the failing operation and the underlying cause so callers can match
// the sentinels above with errors.Is.
type Error struct {
	Op    string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("downloader: %s: %v", e.Op, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(op string, cause error) *Error {
	return &Error{Op: op, Cause: cause}
}
