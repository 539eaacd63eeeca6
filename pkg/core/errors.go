package core

import (
	"errors"
	"fmt"
)

// Format violations detected while unpacking. Wrapped with context, so
// callers match them with errors.Is.
var (
	ErrTruncatedArchive  = errors.New("archive truncated mid-entry")
	ErrMalformedHeader   = errors.New("malformed archive header")
	ErrDelimiterMismatch = errors.New("delimiter does not match archive")
	ErrChecksumMismatch  = errors.New("archive checksum mismatch")
)

// AccessError reports an I/O or permission failure on a concrete path.
type AccessError struct {
	Path string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("access %s: %v", e.Path, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// DelimiterCollisionError reports a relative path that contains the
// delimiter token and therefore cannot be framed.
type DelimiterCollisionError struct {
	Path string
}

func (e *DelimiterCollisionError) Error() string {
	return fmt.Sprintf("path %q contains the delimiter token", e.Path)
}
