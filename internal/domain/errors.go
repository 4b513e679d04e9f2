package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingHeader      = errors.New("missing #EXTM3U header")
	ErrMasterPlaylist     = errors.New("master playlist")
	ErrNoSegments         = errors.New("playlist has no segments")
	ErrCancelled          = errors.New("download cancelled")
	ErrDownloadInProgress = errors.New("download already in progress")
)

// FormatError reports playlist text that cannot be used as a media playlist.
// It wraps one of the format sentinels above.
type FormatError struct {
	Reason error
}

func (e *FormatError) Error() string {
	return "invalid playlist: " + e.Reason.Error()
}

func (e *FormatError) Unwrap() error {
	return e.Reason
}

// SegmentError reports a failed fetch of a single segment. Index is 1-based
// and matches the segment's position in the playlist.
type SegmentError struct {
	Index int
	URI   string
	Err   error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d (%s): %v", e.Index, e.URI, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}
