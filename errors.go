package poster

import (
	"errors"
	"fmt"

	"github.com/hupe1980/poster/blobstore"
	"github.com/hupe1980/poster/codec"
)

var (
	// ErrCorruptData is returned when encoded poster bytes are malformed,
	// truncated, or carry a header that fails the required-field check.
	ErrCorruptData = errors.New("corrupt data")

	// ErrEmptyHeader marks a header block that decoded to nothing usable:
	// JSON null, an all-default record, or a record without a title.
	// It is always wrapped together with ErrCorruptData.
	ErrEmptyHeader = errors.New("empty header")

	// ErrMissingBackingFile is returned when a reclaimed body cannot be
	// reloaded because its compiled file is missing or unreadable.
	ErrMissingBackingFile = errors.New("missing backing file")

	// ErrIO is returned when writing a compiled file fails.
	ErrIO = errors.New("i/o failure")

	// ErrNotPersisted is returned when a reclaimable body was dropped before
	// it was ever written. Well-formed callers never see it.
	ErrNotPersisted = errors.New("body was never persisted")

	// ErrInvalidHeader is returned when a header supplied by the caller is
	// not acceptable, e.g. it has an empty title.
	ErrInvalidHeader = errors.New("invalid header")
)

// PathError records the failed operation and the compiled or source path it
// concerned, so build errors can be attributed to a file.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }

// translateError maps lower-layer errors onto the package sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCorruptData) || errors.Is(err, ErrMissingBackingFile) {
		return err
	}
	if errors.Is(err, codec.ErrTruncated) || errors.Is(err, codec.ErrTrailingData) {
		return fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrMissingBackingFile, err)
	}
	return err
}
