package resource

import (
	"context"
	"io"
)

// RateLimitedReaderAt wraps an io.ReaderAt with IO rate limiting.
// Each ReadAt waits for len(p) tokens before reading.
type RateLimitedReaderAt struct {
	r   io.ReaderAt
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedReaderAt creates a new RateLimitedReaderAt.
// A nil controller disables limiting.
func NewRateLimitedReaderAt(ctx context.Context, r io.ReaderAt, rc *Controller) *RateLimitedReaderAt {
	return &RateLimitedReaderAt{
		r:   r,
		rc:  rc,
		ctx: ctx,
	}
}

func (r *RateLimitedReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if err := r.rc.AcquireIO(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.r.ReadAt(p, off)
}
