package poster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/poster/blobstore"
	"github.com/hupe1980/poster/cache"
	"github.com/hupe1980/poster/codec"
	"github.com/hupe1980/poster/resource"
)

// Retention says how a poster holds its body. It is chosen at construction
// and never changes.
type Retention uint8

const (
	// Resident posters own their body outright and never touch a store.
	Resident Retention = iota
	// Reclaimable posters keep their body in a shared cache slot and
	// reload it from the compiled file after the slot is evicted.
	Reclaimable
)

func (r Retention) String() string {
	switch r {
	case Resident:
		return "resident"
	case Reclaimable:
		return "reclaimable"
	default:
		return fmt.Sprintf("Retention(%d)", uint8(r))
	}
}

// bodyCache owns a poster's body text.
type bodyCache struct {
	mode Retention

	// Resident
	text string

	// Reclaimable
	key       cache.Key
	path      string // location of the last successful write or parse
	persisted bool

	s *Session
}

func residentBody(s *Session, text string) *bodyCache {
	return &bodyCache{mode: Resident, text: text, s: s}
}

func reclaimableBody(s *Session, id uint64) *bodyCache {
	return &bodyCache{
		mode: Reclaimable,
		key:  cache.Key{Kind: cache.KindBody, ID: id},
		s:    s,
	}
}

// get returns the body text, reloading it from the backing store if the
// cache slot has been reclaimed.
func (b *bodyCache) get(ctx context.Context) (string, error) {
	if b.mode == Resident {
		return b.text, nil
	}
	if text, ok := b.s.cache.Get(ctx, b.key); ok {
		return text, nil
	}
	if !b.persisted {
		return "", ErrNotPersisted
	}
	return b.reload(ctx)
}

// install places text in the cache slot. The cache may refuse it; a later
// get then reloads.
func (b *bodyCache) install(ctx context.Context, text string) {
	if b.mode == Resident {
		b.text = text
		return
	}
	b.s.cache.Set(ctx, b.key, text)
}

// markPersisted records that path now holds the body.
func (b *bodyCache) markPersisted(path string) {
	b.path = path
	b.persisted = true
}

func (b *bodyCache) reclaim() {
	if b.mode == Reclaimable {
		b.s.cache.Delete(b.key)
	}
}

func (b *bodyCache) reload(ctx context.Context) (string, error) {
	start := time.Now()
	text, err := b.load(ctx)
	b.s.metrics.RecordReload(len(text), time.Since(start), err)
	b.s.logger.LogReload(ctx, b.path, len(text), err)
	if err != nil {
		return "", &PathError{Op: "reload", Path: b.path, Err: err}
	}
	b.install(ctx, text)
	return text, nil
}

func (b *bodyCache) load(ctx context.Context) (string, error) {
	blob, err := b.s.store.Open(ctx, b.path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMissingBackingFile, err)
	}
	defer func() { _ = blob.Close() }()

	var r io.ReaderAt = blobstore.NewReader(ctx, blob)
	if b.s.rc != nil {
		r = resource.NewRateLimitedReaderAt(ctx, r, b.s.rc)
	}

	body, err := codec.ReadBodyFrame(r, blob.Size())
	switch {
	case err == nil:
		return string(body), nil
	case errors.Is(err, codec.ErrTruncated), errors.Is(err, codec.ErrTrailingData):
		return "", fmt.Errorf("%w: %w", ErrCorruptData, err)
	case ctx.Err() != nil:
		return "", err
	default:
		// Unreadable counts as missing.
		return "", fmt.Errorf("%w: %w", ErrMissingBackingFile, err)
	}
}
