package poster

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/hupe1980/poster/blobstore"
	"github.com/hupe1980/poster/cache"
	"github.com/hupe1980/poster/codec"
	"github.com/hupe1980/poster/resource"
)

// Session carries everything posters share: the backing store, the header
// codec, the body cache and its memory budget, logging and metrics.
//
// A Session is safe for concurrent use; one session is normally shared by
// every worker of a build.
type Session struct {
	store     blobstore.BlobStore
	codec     codec.Codec
	cache     cache.TextCache
	ownsCache bool
	rc        *resource.Controller
	logger    *Logger
	metrics   MetricsCollector
}

// bodyIDs numbers cache slots process-wide so sessions can share a cache.
var bodyIDs atomic.Uint64

// NewSession creates a session.
func NewSession(optFns ...Option) *Session {
	o := options{
		codec:            codec.Default,
		cacheCapacity:    DefaultCacheCapacity,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&o)
	}

	s := &Session{
		store:   o.store,
		codec:   o.codec,
		cache:   o.cache,
		rc:      o.rc,
		logger:  o.logger,
		metrics: o.metricsCollector,
	}
	if s.store == nil {
		s.store = blobstore.NewLocalStore("")
	}
	switch {
	case s.cache != nil:
	case o.shardedCache:
		s.cache = cache.NewShardedLRU(o.cacheCapacity, o.rc)
		s.ownsCache = true
	default:
		s.cache = cache.NewLRU(o.cacheCapacity, o.rc)
		s.ownsCache = true
	}
	if s.logger == nil {
		s.logger = NoopLogger()
	}
	if s.metrics == nil {
		s.metrics = NoopMetricsCollector{}
	}
	return s
}

// Store returns the backing store.
func (s *Session) Store() blobstore.BlobStore { return s.store }

// Cache returns the body cache.
func (s *Session) Cache() cache.TextCache { return s.cache }

// Logger returns the session logger.
func (s *Session) Logger() *Logger { return s.logger }

// Close releases the session-owned cache. A closed cache admits nothing,
// so posters of the session then reload their bodies on every access. A
// cache passed with WithCache is left open.
func (s *Session) Close() error {
	if s.ownsCache {
		return s.cache.Close()
	}
	return nil
}

// newPoster wires a poster to the session. Reclaimable slots are freed
// when the poster becomes unreachable.
func (s *Session) newPoster(h Header, body *bodyCache) *Poster {
	p := &Poster{s: s, header: h, body: body, ext: &ExtendedData{}}
	if body.mode == Reclaimable {
		runtime.AddCleanup(p, func(key cache.Key) { s.cache.Delete(key) }, body.key)
	}
	return p
}

// Create builds a poster from freshly compiled text.
//
// Without a compiled path the poster is resident and no I/O happens, now
// or later. With one, the text goes into a cache slot and the poster is
// saved once; if that save fails no poster is returned.
//
// A zero CreateTime is replaced by the current time.
func (s *Session) Create(ctx context.Context, text string, h Header) (p *Poster, err error) {
	start := time.Now()
	retention := Resident
	defer func() {
		s.metrics.RecordCreate(retention, time.Since(start), err)
		s.logger.LogCreate(ctx, h.Title, retention, err)
	}()

	if err := h.Validate(); err != nil {
		return nil, err
	}
	h = h.Clone()
	if h.CreateTime.IsZero() {
		h.CreateTime = time.Now()
	}

	if h.CompiledPath == "" {
		return s.newPoster(h, residentBody(s, text)), nil
	}

	retention = Reclaimable
	body := reclaimableBody(s, bodyIDs.Add(1))
	p = s.newPoster(h, body)
	body.install(ctx, text)

	// The first save uses text directly; the slot may already be gone.
	if err := p.saveWith(ctx, text); err != nil {
		body.reclaim()
		return nil, err
	}
	return p, nil
}

// Parse rebuilds a poster from the bytes of a compiled file.
//
// path is where data was read from. When non-empty it becomes the reload
// location and replaces the compiled path embedded in the header, so a
// moved file keeps working. When empty the embedded compiled path is
// used; if that is empty too the poster is resident.
func (s *Session) Parse(ctx context.Context, data []byte, path string) (p *Poster, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordParse(len(data), time.Since(start), err)
		s.logger.LogParse(ctx, path, len(data), err)
	}()

	h, text, err := Decode(data, s.codec)
	if err != nil {
		return nil, &PathError{Op: "parse", Path: path, Err: err}
	}
	if path != "" {
		h.CompiledPath = path
	}
	if h.CompiledPath == "" {
		return s.newPoster(h, residentBody(s, text)), nil
	}

	body := reclaimableBody(s, bodyIDs.Add(1))
	body.markPersisted(h.CompiledPath)
	body.install(ctx, text)
	return s.newPoster(h, body), nil
}

// Open reads the compiled file at path and parses it.
func (s *Session) Open(ctx context.Context, path string) (*Poster, error) {
	data, err := blobstore.ReadAll(ctx, s.store, path)
	if err != nil {
		return nil, &PathError{Op: "open", Path: path, Err: fmt.Errorf("%w: %w", ErrMissingBackingFile, err)}
	}
	return s.Parse(ctx, data, path)
}
