package poster

import (
	"github.com/hupe1980/poster/blobstore"
	"github.com/hupe1980/poster/cache"
	"github.com/hupe1980/poster/codec"
	"github.com/hupe1980/poster/resource"
)

// DefaultCacheCapacity is the byte capacity of the body cache a Session
// creates when none is supplied.
const DefaultCacheCapacity = 64 << 20

type options struct {
	store            blobstore.BlobStore
	codec            codec.Codec
	cache            cache.TextCache
	cacheCapacity    int64
	shardedCache     bool
	rc               *resource.Controller
	logger           *Logger
	metricsCollector MetricsCollector
}

// Option configures a Session.
type Option func(*options)

// WithStore sets the backing store for compiled files.
//
// Default: a LocalStore with an empty root, so compiled paths are plain
// file system paths.
func WithStore(s blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithCodec configures the codec used for the header block.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCache sets the cache holding reclaimable bodies. Several sessions may
// share one cache. The session does not close a cache it did not create.
func WithCache(c cache.TextCache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithCacheCapacity sets the capacity in bytes of the session-owned cache.
// Ignored when WithCache is used.
func WithCacheCapacity(bytes int64) Option {
	return func(o *options) {
		o.cacheCapacity = bytes
	}
}

// WithShardedCache makes the session-owned cache a cache.ShardedLRU, for
// sessions shared by many workers. The capacity is split across shards.
// Ignored when WithCache is used.
func WithShardedCache() Option {
	return func(o *options) {
		o.shardedCache = true
	}
}

// WithResourceController sets the process-wide resource controller.
//
// It bounds memory held by the session-owned cache and throttles body
// reloads.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithLogger sets the logger. Default: NoopLogger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector. Default: NoopMetricsCollector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}
