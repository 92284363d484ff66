package cache

import "context"

// Kind separates key spaces sharing one cache.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBody         // reclaimable poster bodies
)

// Key identifies a cached text. IDs are process-local and never reused
// within a Kind.
type Key struct {
	Kind Kind
	ID   uint64
}

// Stats reports cache activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64 // entries dropped to make room
	Rejected  int64 // Set calls that did not admit the value
}

// TextCache is a byte-budgeted cache of immutable strings.
//
// Implementations may drop any entry at any time; a Get after a successful
// Set is allowed to miss.
type TextCache interface {
	// Get returns a cached text. ok=false if missing.
	Get(ctx context.Context, key Key) (s string, ok bool)
	// Set caches a text, replacing any previous value for key.
	// Returns false if the value was not admitted.
	Set(ctx context.Context, key Key, s string) bool
	// Delete removes key if present.
	Delete(key Key)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key Key) bool)
	// Size returns the bytes currently held.
	Size() int64
	// Stats returns cache statistics.
	Stats() Stats
	// Close releases the cache's memory reservations. A closed cache
	// admits no further values.
	Close() error
}
