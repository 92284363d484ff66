package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/poster/blobstore"
)

// CountingStore wraps a BlobStore and counts calls per blob name.
type CountingStore struct {
	blobstore.BlobStore

	mu      sync.Mutex
	opens   map[string]int
	puts    map[string]int
	deletes map[string]int
	lists   int
}

// NewCountingStore wraps inner, or a fresh MemoryStore if inner is nil.
func NewCountingStore(inner blobstore.BlobStore) *CountingStore {
	if inner == nil {
		inner = blobstore.NewMemoryStore()
	}
	return &CountingStore{
		BlobStore: inner,
		opens:     make(map[string]int),
		puts:      make(map[string]int),
		deletes:   make(map[string]int),
	}
}

func (s *CountingStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	s.mu.Lock()
	s.opens[name]++
	s.mu.Unlock()
	return s.BlobStore.Open(ctx, name)
}

func (s *CountingStore) Put(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	s.puts[name]++
	s.mu.Unlock()
	return s.BlobStore.Put(ctx, name, data)
}

func (s *CountingStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	s.deletes[name]++
	s.mu.Unlock()
	return s.BlobStore.Delete(ctx, name)
}

func (s *CountingStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	return s.BlobStore.List(ctx, prefix)
}

// Stat forwards to the wrapped store when it implements blobstore.Stater.
func (s *CountingStore) Stat(ctx context.Context, name string) (blobstore.Info, error) {
	st, ok := s.BlobStore.(blobstore.Stater)
	if !ok {
		return blobstore.Info{}, blobstore.ErrNotFound
	}
	return st.Stat(ctx, name)
}

// Opens returns the number of Open calls for name.
func (s *CountingStore) Opens(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens[name]
}

// Puts returns the number of Put calls for name.
func (s *CountingStore) Puts(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[name]
}

// Ops returns the total number of calls of any kind.
func (s *CountingStore) Ops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lists
	for _, m := range []map[string]int{s.opens, s.puts, s.deletes} {
		for _, c := range m {
			n += c
		}
	}
	return n
}
