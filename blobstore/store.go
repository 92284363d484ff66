package blobstore

import (
	"context"
	"io"
	"os"
	"time"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore stores compiled poster files by name.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes data as the full content of name, replacing any existing
	// blob. Missing parent directories (or their object-store equivalent)
	// are created.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored blob.
type Blob interface {
	// ReadAt reads len(p) bytes at off. Semantics follow io.ReaderAt.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the size of the blob in bytes.
	Size() int64
	io.Closer
}

// Info describes a stored blob.
type Info struct {
	Size    int64
	ModTime time.Time
}

// Stater is implemented by stores that can report blob metadata without
// opening it.
type Stater interface {
	Stat(ctx context.Context, name string) (Info, error)
}

// NewReader adapts b to an io.ReaderAt bound to ctx.
func NewReader(ctx context.Context, b Blob) io.ReaderAt {
	return &blobReader{ctx: ctx, b: b}
}

type blobReader struct {
	ctx context.Context
	b   Blob
}

func (r *blobReader) ReadAt(p []byte, off int64) (int, error) {
	return r.b.ReadAt(r.ctx, p, off)
}

// ReadAll returns the full content of a blob.
func ReadAll(ctx context.Context, s BlobStore, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	buf := make([]byte, b.Size())
	n, err := b.ReadAt(ctx, buf, 0)
	if n == len(buf) {
		return buf, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return buf[:n], err
}
