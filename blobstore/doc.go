// Package blobstore provides the storage abstraction for compiled poster files.
//
// BlobStore is the interface for reading and writing whole blobs by name.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, creating parent directories on Put
//   - MemoryStore: in-process map, for tests and dry runs
//   - s3.Store: Amazon S3 with range reads and managed uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// A poster reloads only its body block, so Blob.ReadAt should be cheap for
// small ranges. Stores that can report modification times should also
// implement Stater; incremental compilation depends on it.
package blobstore
