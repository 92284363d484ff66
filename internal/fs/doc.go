// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with read/write/sync capabilities
//   - [FileSystem]: open, remove, stat, mkdir and readdir
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects open, mkdir, read, write,
//     sync and close failures by file name pattern
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDONLY, 0)
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".poster", fs.Fault{FailAfterBytes: 16})
//	store := blobstore.NewLocalStore("", blobstore.WithFileSystem(ffs))
//
// Operations take no context.Context. Local file operations are not
// interruptible at the syscall level; slow backends go through
// blobstore, which is context aware.
package fs
