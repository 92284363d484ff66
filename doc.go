// Package poster implements the poster cache and persistence engine of a
// static-site builder.
//
// A poster is a compiled article: a small Header (title, creation time,
// strict flag, attributes, source and compiled paths, HTML error flag) and
// a potentially large body. Posters survive a whole build session without
// holding every body in memory at once.
//
// # Quick Start
//
//	sess := poster.NewSession(
//	    poster.WithStore(blobstore.NewLocalStore("")),
//	    poster.WithCacheCapacity(256<<20),
//	)
//	defer sess.Close()
//
//	h := poster.NewHeader("Hello")
//	h.CompiledPath = ".cache/hello.poster"
//	p, err := sess.Create(ctx, html, h)
//
//	p.SetTitle(ctx, "Hello, world") // rewrites .cache/hello.poster
//	text, err := p.Text(ctx)        // may reload from disk
//
// # Retention
//
// A poster created without a compiled path is Resident: the body is owned
// outright and nothing is ever read or written. With a compiled path the
// poster is Reclaimable: the body sits in a slot of the session's
// cache.TextCache, which may evict it at any time under its byte capacity
// or the process memory budget of a resource.Controller. Text then reloads
// the body from the compiled file, reading the body block only.
//
// # Persistence
//
// Every setter, and Update for batches, rewrites the whole compiled file
// before returning. A failed write is returned to the caller, the new
// state stays in memory and Dirty reports true until a later Save
// succeeds. Writes are plain overwrites; a crash mid-write can leave a
// torn file, which then fails to decode with ErrCorruptData.
//
// # File Format
//
//	[int64 LE: len(header)][header JSON]
//	[int64 LE: len(body)][body UTF-8]
//
// There is no magic number and no version field.
//
// # Concurrency
//
// Session, the caches and the stores are safe for concurrent use. A Poster
// is not; keep each poster with a single worker.
package poster
