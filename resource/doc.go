// Package resource implements the Controller for process-wide limits.
//
// One Controller is shared by every poster cache and build worker of a
// process:
//
//   - Memory: bytes held by reclaimable poster bodies (fail-fast TryAcquire)
//   - Concurrency: compile workers running at once
//   - IO: throughput of body reloads from backing stores
//
// # Memory Management
//
// Caches reserve memory before admitting a body and release it on eviction.
// When the budget is exhausted a cache simply declines to hold the body; the
// poster reloads it from its backing file on next access:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 256 << 20,
//	})
//
//	if !rc.TryAcquireMemory(int64(len(body))) {
//	    // do not cache
//	}
//	defer rc.ReleaseMemory(int64(len(body)))
//
// # Worker Limits
//
//	if err := rc.AcquireBackground(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseBackground()
//
// # IO Rate Limiting
//
//	r := resource.NewRateLimitedReaderAt(ctx, blob, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully: they become no-ops.
package resource
