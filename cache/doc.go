// Package cache provides byte-budgeted LRU caches for poster bodies.
//
// A reclaimable poster keeps its body in a slot of a shared TextCache. The
// cache may drop the slot whenever it needs room, either because its own
// capacity is reached or because the process-wide memory budget of a
// resource.Controller is exhausted. A dropped slot is simply a miss; the
// poster reloads the body from its compiled file.
//
// Two implementations are provided:
//
//   - LRU: one list, one mutex. Good default for a single session.
//   - ShardedLRU: 64 LRU shards selected by maphash, for parallel builds.
package cache
