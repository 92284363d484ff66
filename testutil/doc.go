// Package testutil provides testing utilities for poster packages.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	body := rng.Text(4096)               // random UTF-8, may be empty
//	attrs := rng.JSONAttributes(5, 2)    // JSON-shaped values
//	when := rng.Time()
//
// # Store Instrumentation
//
//	store := testutil.NewCountingStore(nil)
//	// ... exercise code
//	store.Opens("a.poster") // number of reads of a.poster
package testutil
