package testutil

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Bool returns a pseudo-random bool.
func (r *RNG) Bool() bool {
	return r.Intn(2) == 1
}

// runes mixes ASCII, markup, escapes and multi-byte characters so encoders
// see quoting, HTML-escaping and UTF-8 edge cases.
var runes = []rune("abcdefghijklmnopqrstuvwxyz ABCXYZ0123456789<>&\"'\\/\n\t{}[]:,äöüß€中文日本語🎉")

// String returns a random string of n runes.
func (r *RNG) String(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stringLocked(n)
}

func (r *RNG) stringLocked(n int) string {
	var b strings.Builder
	for range n {
		b.WriteRune(runes[r.rand.Intn(len(runes))])
	}
	return b.String()
}

// Text returns a random body of up to maxRunes runes; it may be empty.
func (r *RNG) Text(maxRunes int) string {
	return r.String(r.Intn(maxRunes + 1))
}

// Time returns a random instant between 2000 and 2030 with nanosecond
// precision, in UTC or a fixed offset zone.
func (r *RNG) Time() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	lo := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	hi := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	t := time.Unix(0, lo+r.rand.Int63n(hi-lo))
	if r.rand.Intn(2) == 0 {
		return t.UTC()
	}
	offset := (r.rand.Intn(27) - 12) * 3600
	return t.In(time.FixedZone("", offset))
}

// JSONAttributes returns a random map of JSON values as produced by
// decoding JSON into map[string]any: nil, bool, float64, string, []any
// and map[string]any, nested up to depth levels.
func (r *RNG) JSONAttributes(maxKeys, depth int) map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.objectLocked(maxKeys, depth)
}

func (r *RNG) objectLocked(maxKeys, depth int) map[string]any {
	n := r.rand.Intn(maxKeys + 1)
	m := make(map[string]any, n)
	for range n {
		m[r.stringLocked(1+r.rand.Intn(8))] = r.valueLocked(maxKeys, depth)
	}
	return m
}

func (r *RNG) valueLocked(maxKeys, depth int) any {
	kinds := 4
	if depth > 0 {
		kinds = 6
	}
	switch r.rand.Intn(kinds) {
	case 0:
		return nil
	case 1:
		return r.rand.Intn(2) == 1
	case 2:
		// Integral values and short fractions survive a JSON round trip.
		return float64(r.rand.Intn(1_000_000)-500_000) / 4
	case 3:
		return r.stringLocked(r.rand.Intn(16))
	case 4:
		s := make([]any, r.rand.Intn(maxKeys+1))
		for i := range s {
			s[i] = r.valueLocked(maxKeys, depth-1)
		}
		return s
	default:
		return r.objectLocked(maxKeys, depth-1)
	}
}
