// Package codec centralizes header encoding and the two-block frame layout
// used by compiled poster files.
//
// Poster files carry no codec name and no version field, so the codec used to
// write a file must also be used to read it. Changing the codec is a breaking
// change for every compiled file on disk.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use and must produce UTF-8 text,
// since the header block of a frame is defined as UTF-8.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
