package poster

import (
	"fmt"
	"maps"
	"reflect"
	"time"

	gojson "github.com/goccy/go-json"
)

// Attributes holds user-defined header values. Values are JSON values:
// nil, bool, float64, string, []any or map[string]any.
type Attributes map[string]any

// Clone returns a deep copy of a. A nil map clones to an empty one.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case Attributes:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// Header is the metadata of a poster. It is always fully resident.
//
// Wire names match the property names of compiled files produced by
// earlier versions of the site builder, so those files stay readable.
// An empty SourcePath or CompiledPath means the path is absent.
type Header struct {
	Title         string     `json:"Title"`
	CreateTime    time.Time  `json:"CreateTime"`
	Strict        *bool      `json:"Strict,omitempty"`
	Attributes    Attributes `json:"Attributes"`
	SourcePath    string     `json:"SourcePath,omitempty"`
	CompiledPath  string     `json:"CompiledPath,omitempty"`
	HasHTMLErrors bool       `json:"HasHtmlErrors"`
}

// Accepted CreateTime layouts. Times without a zone are local.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseTime parses a CreateTime value. RFC 3339 values keep their offset;
// values without a zone are read in local time.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad CreateTime %q", s)
}

type wireHeader struct {
	Title         string     `json:"Title"`
	CreateTime    string     `json:"CreateTime"`
	Strict        *bool      `json:"Strict"`
	Attributes    Attributes `json:"Attributes"`
	SourcePath    string     `json:"SourcePath"`
	CompiledPath  string     `json:"CompiledPath"`
	HasHTMLErrors bool       `json:"HasHtmlErrors"`
}

// UnmarshalJSON decodes a header. CreateTime may omit the zone offset, as
// in files written by earlier versions of the site builder.
func (h *Header) UnmarshalJSON(data []byte) error {
	var w wireHeader
	if err := gojson.Unmarshal(data, &w); err != nil {
		return err
	}
	var created time.Time
	if w.CreateTime != "" {
		t, err := ParseTime(w.CreateTime)
		if err != nil {
			return err
		}
		created = t
	}
	*h = Header{
		Title:         w.Title,
		CreateTime:    created,
		Strict:        w.Strict,
		Attributes:    w.Attributes,
		SourcePath:    w.SourcePath,
		CompiledPath:  w.CompiledPath,
		HasHTMLErrors: w.HasHTMLErrors,
	}
	return nil
}

// NewHeader returns a header with the given title and default values for
// everything else: CreateTime is now, Attributes is empty.
func NewHeader(title string) Header {
	return Header{
		Title:      title,
		CreateTime: time.Now(),
		Attributes: Attributes{},
	}
}

// Clone returns a deep copy of h sharing no memory with it.
func (h Header) Clone() Header {
	out := h
	out.Attributes = h.Attributes.Clone()
	if h.Strict != nil {
		s := *h.Strict
		out.Strict = &s
	}
	return out
}

// Validate reports whether h can back a poster.
func (h Header) Validate() error {
	if h.Title == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidHeader)
	}
	return nil
}

// IsStrict resolves the strict flag, falling back to def when unset.
func (h Header) IsStrict(def bool) bool {
	if h.Strict == nil {
		return def
	}
	return *h.Strict
}

// Equal reports whether h and o describe the same header. Times are
// compared as instants; a nil and an empty attribute map are equal.
func (h Header) Equal(o Header) bool {
	if h.Title != o.Title ||
		!h.CreateTime.Equal(o.CreateTime) ||
		h.SourcePath != o.SourcePath ||
		h.CompiledPath != o.CompiledPath ||
		h.HasHTMLErrors != o.HasHTMLErrors {
		return false
	}
	if (h.Strict == nil) != (o.Strict == nil) || (h.Strict != nil && *h.Strict != *o.Strict) {
		return false
	}
	if len(h.Attributes) != len(o.Attributes) {
		return false
	}
	return maps.EqualFunc(h.Attributes, o.Attributes, func(a, b any) bool {
		return reflect.DeepEqual(a, b)
	})
}

func (h Header) isZero() bool {
	return h.Title == "" &&
		h.CreateTime.IsZero() &&
		h.Strict == nil &&
		len(h.Attributes) == 0 &&
		h.SourcePath == "" &&
		h.CompiledPath == "" &&
		!h.HasHTMLErrors
}

// Bool returns a pointer to b, for Header.Strict.
func Bool(b bool) *bool { return &b }
