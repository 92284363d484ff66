package poster

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Poster is a compiled article: a resident Header plus a body whose
// retention depends on whether a compiled path was given at construction.
//
// Every mutator persists the full poster before returning when the poster
// is reclaimable and has a compiled path. A Poster is not safe for
// concurrent mutation; give each build worker its own posters.
type Poster struct {
	s      *Session
	header Header
	body   *bodyCache
	dirty  bool
	ext    *ExtendedData
}

// Retention reports how the poster holds its body.
func (p *Poster) Retention() Retention { return p.body.mode }

// Header returns a deep copy of the poster's header.
func (p *Poster) Header() Header { return p.header.Clone() }

// Title returns the poster title.
func (p *Poster) Title() string { return p.header.Title }

// CreateTime returns the creation time.
func (p *Poster) CreateTime() time.Time { return p.header.CreateTime }

// Strict returns a copy of the strict flag, or nil if unset.
func (p *Poster) Strict() *bool {
	if p.header.Strict == nil {
		return nil
	}
	return Bool(*p.header.Strict)
}

// Attributes returns a deep copy of the user attributes.
func (p *Poster) Attributes() Attributes { return p.header.Attributes.Clone() }

// SourcePath returns the source path, or "" if absent.
func (p *Poster) SourcePath() string { return p.header.SourcePath }

// CompiledPath returns the compiled path, or "" if absent.
func (p *Poster) CompiledPath() string { return p.header.CompiledPath }

// HasHTMLErrors reports whether the HTML check flagged the body.
func (p *Poster) HasHTMLErrors() bool { return p.header.HasHTMLErrors }

// Dirty reports whether the last save failed, leaving the compiled file
// behind the in-memory state. A successful Save clears it.
func (p *Poster) Dirty() bool { return p.dirty }

// ExtendedData returns the poster's process-local scratch map. Its content
// is never persisted.
func (p *Poster) ExtendedData() *ExtendedData { return p.ext }

// Text returns the body text, reloading it from the compiled file if its
// cache slot was reclaimed.
func (p *Poster) Text(ctx context.Context) (string, error) {
	return p.body.get(ctx)
}

// Reclaim drops the body from memory. Resident posters ignore it.
func (p *Poster) Reclaim() { p.body.reclaim() }

// Update applies fn to a copy of the header and, if the result is valid,
// installs it and saves once. An invalid result leaves the poster
// untouched. On save failure the new header stays installed and the
// poster is marked dirty.
func (p *Poster) Update(ctx context.Context, fn func(h *Header)) error {
	h := p.header.Clone()
	fn(&h)
	if err := h.Validate(); err != nil {
		return err
	}
	if h.Attributes == nil {
		h.Attributes = Attributes{}
	}
	p.header = h
	return p.Save(ctx)
}

// SetTitle sets the title and saves. An empty title is rejected.
func (p *Poster) SetTitle(ctx context.Context, title string) error {
	return p.Update(ctx, func(h *Header) { h.Title = title })
}

// SetCreateTime sets the creation time and saves.
func (p *Poster) SetCreateTime(ctx context.Context, t time.Time) error {
	return p.Update(ctx, func(h *Header) { h.CreateTime = t })
}

// SetStrict sets or clears (nil) the strict flag and saves.
func (p *Poster) SetStrict(ctx context.Context, strict *bool) error {
	return p.Update(ctx, func(h *Header) {
		h.Strict = nil
		if strict != nil {
			h.Strict = Bool(*strict)
		}
	})
}

// SetAttributes replaces the attributes with a copy of attrs and saves.
func (p *Poster) SetAttributes(ctx context.Context, attrs Attributes) error {
	return p.Update(ctx, func(h *Header) { h.Attributes = attrs.Clone() })
}

// SetHasHTMLErrors sets the HTML error flag and saves.
func (p *Poster) SetHasHTMLErrors(ctx context.Context, v bool) error {
	return p.Update(ctx, func(h *Header) { h.HasHTMLErrors = v })
}

// SetSourcePath sets the source path ("" clears it) and saves.
func (p *Poster) SetSourcePath(ctx context.Context, path string) error {
	return p.Update(ctx, func(h *Header) { h.SourcePath = path })
}

// SetCompiledPath sets the compiled path and saves to it. The body is read
// from the previous location if needed. Clearing the path ("") stops
// further saves; the body stays reloadable from the last written file.
func (p *Poster) SetCompiledPath(ctx context.Context, path string) error {
	return p.Update(ctx, func(h *Header) { h.CompiledPath = path })
}

// Save writes the poster to its compiled path. It is a no-op for resident
// posters and for posters without a compiled path.
func (p *Poster) Save(ctx context.Context) error {
	if p.body.mode == Resident || p.header.CompiledPath == "" {
		return nil
	}
	text, err := p.body.get(ctx)
	if err != nil {
		p.dirty = true
		return err
	}
	return p.saveWith(ctx, text)
}

// saveWith encodes the current header with text and writes it.
func (p *Poster) saveWith(ctx context.Context, text string) error {
	h := p.header.Clone()
	path := h.CompiledPath

	start := time.Now()
	n, err := p.write(ctx, h, text)
	p.s.metrics.RecordSave(n, time.Since(start), err)
	p.s.logger.LogSave(ctx, path, n, err)
	if err != nil {
		p.dirty = true
		return &PathError{Op: "save", Path: path, Err: err}
	}

	p.dirty = false
	p.body.markPersisted(path)
	p.body.install(ctx, text)
	return nil
}

func (p *Poster) write(ctx context.Context, h Header, text string) (int, error) {
	data, err := Encode(h, text, p.s.codec)
	if err != nil {
		return 0, err
	}
	if err := p.s.store.Put(ctx, h.CompiledPath, data); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return len(data), nil
}

// String returns a short description for logs.
func (p *Poster) String() string {
	return fmt.Sprintf("Poster{%q, %s, %q}", p.header.Title, p.body.mode, p.header.CompiledPath)
}

// ExtendedData is a scratch map attached to a poster for the lifetime of the
// process, e.g. to mark a poster as already checked. It is safe for
// concurrent use.
type ExtendedData struct {
	mu sync.RWMutex
	m  map[any]any
}

// Get returns the value stored under key.
func (d *ExtendedData) Get(key any) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.m[key]
	return v, ok
}

// Set stores v under key.
func (d *ExtendedData) Set(key, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.m == nil {
		d.m = make(map[any]any)
	}
	d.m[key] = v
}

// Delete removes key.
func (d *ExtendedData) Delete(key any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.m, key)
}

// Len returns the number of entries.
func (d *ExtendedData) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.m)
}
