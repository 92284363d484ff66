package compiler

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/hupe1980/poster"
	"github.com/hupe1980/poster/blobstore"
	"github.com/zeebo/blake3"
)

// Ext is the file extension of compiled posters.
const Ext = ".poster"

// Compiler turns Markdown source files into reclaimable posters stored
// under a cache directory of the session's store.
type Compiler struct {
	sess     *poster.Session
	renderer *Renderer
	cacheDir string
	force    bool
	now      func() time.Time

	compiled atomic.Int64
	reused   atomic.Int64
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithRenderOptions sets the Markdown extensions.
func WithRenderOptions(opts RenderOptions) Option {
	return func(c *Compiler) {
		c.renderer = NewRenderer(opts)
	}
}

// WithForce disables reuse of up-to-date compiled files.
func WithForce(force bool) Option {
	return func(c *Compiler) {
		c.force = force
	}
}

// New returns a compiler writing compiled posters below cacheDir.
func New(sess *poster.Session, cacheDir string, optFns ...Option) *Compiler {
	c := &Compiler{
		sess:     sess,
		cacheDir: filepath.ToSlash(cacheDir),
		now:      time.Now,
	}
	for _, fn := range optFns {
		fn(c)
	}
	if c.renderer == nil {
		c.renderer = NewRenderer(RenderOptions{})
	}
	return c
}

// CompiledPath returns where the poster compiled from sourcePath lives:
// the cache directory plus the first 32 hex digits of the BLAKE3 hash of
// the cleaned source path.
func (c *Compiler) CompiledPath(sourcePath string) string {
	sum := blake3.Sum256([]byte(filepath.ToSlash(filepath.Clean(sourcePath))))
	return path.Join(c.cacheDir, hex.EncodeToString(sum[:])[:32]+Ext)
}

// Stats reports how many sources were compiled and how many compiled
// files were reused.
func (c *Compiler) Stats() (compiled, reused int64) {
	return c.compiled.Load(), c.reused.Load()
}

// Compile returns the poster for sourcePath.
//
// If the session store can stat blobs and the compiled file is at least
// as new as the source, the compiled file is opened instead. A compiled
// file that fails to open is rebuilt.
func (c *Compiler) Compile(ctx context.Context, sourcePath string) (*poster.Poster, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, &poster.PathError{Op: "compile", Path: sourcePath, Err: err}
	}
	compiledPath := c.CompiledPath(sourcePath)

	if p, ok := c.reuse(ctx, sourcePath, compiledPath, info.ModTime()); ok {
		c.reused.Add(1)
		return p, nil
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, &poster.PathError{Op: "compile", Path: sourcePath, Err: err}
	}
	src, err := ParseSource(string(data), c.now())
	if err != nil {
		return nil, &poster.PathError{Op: "compile", Path: sourcePath, Err: err}
	}
	text, err := c.renderer.Render(src.Markdown)
	if err != nil {
		return nil, &poster.PathError{Op: "render", Path: sourcePath, Err: err}
	}

	h := poster.Header{
		Title:        src.Head.Title,
		CreateTime:   src.Head.CreateTime,
		Strict:       src.Head.Strict,
		Attributes:   src.Head.Attributes,
		SourcePath:   sourcePath,
		CompiledPath: compiledPath,
	}
	p, err := c.sess.Create(ctx, text, h)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", sourcePath, err)
	}
	c.compiled.Add(1)
	return p, nil
}

func (c *Compiler) reuse(ctx context.Context, sourcePath, compiledPath string, modTime time.Time) (*poster.Poster, bool) {
	if c.force {
		return nil, false
	}
	st, ok := c.sess.Store().(blobstore.Stater)
	if !ok {
		return nil, false
	}
	bi, err := st.Stat(ctx, compiledPath)
	if err != nil || modTime.After(bi.ModTime) {
		return nil, false
	}

	p, err := c.sess.Open(ctx, compiledPath)
	if err != nil {
		c.sess.Logger().WarnContext(ctx, "stale compiled poster",
			"source", sourcePath,
			"path", compiledPath,
			"error", err,
		)
		return nil, false
	}
	if p.SourcePath() != sourcePath {
		return nil, false
	}
	return p, true
}
