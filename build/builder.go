package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/poster"
	"github.com/hupe1980/poster/compiler"
	"github.com/hupe1980/poster/config"
	"github.com/hupe1980/poster/htmlcheck"
	"github.com/hupe1980/poster/resource"
	"golang.org/x/sync/errgroup"
)

// ErrStrict is returned for a strict poster whose HTML has problems.
var ErrStrict = errors.New("html problems in strict mode")

// CheckError lists the HTML problems of one poster.
type CheckError struct {
	Path     string
	Problems []htmlcheck.Problem
}

func (e *CheckError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.String()
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, ErrStrict, strings.Join(msgs, "; "))
}

func (e *CheckError) Unwrap() error { return ErrStrict }

// Result is the outcome of a build.
type Result struct {
	// Posters are sorted by CreateTime, newest first.
	Posters []*poster.Poster
	// Problems maps source paths to the HTML problems of non-strict
	// posters.
	Problems map[string][]htmlcheck.Problem
}

// Builder compiles the content directory of a site.
type Builder struct {
	cfg      *config.Config
	sess     *poster.Session
	compiler *compiler.Compiler
	checker  *htmlcheck.Checker
	rc       *resource.Controller
	logger   *poster.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithChecker replaces the HTML checker.
func WithChecker(c *htmlcheck.Checker) Option {
	return func(b *Builder) {
		b.checker = c
	}
}

// WithCompiler replaces the compiler.
func WithCompiler(c *compiler.Compiler) Option {
	return func(b *Builder) {
		b.compiler = c
	}
}

// WithResourceController bounds concurrent compile jobs.
func WithResourceController(rc *resource.Controller) Option {
	return func(b *Builder) {
		b.rc = rc
	}
}

// New returns a builder for cfg using sess for posters.
func New(cfg *config.Config, sess *poster.Session, optFns ...Option) *Builder {
	b := &Builder{
		cfg:    cfg,
		sess:   sess,
		logger: sess.Logger(),
	}
	for _, fn := range optFns {
		fn(b)
	}
	if b.compiler == nil {
		b.compiler = compiler.New(sess, CacheDir(cfg))
	}
	if b.checker == nil {
		b.checker = htmlcheck.New()
	}
	return b
}

// Sources returns the Markdown files under the content directory, sorted.
func (b *Builder) Sources() ([]string, error) {
	root := b.cfg.Path(b.cfg.ContentDirectory)
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".md") {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.Sort(out)
	return out, nil
}

// Build compiles and checks every source. Per-source failures are joined
// into the returned error; the posters that did build are still returned.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	sources, err := b.Sources()
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		posters  []*poster.Poster
		problems = map[string][]htmlcheck.Problem{}
		errs     []error
	)

	g, gctx := errgroup.WithContext(ctx)
	if b.cfg.Workers > 0 {
		g.SetLimit(b.cfg.Workers)
	}
	for _, src := range sources {
		g.Go(func() error {
			if err := b.rc.AcquireBackground(gctx); err != nil {
				return err
			}
			defer b.rc.ReleaseBackground()

			p, found, err := b.buildOne(gctx, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				b.logger.ErrorContext(gctx, "build failed", "source", src, "error", err)
				errs = append(errs, err)
				return nil
			}
			if len(found) > 0 {
				problems[src] = found
			}
			posters = append(posters, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortPosters(posters)
	return &Result{Posters: posters, Problems: problems}, errors.Join(errs...)
}

func (b *Builder) buildOne(ctx context.Context, src string) (*poster.Poster, []htmlcheck.Problem, error) {
	p, err := b.compiler.Compile(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	found, err := b.Check(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	if len(found) > 0 && p.Header().IsStrict(b.cfg.Strict) {
		return nil, nil, &CheckError{Path: src, Problems: found}
	}
	return p, found, nil
}

// Check runs the HTML checker over p once, records the result in
// HasHTMLErrors and marks p in its ExtendedData. A poster already marked
// returns the recorded problems.
func (b *Builder) Check(ctx context.Context, p *poster.Poster) ([]htmlcheck.Problem, error) {
	if v, ok := p.ExtendedData().Get(htmlcheck.CheckedKey); ok {
		found, _ := v.([]htmlcheck.Problem)
		return found, nil
	}

	text, err := p.Text(ctx)
	if err != nil {
		return nil, err
	}
	found, err := b.checker.Check(text)
	if err != nil {
		return nil, &poster.PathError{Op: "check", Path: p.SourcePath(), Err: err}
	}

	if has := len(found) > 0; has != p.HasHTMLErrors() {
		if err := p.SetHasHTMLErrors(ctx, has); err != nil {
			return nil, err
		}
	}
	p.ExtendedData().Set(htmlcheck.CheckedKey, found)
	return found, nil
}

// SortPosters orders posters newest first; equal times sort by title.
func SortPosters(ps []*poster.Poster) {
	slices.SortStableFunc(ps, func(a, b *poster.Poster) int {
		if c := b.CreateTime().Compare(a.CreateTime()); c != 0 {
			return c
		}
		return strings.Compare(a.Title(), b.Title())
	})
}
