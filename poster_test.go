package poster_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/hupe1980/poster"
	"github.com/hupe1980/poster/blobstore"
	"github.com/hupe1980/poster/cache"
	"github.com/hupe1980/poster/internal/fs"
	"github.com/hupe1980/poster/resource"
	"github.com/hupe1980/poster/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, opts ...poster.Option) (*poster.Session, *testutil.CountingStore) {
	t.Helper()
	store := testutil.NewCountingStore(nil)
	s := poster.NewSession(append([]poster.Option{poster.WithStore(store)}, opts...)...)
	t.Cleanup(func() { _ = s.Close() })
	return s, store
}

func header(title, compiled string) poster.Header {
	h := poster.NewHeader(title)
	h.CompiledPath = compiled
	return h
}

func TestCreate_ResidentNeverTouchesStore(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)

	p, err := s.Create(ctx, "<p>hello</p>", poster.NewHeader("Hello"))
	require.NoError(t, err)
	assert.Equal(t, poster.Resident, p.Retention())

	p.Reclaim()
	require.NoError(t, p.SetTitle(ctx, "Renamed"))
	require.NoError(t, p.SetAttributes(ctx, poster.Attributes{"k": "v"}))
	require.NoError(t, p.Save(ctx))

	text, err := p.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", text)
	assert.Equal(t, "Renamed", p.Title())
	assert.Equal(t, 0, store.Ops())
}

func TestCreate_ResidentStaysResidentWithLaterPath(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)

	p, err := s.Create(ctx, "body", poster.NewHeader("t"))
	require.NoError(t, err)
	require.NoError(t, p.SetCompiledPath(ctx, "late.poster"))

	assert.Equal(t, poster.Resident, p.Retention())
	assert.Equal(t, "late.poster", p.CompiledPath())
	assert.Equal(t, 0, store.Ops())
}

func TestCreate_ReclaimableSavesOnce(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)
	assert.Equal(t, poster.Reclaimable, p.Retention())
	assert.Equal(t, 1, store.Puts("a.poster"))
	assert.Equal(t, 0, store.Opens("a.poster"))
	assert.False(t, p.Dirty())

	text, err := p.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "body", text)
	assert.Equal(t, 0, store.Opens("a.poster"), "cached body must not be reloaded")
}

func TestCreate_FillsCreateTime(t *testing.T) {
	s, _ := newSession(t)
	h := poster.Header{Title: "t"}

	before := time.Now()
	p, err := s.Create(t.Context(), "", h)
	require.NoError(t, err)
	assert.False(t, p.CreateTime().Before(before))
	assert.NotNil(t, p.Attributes())
}

func TestCreate_RejectsEmptyTitle(t *testing.T) {
	s, store := newSession(t)
	p, err := s.Create(t.Context(), "x", header("", "a.poster"))
	assert.ErrorIs(t, err, poster.ErrInvalidHeader)
	assert.Nil(t, p)
	assert.Equal(t, 0, store.Ops())
}

func TestCreate_CopiesHeader(t *testing.T) {
	s, _ := newSession(t)
	h := header("t", "")
	h.Attributes["k"] = []any{"a"}

	p, err := s.Create(t.Context(), "", h)
	require.NoError(t, err)

	h.Attributes["k"].([]any)[0] = "changed"
	assert.Equal(t, []any{"a"}, p.Attributes()["k"])

	got := p.Header()
	got.Attributes["k"] = "changed"
	assert.Equal(t, []any{"a"}, p.Attributes()["k"])
}

func TestReclaim_ReloadReadsOnce(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)
	rng := testutil.NewRNG(7)
	body := rng.Text(2048)

	p, err := s.Create(ctx, body, header("t", "a.poster"))
	require.NoError(t, err)

	p.Reclaim()
	text, err := p.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, body, text)
	assert.Equal(t, 1, store.Opens("a.poster"))

	// Reinstalled after the reload.
	text, err = p.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, body, text)
	assert.Equal(t, 1, store.Opens("a.poster"))
}

func TestReclaim_CacheThatAdmitsNothing(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t, poster.WithCache(cache.NewLRU(0, nil)))

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)

	for i := range 3 {
		text, err := p.Text(ctx)
		require.NoError(t, err)
		assert.Equal(t, "body", text)
		assert.Equal(t, i+1, store.Opens("a.poster"))
	}
}

func TestSession_ClosedReloadsOnEveryAccess(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	for i := range 3 {
		text, err := p.Text(ctx)
		require.NoError(t, err)
		assert.Equal(t, "body", text)
		assert.Equal(t, i+1, store.Opens("a.poster"))
	}
	assert.Zero(t, s.Cache().Size())
}

func TestReclaim_MemoryBudgetEvictsAndReloads(t *testing.T) {
	ctx := t.Context()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64})
	s, store := newSession(t, poster.WithResourceController(rc))

	var ps []*poster.Poster
	for i := range 8 {
		name := filepath.Join("p", string(rune('a'+i))+".poster")
		p, err := s.Create(ctx, "0123456789abcdef0123456789abcdef", header("t", name))
		require.NoError(t, err)
		ps = append(ps, p)
	}
	assert.LessOrEqual(t, rc.MemoryUsage(), int64(64))

	for _, p := range ps {
		text, err := p.Text(ctx)
		require.NoError(t, err)
		assert.Len(t, text, 32)
	}
	assert.Positive(t, store.Opens(ps[0].CompiledPath()))
}

func TestReclaim_MissingBackingFile(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "a.poster"))

	p.Reclaim()
	_, err = p.Text(ctx)
	assert.ErrorIs(t, err, poster.ErrMissingBackingFile)

	var pe *poster.PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "reload", pe.Op)
	assert.Equal(t, "a.poster", pe.Path)
}

func TestReclaim_CorruptBackingFile(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "a.poster", []byte{1, 2, 3}))

	p.Reclaim()
	_, err = p.Text(ctx)
	assert.ErrorIs(t, err, poster.ErrCorruptData)
}

func TestReclaim_CanceledContext(t *testing.T) {
	s, _ := newSession(t)
	p, err := s.Create(t.Context(), "body", header("t", "a.poster"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	p.Reclaim()
	_, err = p.Text(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, poster.ErrMissingBackingFile))
}

func TestMutation_Durable(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)
	rng := testutil.NewRNG(11)

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)

	when := rng.Time()
	attrs := rng.JSONAttributes(4, 2)
	require.NoError(t, p.SetTitle(ctx, "New title"))
	require.NoError(t, p.SetCreateTime(ctx, when))
	require.NoError(t, p.SetStrict(ctx, poster.Bool(true)))
	require.NoError(t, p.SetAttributes(ctx, attrs))
	require.NoError(t, p.SetHasHTMLErrors(ctx, true))
	require.NoError(t, p.SetSourcePath(ctx, "content/a.md"))
	assert.Equal(t, 7, store.Puts("a.poster"))

	reopened, err := s.Open(ctx, "a.poster")
	require.NoError(t, err)
	assert.True(t, p.Header().Equal(reopened.Header()))
	assert.Equal(t, "New title", reopened.Title())
	assert.True(t, when.Equal(reopened.CreateTime()))
	assert.True(t, *reopened.Strict())
	assert.Equal(t, map[string]any(attrs), map[string]any(reopened.Attributes()))
	assert.True(t, reopened.HasHTMLErrors())
	assert.Equal(t, "content/a.md", reopened.SourcePath())

	text, err := reopened.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "body", text)
}

func TestMutation_SetStrictNilClears(t *testing.T) {
	ctx := t.Context()
	s, _ := newSession(t)

	p, err := s.Create(ctx, "", header("t", "a.poster"))
	require.NoError(t, err)
	require.NoError(t, p.SetStrict(ctx, poster.Bool(false)))
	require.NotNil(t, p.Strict())
	require.NoError(t, p.SetStrict(ctx, nil))

	reopened, err := s.Open(ctx, "a.poster")
	require.NoError(t, err)
	assert.Nil(t, reopened.Strict())
}

func TestMutation_UpdateSavesOnce(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)

	err = p.Update(ctx, func(h *poster.Header) {
		h.Title = "x"
		h.SourcePath = "content/x.md"
		h.HasHTMLErrors = true
	})
	require.NoError(t, err)
	assert.Equal(t, 2, store.Puts("a.poster"))
}

func TestMutation_InvalidTitleLeavesPosterUnchanged(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)

	err = p.SetTitle(ctx, "")
	assert.ErrorIs(t, err, poster.ErrInvalidHeader)
	assert.Equal(t, "t", p.Title())
	assert.Equal(t, 1, store.Puts("a.poster"))
}

func TestMutation_SetCompiledPathMovesFile(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)

	p, err := s.Create(ctx, "body", header("t", "old.poster"))
	require.NoError(t, err)
	p.Reclaim()

	require.NoError(t, p.SetCompiledPath(ctx, "new.poster"))
	assert.Equal(t, 1, store.Opens("old.poster"), "body read from previous location")
	assert.Equal(t, 1, store.Puts("new.poster"))

	p.Reclaim()
	text, err := p.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "body", text)
	assert.Equal(t, 1, store.Opens("new.poster"))

	reopened, err := s.Open(ctx, "new.poster")
	require.NoError(t, err)
	assert.Equal(t, "new.poster", reopened.CompiledPath())
}

func TestMutation_ClearCompiledPathStopsSaving(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)
	require.NoError(t, p.SetCompiledPath(ctx, ""))
	require.NoError(t, p.SetTitle(ctx, "x"))
	assert.Equal(t, 1, store.Puts("a.poster"))

	p.Reclaim()
	text, err := p.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "body", text)
}

func TestSaveFailure_DirtyThenRetry(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()
	faulty := fs.NewFaultyFS(nil)
	s := poster.NewSession(poster.WithStore(blobstore.NewLocalStore(dir, blobstore.WithFileSystem(faulty))))
	t.Cleanup(func() { _ = s.Close() })

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)

	faulty.AddRule("a.poster", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
	err = p.SetTitle(ctx, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, poster.ErrIO)
	assert.ErrorIs(t, err, fs.ErrInjected)

	var pe *poster.PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "save", pe.Op)

	// The mutation is kept in memory.
	assert.Equal(t, "x", p.Title())
	assert.True(t, p.Dirty())

	faulty.ClearRules()
	require.NoError(t, p.Save(ctx))
	assert.False(t, p.Dirty())

	reopened, err := s.Open(ctx, "a.poster")
	require.NoError(t, err)
	assert.Equal(t, "x", reopened.Title())
}

func TestSaveFailure_TornWriteIsCorrupt(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()
	faulty := fs.NewFaultyFS(nil)
	s := poster.NewSession(poster.WithStore(blobstore.NewLocalStore(dir, blobstore.WithFileSystem(faulty))))
	t.Cleanup(func() { _ = s.Close() })

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)

	faulty.AddRule("a.poster", fs.Fault{FailAfterBytes: 10})
	require.Error(t, p.SetTitle(ctx, "x"))
	faulty.ClearRules()

	p.Reclaim()
	_, err = p.Text(ctx)
	assert.ErrorIs(t, err, poster.ErrCorruptData)
}

func TestCreate_SaveFailureReturnsNoPoster(t *testing.T) {
	ctx := t.Context()
	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("a.poster", fs.Fault{FailAfterBytes: -1, FailOnOpen: true})
	mc := &poster.BasicMetricsCollector{}
	s := poster.NewSession(
		poster.WithStore(blobstore.NewLocalStore(t.TempDir(), blobstore.WithFileSystem(faulty))),
		poster.WithMetricsCollector(mc),
	)
	t.Cleanup(func() { _ = s.Close() })

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	assert.Nil(t, p)
	assert.ErrorIs(t, err, poster.ErrIO)
	assert.Equal(t, int64(0), s.Cache().Size())
	assert.Equal(t, int64(1), mc.GetStats().CreateErrors)
}

func TestParse_PathOverridesEmbedded(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)

	data, err := poster.Encode(header("t", "somewhere/else.poster"), "body", nil)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "moved.poster", data))

	p, err := s.Parse(ctx, data, "moved.poster")
	require.NoError(t, err)
	assert.Equal(t, poster.Reclaimable, p.Retention())
	assert.Equal(t, "moved.poster", p.CompiledPath())

	p.Reclaim()
	text, err := p.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "body", text)
	assert.Equal(t, 1, store.Opens("moved.poster"))
	assert.Equal(t, 0, store.Opens("somewhere/else.poster"))
}

func TestParse_EmbeddedPathWhenNoneGiven(t *testing.T) {
	s, _ := newSession(t)
	data, err := poster.Encode(header("t", "embedded.poster"), "body", nil)
	require.NoError(t, err)

	p, err := s.Parse(t.Context(), data, "")
	require.NoError(t, err)
	assert.Equal(t, poster.Reclaimable, p.Retention())
	assert.Equal(t, "embedded.poster", p.CompiledPath())
}

func TestParse_ResidentWithoutAnyPath(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t)
	data, err := poster.Encode(header("t", ""), "body", nil)
	require.NoError(t, err)

	p, err := s.Parse(ctx, data, "")
	require.NoError(t, err)
	assert.Equal(t, poster.Resident, p.Retention())
	p.Reclaim()
	text, err := p.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "body", text)
	assert.Equal(t, 0, store.Ops())
}

func TestParse_Errors(t *testing.T) {
	s, _ := newSession(t)

	_, err := s.Parse(t.Context(), []byte{1, 2, 3}, "x.poster")
	assert.ErrorIs(t, err, poster.ErrCorruptData)
	var pe *poster.PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "parse", pe.Op)
	assert.Equal(t, "x.poster", pe.Path)
}

func TestOpen_Missing(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.Open(t.Context(), "nope.poster")
	assert.ErrorIs(t, err, poster.ErrMissingBackingFile)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSession_LocalStoreRoundTrip(t *testing.T) {
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "cache", "a.poster")
	s := poster.NewSession()
	t.Cleanup(func() { _ = s.Close() })

	p, err := s.Create(ctx, "<h1>x</h1>", header("t", path))
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	p.Reclaim()
	text, err := p.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "<h1>x</h1>", text)
}

func TestSession_SharedCache(t *testing.T) {
	ctx := t.Context()
	shared := cache.NewShardedLRU(1<<20, nil)
	t.Cleanup(func() { _ = shared.Close() })

	s1, _ := newSession(t, poster.WithCache(shared))
	s2, _ := newSession(t, poster.WithCache(shared))

	p1, err := s1.Create(ctx, "one", header("t", "a.poster"))
	require.NoError(t, err)
	p2, err := s2.Create(ctx, "two", header("t", "a.poster"))
	require.NoError(t, err)

	t1, err := p1.Text(ctx)
	require.NoError(t, err)
	t2, err := p2.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", t1)
	assert.Equal(t, "two", t2)

	// Closing a session leaves a cache it does not own alone.
	require.NoError(t, s1.Close())
	assert.Positive(t, shared.Size())
}

func TestSession_ShardedCache(t *testing.T) {
	ctx := t.Context()
	s, store := newSession(t, poster.WithShardedCache(), poster.WithCacheCapacity(1<<20))
	require.IsType(t, &cache.ShardedLRU{}, s.Cache())

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)
	text, err := p.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "body", text)
	assert.Zero(t, store.Opens("a.poster"))

	// The session owns the sharded cache and closes it.
	require.NoError(t, s.Close())
	assert.Zero(t, s.Cache().Size())
}

func TestExtendedData_NotPersisted(t *testing.T) {
	ctx := t.Context()
	s, _ := newSession(t)

	p, err := s.Create(ctx, "body", header("t", "a.poster"))
	require.NoError(t, err)

	type checked struct{}
	p.ExtendedData().Set(checked{}, true)
	v, ok := p.ExtendedData().Get(checked{})
	require.True(t, ok)
	assert.Equal(t, true, v)
	require.NoError(t, p.SetTitle(ctx, "x"))

	reopened, err := s.Open(ctx, "a.poster")
	require.NoError(t, err)
	assert.Equal(t, 0, reopened.ExtendedData().Len())

	p.ExtendedData().Delete(checked{})
	assert.Equal(t, 0, p.ExtendedData().Len())
}

func TestPoster_UnreachableFreesSlot(t *testing.T) {
	ctx := t.Context()
	lru := cache.NewLRU(1<<20, nil)
	s, _ := newSession(t, poster.WithCache(lru))

	func() {
		_, err := s.Create(ctx, "body", header("t", "a.poster"))
		require.NoError(t, err)
	}()
	require.Equal(t, 1, lru.Len())

	assert.Eventually(t, func() bool {
		runtime.GC()
		return lru.Len() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestMetrics(t *testing.T) {
	ctx := t.Context()
	mc := &poster.BasicMetricsCollector{}
	s, _ := newSession(t, poster.WithMetricsCollector(mc))

	_, err := s.Create(ctx, "body", header("r", ""))
	require.NoError(t, err)
	p, err := s.Create(ctx, "body", header("c", "a.poster"))
	require.NoError(t, err)
	p.Reclaim()
	_, err = p.Text(ctx)
	require.NoError(t, err)
	_, err = s.Open(ctx, "a.poster")
	require.NoError(t, err)

	st := mc.GetStats()
	assert.Equal(t, int64(1), st.CreateResident)
	assert.Equal(t, int64(1), st.CreateReclaimable)
	assert.Equal(t, int64(1), st.SaveCount)
	assert.Positive(t, st.SaveBytes)
	assert.Equal(t, int64(1), st.ReloadCount)
	assert.Equal(t, int64(4), st.ReloadBytes)
	assert.Equal(t, int64(1), st.ParseCount)
	assert.Zero(t, st.ParseErrors)
}

func TestPoster_String(t *testing.T) {
	s, _ := newSession(t)
	p, err := s.Create(t.Context(), "", header("Hello", ""))
	require.NoError(t, err)
	assert.Equal(t, `Poster{"Hello", resident, ""}`, p.String())
}
