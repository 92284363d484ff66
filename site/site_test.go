package site

import (
	"bytes"
	"encoding/xml"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/poster"
	"github.com/hupe1980/poster/blobstore"
	"github.com/hupe1980/poster/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Dir = filepath.FromSlash("/srv/site")
	cfg.RootURL = "https://example.org/blog/"
	return cfg
}

func newPoster(t *testing.T, cfg *config.Config, title, rel string, created time.Time, attrs poster.Attributes) *poster.Poster {
	t.Helper()
	sess := poster.NewSession()
	t.Cleanup(func() { _ = sess.Close() })

	h := poster.NewHeader(title)
	h.CreateTime = created
	if rel != "" {
		h.SourcePath = filepath.Join(cfg.Path(cfg.ContentDirectory), filepath.FromSlash(rel))
	}
	if attrs != nil {
		h.Attributes = attrs
	}
	p, err := sess.Create(t.Context(), "<h1>"+title+"</h1>", h)
	require.NoError(t, err)
	return p
}

func TestLink(t *testing.T) {
	cfg := testConfig()
	when := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		rel   string
		attrs poster.Attributes
		want  string
		ok    bool
	}{
		{"source path", "a.md", nil, "https://example.org/blog/a.html", true},
		{"nested", "2024/notes/b.md", nil, "https://example.org/blog/2024/notes/b.html", true},
		{"relative override", "a.md", poster.Attributes{"Link": "about/"}, "https://example.org/blog/about/", true},
		{"absolute override", "a.md", poster.Attributes{"Link": "https://other.org/x"}, "https://other.org/x", true},
		{"no source", "", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPoster(t, cfg, "T", tt.rel, when, tt.attrs)
			got, ok, err := Link(cfg, p)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLink_Errors(t *testing.T) {
	cfg := testConfig()
	p := newPoster(t, cfg, "T", "a.md", time.Now(), nil)

	cfg.RootURL = ""
	_, _, err := Link(cfg, p)
	assert.ErrorIs(t, err, ErrNoRootURL)

	cfg = testConfig()
	cfg.ContentDirectory = "elsewhere"
	_, _, err = Link(cfg, p)
	assert.ErrorContains(t, err, "outside the content directory")
}

func TestGenerate(t *testing.T) {
	cfg := testConfig()
	cfg.Feed = config.Feed{Title: "Notes", Language: "en", MaxItems: 2, Disallow: []string{"/drafts/"}}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	posters := []*poster.Poster{
		newPoster(t, cfg, "Newest", "c.md", now.Add(-time.Hour), poster.Attributes{"Category": "go", "Description": "third"}),
		newPoster(t, cfg, "Middle", "b.md", now.Add(-48*time.Hour), nil),
		newPoster(t, cfg, "Unlinked", "", now.Add(-72*time.Hour), nil),
		newPoster(t, cfg, "Oldest", "a.md", now.Add(-96*time.Hour), nil),
	}

	files, err := Generate(cfg, posters, now)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []string{FeedFile, SitemapFile, RobotsFile}, []string{files[0].Name, files[1].Name, files[2].Name})

	var feed rssXML
	require.NoError(t, xml.Unmarshal(files[0].Data, &feed))
	assert.Equal(t, "2.0", feed.Version)
	assert.Equal(t, "Notes", feed.Channel.Title)
	assert.Equal(t, "Notes", feed.Channel.Description)
	assert.Equal(t, "en", feed.Channel.Language)
	assert.Equal(t, Generator, feed.Channel.Generator)
	assert.Equal(t, now.Format(time.RFC1123Z), feed.Channel.LastBuildDate)
	require.Len(t, feed.Channel.Items, 2)
	assert.Equal(t, "Newest", feed.Channel.Items[0].Title)
	assert.Equal(t, "https://example.org/blog/c.html", feed.Channel.Items[0].Link)
	assert.Equal(t, "third", feed.Channel.Items[0].Description)
	require.NotNil(t, feed.Channel.Items[0].Category)
	assert.Equal(t, "go", feed.Channel.Items[0].Category.Value)
	assert.Equal(t, "Middle", feed.Channel.Items[1].Title)
	assert.Nil(t, feed.Channel.Items[1].Category)
	assert.Equal(t, feed.Channel.Items[0].PubDate, feed.Channel.PubDate)

	var sm urlSetXML
	require.NoError(t, xml.Unmarshal(files[1].Data, &sm))
	var locs []string
	for _, u := range sm.URLs {
		locs = append(locs, u.Loc)
	}
	assert.Equal(t, []string{
		"https://example.org/blog/",
		"https://example.org/blog/c.html",
		"https://example.org/blog/b.html",
		"https://example.org/blog/a.html",
	}, locs)

	assert.Equal(t, "Sitemap: https://example.org/blog/sitemap.xml\n\nUser-agent: *\nDisallow: /drafts/\n", string(files[2].Data))
}

func TestGenerate_NoRootURL(t *testing.T) {
	cfg := testConfig()
	cfg.RootURL = ""
	_, err := Generate(cfg, nil, time.Now())
	assert.ErrorIs(t, err, ErrNoRootURL)
}

func TestGenerate_DefaultsAndAllowAll(t *testing.T) {
	cfg := testConfig()
	files, err := Generate(cfg, nil, time.Now())
	require.NoError(t, err)

	var feed rssXML
	require.NoError(t, xml.Unmarshal(files[0].Data, &feed))
	assert.Equal(t, "example.org", feed.Channel.Title)
	assert.Empty(t, feed.Channel.Items)
	assert.Empty(t, feed.Channel.PubDate)
	assert.Contains(t, string(files[2].Data), "User-agent: *\nAllow: /\n")
}

func TestRSS_Encode(t *testing.T) {
	r := &RSS{
		Title:       "T",
		Link:        "https://example.org",
		Description: "D & more",
		TTL:         60,
		Category:    &Category{Domain: "https://example.org/tags", Value: "go"},
		Items:       []Item{{Title: "<Hello>"}},
	}
	var buf bytes.Buffer
	require.NoError(t, r.Encode(&buf))
	out := buf.String()

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(xml.Header)))
	assert.Contains(t, out, `<rss version="2.0">`)
	assert.Contains(t, out, "<description>D &amp; more</description>")
	assert.Contains(t, out, "<ttl>60</ttl>")
	assert.Contains(t, out, `<category domain="https://example.org/tags">go</category>`)
	assert.Contains(t, out, "<title>&lt;Hello&gt;</title>")
	assert.NotContains(t, out, "<language>")
	assert.NotContains(t, out, "<pubDate>")
}

func TestSitemap_Encode(t *testing.T) {
	half := 0.5
	s := &Sitemap{URLs: []URL{
		{Loc: "https://example.org/a.html", LastMod: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), ChangeFreq: Weekly, Priority: &half},
		{Loc: "https://example.org/b.html"},
	}}
	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf))
	out := buf.String()

	assert.Contains(t, out, `<urlset xmlns="`+SitemapNS+`">`)
	assert.Contains(t, out, "<lastmod>2024-01-02T03:04:05Z</lastmod>")
	assert.Contains(t, out, "<changefreq>weekly</changefreq>")
	assert.Contains(t, out, "<priority>0.5</priority>")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("<priority>")))

	bad := 1.5
	s.URLs[0].Priority = &bad
	assert.ErrorIs(t, s.Encode(&bytes.Buffer{}), ErrPriority)
}

func TestSitemapIndex_Encode(t *testing.T) {
	idx := &SitemapIndex{Sitemaps: []SitemapRef{
		{Loc: "https://example.org/sitemap-1.xml"},
		{Loc: "https://example.org/sitemap-2.xml", LastMod: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}
	var buf bytes.Buffer
	require.NoError(t, idx.Encode(&buf))

	var got sitemapIndexXML
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Sitemaps, 2)
	assert.Empty(t, got.Sitemaps[0].LastMod)
	assert.Equal(t, "2024-01-01T00:00:00Z", got.Sitemaps[1].LastMod)
	assert.Contains(t, buf.String(), `<sitemapindex xmlns="`+SitemapNS+`">`)
}

func TestRobots_String(t *testing.T) {
	r := &Robots{
		Sitemaps: []string{"https://example.org/sitemap.xml"},
		Rules: []RobotRule{
			{UserAgent: "*", Disallow: []string{"/tmp/"}, Allow: []string{"/tmp/public/"}},
			{UserAgent: "BadBot", Disallow: []string{"/"}},
		},
	}
	want := "Sitemap: https://example.org/sitemap.xml\n\n" +
		"User-agent: *\nDisallow: /tmp/\nAllow: /tmp/public/\n\n" +
		"User-agent: BadBot\nDisallow: /\n"
	assert.Equal(t, want, r.String())
	assert.Empty(t, (&Robots{}).String())
}

func TestWrite(t *testing.T) {
	store := blobstore.NewMemoryStore()
	paths, err := Write(t.Context(), store, "out", []File{
		{Name: RobotsFile, Data: []byte("User-agent: *\n")},
		{Name: FeedFile, Data: []byte("<rss/>")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("out", RobotsFile), filepath.Join("out", FeedFile)}, paths)
	assert.Equal(t, []byte("<rss/>"), store.Bytes(filepath.Join("out", FeedFile)))
}
