package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/poster"
	"github.com/hupe1980/poster/blobstore"
	"github.com/hupe1980/poster/config"
)

// Output file names, relative to the output directory.
const (
	FeedFile    = "feed.xml"
	SitemapFile = "sitemap.xml"
	RobotsFile  = "robots.txt"
)

// ErrNoRootURL is returned when the config has no RootURL to build
// absolute links from.
var ErrNoRootURL = errors.New("site: RootUrl is not set")

// File is one generated output file.
type File struct {
	Name string
	Data []byte
}

// Link returns the absolute URL of the page built from p. A string "Link"
// attribute wins, resolved against RootURL when relative. Otherwise the
// source path below the content directory is used with a .html extension.
// ok is false for a poster with neither.
func Link(cfg *config.Config, p *poster.Poster) (link string, ok bool, err error) {
	root, err := url.Parse(cfg.RootURL)
	if err != nil || cfg.RootURL == "" {
		return "", false, ErrNoRootURL
	}

	if v, isString := p.Attributes()["Link"].(string); isString && v != "" {
		ref, err := url.Parse(v)
		if err != nil {
			return "", false, fmt.Errorf("site: %s: bad Link %q: %w", p.Title(), v, err)
		}
		if ref.IsAbs() {
			return ref.String(), true, nil
		}
		return root.JoinPath(ref.Path).String(), true, nil
	}

	src := p.SourcePath()
	if src == "" {
		return "", false, nil
	}
	rel, err := filepath.Rel(cfg.Path(cfg.ContentDirectory), src)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false, fmt.Errorf("site: %s is outside the content directory", src)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel)) + ".html"
	return root.JoinPath(rel).String(), true, nil
}

func stringAttr(p *poster.Poster, key string) string {
	s, _ := p.Attributes()[key].(string)
	return s
}

// Generate renders the feed, sitemap and robots.txt for posters. Posters
// keep their order; pass them newest first. Posters without a link are
// left out.
func Generate(cfg *config.Config, posters []*poster.Poster, now time.Time) ([]File, error) {
	if cfg.RootURL == "" {
		return nil, ErrNoRootURL
	}
	root, err := url.Parse(cfg.RootURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoRootURL, err)
	}

	title := cfg.Feed.Title
	if title == "" {
		title = root.Host
	}
	description := cfg.Feed.Description
	if description == "" {
		description = title
	}
	feed := &RSS{
		Title:         title,
		Link:          root.String(),
		Description:   description,
		Language:      cfg.Feed.Language,
		Copyright:     cfg.Feed.Copyright,
		LastBuildDate: now,
		Generator:     Generator,
	}
	sitemap := &Sitemap{URLs: []URL{{Loc: root.String(), LastMod: now}}}

	for _, p := range posters {
		link, ok, err := Link(cfg, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		sitemap.URLs = append(sitemap.URLs, URL{Loc: link, LastMod: p.CreateTime()})

		if cfg.Feed.MaxItems > 0 && len(feed.Items) >= cfg.Feed.MaxItems {
			continue
		}
		item := Item{
			Title:       p.Title(),
			Description: stringAttr(p, "Description"),
			Link:        link,
			Author:      stringAttr(p, "Author"),
			PublishTime: p.CreateTime(),
		}
		if c := stringAttr(p, "Category"); c != "" {
			item.Category = &Category{Value: c}
		}
		feed.Items = append(feed.Items, item)
	}
	if len(feed.Items) > 0 {
		feed.PublishTime = feed.Items[0].PublishTime
	}

	robots := &Robots{
		Sitemaps: []string{root.JoinPath(SitemapFile).String()},
		Rules:    []RobotRule{{UserAgent: "*", Disallow: cfg.Feed.Disallow}},
	}
	if len(cfg.Feed.Disallow) == 0 {
		robots.Rules[0].Allow = []string{"/"}
	}

	var feedBuf, sitemapBuf bytes.Buffer
	if err := feed.Encode(&feedBuf); err != nil {
		return nil, fmt.Errorf("site: feed: %w", err)
	}
	if err := sitemap.Encode(&sitemapBuf); err != nil {
		return nil, fmt.Errorf("site: sitemap: %w", err)
	}
	return []File{
		{Name: FeedFile, Data: feedBuf.Bytes()},
		{Name: SitemapFile, Data: sitemapBuf.Bytes()},
		{Name: RobotsFile, Data: []byte(robots.String())},
	}, nil
}

// Write stores files under dir and returns their paths.
func Write(ctx context.Context, store blobstore.BlobStore, dir string, files []File) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f.Name)
		if err := store.Put(ctx, p, f.Data); err != nil {
			return paths, fmt.Errorf("site: write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
