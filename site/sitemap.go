package site

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"time"
)

// SitemapNS is the sitemap 0.9 namespace.
const SitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ErrPriority is returned for a sitemap priority outside [0, 1].
var ErrPriority = errors.New("sitemap priority must be between 0 and 1")

// ChangeFreq is a sitemap change frequency.
type ChangeFreq string

const (
	Always  ChangeFreq = "always"
	Hourly  ChangeFreq = "hourly"
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
	Yearly  ChangeFreq = "yearly"
	Never   ChangeFreq = "never"
)

// URL is one sitemap entry. A nil Priority is left out; otherwise it is
// written with one decimal.
type URL struct {
	Loc        string
	LastMod    time.Time
	ChangeFreq ChangeFreq
	Priority   *float64
}

// Sitemap is a sitemap 0.9 urlset. Size limits are not enforced.
type Sitemap struct {
	URLs []URL
}

type urlSetXML struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []urlXML `xml:"url"`
}

type urlXML struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

func w3cTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// Encode writes the sitemap as an indented XML document.
func (s *Sitemap) Encode(w io.Writer) error {
	set := urlSetXML{XMLNS: SitemapNS, URLs: make([]urlXML, 0, len(s.URLs))}
	for _, u := range s.URLs {
		x := urlXML{
			Loc:        u.Loc,
			LastMod:    w3cTime(u.LastMod),
			ChangeFreq: string(u.ChangeFreq),
		}
		if u.Priority != nil {
			p := *u.Priority
			if p < 0 || p > 1 {
				return fmt.Errorf("%w: %s has %g", ErrPriority, u.Loc, p)
			}
			x.Priority = fmt.Sprintf("%.1f", p)
		}
		set.URLs = append(set.URLs, x)
	}
	return encodeXML(w, set)
}

// SitemapRef points a sitemap index at one sitemap file.
type SitemapRef struct {
	Loc     string
	LastMod time.Time
}

// SitemapIndex lists sitemap files.
type SitemapIndex struct {
	Sitemaps []SitemapRef
}

type sitemapIndexXML struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	XMLNS    string       `xml:"xmlns,attr"`
	Sitemaps []sitemapXML `xml:"sitemap"`
}

type sitemapXML struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Encode writes the index as an indented XML document.
func (s *SitemapIndex) Encode(w io.Writer) error {
	idx := sitemapIndexXML{XMLNS: SitemapNS, Sitemaps: make([]sitemapXML, 0, len(s.Sitemaps))}
	for _, ref := range s.Sitemaps {
		idx.Sitemaps = append(idx.Sitemaps, sitemapXML{Loc: ref.Loc, LastMod: w3cTime(ref.LastMod)})
	}
	return encodeXML(w, idx)
}
