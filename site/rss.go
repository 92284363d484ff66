package site

import (
	"encoding/xml"
	"io"
	"strconv"
	"time"
)

// Generator is written to the generator element of every feed.
const Generator = "posterctl"

// Category is an RSS category with an optional domain.
type Category struct {
	Domain string `xml:"domain,attr,omitempty"`
	Value  string `xml:",chardata"`
}

// Item is one post in an RSS feed.
type Item struct {
	Title       string
	Description string
	Link        string
	Author      string
	PublishTime time.Time
	Category    *Category
}

// RSS is an RSS 2.0 channel. Title, Link and Description are required;
// zero values of the other fields are left out.
type RSS struct {
	Title          string
	Link           string
	Description    string
	Language       string
	Copyright      string
	PublishTime    time.Time
	LastBuildDate  time.Time
	Generator      string
	TTL            int
	Category       *Category
	ManagingEditor string
	WebMaster      string
	Items          []Item
}

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title          string    `xml:"title"`
	Link           string    `xml:"link"`
	Description    string    `xml:"description"`
	Language       string    `xml:"language,omitempty"`
	Copyright      string    `xml:"copyright,omitempty"`
	PubDate        string    `xml:"pubDate,omitempty"`
	LastBuildDate  string    `xml:"lastBuildDate,omitempty"`
	Generator      string    `xml:"generator,omitempty"`
	TTL            string    `xml:"ttl,omitempty"`
	Category       *Category `xml:"category,omitempty"`
	ManagingEditor string    `xml:"managingEditor,omitempty"`
	WebMaster      string    `xml:"webMaster,omitempty"`
	Items          []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string    `xml:"title,omitempty"`
	Description string    `xml:"description,omitempty"`
	Link        string    `xml:"link,omitempty"`
	GUID        string    `xml:"guid,omitempty"`
	Author      string    `xml:"author,omitempty"`
	PubDate     string    `xml:"pubDate,omitempty"`
	Category    *Category `xml:"category,omitempty"`
}

func rssTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC1123Z)
}

// Encode writes the feed as an indented XML document.
func (r *RSS) Encode(w io.Writer) error {
	ch := rssChannel{
		Title:          r.Title,
		Link:           r.Link,
		Description:    r.Description,
		Language:       r.Language,
		Copyright:      r.Copyright,
		PubDate:        rssTime(r.PublishTime),
		LastBuildDate:  rssTime(r.LastBuildDate),
		Generator:      r.Generator,
		Category:       r.Category,
		ManagingEditor: r.ManagingEditor,
		WebMaster:      r.WebMaster,
		Items:          make([]rssItem, 0, len(r.Items)),
	}
	if r.TTL > 0 {
		ch.TTL = strconv.Itoa(r.TTL)
	}
	for _, it := range r.Items {
		ch.Items = append(ch.Items, rssItem{
			Title:       it.Title,
			Description: it.Description,
			Link:        it.Link,
			GUID:        it.Link,
			Author:      it.Author,
			PubDate:     rssTime(it.PublishTime),
			Category:    it.Category,
		})
	}
	return encodeXML(w, rssXML{Version: "2.0", Channel: ch})
}

func encodeXML(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
