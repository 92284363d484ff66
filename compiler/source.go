package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/poster"
)

const (
	// InfoStart opens the JSON head of a source file.
	InfoStart = "<!--INFOS--"
	// InfoEnd closes the head. It must start a line.
	InfoEnd = "--INFOS-->"
)

// ErrParse is returned for source files without a valid head.
var ErrParse = errors.New("markdown parse error")

// Head is the metadata block at the top of a source file.
type Head struct {
	CreateTime time.Time
	Title      string
	Attributes map[string]any
	Strict     *bool
}

// Source is a parsed source file.
type Source struct {
	Head     Head
	Markdown string
}

type rawHead struct {
	CreateTime string         `json:"CreateTime"`
	Title      string         `json:"Title"`
	Attributes map[string]any `json:"Attributes"`
	Strict     *bool          `json:"Strict"`
}

// ParseSource splits text into its head and Markdown body.
//
// The text must start with InfoStart and the JSON head must be followed by
// a line starting with InfoEnd; the rest of that line and everything after
// it is Markdown. A missing CreateTime means now.
func ParseSource(text string, now time.Time) (Source, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	rest, ok := strings.CutPrefix(text, InfoStart)
	if !ok {
		return Source{}, fmt.Errorf("%w: poster not start with %s", ErrParse, InfoStart)
	}

	idx := strings.Index(rest, "\n"+InfoEnd)
	if idx < 0 {
		return Source{}, fmt.Errorf("%w: poster has no %s in new line", ErrParse, InfoEnd)
	}
	head, err := parseHead([]byte(rest[:idx]), now)
	if err != nil {
		return Source{}, err
	}
	return Source{Head: head, Markdown: rest[idx+1+len(InfoEnd):]}, nil
}

func parseHead(data []byte, now time.Time) (Head, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Head{}, fmt.Errorf("%w: failed to parse head: empty json", ErrParse)
	}

	var raw rawHead
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return Head{}, fmt.Errorf("%w: failed to parse head: %w", ErrParse, err)
	}
	if raw.Title == "" {
		return Head{}, fmt.Errorf("%w: head with no title", ErrParse)
	}

	h := Head{
		CreateTime: now,
		Title:      raw.Title,
		Attributes: raw.Attributes,
		Strict:     raw.Strict,
	}
	if h.Attributes == nil {
		h.Attributes = map[string]any{}
	}
	if raw.CreateTime != "" {
		t, err := poster.ParseTime(raw.CreateTime)
		if err != nil {
			return Head{}, fmt.Errorf("%w: %w", ErrParse, err)
		}
		h.CreateTime = t
	}
	return h, nil
}
