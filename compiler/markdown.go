package compiler

import (
	"bytes"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// RenderOptions selects Markdown extensions.
type RenderOptions struct {
	// Advanced enables GFM, footnotes, definition lists, typographic
	// punctuation and heading IDs.
	Advanced      bool `json:"Advanced" yaml:"Advanced"`
	TaskLists     bool `json:"TaskLists" yaml:"TaskLists"`
	Strikethrough bool `json:"EmphasisExtra" yaml:"EmphasisExtra"`
	Tables        bool `json:"PipeTable" yaml:"PipeTable"`
	HardLineBreak bool `json:"HardLineBreak" yaml:"HardLineBreak"`
}

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a renderer for opts. Raw HTML in the source is kept.
func NewRenderer(opts RenderOptions) *Renderer {
	var exts []goldmark.Extender
	var parserOpts []parser.Option
	rendererOpts := []goldmark.Option{}

	if opts.Advanced {
		exts = append(exts, extension.GFM, extension.Footnote, extension.DefinitionList, extension.Typographer)
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}
	if opts.TaskLists {
		exts = append(exts, extension.TaskList)
	}
	if opts.Strikethrough {
		exts = append(exts, extension.Strikethrough)
	}
	if opts.Tables {
		exts = append(exts, extension.Table)
	}

	htmlOpts := []renderer.Option{html.WithUnsafe()}
	if opts.HardLineBreak {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}

	rendererOpts = append(rendererOpts,
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	return &Renderer{md: goldmark.New(rendererOpts...)}
}

// Render returns the HTML for src.
func (r *Renderer) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	defaultRenderer     *Renderer
	defaultRendererOnce sync.Once
)

// Render converts src with the zero RenderOptions.
func Render(src string) (string, error) {
	defaultRendererOnce.Do(func() {
		defaultRenderer = NewRenderer(RenderOptions{})
	})
	return defaultRenderer.Render(src)
}
