// Package markdown converts markdown bodies to HTML.
//
// Two engines are available. Blackfriday is the default; goldmark can be
// selected in the site configuration. Both enable tables and strikethrough
// and pass raw HTML through unchanged.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/russross/blackfriday/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Engine names accepted by New.
const (
	Blackfriday = "blackfriday"
	Goldmark    = "goldmark"
)

// A Converter turns markdown into HTML. Implementations are safe for
// concurrent use.
type Converter interface {
	Convert(src []byte) (template.HTML, error)
}

// New returns the converter for the named engine. An empty name selects
// blackfriday.
func New(name string) (Converter, error) {
	switch name {
	case "", Blackfriday:
		return blackfridayConverter{}, nil
	case Goldmark:
		return newGoldmark(), nil
	}
	return nil, fmt.Errorf("markdown: unknown engine %q", name)
}

type blackfridayConverter struct{}

func (blackfridayConverter) Convert(src []byte) (template.HTML, error) {
	return template.HTML(blackfriday.Run(src, blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.Footnotes))), nil
}

type goldmarkConverter struct {
	md goldmark.Markdown
}

func newGoldmark() goldmarkConverter {
	return goldmarkConverter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

func (c goldmarkConverter) Convert(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
