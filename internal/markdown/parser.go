// Package markdown renders the free-form story of an entry to HTML.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

type Parser struct {
	md goldmark.Markdown
}

// NewParser returns a parser for user-written stories. Raw HTML in the
// source is dropped rather than passed through.
func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Parser{
		md: md,
	}
}

func (p *Parser) Parse(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := p.md.Convert(source, &buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderStory converts a story to HTML. A blank story renders as "".
func (p *Parser) RenderStory(story string) (string, error) {
	if strings.TrimSpace(story) == "" {
		return "", nil
	}
	html, err := p.Parse([]byte(story))
	if err != nil {
		return "", err
	}
	return string(html), nil
}
