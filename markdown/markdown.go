// Package markdown converts editor Markdown to the HTML stored in posts and
// provides small helpers for post text.
package markdown

import (
	"context"
	stdhtml "html"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/a-h/templ"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var (
	reTag       = regexp.MustCompile(`(?s)<[^>]*>`)
	reSpace     = regexp.MustCompile(`\s+`)
	reBlockHTML = regexp.MustCompile(`(?i)^\s*<(p|h[1-6]|div|section|article|ul|ol|table|blockquote|pre|figure)[\s>]`)
)

// ToHTML renders md (CommonMark plus tables, fenced code, footnotes) as HTML.
// Headings get anchor ids; absolute links open in a new tab.
func ToHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.Footnotes)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.LazyLoadImages,
	})
	return string(markdown.ToHTML([]byte(md), p, renderer))
}

// IsHTML reports whether s already starts with a block-level HTML element,
// as generated posts do.
func IsHTML(s string) bool {
	return reBlockHTML.MatchString(s)
}

// Normalize returns s as HTML, rendering it from Markdown unless it is
// already HTML.
func Normalize(s string) string {
	if IsHTML(s) {
		return s
	}
	return ToHTML(s)
}

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(md string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, ToHTML(md))
		return err
	})
}

// PlainText strips tags and entities from rendered HTML and collapses
// whitespace.
func PlainText(htmlContent string) string {
	s := reTag.ReplaceAllString(htmlContent, " ")
	s = stdhtml.UnescapeString(s)
	return strings.TrimSpace(reSpace.ReplaceAllString(s, " "))
}

// Excerpt returns at most max runes of the post's plain text, cut at a word
// boundary when possible and marked with an ellipsis when shortened.
func Excerpt(htmlContent string, max int) string {
	text := PlainText(htmlContent)
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:max-1])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:.-") + "…"
}

// ReadingTime estimates minutes to read the post at 200 words per minute.
func ReadingTime(htmlContent string) int {
	words := len(strings.Fields(PlainText(htmlContent)))
	if words == 0 {
		return 0
	}
	return (words + 199) / 200
}
