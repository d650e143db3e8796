package views

import (
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/eringen/fitpress"
	"github.com/eringen/fitpress/content"
	"github.com/eringen/fitpress/markdown"
)

// funcs are the template helpers shared by every page.
func funcs(cfg fitpress.SiteConfig) template.FuncMap {
	return template.FuncMap{
		"postURL":     func(slug string) string { return "/blog/" + url.PathEscape(slug) + "/" },
		"categoryURL": func(slug string) string { return "/category/" + url.PathEscape(slug) + "/" },
		"pageURL":     pageURL,
		"date":        formatDate,
		"isoDate":     func(t time.Time) string { return t.Format(time.RFC3339) },
		"readingTime": markdown.ReadingTime,
		"excerpt":     excerpt,
		"trustedHTML": func(s string) template.HTML { return template.HTML(s) },
		"jsonLD":      func(s string) template.JS { return template.JS(s) },
		"siteName":    func() string { return cfg.Name },
		"year":        func() int { return time.Now().Year() },
		"add":         func(a, b int) int { return a + b },
	}
}

// formatDate renders t like "Mar 4, 2026".
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// excerpt prefers the stored excerpt and falls back to the start of the body.
func excerpt(p content.Post) string {
	if p.Excerpt != "" {
		return p.Excerpt
	}
	return markdown.Excerpt(p.Content, 160)
}

// pageURL builds the link to page n of a listing rooted at base.
func pageURL(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "?page=" + strconv.Itoa(n)
}
