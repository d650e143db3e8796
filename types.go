package fitpress

import (
	"github.com/eringen/fitpress/content"
	"github.com/eringen/fitpress/generation"
)

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	SiteName    string
	JSONLD      string
}

// AdminDashboardData is everything the admin dashboard renders.
type AdminDashboardData struct {
	Stats     *content.Stats
	Drafts    []content.Post
	Recent    []content.Post
	Logs      []generation.LogEntry
	Schedule  *generation.Schedule
	Message   string
	CSRFToken string
	User      User
}
