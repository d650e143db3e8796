package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/fitpress"
	"github.com/eringen/fitpress/content"
	"github.com/eringen/fitpress/generation"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func samplePost() content.Post {
	published := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	return content.Post{
		ID:          "p1",
		Title:       "Squats & You",
		Slug:        "squats-you",
		Content:     "<p>Bend your <strong>knees</strong>.</p>",
		Status:      content.StatusPublished,
		PublishedAt: &published,
		CreatedAt:   published,
		Category:    &content.CategoryRef{Name: "Workouts", Slug: "workouts"},
		Tags:        []content.Tag{{Name: "legs", Slug: "legs"}},
	}
}

func TestHome(t *testing.T) {
	v := Default(fitpress.SiteConfig{Name: "FitPress", Description: "Train smarter"})
	page := &content.Page{Posts: []content.Post{samplePost()}, Total: 25, Page: 2, Limit: 10, TotalPages: 3}
	cats := []content.Category{{Name: "Workouts", Slug: "workouts", PostCount: 1}, {Name: "Empty", Slug: "empty"}}

	out := render(t, v.Home(page, cats, fitpress.PageMeta{Title: "FitPress", JSONLD: `{"@type":"WebSite"}`}))

	assert.Contains(t, out, "<title>FitPress</title>")
	assert.Contains(t, out, `href="/blog/squats-you/"`)
	assert.Contains(t, out, "Squats &amp; You")
	assert.Contains(t, out, "Mar 4, 2026")
	assert.Contains(t, out, `href="/?page=3"`)
	assert.Contains(t, out, `href="/"`)
	assert.Contains(t, out, `{"@type":"WebSite"}`)
	assert.Contains(t, out, `href="/category/workouts/"`)
	assert.NotContains(t, out, `/category/empty/`)
}

func TestCategoryPagerUsesCategoryURL(t *testing.T) {
	v := Default(fitpress.SiteConfig{Name: "FitPress"})
	cat := &content.Category{Name: "Workouts", Slug: "workouts", Description: "Articles about Workouts"}
	page := &content.Page{Posts: []content.Post{samplePost()}, Total: 11, Page: 1, Limit: 10, TotalPages: 2}

	out := render(t, v.Category(cat, page, nil, fitpress.PageMeta{Title: "Workouts"}))
	assert.Contains(t, out, "Articles about Workouts")
	assert.Contains(t, out, `href="/category/workouts/?page=2"`)
}

func TestPostRendersStoredHTML(t *testing.T) {
	v := Default(fitpress.SiteConfig{Name: "FitPress"})
	p := samplePost()
	out := render(t, v.Post(&p, nil, fitpress.PageMeta{Title: p.Title}))

	assert.Contains(t, out, "<strong>knees</strong>")
	assert.Contains(t, out, "#legs")
	assert.NotContains(t, out, "Draft preview")

	p.Status = content.StatusDraft
	out = render(t, v.Post(&p, []content.Post{samplePost()}, fitpress.PageMeta{}))
	assert.Contains(t, out, "Draft preview")
	assert.Contains(t, out, "Related posts")
}

func TestAdminPages(t *testing.T) {
	v := Default(fitpress.SiteConfig{Name: "FitPress"})

	out := render(t, v.AdminLogin(true, "tok123"))
	assert.Contains(t, out, `value="tok123"`)
	assert.Contains(t, out, "Invalid email or password")

	draft := samplePost()
	draft.Status = content.StatusDraft
	draft.IsAIGenerated = true
	sched := generation.DefaultSchedule(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	out = render(t, v.AdminDashboard(fitpress.AdminDashboardData{
		Stats:     &content.Stats{Total: 3, Published: 2, Drafts: 1, AIGenerated: 1, TotalViews: 42},
		Drafts:    []content.Post{draft},
		Logs:      []generation.LogEntry{{Status: generation.LogFailed, ErrorMessage: "upstream down"}},
		Schedule:  &sched,
		Message:   "saved",
		CSRFToken: "tok456",
		User:      fitpress.User{Email: "coach@example.com"},
	}))
	assert.Contains(t, out, "coach@example.com")
	assert.Contains(t, out, `action="/admin/posts/p1/publish/"`)
	assert.Contains(t, out, "<dd>42</dd>")
	assert.Contains(t, out, "upstream down")
	assert.Contains(t, out, `value="tok456"`)
	assert.Contains(t, out, "Nothing published yet.")
}

func TestErrorPages(t *testing.T) {
	v := Default(fitpress.SiteConfig{Name: "FitPress"})
	assert.Contains(t, render(t, v.NotFound()), "Page not found")
	assert.Contains(t, render(t, v.ServerError()), "Something went wrong")
}
