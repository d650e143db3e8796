package fitpress

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/fitpress/content"
)

const (
	relatedLimit     = 3
	viewCountTimeout = 5 * time.Second
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	pageNum := queryInt(c.QueryParam("page"), 1)
	page, err := a.Store.ListPosts(ctx, pageNum, a.Config.PageSize, content.StatusPublished)
	if err != nil {
		return err
	}
	categories, err := a.Cache.Categories(ctx)
	if err != nil {
		return err
	}
	meta := PageMeta{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL),
		OGType:      "website",
		SiteName:    a.Config.Name,
		JSONLD:      WebsiteJsonLD(a.Config),
	}
	if pageNum > 1 {
		meta.Title = fmt.Sprintf("%s - Page %d", a.Config.Name, pageNum)
	}
	return Render(c, a.Views.Home(page, categories, meta))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Store.GetPostBySlug(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	if !post.Published() {
		if !IsAdmin(c) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		c.Response().Header().Set("Cache-Control", "private, no-store")
	}

	related, err := a.Store.RelatedPosts(ctx, post, relatedLimit)
	if err != nil {
		a.logger.Warn("related posts", zap.String("post_id", post.ID), zap.Error(err))
		related = nil
	}

	if post.Published() {
		a.countView(ctx, post.ID)
	}

	meta := PageMeta{
		Title:       post.Title + " | " + a.Config.Name,
		Description: post.Excerpt,
		URL:         PostURL(a.Config.URL, post.Slug),
		OGType:      "article",
		SiteName:    a.Config.Name,
		JSONLD:      BlogPostingJsonLD(post, a.Config),
	}
	return Render(c, a.Views.Post(post, related, meta))
}

// countView increments the view counter off the request path. The context
// is detached from the request so the count survives the response.
func (a *App) countView(reqCtx context.Context, postID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), viewCountTimeout)
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		defer cancel()
		a.Store.IncrementViewCount(ctx, postID)
	}()
}

func (a *App) handleCategory(c echo.Context) error {
	ctx := c.Request().Context()
	cat, err := a.Store.GetCategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	pageNum := queryInt(c.QueryParam("page"), 1)
	page, err := a.Store.ListPostsByCategory(ctx, cat.Slug, pageNum, a.Config.PageSize)
	if err != nil {
		return err
	}
	categories, err := a.Cache.Categories(ctx)
	if err != nil {
		return err
	}
	desc := cat.Description
	if desc == "" {
		desc = a.Config.Description
	}
	meta := PageMeta{
		Title:       cat.Name + " | " + a.Config.Name,
		Description: desc,
		URL:         CategoryURL(a.Config.URL, cat.Slug),
		OGType:      "website",
		SiteName:    a.Config.Name,
	}
	return Render(c, a.Views.Category(cat, page, categories, meta))
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Store.AllPublished(ctx)
	if err != nil {
		return err
	}
	categories, err := a.Cache.Categories(ctx)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts, categories)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Store.AllPublished(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleRobots(c echo.Context) error {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Disallow: /admin/\n")
	b.WriteString("Disallow: /api/admin/\n")
	b.WriteString("Allow: /\n\n")
	fmt.Fprintf(&b, "Sitemap: %s\n", strings.TrimSuffix(a.Config.URL, "/")+"/sitemap.xml")
	return c.String(http.StatusOK, b.String())
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		_ = a.writeAPIError(c, err)
		return
	}

	var he *echo.HTTPError
	switch {
	case content.IsNotFound(err), errors.As(err, &he) && he.Code == http.StatusNotFound:
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	case content.IsValidation(err):
		_ = c.String(http.StatusBadRequest, err.Error())
		return
	}

	code := http.StatusInternalServerError
	if he != nil {
		code = he.Code
	}
	if code >= 500 {
		a.logger.Error("server error",
			zap.String("path", c.Request().URL.Path), zap.Error(err))
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
