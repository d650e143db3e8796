package fitpress

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/fitpress/content"
	"github.com/eringen/fitpress/generation"
	"github.com/eringen/fitpress/markdown"
)

const (
	maxAPILimit   = 50
	excerptLength = 150
	formatMD      = "markdown"
)

// writeAPIError maps store errors onto JSON error responses.
func (a *App) writeAPIError(c echo.Context, err error) error {
	var (
		ve *content.ValidationError
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": ve.Error(), "field": ve.Field})
	case content.IsNotFound(err):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case content.IsConflict(err):
		return c.JSON(http.StatusConflict, map[string]string{"error": "A post with this slug already exists"})
	case errors.As(err, &he) && he.Code < 500:
		return c.JSON(he.Code, map[string]any{"error": he.Message})
	}
	a.logger.Error("api error",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// pageArgs reads ?page and ?limit, capping limit.
func (a *App) pageArgs(c echo.Context) (int, int) {
	page := queryInt(c.QueryParam("page"), 1)
	limit := queryInt(c.QueryParam("limit"), a.Config.PageSize)
	if limit > maxAPILimit {
		limit = maxAPILimit
	}
	return page, limit
}

func (a *App) apiListPosts(c echo.Context) error {
	page, limit := a.pageArgs(c)
	ctx := c.Request().Context()
	var (
		result *content.Page
		err    error
	)
	if cat := strings.TrimSpace(c.QueryParam("category")); cat != "" {
		result, err = a.Store.ListPostsByCategory(ctx, cat, page, limit)
	} else {
		result, err = a.Store.ListPosts(ctx, page, limit, content.StatusPublished)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (a *App) apiGetPost(c echo.Context) error {
	post, err := a.Store.GetPostBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	if !post.Published() && !IsAdmin(c) {
		return &content.NotFoundError{Entity: "post", Key: c.Param("slug")}
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) apiListCategories(c echo.Context) error {
	categories, err := a.Cache.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	if categories == nil {
		categories = []content.Category{}
	}
	return c.JSON(http.StatusOK, categories)
}

func (a *App) apiListTags(c echo.Context) error {
	tags, err := a.Cache.Tags(c.Request().Context())
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []content.Tag{}
	}
	return c.JSON(http.StatusOK, tags)
}

func (a *App) apiAdminListPosts(c echo.Context) error {
	page, limit := a.pageArgs(c)
	status := content.Status(c.QueryParam("status"))
	result, err := a.Store.ListPosts(c.Request().Context(), page, limit, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (a *App) apiAdminGetPost(c echo.Context) error {
	post, err := a.Store.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

type createPostRequest struct {
	content.PostInput
	// Format is "markdown" when Content is editor Markdown; otherwise
	// Content is stored as given.
	Format string `json:"format,omitempty"`
}

func (a *App) apiCreatePost(c echo.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	in := req.PostInput
	if req.Format == formatMD {
		in.Content = markdown.ToHTML(in.Content)
	}
	if strings.TrimSpace(in.Excerpt) == "" {
		in.Excerpt = markdown.Excerpt(in.Content, excerptLength)
	}
	if u, ok := CurrentUser(c); ok {
		in.AuthorID = u.ID
	}

	post, err := a.Store.CreatePost(c.Request().Context(), in)
	if err != nil {
		return err
	}
	a.invalidate()
	return c.JSON(http.StatusCreated, post)
}

type updatePostRequest struct {
	content.PostPatch
	Format string `json:"format,omitempty"`
}

func (a *App) apiUpdatePost(c echo.Context) error {
	var req updatePostRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	patch := req.PostPatch
	if req.Format == formatMD && patch.Content != nil {
		html := markdown.ToHTML(*patch.Content)
		patch.Content = &html
	}

	post, err := a.Store.UpdatePost(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	a.invalidate()
	return c.JSON(http.StatusOK, post)
}

func (a *App) apiDeletePost(c echo.Context) error {
	if err := a.Store.DeletePost(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	a.invalidate()
	return c.NoContent(http.StatusNoContent)
}

type generateRequest struct {
	Category string `json:"category"`
}

// generationLimited writes a 429 and reports true when the caller has used
// up its generation allowance.
func (a *App) generationLimited(c echo.Context) bool {
	ip := c.RealIP()
	if a.generateLimiter.Allow(ip) {
		return false
	}
	secs := int(a.generateLimiter.RetryAfter(ip).Seconds()) + 1
	c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
	_ = c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Generation limit reached"})
	return true
}

func (a *App) apiGenerate(c echo.Context) error {
	if a.generationLimited(c) {
		return nil
	}

	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	u, _ := CurrentUser(c)
	post, err := a.Generator.Generate(c.Request().Context(), req.Category, u.ID)
	if err != nil {
		if content.IsValidation(err) {
			return err
		}
		a.logger.Warn("api generate", zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Failed to generate blog post"})
	}
	a.invalidate()
	return c.JSON(http.StatusCreated, post)
}

func (a *App) apiTrendingTopics(c echo.Context) error {
	topics, err := a.Generator.TrendingTopics(c.Request().Context())
	if err != nil {
		a.logger.Warn("api trending topics", zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Failed to fetch trending topics"})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "topics": topics})
}

type trendingRequest struct {
	Title              string   `json:"title"`
	Keywords           []string `json:"keywords"`
	PublishImmediately bool     `json:"publishImmediately"`
}

func (a *App) apiGenerateTrending(c echo.Context) error {
	if a.generationLimited(c) {
		return nil
	}

	var req trendingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	u, _ := CurrentUser(c)
	res, err := a.Generator.GenerateTrending(c.Request().Context(), req.Title, req.Keywords, u.ID, req.PublishImmediately)
	if err != nil {
		if content.IsValidation(err) || content.IsConflict(err) {
			return err
		}
		a.logger.Warn("api generate trending", zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Failed to generate blog post"})
	}
	a.invalidate()
	return c.JSON(http.StatusCreated, map[string]any{
		"success":         true,
		"message":         "Blog post generated successfully",
		"post":            res.Post,
		"imagePrompts":    res.ImagePrompts,
		"metaDescription": res.MetaDescription,
		"keywords":        res.Keywords,
	})
}

func (a *App) apiGetSchedule(c echo.Context) error {
	sched, err := a.Schedules.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sched)
}

func (a *App) apiSaveSchedule(c echo.Context) error {
	var sched generation.Schedule
	if err := c.Bind(&sched); err != nil {
		return badRequest("invalid JSON body")
	}
	saved, err := a.Schedules.Save(c.Request().Context(), sched)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved)
}

func (a *App) apiGenerationLogs(c echo.Context) error {
	logs, err := a.GenLogs.List(c.Request().Context(), queryInt(c.QueryParam("limit"), 10))
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []generation.LogEntry{}
	}
	return c.JSON(http.StatusOK, logs)
}

func (a *App) apiStats(c echo.Context) error {
	stats, err := a.Store.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
