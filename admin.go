package fitpress

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/fitpress/content"
	"github.com/eringen/fitpress/generation"
)

const dashboardListSize = 10

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	_, ok, err := a.SignIn(c, c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		return err
	}
	if !ok {
		a.loginLimiter.Record(ip)
		return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(true, CsrfToken(c)))
	}
	a.loginLimiter.Reset(ip)
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func handleAdminLogout(c echo.Context) error {
	if err := SignOut(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func redirectWithMessage(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) handleAdminGenerate(c echo.Context) error {
	u, ok := CurrentUser(c)
	if !ok || u.Role != RoleAdmin {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if !a.generateLimiter.Allow(c.RealIP()) {
		return redirectWithMessage(c, "Generation limit reached. Try again later.")
	}
	post, err := a.Generator.Generate(c.Request().Context(), c.FormValue("category"), u.ID)
	if err != nil {
		a.logger.Warn("admin generate", zap.Error(err))
		return redirectWithMessage(c, "Generation failed: "+err.Error())
	}
	a.invalidate()
	return redirectWithMessage(c, "Generated \""+post.Title+"\"")
}

func (a *App) handleAdminPublish(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	status := content.StatusPublished
	post, err := a.Store.UpdatePost(c.Request().Context(), c.Param("id"), content.PostPatch{Status: &status})
	if err != nil {
		return err
	}
	a.invalidate()
	return redirectWithMessage(c, "Published \""+post.Title+"\"")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := a.Store.DeletePost(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	a.invalidate()
	return redirectWithMessage(c, "deleted")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	ctx := c.Request().Context()
	u, _ := CurrentUser(c)
	data := AdminDashboardData{
		Message:   strings.TrimSpace(msg),
		CSRFToken: CsrfToken(c),
		User:      u,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.Stats, err = a.Store.Stats(gctx)
		return err
	})
	g.Go(func() error {
		page, err := a.Store.ListPosts(gctx, 1, dashboardListSize, content.StatusDraft)
		if err != nil {
			return err
		}
		data.Drafts = page.Posts
		return nil
	})
	g.Go(func() error {
		page, err := a.Store.ListPosts(gctx, 1, dashboardListSize, content.StatusPublished)
		if err != nil {
			return err
		}
		data.Recent = page.Posts
		return nil
	})
	g.Go(func() (err error) {
		data.Logs, err = a.GenLogs.List(gctx, dashboardListSize)
		return err
	})
	g.Go(func() (err error) {
		var sched *generation.Schedule
		sched, err = a.Schedules.Get(gctx)
		data.Schedule = sched
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(data))
}
