package fitpress

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// handleScheduledGeneration is called by an external scheduler (cron,
// Cloud Scheduler, Vercel cron) with Authorization: Bearer <CronSecret>.
func (a *App) handleScheduledGeneration(c echo.Context) error {
	if a.Config.CronSecret == "" {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(a.Config.CronSecret)) != 1 {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	run, err := a.Generator.RunScheduled(c.Request().Context(), a.now())
	if err != nil {
		a.logger.Error("scheduled generation", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to generate scheduled blog post",
		})
	}
	a.invalidate()

	return c.JSON(http.StatusOK, map[string]any{
		"success":            true,
		"message":            "Scheduled blog post generated successfully",
		"post":               run.Post,
		"nextGenerationTime": run.NextGenerationTime,
	})
}
