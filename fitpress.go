// Package fitpress is a fitness blog engine built with Go, Echo, and templ.
// It serves published posts, a JSON API, an admin dashboard, and an AI
// generation pipeline that drafts posts on demand or on a schedule.
//
// Callers provide their own templ components via the ViewFuncs struct
// (package views ships a default set), and fitpress handles the handler
// logic, middleware, and database operations.
package fitpress

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eringen/fitpress/content"
	"github.com/eringen/fitpress/database"
	"github.com/eringen/fitpress/generation"
	"github.com/eringen/fitpress/llm"
	"github.com/eringen/fitpress/log"
)

// ViewFuncs holds the templ components the app calls when rendering pages.
type ViewFuncs struct {
	Home           func(page *content.Page, categories []content.Category, meta PageMeta) templ.Component
	Category       func(cat *content.Category, page *content.Page, categories []content.Category, meta PageMeta) templ.Component
	Post           func(post *content.Post, related []content.Post, meta PageMeta) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(data AdminDashboardData) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central fitpress application. It wires together the database,
// content store, generation pipeline, handlers, middleware, and views.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	DB        *database.DB
	Store     *content.Store
	Cache     *TaxonomyCache
	Generator *generation.Generator
	Schedules *generation.ScheduleStore
	GenLogs   *generation.LogStore
	Views     ViewFuncs

	completer       llm.Completer
	loginLimiter    *RateLimiter
	generateLimiter *RateLimiter
	customRoutes    []func(*App)
	clock           func() time.Time
	logger          *zap.Logger

	// background tracks best-effort work started by handlers.
	background sync.WaitGroup
	stop       context.CancelFunc
	ownsDB     bool
	ready      bool
}

// New creates a fitpress App with the given configuration and views.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
		clock:  time.Now,
		logger: log.Logger.Named("web"),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the database (unless one was injected with WithDatabase),
// builds the stores and generation pipeline, and registers middleware and
// routes. Start calls it when needed.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}

	if a.DB == nil {
		db, err := database.OpenAndMigrate(ctx, a.Config.Database)
		if err != nil {
			return errors.Wrap(err, "fitpress: init database")
		}
		a.DB = db
		a.ownsDB = true
	}

	a.Store = content.NewStore(a.DB.DB,
		content.WithClock(a.clock),
		content.WithLogger(log.Logger.Named("content")),
		content.WithTagFetchLimit(a.DB.DB.Stats().MaxOpenConnections))
	a.Cache = NewTaxonomyCache(a.Store, a.Config.TaxonomyCacheTTL)
	a.Schedules = generation.NewScheduleStore(a.DB.DB)
	a.GenLogs = generation.NewLogStore(a.DB.DB)

	if a.completer == nil {
		a.completer = llm.NewClient(a.Config.LLM)
	}
	a.Generator = generation.NewGenerator(a.completer, a.Store, a.Schedules, a.GenLogs)

	limiterCtx, stop := context.WithCancel(context.Background())
	a.stop = stop
	a.loginLimiter = NewRateLimiter(limiterCtx, 5, time.Minute)
	a.generateLimiter = NewRateLimiter(limiterCtx, a.Config.GenerateLimit, time.Hour)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.ready = true
	return nil
}

// Start sets the app up if needed and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(context.Background()); err != nil {
		return err
	}

	a.logger.Info("listening", zap.String("addr", a.Config.Addr))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and then
// releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public pages
	e.GET("/blog", handleBlogRedirect)
	e.GET("/", a.handleHome)
	e.GET("/blog/:slug/", a.handlePost)
	e.GET("/category/:slug/", a.handleCategory)

	// Admin pages
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.POST("/admin/generate/", a.handleAdminGenerate)
	e.POST("/admin/posts/:id/publish/", a.handleAdminPublish)
	e.POST("/admin/posts/:id/delete/", a.handleAdminDelete)
	e.POST("/admin/images/upload/", a.handleImageUpload)

	// Public JSON
	api := e.Group("/api")
	api.GET("/posts", a.apiListPosts)
	api.GET("/posts/:slug", a.apiGetPost)
	api.GET("/categories", a.apiListCategories)
	api.GET("/tags", a.apiListTags)
	api.POST("/scheduled-blog-generation", a.handleScheduledGeneration)

	// Admin JSON
	admin := e.Group("/api/admin", a.requireAdminAPI)
	admin.GET("/posts", a.apiAdminListPosts)
	admin.POST("/posts", a.apiCreatePost)
	admin.GET("/posts/:id", a.apiAdminGetPost)
	admin.PUT("/posts/:id", a.apiUpdatePost)
	admin.DELETE("/posts/:id", a.apiDeletePost)
	admin.POST("/generate", a.apiGenerate)
	admin.GET("/trending-topics", a.apiTrendingTopics)
	admin.POST("/generate-trending", a.apiGenerateTrending)
	admin.GET("/schedule", a.apiGetSchedule)
	admin.PUT("/schedule", a.apiSaveSchedule)
	admin.GET("/generation-logs", a.apiGenerationLogs)
	admin.GET("/stats", a.apiStats)
}

// Close waits for background work and closes the database if the app
// opened it. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.stop != nil {
		a.stop()
	}
	a.background.Wait()
	if a.ownsDB && a.DB != nil {
		err := a.DB.Close()
		a.DB = nil
		return err
	}
	return nil
}

// now is the app clock in UTC.
func (a *App) now() time.Time {
	return a.clock().UTC()
}

// invalidate drops cached taxonomy after an admin write.
func (a *App) invalidate() {
	if a.Cache != nil {
		a.Cache.Invalidate()
	}
}
