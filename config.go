package fitpress

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"gopkg.in/yaml.v3"

	"github.com/eringen/fitpress/database"
	"github.com/eringen/fitpress/llm"
)

// SiteConfig holds all configuration for a fitpress site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "FitPress")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD

	Addr     string          `yaml:"addr"` // Listen address (default ":3000")
	Database database.Config `yaml:"database"`

	AdminEmail    string `yaml:"admin_email"`    // Admin login email (default "admin@localhost")
	AdminPassword string `yaml:"admin_password"` // Required
	SessionSecret string `yaml:"session_secret"` // Required
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	// CronSecret authorises POST /api/scheduled-blog-generation. Empty
	// disables the endpoint.
	CronSecret string     `yaml:"cron_secret"`
	LLM        llm.Config `yaml:"llm"`

	PageSize         int           `yaml:"page_size"`          // Posts per page (default 10)
	TaxonomyCacheTTL time.Duration `yaml:"taxonomy_cache_ttl"` // default 5m
	GenerateLimit    int           `yaml:"generate_limit"`     // Generations per IP per hour (default 10)
	StaticDir        string        `yaml:"static_dir"`         // default "public"

	LogLevel  string `yaml:"log_level"`  // default "info"
	LogFormat string `yaml:"log_format"` // "json" or "console" (default)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "FitPress"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Description == "" {
		c.Description = "Workouts, nutrition and recovery, explained."
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = string(database.SQLite)
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/fitpress.db"
	}
	if c.AdminEmail == "" {
		c.AdminEmail = "admin@localhost"
	}
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	if c.TaxonomyCacheTTL == 0 {
		c.TaxonomyCacheTTL = 5 * time.Minute
	}
	if c.GenerateLimit <= 0 {
		c.GenerateLimit = 10
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
}

// Validate reports missing required settings.
func (c *SiteConfig) Validate() error {
	if c.AdminPassword == "" {
		return errors.New("fitpress: AdminPassword is required")
	}
	if c.SessionSecret == "" {
		return errors.New("fitpress: SessionSecret is required")
	}
	if len(c.SessionSecret) < 16 {
		return errors.New("fitpress: SessionSecret must be at least 16 bytes")
	}
	return nil
}

// LoadConfig reads the optional YAML file at path, then applies environment
// overrides. Defaults are filled by New.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "read config %q", path)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %q", path)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *SiteConfig) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("SITE_NAME", &c.Name)
	str("SITE_URL", &c.URL)
	str("SITE_DESCRIPTION", &c.Description)
	str("SITE_AUTHOR", &c.Author)
	str("ADDR", &c.Addr)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_PATH", &c.Database.Path)
	str("DATABASE_URL", &c.Database.DSN)
	str("ADMIN_EMAIL", &c.AdminEmail)
	str("ADMIN_PASSWORD", &c.AdminPassword)
	str("SESSION_SECRET", &c.SessionSecret)
	str("CRON_SECRET", &c.CronSecret)
	str("OPENAI_BASE_URL", &c.LLM.BaseURL)
	str("OPENAI_API_KEY", &c.LLM.APIKey)
	str("OPENAI_MODEL", &c.LLM.Model)
	str("STATIC_DIR", &c.StaticDir)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	// postgres DATABASE_URL without an explicit driver implies postgres
	if c.Database.DSN != "" && os.Getenv("DATABASE_DRIVER") == "" &&
		strings.HasPrefix(c.Database.DSN, "postgres") {
		c.Database.Driver = string(database.Postgres)
	}

	if v, ok := os.LookupEnv("COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "COOKIE_SECURE")
		}
		c.CookieSecure = b
	}
	if v, ok := os.LookupEnv("PAGE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "PAGE_SIZE")
		}
		c.PageSize = n
	}
	if v, ok := os.LookupEnv("TAXONOMY_CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(err, "TAXONOMY_CACHE_TTL")
		}
		c.TaxonomyCacheTTL = d
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets and uploads.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}

// WithDatabase uses an already opened and migrated database instead of
// opening Config.Database. The caller keeps ownership of db.
func WithDatabase(db *database.DB) Option {
	return func(a *App) {
		a.DB = db
	}
}

// WithCompleter replaces the HTTP completion client.
func WithCompleter(c llm.Completer) Option {
	return func(a *App) {
		a.completer = c
	}
}

// WithClock replaces time.Now for scheduled runs.
func WithClock(fn func() time.Time) Option {
	return func(a *App) {
		a.clock = fn
	}
}
