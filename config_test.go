package fitpress

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSetDefaults(t *testing.T) {
	var cfg SiteConfig
	cfg.setDefaults()

	if cfg.Name != "FitPress" || cfg.Addr != ":3000" || cfg.PageSize != 10 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "data/fitpress.db" {
		t.Fatalf("unexpected database defaults %+v", cfg.Database)
	}
	if cfg.TaxonomyCacheTTL != 5*time.Minute || cfg.StaticDir != "public" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  SiteConfig
		ok   bool
	}{
		{"missing password", SiteConfig{SessionSecret: "0123456789abcdef"}, false},
		{"missing secret", SiteConfig{AdminPassword: "pw"}, false},
		{"short secret", SiteConfig{AdminPassword: "pw", SessionSecret: "short"}, false},
		{"ok", SiteConfig{AdminPassword: "pw", SessionSecret: "0123456789abcdef"}, true},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitpress.yaml")
	yaml := `
name: Lift Log
url: https://lift.example.com
admin_password: from-file
session_secret: 0123456789abcdef0123
page_size: 5
taxonomy_cache_ttl: 30s
database:
  driver: sqlite
  path: /tmp/lift.db
llm:
  model: gpt-4o-mini
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ADMIN_PASSWORD", "from-env")
	t.Setenv("PAGE_SIZE", "7")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "Lift Log" || cfg.URL != "https://lift.example.com" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.AdminPassword != "from-env" || cfg.PageSize != 7 || !cfg.CookieSecure {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.TaxonomyCacheTTL != 30*time.Second || cfg.LLM.Model != "gpt-4o-mini" || cfg.Database.Path != "/tmp/lift.db" {
		t.Fatalf("nested values lost: %+v", cfg)
	}
}

func TestLoadConfigPostgresURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://fit:pw@localhost/fit")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN == "" {
		t.Fatalf("expected postgres driver, got %+v", cfg.Database)
	}
}

func TestLoadConfigBadEnv(t *testing.T) {
	t.Setenv("PAGE_SIZE", "ten")
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for bad PAGE_SIZE")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
