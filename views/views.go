// Package views is the default HTML theme for fitpress. Pages are
// html/template files embedded in the binary and exposed as templ
// components.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/fitpress"
	"github.com/eringen/fitpress/content"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"home", "category", "post", "admin_login", "admin_dashboard", "not_found", "server_error",
}

// theme holds one parsed template set per page, each sharing the layout.
type theme struct {
	cfg   fitpress.SiteConfig
	pages map[string]*template.Template
}

func load(cfg fitpress.SiteConfig) (*theme, error) {
	base, err := template.New("layout.html").Funcs(funcs(cfg)).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}
	t := &theme{cfg: cfg, pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if t.pages[name], err = clone.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *theme) component(page string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return t.pages[page].ExecuteTemplate(w, "layout", data)
	})
}

type pageData struct {
	Site fitpress.SiteConfig
	Meta fitpress.PageMeta

	Page       *content.Page
	Categories []content.Category
	Category   *content.Category
	BaseURL    string

	Post    *content.Post
	Related []content.Post

	ShowError bool
	CSRFToken string
	Admin     *fitpress.AdminDashboardData
}

func (t *theme) simpleMeta(title string) fitpress.PageMeta {
	return fitpress.PageMeta{Title: title + " | " + t.cfg.Name, SiteName: t.cfg.Name, OGType: "website"}
}

// Default returns the built-in views. It panics if the embedded templates
// fail to parse, which only happens on a broken build.
func Default(cfg fitpress.SiteConfig) fitpress.ViewFuncs {
	t, err := load(cfg)
	if err != nil {
		panic("views: parse templates: " + err.Error())
	}
	return fitpress.ViewFuncs{
		Home: func(page *content.Page, categories []content.Category, meta fitpress.PageMeta) templ.Component {
			return t.component("home", pageData{Site: cfg, Meta: meta, Page: page, Categories: categories, BaseURL: "/"})
		},
		Category: func(cat *content.Category, page *content.Page, categories []content.Category, meta fitpress.PageMeta) templ.Component {
			return t.component("category", pageData{
				Site: cfg, Meta: meta, Page: page, Categories: categories, Category: cat,
				BaseURL: "/category/" + cat.Slug + "/",
			})
		},
		Post: func(post *content.Post, related []content.Post, meta fitpress.PageMeta) templ.Component {
			return t.component("post", pageData{Site: cfg, Meta: meta, Post: post, Related: related})
		},
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			return t.component("admin_login", pageData{
				Site: cfg, Meta: t.simpleMeta("Admin"), ShowError: showError, CSRFToken: csrfToken,
			})
		},
		AdminDashboard: func(data fitpress.AdminDashboardData) templ.Component {
			return t.component("admin_dashboard", pageData{
				Site: cfg, Meta: t.simpleMeta("Dashboard"), CSRFToken: data.CSRFToken, Admin: &data,
			})
		},
		NotFound: func() templ.Component {
			return t.component("not_found", pageData{Site: cfg, Meta: t.simpleMeta("Not found")})
		},
		ServerError: func() templ.Component {
			return t.component("server_error", pageData{Site: cfg, Meta: t.simpleMeta("Error")})
		},
	}
}
