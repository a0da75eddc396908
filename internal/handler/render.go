// Package handler contains the HTTP handlers for the blog. Handlers parse
// requests, call the service layer, and render HTML templates; every access
// and ownership decision happens in the services.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/avolkov/goblog/internal/model"
)

// templateData is the single payload type passed to every page template.
// Each page uses the fields it needs; CurrentUser drives the shared layout.
type templateData struct {
	Title       string
	CurrentUser *model.User

	Post     *model.Post
	Posts    []model.Post
	Comments []model.Comment

	Category    *model.Category
	Categories  []model.Category
	Locations   []model.Location
	ProfileUser *model.User

	// Pagination. Page is 1-based.
	Page     int
	HasNext  bool
	HasPrev  bool
	NextPage int
	PrevPage int

	// Form holds the re-display values after a failed submission; FormError
	// and FormField carry the validation message and the offending field.
	Form      any
	FormError string
	FormField string

	// Next is the post-login resume target carried through the login form.
	Next string

	// Error page fields.
	Status  int
	Message string
}

// formatDate renders timestamps in page bodies.
func formatDate(t time.Time) string {
	return t.Format("Jan 2, 2006 15:04")
}

// inputDate feeds <input type="datetime-local"> values.
func inputDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02T15:04")
}

var templateFuncs = template.FuncMap{
	"formatDate": formatDate,
	"inputDate":  inputDate,
}

// Renderer holds the parsed template set. Each page file is compiled together
// with base.html once at startup; requests only execute.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewRenderer parses base.html together with every other .html file in the
// template directory. Page templates fill the "content" block base.html
// declares.
func NewRenderer(templateDir string, logger *slog.Logger) (*Renderer, error) {
	pages, err := filepath.Glob(filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("globbing templates in %s: %w", templateDir, err)
	}

	base := filepath.Join(templateDir, "base.html")
	templates := make(map[string]*template.Template)

	for _, page := range pages {
		name := filepath.Base(page)
		if name == "base.html" {
			continue
		}

		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFiles(base, page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		templates[name] = tmpl
	}

	if len(templates) == 0 {
		return nil, fmt.Errorf("no page templates found in %s", templateDir)
	}

	return &Renderer{templates: templates, logger: logger}, nil
}

// Render executes a page template into a buffer first, so a mid-render
// failure becomes a clean 500 instead of a half-written page.
func (rn *Renderer) Render(w http.ResponseWriter, status int, page string, data *templateData) {
	tmpl, ok := rn.templates[page]
	if !ok {
		rn.logger.Error("unknown template requested", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		rn.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
