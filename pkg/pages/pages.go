// Package pages renders the HTML surface and hosts the response helpers shared by handlers.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/silktrader/kavita/pkg/ntime"
	"github.com/silktrader/kavita/pkg/rest"
	"github.com/silktrader/kavita/pkg/session"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Page names, matching template files.
const (
	Index      = "index"
	Poem       = "poem"
	Subscribe  = "subscribe"
	AddPoem    = "add_poem"
	AdminLogin = "admin_login"
	NotFound   = "not_found"
	Error      = "error"
)

// Renderer executes page templates, each composed with the shared layout.
type Renderer struct {
	templates map[string]*template.Template
}

// view is the root value handed to templates; page specific values live in Data.
type view struct {
	Flashes []session.Flash
	IsAdmin bool
	Data    any
}

var functions = template.FuncMap{
	"date": func(nt ntime.NTime) string { return nt.Format("02 Jan 2006") },
	"ago": func(nt ntime.NTime) string {
		if !nt.IsValid() {
			return ""
		}
		return humanize.Time(nt.Time())
	},
	"count": func(n int64) string { return humanize.Comma(n) },
	"add":  func(a, b int) int { return a + b },
	"sub":  func(a, b int) int { return a - b },
	// paragraphs splits poem bodies on blank lines, keeping single line breaks
	"paragraphs": func(body string) []string {
		return strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n")
	},
}

func New() (*Renderer, error) {
	pageFiles, err := fs.Glob(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}

	var renderer = Renderer{templates: make(map[string]*template.Template)}
	for _, file := range pageFiles {
		var name = strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		if name == "layout" {
			continue
		}
		page, err := template.New("layout.html").Funcs(functions).ParseFS(templateFiles, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		renderer.templates[name] = page
	}
	return &renderer, nil
}

// Render writes the page with the given status. Pending flashes are consumed, hence the session is saved first.
func (p *Renderer) Render(w http.ResponseWriter, request *http.Request, status int, page string, data any) {
	var logger = rest.Logger(request)

	tmpl, found := p.templates[page]
	if !found {
		logger.WithField("page", page).Error("unknown page template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var s = session.FromRequest(request)
	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, view{Flashes: s.PopFlashes(), IsAdmin: s.IsAdmin(), Data: data}); err != nil {
		logger.WithError(err).WithField("page", page).Error("error while rendering page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := s.Save(w); err != nil {
		logger.WithError(err).Warning("error while saving session")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buffer.WriteTo(w)
}

func (p *Renderer) Ok(w http.ResponseWriter, request *http.Request, page string, data any) {
	p.Render(w, request, http.StatusOK, page, data)
}

func (p *Renderer) NotFound(w http.ResponseWriter, request *http.Request) {
	p.Render(w, request, http.StatusNotFound, NotFound, nil)
}

// NotFoundHandler renders the not found page for unmatched routes.
func (p *Renderer) NotFoundHandler() http.Handler {
	return http.HandlerFunc(p.NotFound)
}

// InternalServerError logs the cause and renders a generic page, hiding details from visitors.
func (p *Renderer) InternalServerError(w http.ResponseWriter, request *http.Request, err error) {
	rest.Logger(request).WithError(err).Error("internal server error")
	p.Render(w, request, http.StatusInternalServerError, Error, nil)
}

// Flash queues a message for the next rendered page.
func Flash(request *http.Request, category, message string) {
	session.FromRequest(request).AddFlash(category, message)
}

// Redirect saves the session, so that queued flashes survive, and redirects to location.
func Redirect(w http.ResponseWriter, request *http.Request, location string) {
	if err := session.FromRequest(request).Save(w); err != nil {
		rest.Logger(request).WithError(err).Warning("error while saving session")
	}
	http.Redirect(w, request, location, http.StatusFound)
}

// RedirectWithFlash is a shorthand for the common validation failure response.
func RedirectWithFlash(w http.ResponseWriter, request *http.Request, location, category, message string) {
	Flash(request, category, message)
	Redirect(w, request, location)
}
