package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/mesh-intelligence/crudweb/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page template names. Each page is parsed together with layout.html.
const (
	pageIndex  = "index.html"
	pageRead   = "read.html"
	pageCreate = "create.html"
	pageUpdate = "update.html"
	pageSearch = "search.html"
	pageError  = "error.html"
)

var pageNames = []string{pageIndex, pageRead, pageCreate, pageUpdate, pageSearch, pageError}

// pageData is the single view model shared by all pages.
type pageData struct {
	Records    []types.Record
	Record     types.Record
	Query      string
	Field      string
	Status     int
	StatusText string
	Message    string
}

// pages holds one parsed template set per page.
type pages map[string]*template.Template

// parsePages parses every page against the shared layout.
func parsePages() (pages, error) {
	p := make(pages, len(pageNames))
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		p[name] = t
	}
	return p, nil
}

// render executes the named page into a buffer and writes it with status.
// A template failure produces a plain 500 so no partial page is sent.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	t, ok := s.pages[name]
	if !ok {
		s.serverError(w, r, fmt.Errorf("unknown page %q", name))
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		requestLogger(r.Context(), s.logger).Error("rendering page", "page", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderError writes the error page.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, pageError, pageData{
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    message,
	})
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	s.renderError(w, r, http.StatusBadRequest, message)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, message string) {
	s.renderError(w, r, http.StatusNotFound, message)
}

// serverError logs err and renders a generic 500 page; storage details
// never reach the client.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	requestLogger(r.Context(), s.logger).Error("request failed", "err", err)
	s.renderError(w, r, http.StatusInternalServerError, "The request could not be completed.")
}
