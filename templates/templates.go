// Package templates renders the server-side HTML pages from an embedded
// template set.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"
)

//go:embed html/*.html
var files embed.FS

type Renderer struct {
	set *template.Template
}

func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"datetime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},
		"preview": func(s string) string {
			const limit = 30
			runes := []rune(s)
			if len(runes) <= limit {
				return s
			}
			return string(runes[:limit]) + "…"
		},
	}

	set, err := template.New("").Funcs(funcs).ParseFS(files, "html/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{set: set}, nil
}

// Bytes renders a template into memory. The home handler uses this so the
// rendered body can go into the page cache before it is written out.
func (r *Renderer) Bytes(name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.set.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render writes a page with the given status code. A template failure at
// this point can only surface as a 500, the header has not been sent yet.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data interface{}) {
	body, err := r.Bytes(name, data)
	if err != nil {
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

// NotFound renders the generic 404 page.
func (r *Renderer) NotFound(w http.ResponseWriter) {
	r.Render(w, http.StatusNotFound, "not_found.html", nil)
}
