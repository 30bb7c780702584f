// Package sakuragi renders a status page of the loaded tracks.
package sakuragi

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/Masterminds/sprig/v3"
	"go.uber.org/zap"
	"nyiyui.ca/hato/kidou/edit"
)

//go:embed index.html
var templates embed.FS

type Page struct {
	s *edit.Session
	t *template.Template
}

func New(s *edit.Session) *Page {
	return &Page{
		s: s,
		t: template.Must(template.New("index").Funcs(sprig.FuncMap()).ParseFS(templates, "*.html")),
	}
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := p.t.ExecuteTemplate(w, "index", map[string]interface{}{
		"index":  p.s.IndexPath(),
		"tracks": p.s.Tracks(),
		"now":    time.Now().Format("15:04:05"),
	})
	if err != nil {
		zap.S().Errorw("render index failed", "err", err)
	}
}
