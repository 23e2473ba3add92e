// Package web serves the browser client: four pages rendered from embedded
// templates plus their static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is one browser page
type Page struct {
	Path     string
	Template string
	Title    string
}

// Pages lists every page the client serves
var Pages = []Page{
	{Path: "/", Template: "index.html", Title: "CharacterAI"},
	{Path: "/gallery", Template: "gallery.html", Title: "Character Gallery"},
	{Path: "/create", Template: "create.html", Title: "Create Character"},
	{Path: "/chat", Template: "chat.html", Title: "Chat"},
}

type pageData struct {
	Title   string
	APIBase string
}

// Templates parses the embedded page templates
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Register mounts the pages and /static on engine. apiBase is the prefix the
// scripts call, normally "/api/v1".
func Register(engine *gin.Engine, apiBase string) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	engine.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}
	engine.StaticFS("/static", http.FS(static))

	for _, p := range Pages {
		p := p
		engine.GET(p.Path, func(c *gin.Context) {
			c.HTML(http.StatusOK, p.Template, pageData{Title: p.Title, APIBase: apiBase})
		})
	}
	return nil
}
