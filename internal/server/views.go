package server

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"yatube/internal/config"

	"github.com/gofiber/template/html/v2"
)

//go:embed views
var viewsFS embed.FS

// newViewEngine loads the embedded templates. Template names are their paths
// under views/ without the extension, e.g. "posts/index".
func newViewEngine(cfg *config.Config) (*html.Engine, error) {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, err
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("media", func(path string) string {
		if path == "" {
			return ""
		}
		return strings.TrimSuffix(cfg.MediaURL, "/") + "/" + strings.TrimPrefix(path, "/")
	})
	engine.AddFunc("date", func(t time.Time) string {
		return t.Format("2 January 2006")
	})
	engine.AddFunc("datetime", func(t time.Time) string {
		return t.Format("2 January 2006 15:04")
	})
	engine.AddFunc("excerpt", func(text string, n int) string {
		r := []rune(text)
		if len(r) <= n {
			return text
		}
		return string(r[:n]) + "…"
	})
	engine.AddFunc("linebreaks", func(text string) []string {
		return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	})
	engine.AddFunc("selected", func(current string, id uint) bool {
		return current == uintString(id)
	})
	return engine, nil
}
