// Package views builds the HTML template set served by the router.
package views

import (
	"html/template"
	"io/fs"
	"time"

	"github.com/dustin/go-humanize"
)

// FuncMap returns the helpers available to every template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"timeago": TimeAgo,
	}
}

// TimeAgo renders t relative to now, e.g. "3 minutes ago".
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// Load parses every template under templates/ in fsys. Pages are addressed by
// the name they define, e.g. "links/list".
func Load(fsys fs.FS) (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(fsys, "templates/*.html", "templates/*/*.html")
}
