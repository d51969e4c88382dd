// Package templates holds the embedded HTML views and a gin renderer for them.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"github.com/gin-gonic/gin/render"
)

//go:embed html/*.html
var files embed.FS

const layout = "html/layout.html"

// ErrorPage is the generic message page.
const ErrorPage = "error.html"

var funcs = template.FuncMap{
	"fieldError": func(errs map[string]string, name string) string {
		return errs[name]
	},
	"selected": func(current, option string) bool {
		return current == option
	},
}

// Renderer implements gin's render.HTMLRender with one template set per page,
// each combining the shared layout with the page's content block.
type Renderer struct {
	pages map[string]*template.Template
}

// Load parses every page under html/ together with the layout.
func Load() (*Renderer, error) {
	names, err := fs.Glob(files, "html/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		if name == layout {
			continue
		}
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(files, layout, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimPrefix(name, "html/")] = t
	}
	if _, ok := r.pages[ErrorPage]; !ok {
		return nil, fmt.Errorf("missing %s", ErrorPage)
	}
	return r, nil
}

// Has reports whether a page is loaded.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		t = r.pages[ErrorPage]
	}
	return render.HTML{Template: t, Name: "layout", Data: data}
}
