package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/simonhull/firebird-suite/roost/internal/naming"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// configTemplate is the template set for config singletons.
const configTemplate = "templates/config.go.tmpl"

// Renderer parses embedded template sets once and executes named templates
// from them. It is safe for concurrent use.
type Renderer struct {
	funcMap template.FuncMap
	cache   map[string]*template.Template
	mu      sync.RWMutex
}

// NewRenderer creates a renderer with roost's helper functions.
func NewRenderer() *Renderer {
	return &Renderer{
		funcMap: defaultFuncMap(),
		cache:   make(map[string]*template.Template),
	}
}

// Render executes the template called name from the set at path.
func (r *Renderer) Render(path, name string, data any) ([]byte, error) {
	set, err := r.load(path)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render template '%s' from '%s': %w", name, path, err)
	}
	return buf.Bytes(), nil
}

// load returns the parsed set at path, parsing it on first use
func (r *Renderer) load(path string) (*template.Template, error) {
	r.mu.RLock()
	if set, ok := r.cache[path]; ok {
		r.mu.RUnlock()
		return set, nil
	}
	r.mu.RUnlock()

	src, err := templatesFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template from fs '%s': %w", path, err)
	}

	set, err := template.New(path).Funcs(r.funcMap).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", path, err)
	}

	r.mu.Lock()
	r.cache[path] = set
	r.mu.Unlock()

	return set, nil
}

func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"pascalCase": naming.Pascal,     // log_level → LogLevel
		"camelCase":  naming.LowerCamel, // log_level → logLevel
		"snakeCase":  naming.Snake,      // LogLevel → log_level
		"comment":    comment,           // text → // text
		"join":       strings.Join,
		"trim":       strings.TrimSpace,
	}
}
