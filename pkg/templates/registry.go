package templates

import (
	"bytes"
	"embed"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"finsight/pkg/errors"
)

//go:embed assets/**/*.tmpl
var embeddedFS embed.FS

const ext = ".tmpl"

// Template is a parsed prompt or notification template, addressed by its
// slash-separated path without extension ("prompts/market_news")
type Template struct {
	ID     string
	parsed *template.Template
}

// Render executes the template. Missing keys are errors, not "<no value>".
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.parsed.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "render template %s", t.ID)
	}
	return buf.String(), nil
}

// Registry resolves templates by ID. Templates are parsed once at load time.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Get returns the registry built from the embedded assets.
// A broken embedded template is a build defect, so Get panics on it.
func Get() *Registry {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embeddedFS, "assets")
		if err != nil {
			defaultErr = err
			return
		}
		defaultRegistry, defaultErr = NewRegistryFromFS(sub)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultRegistry
}

// NewRegistry loads every template under dir
func NewRegistry(dir string) (*Registry, error) {
	return NewRegistryFromFS(os.DirFS(dir))
}

// NewRegistryFromFS loads every *.tmpl file in fsys
func NewRegistryFromFS(fsys fs.FS) (*Registry, error) {
	r := &Registry{templates: make(map[string]*Template)}
	if err := r.Load(fsys); err != nil {
		return nil, err
	}
	return r, nil
}

// WithOverrides returns a copy of the embedded registry where templates found
// in dir replace the built-in ones. An empty dir returns the embedded registry.
func WithOverrides(dir string) (*Registry, error) {
	base := Get()
	if dir == "" {
		return base, nil
	}

	r := &Registry{templates: make(map[string]*Template, len(base.templates))}
	base.mu.RLock()
	for id, t := range base.templates {
		r.templates[id] = t
	}
	base.mu.RUnlock()

	if err := r.Load(os.DirFS(dir)); err != nil {
		return nil, err
	}
	return r, nil
}

// Load parses all templates from fsys, replacing existing IDs
func (r *Registry) Load(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ext {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return errors.Wrapf(err, "read template %s", p)
		}

		id := strings.TrimSuffix(p, ext)
		parsed, err := template.New(id).Funcs(FuncMap()).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidInput, "parse template %s: %v", id, err)
		}

		r.mu.Lock()
		r.templates[id] = &Template{ID: id, parsed: parsed}
		r.mu.Unlock()
		return nil
	})
}

// GetTemplate returns the template with the given ID or ErrNotFound
func (r *Registry) GetTemplate(id string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "template %s", id)
	}
	return t, nil
}

// Render executes a template by ID
func (r *Registry) Render(id string, data any) (string, error) {
	t, err := r.GetTemplate(id)
	if err != nil {
		return "", err
	}
	return t.Render(data)
}

// List returns all template IDs, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
