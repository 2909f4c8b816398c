// Package tmpldir loads text/template files from a directory tree and
// adapts them to the mailer template contracts.
package tmpldir

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
	"text/template"

	"github.com/inkwell-press/mailer"
)

var _ mailer.Loader = (*Loader)(nil)

// Loader resolves template names against a filesystem root. Parsed
// templates are cached; the cache stores parsed structure only, so a
// Loader is safe for concurrent use.
type Loader struct {
	fsys  fs.FS
	cache map[string]*Template
	mu    sync.RWMutex
}

// New returns a Loader rooted at dir on the local filesystem.
func New(dir string) *Loader {
	return NewFS(os.DirFS(dir))
}

// FromConfig returns a Loader for the configured template path, or nil
// when no path is configured.
func FromConfig(cfg mailer.Config) mailer.Loader {
	if cfg.TemplatePath == "" {
		return nil
	}
	return New(cfg.TemplatePath)
}

// NewFS returns a Loader over an arbitrary filesystem, e.g. an embed.FS.
func NewFS(fsys fs.FS) *Loader {
	return &Loader{
		fsys:  fsys,
		cache: make(map[string]*Template),
	}
}

// Load implements mailer.Loader.
func (l *Loader) Load(name string) (any, error) {
	tmpl, err := l.load(name)
	if err != nil {
		return nil, err
	}
	return tmpl, nil
}

func (l *Loader) load(name string) (*Template, error) {
	l.mu.RLock()
	cached, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if cached, ok := l.cache[name]; ok {
		return cached, nil
	}

	content, err := fs.ReadFile(l.fsys, path.Clean(name))
	if err != nil {
		return nil, mailer.NewTemplateNotFoundError(name, err)
	}

	parsed, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, mailer.NewRenderError(fmt.Sprintf("parse template %s", name), err)
	}

	tmpl := &Template{tmpl: parsed}
	l.cache[name] = tmpl
	return tmpl, nil
}

var _ mailer.DirectRenderable = (*Template)(nil)

// Template is a parsed text template. A missing data key is a render
// error, not a silent blank.
type Template struct {
	tmpl *template.Template
}

// Render executes the template with data.
func (t *Template) Render(data map[string]any) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
