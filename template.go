package mailer

import (
	"bytes"
	"fmt"
	"io"
)

// DirectRenderable is a template that renders straight to text.
type DirectRenderable interface {
	Render(data map[string]any) (string, error)
}

// StreamRenderable is a template that writes its output to a stream.
// Buffered output is returned to callers as UTF-8 text.
type StreamRenderable interface {
	Generate(w io.Writer, data map[string]any) error
}

// Loader resolves template names to loaded templates. A loaded value
// must satisfy DirectRenderable or StreamRenderable.
type Loader interface {
	Load(name string) (any, error)
}

// resolve turns a template argument into a renderable value. Strings
// are looked up through the loader; anything else passes through.
func (m *Mailer) resolve(template any) (any, error) {
	name, ok := template.(string)
	if !ok {
		return template, nil
	}
	if m.loader == nil {
		return nil, NewConfigurationError(fmt.Sprintf("no template loader configured to resolve %q", name), nil)
	}
	return m.loader.Load(name)
}

// Render resolves template and renders it with the given data.
// Rendering failures are the caller's to handle and are returned as-is.
func (m *Mailer) Render(template any, data map[string]any) (string, error) {
	renderable, err := m.resolve(template)
	if err != nil {
		return "", err
	}

	switch t := renderable.(type) {
	case DirectRenderable:
		return t.Render(data)
	case StreamRenderable:
		var buf bytes.Buffer
		if err := t.Generate(&buf, data); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return "", NewConfigurationError(fmt.Sprintf("template %T has no render capability", renderable), nil)
	}
}
