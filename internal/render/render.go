package render

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/valyala/bytebufferpool"
)

//go:embed templates/mail/*.html
var embedFS embed.FS

// Renderer executes named HTML templates. Templates found in the override
// directory win over the embedded ones.
type Renderer struct {
	embedded *template.Template
	dir      string
	vars     map[string]interface{}
}

// parseEmbedded names every embedded template by its path relative to
// templates/, e.g. "mail/ban-notice.html".
func parseEmbedded() (*template.Template, error) {
	t := template.New("")
	err := fs.WalkDir(embedFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		content, err := embedFS.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = t.New(strings.TrimPrefix(path, "templates/")).Parse(string(content))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}
	return t, nil
}

func (r *Renderer) mergeVars(vars map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(r.vars)+len(vars))
	for k, v := range r.vars {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	return merged
}

func (r *Renderer) renderFromDir(buf *bytebufferpool.ByteBuffer, name string, vars map[string]interface{}) bool {
	filePath := filepath.Join(r.dir, name)
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return false
	}
	t, err := template.New(name).Parse(string(contents))
	if err == nil {
		err = t.Execute(buf, vars)
	}
	if err != nil {
		slog.Warn("Render template failed, falling back to embedded", "file", filePath, "error", err)
		buf.Reset()
		return false
	}
	return true
}

func (r *Renderer) RenderHTML(name string, vars map[string]interface{}) (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if !strings.HasSuffix(name, ".html") {
		name += ".html"
	}
	merged := r.mergeVars(vars)
	if r.dir != "" && r.renderFromDir(buf, name, merged) {
		return buf.String(), nil
	}
	if err := r.embedded.ExecuteTemplate(buf, name, merged); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// New creates a renderer. tmplDir may be empty to use only embedded templates.
func New(globalVars map[string]interface{}, tmplDir string) (*Renderer, error) {
	if tmplDir != "" {
		info, err := os.Stat(tmplDir)
		if err != nil {
			return nil, fmt.Errorf("template directory does not exist: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("template path is not a directory: %s", tmplDir)
		}
	}
	embedded, err := parseEmbedded()
	if err != nil {
		return nil, err
	}
	return &Renderer{
		embedded: embedded,
		dir:      tmplDir,
		vars:     globalVars,
	}, nil
}
