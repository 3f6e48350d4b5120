// Package renderer implements the host side of the module system's
// rendering callbacks: named-template rendering over html/template and
// static URL rewriting for authored HTML.
//
// Templates resolve from an optional template directory first, then from
// the built-in defaults, so courses can override how standard content types
// look without forking the server.
package renderer

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// templateFuncs are available in every template. htmlSafe marks
// already-rendered module HTML so it is not double-escaped; module output
// is escaped at its source.
var templateFuncs = template.FuncMap{
	"htmlSafe": func(s string) template.HTML { return template.HTML(s) },
}

// TemplateRenderer renders named templates with a context map.
type TemplateRenderer struct {
	templateDir string

	mu       sync.RWMutex
	compiled map[string]*template.Template
}

// NewTemplateRenderer creates a renderer. templateDir may be empty, in
// which case only the built-in templates are available.
func NewTemplateRenderer(templateDir string) *TemplateRenderer {
	return &TemplateRenderer{
		templateDir: templateDir,
		compiled:    make(map[string]*template.Template),
	}
}

// Render renders the named template to HTML. The compiled form is cached;
// course template overrides are picked up on first use.
func (r *TemplateRenderer) Render(name string, context map[string]interface{}) (string, error) {
	tmpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, context); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return b.String(), nil
}

// Invalidate drops the compiled template cache. Called when course files
// change so template overrides reload.
func (r *TemplateRenderer) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compiled = make(map[string]*template.Template)
}

func (r *TemplateRenderer) lookup(name string) (*template.Template, error) {
	if err := validateTemplateName(name); err != nil {
		return nil, err
	}

	r.mu.RLock()
	tmpl, ok := r.compiled[name]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	source, err := r.source(name)
	if err != nil {
		return nil, err
	}

	tmpl, err = template.New(name).Funcs(templateFuncs).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}

	r.mu.Lock()
	r.compiled[name] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}

func (r *TemplateRenderer) source(name string) (string, error) {
	if r.templateDir != "" {
		path := filepath.Join(r.templateDir, name)
		if data, err := os.ReadFile(path); err == nil {
			return string(data), nil
		}
	}

	if source, ok := defaultTemplates[name]; ok {
		return source, nil
	}

	return "", fmt.Errorf("unknown template %s", name)
}

// validateTemplateName rejects names that would escape the template
// directory.
func validateTemplateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty template name")
	}
	clean := filepath.Clean(name)
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid template name: %s", name)
	}
	return nil
}
