package renderer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDefaultTemplate(t *testing.T) {
	r := NewTemplateRenderer("")

	out, err := r.Render("container.html", map[string]interface{}{
		"DisplayName": "Week 1",
		"Items": []map[string]interface{}{
			{"DisplayName": "Intro", "Location": "i4x://o/c/sequential/s1", "IconClass": "video"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Week 1")
	assert.Contains(t, out, "Intro")
}

func TestRenderEscapes(t *testing.T) {
	r := NewTemplateRenderer("")

	out, err := r.Render("container.html", map[string]interface{}{
		"DisplayName": "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>alert(1)</script>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := NewTemplateRenderer("")
	_, err := r.Render("nope.html", nil)
	assert.Error(t, err)
}

func TestRenderRejectsTraversal(t *testing.T) {
	r := NewTemplateRenderer(t.TempDir())

	for _, name := range []string{"", "../secrets.html", "/etc/passwd", "a/../../b.html"} {
		_, err := r.Render(name, nil)
		assert.Error(t, err, "name %q must be rejected", name)
	}
}

func TestTemplateDirOverride(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "container.html")
	require.NoError(t, os.WriteFile(override, []byte("custom: {{.DisplayName}}"), 0o644))

	r := NewTemplateRenderer(dir)
	out, err := r.Render("container.html", map[string]interface{}{"DisplayName": "X"})
	require.NoError(t, err)
	assert.Equal(t, "custom: X", out)

	// The compiled form is cached until invalidated.
	require.NoError(t, os.WriteFile(override, []byte("changed: {{.DisplayName}}"), 0o644))
	out, err = r.Render("container.html", map[string]interface{}{"DisplayName": "X"})
	require.NoError(t, err)
	assert.Equal(t, "custom: X", out)

	r.Invalidate()
	out, err = r.Render("container.html", map[string]interface{}{"DisplayName": "X"})
	require.NoError(t, err)
	assert.Equal(t, "changed: X", out)
}

func TestDefaultTemplatesCompile(t *testing.T) {
	r := NewTemplateRenderer("")
	for name := range defaultTemplates {
		_, err := r.lookup(name)
		assert.NoError(t, err, "template %s must compile", name)
	}
}

func TestURLRewrite(t *testing.T) {
	r := NewURLRewriter("/assets")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "img src",
			in:   `<img src="/static/diagram.png"/>`,
			want: `<img src="/assets/diagram.png"/>`,
		},
		{
			name: "anchor href",
			in:   `<a href="/static/notes.pdf">notes</a>`,
			want: `<a href="/assets/notes.pdf">notes</a>`,
		},
		{
			name: "non-static urls untouched",
			in:   `<a href="https://example.com/static-site">x</a>`,
			want: `<a href="https://example.com/static-site">x</a>`,
		},
		{
			name: "no static references returns input unchanged",
			in:   `<p>plain</p>`,
			want: `<p>plain</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Rewrite(tt.in))
		})
	}
}

func TestURLRewriteNested(t *testing.T) {
	r := NewURLRewriter("/assets/")
	out := r.Rewrite(`<div><p>see <img src="/static/a.png"/> and <video poster="/static/b.jpg"></video></p></div>`)
	assert.Contains(t, out, `src="/assets/a.png"`)
	assert.Contains(t, out, `poster="/assets/b.jpg"`)
}

func TestNewURLRewriterAddsSlash(t *testing.T) {
	assert.Equal(t, "/assets/", NewURLRewriter("/assets").TargetPrefix)
	assert.Equal(t, "/assets/", NewURLRewriter("/assets/").TargetPrefix)
}
