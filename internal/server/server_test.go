package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursegrid/coursegrid/internal/config"
	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/modulestore"
	"github.com/coursegrid/coursegrid/internal/plugins/builtin"
	"github.com/coursegrid/coursegrid/internal/registry"
	"github.com/coursegrid/coursegrid/internal/renderer"
	"github.com/coursegrid/coursegrid/internal/runtime"
	"github.com/coursegrid/coursegrid/internal/statestore"
	"github.com/coursegrid/coursegrid/internal/tracker"
)

const testCourseXML = `<course org="edX" course="demo" url_name="2026" display_name="Demo Course">
	<sequential url_name="seq1">
		<problem url_name="p1" answer="42">What is 6 x 7?</problem>
	</sequential>
</course>`

func newTestServer(t *testing.T) (*Server, *modulestore.Store) {
	t.Helper()

	reg := registry.New(nil)
	for _, factory := range []registry.DescriptorFactory{
		builtin.CourseFactory{},
		builtin.SequenceFactory{},
		builtin.ProblemFactory{},
		builtin.ErrorFactory{},
	} {
		reg.Register("builtin", factory)
	}

	fsys := fstest.MapFS{"course.xml": &fstest.MapFile{Data: []byte(testCourseXML)}}
	store := modulestore.NewStore()
	importer := modulestore.NewImporter(reg, store, nil)
	root, err := importer.ImportCourse(context.Background(), fsys, "", "")
	require.NoError(t, err)

	states, err := statestore.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { states.Close() })

	events, err := tracker.New(nil, "")
	require.NoError(t, err)

	host := &runtime.Host{
		Store:     store,
		States:    states,
		Renderer:  renderer.NewTemplateRenderer(""),
		Rewriter:  renderer.NewURLRewriter("/static/"),
		Tracker:   events,
		Resources: fsys,
	}

	cfg := &config.Config{}
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 0

	return New(cfg, host, root, nil), store
}

func TestIndexRedirectsToCourseRoot(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/courseware/i4x://edX/demo/course/2026", rec.Header().Get("Location"))
}

func TestCoursewarePage(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/courseware/i4x://edX/demo/problem/p1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "What is 6 x 7?")
	assert.Contains(t, body, "<!DOCTYPE html>", "module HTML is wrapped in the layout")
}

func TestCoursewareBadLocation(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/courseware/not-a-location", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCoursewareUnknownLocation(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/courseware/i4x://edX/demo/problem/ghost", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCoursewareNoStudentView(t *testing.T) {
	srv, store := newTestServer(t)

	// A bare descriptor has no RenderHTML of its own.
	loc := course.NewLocation("edX", "demo", "widget", "w1")
	store.Put(course.NewBaseDescriptor(nil, loc, nil, course.DescriptorOptions{}))

	req := httptest.NewRequest(http.MethodGet, "/courseware/"+loc.URL(), nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestAjaxDispatchAndPersistence(t *testing.T) {
	srv, _ := newTestServer(t)
	locURL := "i4x://edX/demo/problem/p1"

	form := url.Values{"answer": {"42"}}
	req := httptest.NewRequest(http.MethodPost, "/ajax/"+locURL+"/check",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "student", Value: "alice"})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"correct": true, "attempts": 1}`, rec.Body.String())

	// The graded state shows on the next page load for the same student.
	req = httptest.NewRequest(http.MethodGet, "/courseware/"+locURL, nil)
	req.AddCookie(&http.Cookie{Name: "student", Value: "alice"})
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "correct")

	// A different student still has a clean slate.
	req = httptest.NewRequest(http.MethodGet, "/courseware/"+locURL, nil)
	req.AddCookie(&http.Cookie{Name: "student", Value: "bob"})
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "(1 attempts)")
}

func TestAjaxBadPaths(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ajax/nodispatch", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/ajax/not-a-location/check", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/ajax/i4x://edX/demo/problem/ghost/check", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ajax/i4x://edX/demo/problem/p1/check", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAjaxEmptyResponseBecomesJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	// Unknown dispatches return an empty body from the module.
	req := httptest.NewRequest(http.MethodPost, "/ajax/i4x://edX/demo/problem/p1/bogus", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{}", rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestStudentIDResolution(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?student=alice", nil)
	assert.Equal(t, "alice", studentID(rec, req))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "student=alice")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "student", Value: "bob"})
	assert.Equal(t, "bob", studentID(httptest.NewRecorder(), req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "anonymous", studentID(httptest.NewRecorder(), req))
}

func TestSetRootSwapsCourse(t *testing.T) {
	srv, _ := newTestServer(t)

	newRoot := course.NewBaseDescriptor(nil,
		course.NewLocation("edX", "demo", "course", "2027"), nil, course.DescriptorOptions{})
	srv.SetRoot(newRoot)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "/courseware/i4x://edX/demo/course/2027", rec.Header().Get("Location"))
}
