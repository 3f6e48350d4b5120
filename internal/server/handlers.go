package server

import (
	"net/http"
	"strings"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/errors"
)

// studentID identifies the student for a request. A student cookie wins;
// the student query parameter sets it; anonymous otherwise.
func studentID(w http.ResponseWriter, r *http.Request) string {
	if student := r.URL.Query().Get("student"); student != "" {
		http.SetCookie(w, &http.Cookie{Name: "student", Value: student, Path: "/"})
		return student
	}
	if cookie, err := r.Cookie("student"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return "anonymous"
}

// handleIndex redirects to the course root's rendered page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	root := s.Root()
	http.Redirect(w, r, "/courseware/"+root.Location().URL(), http.StatusFound)
}

// handleCourseware renders the module at /courseware/{location} for the
// requesting student.
func (s *Server) handleCourseware(w http.ResponseWriter, r *http.Request) {
	locURL := strings.TrimPrefix(r.URL.Path, "/courseware/")
	loc, err := course.ParseLocation(locURL)
	if err != nil {
		http.Error(w, "invalid location: "+err.Error(), http.StatusBadRequest)
		return
	}

	student := studentID(w, r)
	module, err := s.host.ModuleFor(r.Context(), student, loc)
	if err != nil {
		s.logger.Error(r.Context(), err, "instantiating module", "location", loc.URL())
		http.Error(w, "content not found", http.StatusNotFound)
		return
	}

	content, err := module.RenderHTML(r.Context())
	if err != nil {
		if errors.IsNotImplemented(err) {
			http.Error(w, "content type has no student view", http.StatusNotImplemented)
			return
		}
		s.logger.Error(r.Context(), err, "rendering module", "location", loc.URL())
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	page, err := s.host.Renderer.Render("layout.html", map[string]interface{}{
		"Title":   module.DisplayName(),
		"Content": content,
	})
	if err != nil {
		s.logger.Error(r.Context(), err, "rendering layout", "location", loc.URL())
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

// handleAjax dispatches /ajax/{location}/{dispatch} to the module and
// persists any state the call mutated.
func (s *Server) handleAjax(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/ajax/")
	slash := strings.LastIndex(rest, "/")
	if slash < 0 {
		http.Error(w, "ajax path must be /ajax/{location}/{dispatch}", http.StatusBadRequest)
		return
	}
	locURL, dispatch := rest[:slash], rest[slash+1:]

	loc, err := course.ParseLocation(locURL)
	if err != nil {
		http.Error(w, "invalid location: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	student := studentID(w, r)
	module, err := s.host.ModuleFor(r.Context(), student, loc)
	if err != nil {
		http.Error(w, "content not found", http.StatusNotFound)
		return
	}

	response, err := module.HandleAjax(r.Context(), dispatch, r.PostForm)
	if err != nil {
		s.logger.Error(r.Context(), err, "ajax dispatch failed",
			"location", loc.URL(), "dispatch", dispatch)
		http.Error(w, "dispatch failed", http.StatusBadRequest)
		return
	}

	if err := s.host.SaveState(r.Context(), student, module); err != nil {
		s.logger.Error(r.Context(), err, "saving module state",
			"location", loc.URL(), "student", student)
		http.Error(w, "state save failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if response == "" {
		response = "{}"
	}
	w.Write([]byte(response))
}
