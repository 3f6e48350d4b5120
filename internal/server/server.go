// Package server implements the courseware HTTP server: rendered module
// pages, ajax dispatch to modules, course static assets and a WebSocket
// live-reload channel used when course files change on disk.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coursegrid/coursegrid/internal/config"
	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/logging"
	"github.com/coursegrid/coursegrid/internal/runtime"
)

// Server serves rendered courseware for one course tree.
type Server struct {
	config *config.Config
	host   *runtime.Host
	logger logging.Logger
	hub    *reloadHub

	mu   sync.RWMutex
	root course.Descriptor

	httpServer *http.Server
}

// New creates a server for the given runtime host and course root.
func New(cfg *config.Config, host *runtime.Host, root course.Descriptor, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Server{
		config: cfg,
		host:   host,
		logger: logger.WithComponent("server"),
		hub:    newReloadHub(logger),
		root:   root,
	}
}

// Root returns the current course root.
func (s *Server) Root() course.Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// SetRoot swaps the course root after a re-import and tells connected
// browsers to reload.
func (s *Server) SetRoot(root course.Descriptor) {
	s.mu.Lock()
	s.root = root
	s.mu.Unlock()

	s.hub.broadcast(reloadMessage{Type: "full_reload"})
}

// Handler builds the route table. Routing is by prefix rather than
// http.ServeMux because location URLs in paths contain "//", which the mux
// would clean and redirect away.
func (s *Server) Handler() http.Handler {
	var fileServer http.Handler
	if s.config.Course.StaticDir != "" {
		fileServer = http.StripPrefix("/static/",
			http.FileServer(http.Dir(s.config.Course.StaticDir)))
	}

	return s.withRequestLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case path == "/":
			s.requireMethod(w, r, http.MethodGet, s.handleIndex)
		case strings.HasPrefix(path, "/courseware/"):
			s.requireMethod(w, r, http.MethodGet, s.handleCourseware)
		case strings.HasPrefix(path, "/ajax/"):
			s.requireMethod(w, r, http.MethodPost, s.handleAjax)
		case path == "/ws":
			s.requireMethod(w, r, http.MethodGet, s.handleWebSocket)
		case strings.HasPrefix(path, "/static/") && fileServer != nil:
			s.requireMethod(w, r, http.MethodGet, fileServer.ServeHTTP)
		default:
			http.NotFound(w, r)
		}
	}))
}

func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, method string, next http.HandlerFunc) {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	next(w, r)
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info(ctx, "server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// withRequestLog logs every request with its duration.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
