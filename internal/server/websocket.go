package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/coursegrid/coursegrid/internal/logging"
)

// writeWait is the time allowed to deliver a reload message to a browser.
const writeWait = 10 * time.Second

type reloadMessage struct {
	Type string `json:"type"`
}

// reloadHub tracks connected browsers and pushes reload messages when the
// course changes on disk.
type reloadHub struct {
	logger logging.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newReloadHub(logger logging.Logger) *reloadHub {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &reloadHub{
		logger: logger.WithComponent("websocket"),
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

func (h *reloadHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *reloadHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// broadcast sends a message to every connected browser, dropping
// connections that fail.
func (h *reloadHub) broadcast(msg reloadMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			h.remove(conn)
			conn.Close(websocket.StatusNormalClosure, "")
		}
	}
}

// handleWebSocket upgrades the connection and parks it in the hub until the
// browser goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	s.hub.add(conn)
	defer func() {
		s.hub.remove(conn)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	// Browsers only listen; reads surface disconnects.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}
