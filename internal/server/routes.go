package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"go.klb.dev/lanpaste/internal/message"
	"go.klb.dev/lanpaste/internal/page"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Phones load the page from this server; there is no other origin to trust.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// routes serves GET / and GET /ws. Every other method or path is 404.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(s.log))

	r.With(middleware.NoCache).Get("/", s.handlePage)
	r.Get("/ws", s.handleWS)

	r.NotFound(http.NotFound)
	r.MethodNotAllowed(http.NotFound)
	return r
}

// recoverer turns a panic in a handler into a 500 carrying the panic text.
func recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("request failed", "method", r.Method, "path", r.URL.Path, "panic", rec)
				http.Error(w, fmt.Sprint(rec), http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	host, port := s.address, s.port
	s.mu.RUnlock()

	body := page.Render(s.cfg.Page.Template(), host, port)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// handleWS upgrades the request, adds the connection to the live set and
// runs its read loop until the connection closes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		s.log.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newClient(conn, s.cfg.SendBuffer)
	if !s.register(c) {
		c.shutdown()
		return
	}
	go c.writePump(s.log)
	s.readLoop(c)
}

// readLoop processes one connection's frames in arrival order: each frame is
// published on Inbound and then relayed to the live set.
func (s *Server) readLoop(c *client) {
	defer s.unregister(c)
	log := s.log.With("client", c.id)

	c.conn.SetReadLimit(maxFrameSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("read failed", "err", err)
			} else {
				log.Debug("connection closed", "err", err)
			}
			return
		}

		in := message.DecodeInbound(data)
		s.metrics.Inbound()
		log.Debug("text received", "bytes", len(in.Text))

		if !s.publish(in) {
			return
		}

		var exclude *client
		if s.cfg.Echo == EchoOthers {
			exclude = c
		}
		if err := s.fanout(message.Envelope{Type: message.EnvelopeSync, Text: in.Text}, exclude); err != nil {
			return
		}
	}
}
