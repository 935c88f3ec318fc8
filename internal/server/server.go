// Package server implements the sync server: one TCP listener serving the
// HTML page at GET / and WebSocket clients at GET /ws, the live client set,
// and the broadcast fan-out.
//
// Lifecycle:
//
//	Unbound → Binding → Running → Stopping → Stopped
//
// A bind failure returns to Unbound. Stopped is terminal; a stopped server
// cannot be restarted and a new one must be created instead.
//
// Shutdown is forceful. Stop closes every connection and the listener
// without waiting for in-flight or queued writes, so envelopes still queued
// for a client when Stop is called are dropped.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	"go.klb.dev/lanpaste/internal/logging"
	"go.klb.dev/lanpaste/internal/message"
	"go.klb.dev/lanpaste/internal/metrics"
	"go.klb.dev/lanpaste/internal/netif"
	"go.klb.dev/lanpaste/internal/page"
)

const (
	DefaultHost          = "0.0.0.0"
	DefaultSendBuffer    = 32
	DefaultInboundBuffer = 64
)

var (
	// ErrNotRunning is returned by Broadcast when the server is not Running.
	ErrNotRunning = errors.New("server not running")
	// ErrStopped is returned by Start on a server that has been stopped.
	ErrStopped = errors.New("server stopped")
	// ErrStarted is returned by Start on a server that already left Unbound.
	ErrStarted = errors.New("server already started")
)

// State is a position in the server lifecycle.
type State int

const (
	StateUnbound State = iota
	StateBinding
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBinding:
		return "binding"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// EchoPolicy decides whether a client's own message is relayed back to it.
type EchoPolicy string

const (
	// EchoAll relays every message to every client, sender included.
	EchoAll EchoPolicy = "all"
	// EchoOthers relays a message to every client except its sender.
	EchoOthers EchoPolicy = "others"
)

// ParseEchoPolicy converts a string to an EchoPolicy.
func ParseEchoPolicy(s string) (EchoPolicy, error) {
	switch EchoPolicy(s) {
	case "", EchoAll:
		return EchoAll, nil
	case EchoOthers:
		return EchoOthers, nil
	default:
		return "", fmt.Errorf("unknown echo policy %q (want all|others)", s)
	}
}

// Config configures a Server. Zero values select the defaults.
type Config struct {
	// Host is the bind host; defaults to DefaultHost.
	Host string
	// Port is the TCP port to bind; 0 picks a free port.
	Port int
	// Advertise is substituted for {{HOST}}. Empty resolves the LAN address
	// through netif at Start.
	Advertise string
	// Page supplies the HTML template; nil selects the built-in page.
	Page *page.Source
	// Echo defaults to EchoAll.
	Echo EchoPolicy
	// SendBuffer is the per-client outgoing queue depth.
	SendBuffer int
	// InboundBuffer is the depth of the channel returned by Inbound.
	InboundBuffer int

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Server is the sync server. Create one with New.
type Server struct {
	cfg     Config
	log     *slog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	state   State
	clients map[*client]struct{}
	httpSrv *http.Server
	address string
	port    int

	inbound    chan message.Inbound
	done       chan struct{}
	publishers sync.WaitGroup
	stopOnce   sync.Once
}

// New returns an Unbound server.
func New(cfg Config) *Server {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Page == nil {
		cfg.Page = page.Static(page.Default())
	}
	if cfg.Echo == "" {
		cfg.Echo = EchoAll
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultSendBuffer
	}
	if cfg.InboundBuffer <= 0 {
		cfg.InboundBuffer = DefaultInboundBuffer
	}
	return &Server{
		cfg:     cfg,
		log:     logging.OrDiscard(cfg.Logger),
		metrics: cfg.Metrics,
		clients: make(map[*client]struct{}),
		inbound: make(chan message.Inbound, cfg.InboundBuffer),
		done:    make(chan struct{}),
	}
}

// Start binds the listener and begins serving. It returns once the server is
// Running or the bind has failed; it does not block on serving.
func (s *Server) Start() error {
	s.mu.Lock()
	switch s.state {
	case StateUnbound:
		s.state = StateBinding
	case StateStopping, StateStopped:
		s.mu.Unlock()
		return ErrStopped
	default:
		s.mu.Unlock()
		return ErrStarted
	}
	s.mu.Unlock()

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Lock()
		if s.state == StateBinding {
			s.state = StateUnbound
		}
		s.mu.Unlock()
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	advertise := s.cfg.Advertise
	if advertise == "" {
		advertise = netif.Resolve()
	}
	httpSrv := &http.Server{
		Handler:  s.routes(),
		ErrorLog: slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}

	s.mu.Lock()
	if s.state != StateBinding {
		// Stopped while binding.
		s.mu.Unlock()
		_ = ln.Close()
		return ErrStopped
	}
	s.httpSrv = httpSrv
	s.address = advertise
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.state = StateRunning
	s.mu.Unlock()

	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", "err", err)
		}
	}()

	s.log.Info("sync server listening",
		"bind", ln.Addr().String(),
		"url", s.URL(),
		"echo", s.cfg.Echo,
	)
	return nil
}

// Stop closes every live connection, force-closes the listener and closes
// the Inbound channel. Queued envelopes are dropped. Stop on a server that
// never started moves it straight to Stopped. Further calls are no-ops.
func (s *Server) Stop() {
	s.stopOnce.Do(s.stop)
}

func (s *Server) stop() {
	// Releases readers blocked publishing to inbound.
	close(s.done)

	s.mu.Lock()
	prev := s.state
	s.state = StateStopping
	clients := s.clients
	s.clients = make(map[*client]struct{})
	httpSrv := s.httpSrv
	s.mu.Unlock()

	for c := range clients {
		c.shutdown()
		s.metrics.ClientDisconnected()
	}
	if prev == StateRunning && httpSrv != nil {
		_ = httpSrv.Close()
	}
	// No publisher joins after Stopping; those in flight see done.
	s.publishers.Wait()
	close(s.inbound)

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()

	if prev == StateRunning {
		s.log.Info("sync server stopped", "closed_clients", len(clients))
	}
}

// Inbound delivers every text received from a client, in arrival order per
// connection. It is closed by Stop.
func (s *Server) Inbound() <-chan message.Inbound { return s.inbound }

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Address returns the advertised host, set once Running.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

// Port returns the bound port, set once Running.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

// URL returns the page URL users should open, e.g. http://192.168.1.5:8080.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.port == 0 {
		return ""
	}
	return "http://" + net.JoinHostPort(s.address, strconv.Itoa(s.port))
}

// Clients returns the size of the live client set.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast queues env once to every client in the live set at the time of
// the call. It returns ErrNotRunning unless the server is Running.
func (s *Server) Broadcast(env message.Envelope) error {
	return s.fanout(env, nil)
}

// fanout sends env to a snapshot of the live set, skipping exclude.
func (s *Server) fanout(env message.Envelope, exclude *client) error {
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	s.mu.RLock()
	if s.state != StateRunning {
		s.mu.RUnlock()
		return ErrNotRunning
	}
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		if c != exclude {
			targets = append(targets, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range targets {
		switch err := c.enqueue(data); {
		case err == nil:
			s.metrics.FrameSent(string(env.Type))
		case errors.Is(err, errSendBufferFull):
			// Drop the client, it will reconnect.
			s.metrics.FrameDropped()
			s.log.Warn("client send buffer full, disconnecting", "client", c.id)
			s.unregister(c)
		default:
			// Already closed; its read loop unregisters it.
		}
	}
	return nil
}

// publish hands an inbound message to the Inbound consumer. It reports false
// once the server is no longer Running. It does not hold mu while waiting
// for the consumer.
func (s *Server) publish(in message.Inbound) bool {
	s.mu.RLock()
	if s.state != StateRunning {
		s.mu.RUnlock()
		return false
	}
	s.publishers.Add(1)
	s.mu.RUnlock()
	defer s.publishers.Done()

	select {
	case s.inbound <- in:
		return true
	case <-s.done:
		return false
	}
}

func (s *Server) register(c *client) bool {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return false
	}
	s.clients[c] = struct{}{}
	total := len(s.clients)
	s.mu.Unlock()

	s.metrics.ClientConnected()
	s.log.Info("client connected", "client", c.id, "total", total)
	return true
}

// unregister removes c from the live set and closes its transport.
func (s *Server) unregister(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	total := len(s.clients)
	s.mu.Unlock()

	c.close()
	if ok {
		s.metrics.ClientDisconnected()
		s.log.Info("client disconnected", "client", c.id, "total", total)
	}
}
