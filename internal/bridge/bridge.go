// Package bridge implements the sync service: the single composition point
// between the sync server, the local clipboard and the presentation layer.
//
// It owns the server lifecycle, keeps the backlog of texts received from web
// clients, and merges "a client sent text" and "the clipboard changed" into
// one ordered, multi-subscriber event stream. All mutations of the backlog
// and every emission run under one mutex, so the backlog and the stream
// always agree on arrival order.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"go.klb.dev/lanpaste/internal/backlog"
	"go.klb.dev/lanpaste/internal/clip"
	"go.klb.dev/lanpaste/internal/logging"
	"go.klb.dev/lanpaste/internal/message"
	"go.klb.dev/lanpaste/internal/metrics"
	"go.klb.dev/lanpaste/internal/page"
	"go.klb.dev/lanpaste/internal/server"
)

const DefaultSubscriberBuffer = 256

// ErrNoClipboard is returned by clipboard operations when the service was
// built without a clipboard backend.
var ErrNoClipboard = errors.New("no clipboard backend")

// State is the service's view of its sync server.
type State int

const (
	// StateUnbound: no server is running; Init may (re)try.
	StateUnbound State = iota
	// StateRunning: the server is bound and serving.
	StateRunning
	// StateStopped: disposed. Terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Config configures a Service.
type Config struct {
	// TemplatePath is the HTML template file; empty selects the built-in
	// page. Ignored when Page is set.
	TemplatePath string
	Page         *page.Source
	// WatchTemplate reloads TemplatePath when it changes on disk.
	WatchTemplate bool

	Host      string
	Port      int
	Advertise string
	Echo      server.EchoPolicy

	// BacklogSize bounds the backlog; 0 means unbounded.
	BacklogSize int

	// Clipboard is the clipboard provider; nil disables clipboard events.
	Clipboard clip.Backend
	// AutoPush forwards every local clipboard change to the web clients.
	AutoPush bool

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Status is a point-in-time summary of the service.
type Status struct {
	State   State
	URL     string
	Clients int
	Backlog int
	// Clipboard names the clipboard backend, or is empty without one.
	Clipboard string
}

// Service is the sync service. Create one with New.
type Service struct {
	cfg     Config
	log     *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	state    State
	srv      *server.Server
	queue    *backlog.Queue
	subs     map[int]chan Event
	nextSub  int
	lastClip string
	ctx      context.Context
	cancel   context.CancelFunc

	wg sync.WaitGroup
}

// New returns an Unbound service.
func New(cfg Config) *Service {
	return &Service{
		cfg:     cfg,
		log:     logging.OrDiscard(cfg.Logger),
		metrics: cfg.Metrics,
		queue:   backlog.New(cfg.BacklogSize),
		subs:    make(map[int]chan Event),
	}
}

// Init starts the sync server and subscribes to the clipboard. It is a no-op
// unless the service is Unbound. Failures are not returned: a bind or
// template failure is reported as one SourceServerInfo event and the
// service stays Unbound, so Init may be called again later. On success one
// SourceServerInfo event carries the page URL.
func (s *Service) Init(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnbound {
		return
	}
	if s.ctx == nil {
		s.ctx, s.cancel = context.WithCancel(ctx)
		s.subscribeClipboardLocked(s.ctx)
	}
	ctx = s.ctx

	src := s.cfg.Page
	if src == nil {
		var err error
		src, err = page.Load(s.cfg.TemplatePath)
		if err != nil {
			s.reportFailureLocked(err)
			return
		}
	}

	srv := server.New(server.Config{
		Host:      s.cfg.Host,
		Port:      s.cfg.Port,
		Advertise: s.cfg.Advertise,
		Page:      src,
		Echo:      s.cfg.Echo,
		Logger:    s.log,
		Metrics:   s.metrics,
	})
	if err := srv.Start(); err != nil {
		s.reportFailureLocked(err)
		return
	}

	s.srv = srv
	s.state = StateRunning

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for in := range srv.Inbound() {
			s.OnInboundFromServer(in)
		}
	}()

	if s.cfg.WatchTemplate && src.Path() != "" {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := src.Watch(ctx, s.log); err != nil {
				s.log.Error("template watch failed", "path", src.Path(), "err", err)
			}
		}()
	}

	s.emitLocked(newEvent(SourceServerInfo, srv.URL()))
}

func (s *Service) reportFailureLocked(err error) {
	s.log.Error("sync server failed to start", "err", err)
	s.emitLocked(newEvent(SourceServerInfo, fmt.Sprintf("server failed to start: %v", err)))
}

// OnInboundFromServer appends the text to the backlog and emits a
// SourceServer event, as one step.
func (s *Service) OnInboundFromServer(in message.Inbound) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if evicted := s.queue.Push(in.Text); evicted {
		s.log.Warn("backlog full, oldest entry evicted", "capacity", s.queue.Cap())
		s.metrics.Backlog(s.queue.Len(), true)
	} else {
		s.metrics.Backlog(s.queue.Len(), false)
	}
	s.log.Debug("text from web client", "preview", logging.Preview(in.Text), "backlog", s.queue.Len())
	s.emitLocked(newEvent(SourceServer, in.Text))
}

// OnClipboardChanged emits a SourceClipboard event. The backlog is not
// touched. With AutoPush the text is also pushed to the web clients.
func (s *Service) OnClipboardChanged(text string) {
	s.mu.Lock()
	s.emitLocked(newEvent(SourceClipboard, text))
	s.mu.Unlock()

	if s.cfg.AutoPush {
		s.PushToClients(text)
	}
}

// PushToClients broadcasts text to every web client as a server-text
// envelope. It reports false, silently, when no server is running.
func (s *Service) PushToClients(text string) bool {
	s.mu.Lock()
	srv := s.srv
	running := s.state == StateRunning
	s.mu.Unlock()
	if !running {
		return false
	}

	err := srv.Broadcast(message.Envelope{Type: message.EnvelopeServerText, Text: text})
	if err != nil {
		if !errors.Is(err, server.ErrNotRunning) {
			s.log.Error("push to clients failed", "err", err)
		}
		return false
	}
	s.log.Debug("pushed to clients", "preview", logging.Preview(text))
	return true
}

// PushClipboard reads the local clipboard and pushes it to the web clients.
func (s *Service) PushClipboard() (text string, pushed bool, err error) {
	if s.cfg.Clipboard == nil {
		return "", false, ErrNoClipboard
	}
	text, err = s.cfg.Clipboard.Read()
	if err != nil {
		return "", false, fmt.Errorf("read clipboard: %w", err)
	}
	return text, s.PushToClients(text), nil
}

// ConsumeBacklog pops the oldest text received from a web client. ok is
// false when the backlog is empty. It never blocks on I/O.
func (s *Service) ConsumeBacklog() (text string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok = s.queue.Pop()
	if ok {
		s.metrics.Backlog(s.queue.Len(), false)
	}
	return text, ok
}

// ApplyToClipboard writes text to the local clipboard without reporting it
// back as a clipboard change.
func (s *Service) ApplyToClipboard(text string) error {
	if s.cfg.Clipboard == nil {
		return ErrNoClipboard
	}
	s.mu.Lock()
	s.lastClip = text
	s.mu.Unlock()
	if err := s.cfg.Clipboard.Write(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// BacklogLen returns the number of unconsumed texts.
func (s *Service) BacklogLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// State returns the lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status summarises the service.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{State: s.state, Backlog: s.queue.Len()}
	if s.cfg.Clipboard != nil {
		st.Clipboard = s.cfg.Clipboard.Name()
	}
	if s.state == StateRunning {
		st.URL = s.srv.URL()
		st.Clients = s.srv.Clients()
	}
	return st
}

// Subscribe returns a channel carrying every event emitted from now on, in
// emission order, and a function that ends the subscription. A subscriber
// that falls more than buffer events behind loses events; each loss is
// logged. The channel is closed by cancel or Dispose.
func (s *Service) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Dispose unsubscribes from the clipboard, stops the server if one is
// running and closes every subscriber channel. It is safe to call without a
// successful Init, and more than once.
func (s *Service) Dispose() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = StateStopped
	srv := s.srv
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if prev == StateRunning {
		srv.Stop()
	}
	// The dispatch loop drains Inbound before exiting, so texts received
	// before Stop still reach the backlog.
	s.wg.Wait()

	s.mu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()
	s.log.Info("sync service disposed")
}

// emitLocked fans ev out to every subscriber. Must be called with s.mu held.
func (s *Service) emitLocked(ev Event) {
	s.metrics.Event(ev.Source.String())
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.metrics.EventDropped()
			s.log.Warn("subscriber too slow, event dropped", "subscriber", id, "source", ev.Source)
		}
	}
}
