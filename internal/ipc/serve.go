package ipc

import (
	"errors"
	"log/slog"
	"net"
	"time"

	"go.klb.dev/lanpaste/internal/bridge"
	"go.klb.dev/lanpaste/internal/logging"
	"go.klb.dev/lanpaste/internal/message"
	"go.klb.dev/lanpaste/internal/wire"
)

// requestTimeout bounds the wait for a connection's request line.
var requestTimeout = 5 * time.Second

// Controller is the part of the sync service the control channel drives.
type Controller interface {
	PushToClients(text string) bool
	PushClipboard() (text string, pushed bool, err error)
	ConsumeBacklog() (text string, ok bool)
	ApplyToClipboard(text string) error
	Status() bridge.Status
	Subscribe(buffer int) (<-chan bridge.Event, func())
}

// Serve accepts control connections on ln until it is closed. Each
// connection carries one request; SUBSCRIBE keeps it open as an event
// stream until the client hangs up.
func Serve(ln net.Listener, ctl Controller, log *slog.Logger) {
	log = logging.OrDiscard(log)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Error("ipc accept failed", "err", err)
			}
			return
		}
		go handleConn(conn, ctl, log)
	}
}

func handleConn(conn net.Conn, ctl Controller, log *slog.Logger) {
	wc := wire.New(conn)
	defer wc.Close()

	wc.SetReadDeadline(requestTimeout)
	msg, err := wc.ReadMsg()
	if err != nil {
		log.Debug("ipc request not read", "err", err)
		return
	}
	wc.SetReadDeadline(0)
	log.Debug("ipc request", "type", msg.Type)

	var reply *message.Message
	switch msg.Type {
	case message.TypePush:
		reply = &message.Message{Type: message.TypeResult, OK: ctl.PushToClients(msg.Text)}

	case message.TypePushClipboard:
		text, pushed, err := ctl.PushClipboard()
		if err != nil {
			reply = errorMsg(err)
			break
		}
		reply = &message.Message{Type: message.TypeResult, Text: text, OK: pushed}

	case message.TypePop:
		text, ok := ctl.ConsumeBacklog()
		if ok && msg.Apply {
			if err := ctl.ApplyToClipboard(text); err != nil {
				log.Warn("ipc: apply to clipboard failed", "err", err)
			}
		}
		reply = &message.Message{Type: message.TypeResult, Text: text, OK: ok}

	case message.TypeStatus:
		st := ctl.Status()
		reply = &message.Message{
			Type: message.TypeStatusResponse,
			Status: &message.Status{
				State:     st.State.String(),
				Address:   st.URL,
				Clients:   st.Clients,
				Backlog:   st.Backlog,
				Clipboard: st.Clipboard,
			},
		}

	case message.TypeSubscribe:
		stream(wc, ctl, log)
		return

	default:
		reply = &message.Message{Type: message.TypeError, Error: "unknown request type: " + string(msg.Type)}
	}

	if err := wc.WriteMsg(reply); err != nil {
		log.Debug("ipc reply failed", "err", err)
	}
}

// stream forwards events to the client until it disconnects or the service
// closes the subscription.
func stream(wc *wire.Conn, ctl Controller, log *slog.Logger) {
	events, cancel := ctl.Subscribe(0)
	defer cancel()

	// The client sends nothing more; a read returning means it hung up.
	go func() {
		_, _ = wc.ReadMsg()
		cancel()
	}()

	for ev := range events {
		err := wc.WriteMsg(&message.Message{
			Type:   message.TypeEvent,
			Source: ev.Source.String(),
			Text:   ev.Text,
			Time:   ev.Time,
		})
		if err != nil {
			log.Debug("ipc event stream ended", "err", err)
			return
		}
	}
}

func errorMsg(err error) *message.Message {
	return &message.Message{Type: message.TypeError, Error: err.Error()}
}
