package ipc

import (
	"context"
	"errors"
	"fmt"

	"go.klb.dev/lanpaste/internal/message"
	"go.klb.dev/lanpaste/internal/wire"
)

// Call sends one request to the daemon and returns its reply. ERROR replies
// are returned as errors.
func Call(req *message.Message) (*message.Message, error) {
	conn, err := Dial()
	if err != nil {
		return nil, fmt.Errorf("connect to daemon at %s: %w", SocketPath(), err)
	}
	wc := wire.New(conn)
	defer wc.Close()

	if err := wc.WriteMsg(req); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	reply, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	if reply.Type == message.TypeError {
		return nil, errors.New(reply.Error)
	}
	return reply, nil
}

// Subscribe streams daemon events to fn until ctx is cancelled, the daemon
// goes away, or fn returns an error.
func Subscribe(ctx context.Context, fn func(*message.Message) error) error {
	conn, err := Dial()
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w", SocketPath(), err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	wc := wire.New(conn)
	if err := wc.WriteMsg(&message.Message{Type: message.TypeSubscribe}); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	for {
		msg, err := wc.ReadMsg()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("event stream: %w", err)
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}
