// Package message defines the lanpaste wire formats.
//
// Two protocols live here. The WebSocket protocol spoken with phones and
// browsers:
//
//	client → server  {"text": "..."}
//	server → client  {"type": "sync" | "server-text", "text": "..."}
//
// and the local control protocol spoken between the CLI and the running
// daemon over the IPC socket: newline-delimited JSON Message values.
package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of control message.
type Type string

const (
	TypePush           Type = "PUSH"
	TypePushClipboard  Type = "PUSH_CLIPBOARD"
	TypePop            Type = "POP"
	TypeResult         Type = "RESULT"
	TypeStatus         Type = "STATUS"
	TypeStatusResponse Type = "STATUS_RESPONSE"
	TypeSubscribe      Type = "SUBSCRIBE"
	TypeEvent          Type = "EVENT"
	TypeError          Type = "ERROR"
)

// Status describes a running daemon, carried in STATUS_RESPONSE.
type Status struct {
	State     string `json:"state"`
	Address   string `json:"address,omitempty"`
	Clients   int    `json:"clients"`
	Backlog   int    `json:"backlog"`
	Clipboard string `json:"clipboard,omitempty"`
}

// Message is the control protocol envelope.
type Message struct {
	Type Type `json:"type"`

	// PUSH, RESULT, EVENT
	Text string `json:"text,omitempty"`

	// POP: write the popped text to the local clipboard too.
	Apply bool `json:"apply,omitempty"`

	// RESULT: false when the backlog was empty.
	OK bool `json:"ok,omitempty"`

	// EVENT
	Source string    `json:"source,omitempty"`
	Time   time.Time `json:"time,omitzero"`

	// STATUS_RESPONSE
	Status *Status `json:"status,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}
