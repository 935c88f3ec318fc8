package message

import "encoding/json"

// EnvelopeType tags a server → client frame with where its text came from.
type EnvelopeType string

const (
	// EnvelopeSync relays text sent by a web client.
	EnvelopeSync EnvelopeType = "sync"
	// EnvelopeServerText carries text pushed from the local machine.
	EnvelopeServerText EnvelopeType = "server-text"
)

// Inbound is a client → server frame.
type Inbound struct {
	Text string `json:"text"`
}

// Envelope is a server → client frame.
type Envelope struct {
	Type EnvelopeType `json:"type"`
	Text string       `json:"text"`
}

// Encode serialises the envelope.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeInbound parses a client frame. It never fails: payloads that are not
// a JSON object, or whose "text" is missing or not a string, yield an empty
// text so the stream keeps flowing.
func DecodeInbound(b []byte) Inbound {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return Inbound{}
	}
	var text string
	if err := json.Unmarshal(raw["text"], &text); err != nil {
		return Inbound{}
	}
	return Inbound{Text: text}
}
