package bridge

import (
	"strconv"
	"time"
)

// Source tags where a sync event came from.
type Source int

const (
	// SourceServer is text a web client sent to the sync server.
	SourceServer Source = iota
	// SourceClipboard is a change of the local clipboard.
	SourceClipboard
	// SourceServerInfo reports the server address or a start failure.
	SourceServerInfo
)

func (s Source) String() string {
	switch s {
	case SourceServer:
		return "server"
	case SourceClipboard:
		return "clipboard"
	case SourceServerInfo:
		return "server-info"
	default:
		return "source(" + strconv.Itoa(int(s)) + ")"
	}
}

// Event is one entry of the ordered stream handed to the presentation layer.
// Events are values; the timestamp is fixed at construction.
type Event struct {
	Text   string
	Source Source
	Time   time.Time
}

func newEvent(src Source, text string) Event {
	return Event{Text: text, Source: src, Time: time.Now()}
}
