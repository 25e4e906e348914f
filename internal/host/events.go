package host

import (
	"fmt"
	"strings"
	"time"
)

// Button is a transport control pressed on the head unit.
type Button string

const (
	ButtonPlay     Button = "play"
	ButtonPause    Button = "pause"
	ButtonNext     Button = "next"
	ButtonPrevious Button = "previous"
	ButtonStop     Button = "stop"
)

// ParseButton validates a button name received from the host.
func ParseButton(s string) (Button, error) {
	switch b := Button(strings.ToLower(strings.TrimSpace(s))); b {
	case ButtonPlay, ButtonPause, ButtonNext, ButtonPrevious, ButtonStop:
		return b, nil
	default:
		return "", fmt.Errorf("unknown button %q", s)
	}
}

// EventKind names an event variant on the wire.
type EventKind string

const (
	KindButtonPressed     EventKind = "buttonPressed"
	KindMediaItemSelected EventKind = "mediaItemSelected"
	KindSearchRequest     EventKind = "searchRequest"
)

// Event is one of ButtonPressed, MediaItemSelected or SearchRequested.
type Event interface {
	Kind() EventKind
	Time() time.Time
	sealed()
}

// ButtonPressed is emitted when a transport control is used.
type ButtonPressed struct {
	Button    Button    `json:"button"`
	Timestamp time.Time `json:"timestamp"`
}

// MediaItemSelected is emitted when the user picks an entry in the browse tree.
type MediaItemSelected struct {
	MediaID   string    `json:"mediaId"`
	Timestamp time.Time `json:"timestamp"`
}

// SearchRequested is emitted for voice or text search.
type SearchRequested struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

func (ButtonPressed) Kind() EventKind     { return KindButtonPressed }
func (MediaItemSelected) Kind() EventKind { return KindMediaItemSelected }
func (SearchRequested) Kind() EventKind   { return KindSearchRequest }

func (e ButtonPressed) Time() time.Time     { return e.Timestamp }
func (e MediaItemSelected) Time() time.Time { return e.Timestamp }
func (e SearchRequested) Time() time.Time   { return e.Timestamp }

func (ButtonPressed) sealed()     {}
func (MediaItemSelected) sealed() {}
func (SearchRequested) sealed()   {}
