package server

import (
	"context"
	"sync"
	"time"

	"carbridge/internal/host"
	"carbridge/pkg/models"

	"github.com/sirupsen/logrus"
)

// Message types pushed to head-unit clients
const (
	MessagePlayerState = "playerState"
	MessageLibrary     = "library"
	MessageService     = "service"
)

// Message is one push frame sent over the websocket
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ServiceStatus is the payload of a service message
type ServiceStatus struct {
	Running bool      `json:"running"`
	Since   time.Time `json:"since"`
}

// Bridge is the head-unit side of the host platform. It keeps what was
// last published, pushes it to connected clients and turns client input
// into host events.
type Bridge struct {
	hub    *Hub
	bus    *host.Bus
	logger *logrus.Logger

	mutex      sync.RWMutex
	running    bool
	since      time.Time
	library    *models.MediaLibrary
	state      models.PlayerState
	stateKnown bool
}

// NewBridge creates a bridge broadcasting through hub
func NewBridge(hub *Hub, logger *logrus.Logger) *Bridge {
	if logger == nil {
		logger = logrus.New()
	}
	return &Bridge{
		hub:    hub,
		bus:    host.NewBus(32),
		logger: logger,
		since:  time.Now(),
	}
}

// UpdatePlayerState stores and pushes the state. Before StartService the
// update is accepted with a warning.
func (b *Bridge) UpdatePlayerState(ctx context.Context, state models.PlayerState) error {
	b.mutex.Lock()
	running := b.running
	b.state = state
	b.stateKnown = true
	b.mutex.Unlock()

	if !running {
		b.logger.Warn("Player state updated before the media service was started")
	}
	b.hub.Broadcast(Message{Type: MessagePlayerState, Data: state})
	return nil
}

// SetMediaLibrary stores and pushes a library snapshot. It fails with
// host.ErrServiceUnavailable while the service is stopped.
func (b *Bridge) SetMediaLibrary(ctx context.Context, library models.MediaLibrary) error {
	if err := ctx.Err(); err != nil {
		return &host.PublishError{Op: host.OpSetMediaLibrary, Err: err}
	}

	b.mutex.Lock()
	if !b.running {
		b.mutex.Unlock()
		return &host.PublishError{Op: host.OpSetMediaLibrary, Err: host.ErrServiceUnavailable}
	}
	lib := library.Clone()
	b.library = &lib
	b.mutex.Unlock()

	b.logger.WithField("tracks", library.TrackCount()).Debug("Media library published to head unit")
	b.hub.Broadcast(Message{Type: MessageLibrary, Data: lib})
	return nil
}

// StartService marks the media service running
func (b *Bridge) StartService(ctx context.Context) error {
	b.setRunning(true)
	b.logger.Info("Media service started")
	return nil
}

// StopService marks the media service stopped and drops the library
func (b *Bridge) StopService(ctx context.Context) error {
	b.setRunning(false)
	b.logger.Info("Media service stopped")
	return nil
}

func (b *Bridge) setRunning(running bool) {
	b.mutex.Lock()
	changed := b.running != running
	b.running = running
	if changed {
		b.since = time.Now()
	}
	if !running {
		b.library = nil
	}
	status := ServiceStatus{Running: b.running, Since: b.since}
	b.mutex.Unlock()

	if changed {
		b.hub.Broadcast(Message{Type: MessageService, Data: status})
	}
}

// Subscribe implements host.EventSource
func (b *Bridge) Subscribe() (<-chan host.Event, func()) {
	return b.bus.Subscribe()
}

// Emit delivers a head-unit event to subscribers
func (b *Bridge) Emit(e host.Event) {
	if n := b.bus.Publish(e); n == 0 {
		b.logger.WithFields(logrus.Fields{
			"kind":        e.Kind(),
			"subscribers": b.bus.Subscribers(),
		}).Warn("Head-unit event dropped, no subscriber ready")
	}
}

// Close ends all event subscriptions
func (b *Bridge) Close() {
	b.bus.Close()
}

// Running reports whether the media service is started
func (b *Bridge) Running() bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.running
}

// Library returns the last published library. False while stopped or
// before the first publish.
func (b *Bridge) Library() (models.MediaLibrary, bool) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	if b.library == nil {
		return models.MediaLibrary{}, false
	}
	return b.library.Clone(), true
}

// PlayerState returns the last reported state
func (b *Bridge) PlayerState() (models.PlayerState, bool) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.state, b.stateKnown
}

// snapshot returns the frames a newly connected client starts with
func (b *Bridge) snapshot() []Message {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	msgs := []Message{{Type: MessageService, Data: ServiceStatus{Running: b.running, Since: b.since}}}
	if b.library != nil {
		msgs = append(msgs, Message{Type: MessageLibrary, Data: b.library.Clone()})
	}
	if b.stateKnown {
		msgs = append(msgs, Message{Type: MessagePlayerState, Data: b.state})
	}
	return msgs
}
