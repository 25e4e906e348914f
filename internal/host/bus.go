package host

import (
	"sync"
)

// Bus fans events out to subscribers. It implements EventSource.
type Bus struct {
	mutex     sync.Mutex
	listeners []chan Event
	closed    bool
	buffer    int
}

// NewBus creates an event bus whose subscriber channels hold buffer events
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{buffer: buffer}
}

// Subscribe adds a listener. Call the returned function when done.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.listeners = append(b.listeners, ch)

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(ch) })
	}
}

func (b *Bus) unsubscribe(ch chan Event) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for i, listener := range b.listeners {
		if listener == ch {
			close(listener)
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every subscriber. A subscriber whose buffer is full
// misses this event but stays subscribed. Returns the number of deliveries.
func (b *Bus) Publish(e Event) int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	delivered := 0
	for _, listener := range b.listeners {
		select {
		case listener <- e:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the current number of listeners
func (b *Bus) Subscribers() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.listeners)
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (b *Bus) Close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, listener := range b.listeners {
		close(listener)
	}
	b.listeners = nil
}
