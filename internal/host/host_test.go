package host

import (
	"context"
	"errors"
	"testing"
	"time"

	"carbridge/pkg/models"
)

func TestParseButton(t *testing.T) {
	tests := []struct {
		in      string
		want    Button
		wantErr bool
	}{
		{"play", ButtonPlay, false},
		{"PAUSE", ButtonPause, false},
		{" next ", ButtonNext, false},
		{"previous", ButtonPrevious, false},
		{"stop", ButtonStop, false},
		{"rewind", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseButton(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseButton(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseButton(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPublishErrorWrapping(t *testing.T) {
	base := errors.New("remote exception")
	err := Wrap(OpUpdatePlayerState, base)

	var pe *PublishError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected PublishError, got %T", err)
	}
	if !errors.Is(err, base) {
		t.Error("Expected wrapped error to match its cause")
	}
	if IsUnimplemented(err) {
		t.Error("A transient failure must not look unimplemented")
	}
	if Wrap(OpStartService, err) != err {
		t.Error("Wrap should not double-wrap a PublishError")
	}
	if Wrap(OpStartService, nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestUnsupportedPlatform(t *testing.T) {
	u := NewUnsupported(nil)
	ctx := context.Background()

	calls := map[string]error{
		OpUpdatePlayerState: u.UpdatePlayerState(ctx, models.PlayerState{Title: "x"}),
		OpSetMediaLibrary:   u.SetMediaLibrary(ctx, models.MediaLibrary{}),
		OpStartService:      u.StartService(ctx),
		OpStopService:       u.StopService(ctx),
	}
	for op, err := range calls {
		if !IsUnimplemented(err) {
			t.Errorf("%s: expected unimplemented, got %v", op, err)
		}
		var pe *PublishError
		if !errors.As(err, &pe) || pe.Op != op {
			t.Errorf("%s: expected PublishError for op, got %v", op, err)
		}
	}
}

func TestBusDelivery(t *testing.T) {
	bus := NewBus(4)
	ch1, cancel1 := bus.Subscribe()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	e := ButtonPressed{Button: ButtonPlay, Timestamp: time.Now()}
	if n := bus.Publish(e); n != 2 {
		t.Fatalf("Expected 2 deliveries, got %d", n)
	}

	for _, ch := range []<-chan Event{ch1, ch2} {
		got := <-ch
		bp, ok := got.(ButtonPressed)
		if !ok || bp.Button != ButtonPlay {
			t.Errorf("Unexpected event %#v", got)
		}
		if got.Kind() != KindButtonPressed {
			t.Errorf("Unexpected kind %s", got.Kind())
		}
	}

	cancel1()
	cancel1() // idempotent
	if _, open := <-ch1; open {
		t.Error("Expected channel closed after cancel")
	}
	if bus.Subscribers() != 1 {
		t.Errorf("Expected 1 subscriber, got %d", bus.Subscribers())
	}
}

func TestBusFullSubscriberKeepsSubscription(t *testing.T) {
	bus := NewBus(1)
	slow, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(SearchRequested{Query: "a"})
	if n := bus.Publish(SearchRequested{Query: "b"}); n != 0 {
		t.Errorf("Expected event to a full subscriber to be dropped, got %d deliveries", n)
	}
	if bus.Subscribers() != 1 {
		t.Fatalf("Expected full subscriber to stay subscribed, got %d", bus.Subscribers())
	}

	first := <-slow
	if first.(SearchRequested).Query != "a" {
		t.Errorf("Expected buffered event to survive, got %#v", first)
	}
	if n := bus.Publish(SearchRequested{Query: "c"}); n != 1 {
		t.Fatalf("Expected delivery after draining, got %d", n)
	}
	if next := <-slow; next.(SearchRequested).Query != "c" {
		t.Errorf("Expected event c, got %#v", next)
	}
}

func TestBusClose(t *testing.T) {
	bus := NewBus(1)
	ch, cancel := bus.Subscribe()
	bus.Close()
	cancel()

	if _, open := <-ch; open {
		t.Error("Expected channel closed by Close")
	}
	late, _ := bus.Subscribe()
	if _, open := <-late; open {
		t.Error("Expected late subscription on closed bus to be closed")
	}
}
