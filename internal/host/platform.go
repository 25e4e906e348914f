package host

import (
	"context"

	"carbridge/pkg/models"
)

// Operation names used in PublishError and logs.
const (
	OpUpdatePlayerState = "updatePlayerState"
	OpSetMediaLibrary   = "setMediaLibrary"
	OpStartService      = "startService"
	OpStopService       = "stopService"
)

// Platform is the publish channel and lifecycle control of the in-car
// integration layer. All calls may fail; callers never retry automatically.
type Platform interface {
	UpdatePlayerState(ctx context.Context, state models.PlayerState) error
	SetMediaLibrary(ctx context.Context, library models.MediaLibrary) error
	StartService(ctx context.Context) error
	StopService(ctx context.Context) error
}

// EventSource delivers user-driven events from the host. The returned
// function cancels the subscription and closes the channel.
type EventSource interface {
	Subscribe() (<-chan Event, func())
}
