package host

import (
	"context"

	"carbridge/pkg/models"

	"github.com/sirupsen/logrus"
)

// Unsupported is the fallback platform used where no in-car integration
// exists. Every operation reports ErrUnimplemented.
type Unsupported struct {
	logger *logrus.Logger
}

// NewUnsupported creates the fallback platform
func NewUnsupported(logger *logrus.Logger) *Unsupported {
	if logger == nil {
		logger = logrus.New()
	}
	return &Unsupported{logger: logger}
}

func (u *Unsupported) unimplemented(op string, fields logrus.Fields) error {
	u.logger.WithFields(fields).WithField("op", op).Debug("Called on unsupported platform")
	return &PublishError{Op: op, Err: ErrUnimplemented}
}

// UpdatePlayerState always fails with ErrUnimplemented
func (u *Unsupported) UpdatePlayerState(ctx context.Context, state models.PlayerState) error {
	return u.unimplemented(OpUpdatePlayerState, logrus.Fields{"title": state.Title, "is_playing": state.IsPlaying})
}

// SetMediaLibrary always fails with ErrUnimplemented
func (u *Unsupported) SetMediaLibrary(ctx context.Context, library models.MediaLibrary) error {
	return u.unimplemented(OpSetMediaLibrary, logrus.Fields{"tracks": library.TrackCount()})
}

// StartService always fails with ErrUnimplemented
func (u *Unsupported) StartService(ctx context.Context) error {
	return u.unimplemented(OpStartService, nil)
}

// StopService always fails with ErrUnimplemented
func (u *Unsupported) StopService(ctx context.Context) error {
	return u.unimplemented(OpStopService, nil)
}
