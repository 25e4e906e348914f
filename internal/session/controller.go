package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"

	"carbridge/internal/catalog"
	"carbridge/internal/host"
	"carbridge/internal/player"
	"carbridge/pkg/models"

	"github.com/sirupsen/logrus"
)

// queueRecent marks a transport queue built from the recent-tracks list.
const queueRecent = catalog.RecentID

// PlayRecorder stores play history. The database implements it.
type PlayRecorder interface {
	RecordPlay(ctx context.Context, trackID string) error
}

// Options configures a Controller
type Options struct {
	// TrackRecent pushes every played item to the recent list and republishes.
	TrackRecent bool
	RecentLimit int
	Recorder    PlayRecorder
	Logger      *logrus.Logger
}

// Controller connects host events, the catalog and the transport state for
// one head-unit session.
type Controller struct {
	platform host.Platform
	resolver *catalog.Resolver
	player   *player.StateManager
	opts     Options
	logger   *logrus.Logger

	shuffle func(n int, swap func(i, j int))

	mutex       sync.Mutex
	running     bool
	queueSource string
	reported    map[string]bool
}

// NewController creates a session controller. The resolver should publish
// through the same platform.
func NewController(platform host.Platform, resolver *catalog.Resolver, sm *player.StateManager, opts Options) *Controller {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = catalog.DefaultRecentLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Controller{
		platform:    platform,
		resolver:    resolver,
		player:      sm,
		opts:        opts,
		logger:      logger,
		shuffle:     rand.Shuffle,
		queueSource: queueRecent,
		reported:    make(map[string]bool),
	}
}

// Running reports whether the host service has been started
func (c *Controller) Running() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.running
}

// Start starts the host service. A platform without service support is
// treated as started so the catalog can still be used locally.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.platform.StartService(ctx); err != nil {
		if !host.IsUnimplemented(err) {
			return err
		}
		c.noteUnimplemented(host.OpStartService)
	}

	c.mutex.Lock()
	c.running = true
	c.mutex.Unlock()

	c.logger.Info("Media session started")
	c.reportState(ctx)
	return nil
}

// Stop stops the host service and discards the catalog snapshot.
func (c *Controller) Stop(ctx context.Context) error {
	c.player.Stop()
	c.resolver.Clear()

	c.mutex.Lock()
	c.running = false
	c.queueSource = queueRecent
	c.mutex.Unlock()

	if err := c.platform.StopService(ctx); err != nil {
		if !host.IsUnimplemented(err) {
			return err
		}
		c.noteUnimplemented(host.OpStopService)
	}
	c.logger.Info("Media session stopped")
	return nil
}

// Publish replaces the catalog. On failure the previous catalog stays in
// place and the error is returned.
func (c *Controller) Publish(ctx context.Context, lib models.MediaLibrary) error {
	return c.published(ctx, c.resolver.SetLibrary(ctx, lib))
}

func (c *Controller) published(ctx context.Context, err error) error {
	if err != nil {
		if host.IsUnimplemented(err) {
			c.noteUnimplemented(host.OpSetMediaLibrary)
		} else {
			c.logger.WithError(err).Error("Failed to publish media library")
		}
		return err
	}
	c.refreshQueue()
	c.reportState(ctx)
	return nil
}

func (c *Controller) refreshQueue() {
	c.mutex.Lock()
	source := c.queueSource
	c.mutex.Unlock()

	if source == queueRecent {
		c.player.RefreshQueue(c.resolver.Recent())
		return
	}
	if _, cat, ok := c.resolver.Category(source); ok {
		c.player.RefreshQueue(cat.Items)
		return
	}
	// category gone, fall back to the recent list
	c.setQueueSource(queueRecent)
	c.player.RefreshQueue(c.resolver.Recent())
}

func (c *Controller) setQueueSource(source string) {
	c.mutex.Lock()
	c.queueSource = source
	c.mutex.Unlock()
}

// Run handles events until ctx is done or the channel is closed.
func (c *Controller) Run(ctx context.Context, events <-chan host.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.Handle(ctx, ev)
		}
	}
}

// Handle processes a single host event.
func (c *Controller) Handle(ctx context.Context, ev host.Event) {
	switch e := ev.(type) {
	case host.ButtonPressed:
		c.handleButton(ctx, e.Button)
	case host.MediaItemSelected:
		c.handleSelect(ctx, e.MediaID)
	case host.SearchRequested:
		c.handleSearch(ctx, e.Query)
	default:
		c.logger.WithField("kind", ev.Kind()).Warn("Unhandled host event")
	}
}

func (c *Controller) handleButton(ctx context.Context, button host.Button) {
	c.logger.WithField("button", button).Debug("Button pressed")

	switch button {
	case host.ButtonPlay:
		if _, ok := c.player.Current(); !ok {
			c.setQueueSource(queueRecent)
			c.player.SetQueue(c.resolver.Recent(), 0)
		}
		c.player.Play()
	case host.ButtonPause:
		c.player.Pause()
	case host.ButtonStop:
		c.player.Stop()
	case host.ButtonNext:
		c.player.Next()
	case host.ButtonPrevious:
		c.player.Previous()
	default:
		c.logger.WithField("button", button).Warn("Unknown button")
		return
	}
	c.reportState(ctx)
}

func (c *Controller) handleSelect(ctx context.Context, mediaID string) {
	logger := c.logger.WithField("media_id", mediaID)

	if nodeID, ok := catalog.ParseShuffleID(mediaID); ok {
		_, cat, found := c.resolver.Category(nodeID)
		if !found || len(cat.Items) == 0 {
			logger.Warn("Shuffle target not found")
			return
		}
		items := cat.Items
		c.shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		logger.WithField("tracks", len(items)).Info("Shuffling category")
		c.playQueue(ctx, nodeID, items)
		return
	}

	if _, cat, found := c.resolver.Category(mediaID); found {
		if len(cat.Items) == 0 {
			logger.Warn("Selected category is empty")
			return
		}
		logger.WithField("tracks", len(cat.Items)).Info("Playing category")
		c.playQueue(ctx, mediaID, cat.Items)
		return
	}

	item, ok := c.resolver.Resolve(mediaID)
	if !ok {
		logger.Warn("Selected media item not found in catalog")
		return
	}
	c.playItem(ctx, item)
}

func (c *Controller) handleSearch(ctx context.Context, query string) {
	logger := c.logger.WithField("query", query)
	if strings.TrimSpace(query) == "" {
		logger.Debug("Ignoring empty search")
		return
	}

	item, ok := c.resolver.Search(query)
	if !ok {
		logger.Info("Search found nothing")
		return
	}
	logger.WithField("media_id", item.ID).Info("Playing search result")
	c.playItem(ctx, item)
}

func (c *Controller) playQueue(ctx context.Context, source string, items []models.MediaItem) {
	c.setQueueSource(source)
	c.player.SetQueue(items, 0)
	c.player.Play()
	c.reportState(ctx)

	if first, ok := c.player.Current(); ok {
		c.afterPlay(ctx, first)
	}
}

func (c *Controller) playItem(ctx context.Context, item models.MediaItem) {
	c.player.Select(item)
	c.reportState(ctx)
	c.afterPlay(ctx, item)
}

// afterPlay records the play and, when enabled, moves the item to the front
// of the recent list.
func (c *Controller) afterPlay(ctx context.Context, item models.MediaItem) {
	if c.opts.Recorder != nil {
		if err := c.opts.Recorder.RecordPlay(ctx, item.ID); err != nil {
			c.logger.WithError(err).WithField("media_id", item.ID).Warn("Failed to record play")
		}
	}
	if !c.opts.TrackRecent {
		return
	}

	pushed := false
	err := c.resolver.Update(ctx, func(lib models.MediaLibrary) (models.MediaLibrary, bool) {
		if len(lib.RecentTracks) > 0 && lib.RecentTracks[0].ID == item.ID {
			return lib, false
		}
		lib.RecentTracks = catalog.PushRecent(lib.RecentTracks, item, c.opts.RecentLimit)
		pushed = true
		return lib, true
	})
	if err != nil || pushed {
		// failures are logged and the previous catalog stays in place
		_ = c.published(ctx, err)
	}
}

// reportState pushes the projected transport state to the host.
func (c *Controller) reportState(ctx context.Context) {
	state := c.player.Project(nil)
	if err := c.platform.UpdatePlayerState(ctx, state); err != nil {
		if host.IsUnimplemented(err) {
			c.noteUnimplemented(host.OpUpdatePlayerState)
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.WithError(err).Warn("Failed to update player state")
	}
}

// noteUnimplemented logs an unsupported host operation once per kind.
func (c *Controller) noteUnimplemented(op string) {
	c.mutex.Lock()
	seen := c.reported[op]
	c.reported[op] = true
	c.mutex.Unlock()

	if !seen {
		c.logger.WithField("op", op).Debug("Host platform does not support operation")
	}
}
