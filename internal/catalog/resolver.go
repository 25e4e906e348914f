package catalog

import (
	"context"
	"sync"

	"carbridge/internal/host"
	"carbridge/pkg/models"

	"github.com/sirupsen/logrus"
)

// Publisher is the part of the host platform that receives catalog snapshots.
type Publisher interface {
	SetMediaLibrary(ctx context.Context, library models.MediaLibrary) error
}

// Options configures a Resolver
type Options struct {
	SearchScope SearchScope
	// ShuffleItems adds a shuffle entry at the head of every category listing.
	ShuffleItems bool
	// StrictConsistency rejects libraries whose recurring ids disagree on
	// metadata instead of only logging the conflicts.
	StrictConsistency bool
	Logger            *logrus.Logger
}

// snapshot is immutable once stored in a Resolver.
type snapshot struct {
	library    models.MediaLibrary
	generation uint64
}

// Resolver owns the current library snapshot and answers lookups against it.
// Lookups may run concurrently with each other and with SetLibrary; a
// lookup always sees one complete snapshot.
type Resolver struct {
	publisher Publisher
	opts      Options
	logger    *logrus.Logger

	writeMu sync.Mutex // serializes replacements, including the publish call
	mutex   sync.RWMutex
	current *snapshot
}

// NewResolver creates a resolver publishing through publisher. A nil
// publisher keeps the catalog local.
func NewResolver(publisher Publisher, opts Options) *Resolver {
	if opts.SearchScope == "" {
		opts.SearchScope = ScopeRecentAndPlaylists
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Resolver{
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		current:   &snapshot{},
	}
}

func (r *Resolver) load() *snapshot {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.current
}

func (r *Resolver) store(lib models.MediaLibrary) uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	next := &snapshot{library: lib, generation: r.current.generation + 1}
	r.current = next
	return next.generation
}

// SetLibrary validates lib, publishes it to the host and then replaces the
// held snapshot. If validation or publishing fails the previous snapshot
// stays in place and remains queryable. Publish failures are returned as
// *host.PublishError. The caller must not modify lib afterwards.
func (r *Resolver) SetLibrary(ctx context.Context, lib models.MediaLibrary) error {
	if err := r.check(lib); err != nil {
		return err
	}
	lib = lib.Clone()

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.replace(ctx, lib)
}

// Update derives a new library from the current one and publishes it. The
// read, fn and publish run as one replacement, so no concurrent SetLibrary
// or Update can land in between. fn receives a copy and returns false to
// leave the catalog untouched.
func (r *Resolver) Update(ctx context.Context, fn func(models.MediaLibrary) (models.MediaLibrary, bool)) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	lib, changed := fn(r.load().library.Clone())
	if !changed {
		return nil
	}
	if err := r.check(lib); err != nil {
		return err
	}
	return r.replace(ctx, lib.Clone())
}

func (r *Resolver) check(lib models.MediaLibrary) error {
	conflicts, err := Validate(lib)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	for _, c := range conflicts {
		r.logger.WithFields(logrus.Fields{
			"media_id": c.ID,
			"field":    c.Field,
			"section":  c.Section,
		}).Warn("Inconsistent metadata for recurring media id")
	}
	if r.opts.StrictConsistency {
		problems := make([]string, len(conflicts))
		for i, c := range conflicts {
			problems[i] = c.String()
		}
		return &ValidationError{Problems: problems}
	}
	return nil
}

// replace must be called with writeMu held
func (r *Resolver) replace(ctx context.Context, lib models.MediaLibrary) error {
	if r.publisher != nil {
		if err := r.publisher.SetMediaLibrary(ctx, lib); err != nil {
			r.logger.WithError(err).Warn("Library publish failed, keeping previous catalog")
			return host.Wrap(host.OpSetMediaLibrary, err)
		}
	}

	gen := r.store(lib)
	r.logger.WithFields(logrus.Fields{
		"generation": gen,
		"recent":     len(lib.RecentTracks),
		"playlists":  len(lib.Playlists),
		"albums":     len(lib.Albums),
		"artists":    len(lib.Artists),
	}).Info("Library catalog replaced")
	return nil
}

// Clear discards the held snapshot without publishing anything.
func (r *Resolver) Clear() {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	r.store(models.MediaLibrary{})
}

// Snapshot returns a copy of the current library.
func (r *Resolver) Snapshot() models.MediaLibrary {
	return r.load().library.Clone()
}

// Generation increases by one on every successful replacement or Clear.
func (r *Resolver) Generation() uint64 {
	return r.load().generation
}

// Resolve looks up an item by id. A false result is the normal not-found
// outcome, e.g. for an id from an older snapshot.
func (r *Resolver) Resolve(id string) (models.MediaItem, bool) {
	return Resolve(r.load().library, id)
}

// Search returns the first item matching query within the configured scope.
func (r *Resolver) Search(query string) (models.MediaItem, bool) {
	return Search(r.load().library, query, r.opts.SearchScope)
}

// SearchAll returns up to limit matching items from every section. The
// configured scope only applies to Search.
func (r *Resolver) SearchAll(query string, limit int) []models.MediaItem {
	return SearchAll(r.load().library, query, ScopeAll, limit)
}

// Category resolves a category browse id such as "album_queen".
func (r *Resolver) Category(nodeID string) (Kind, models.MediaCategory, bool) {
	k, c, ok := FindCategory(r.load().library, nodeID)
	if !ok {
		return "", models.MediaCategory{}, false
	}
	c.Items = append([]models.MediaItem(nil), c.Items...)
	return k, c, true
}

// Children lists the browse tree below parentID.
func (r *Resolver) Children(parentID string) ([]models.BrowseNode, bool) {
	return Children(r.load().library, parentID, r.opts.ShuffleItems)
}

// Recent returns a copy of the current recent-tracks list.
func (r *Resolver) Recent() []models.MediaItem {
	return append([]models.MediaItem(nil), r.load().library.RecentTracks...)
}

