package player

import (
	"sync"
	"time"

	"carbridge/pkg/models"
)

// Placeholders reported when nothing is loaded.
const (
	NoTrackTitle  = "No Track"
	UnknownArtist = "Unknown Artist"
)

// State is the transport state behind the reported PlayerState
type State struct {
	Queue     []models.MediaItem `json:"queue"`
	Index     int                `json:"index"`
	Selected  *models.MediaItem  `json:"selected,omitempty"` // item playing outside the queue
	IsPlaying bool               `json:"isPlaying"`
	Position  int64              `json:"position"` // in milliseconds
	UpdatedAt time.Time          `json:"updatedAt"`
}

// StateManager manages transport state. It is safe for concurrent use.
type StateManager struct {
	state *State
	mutex sync.RWMutex
}

// NewStateManager creates a new transport state manager
func NewStateManager() *StateManager {
	return &StateManager{
		state: &State{UpdatedAt: time.Now()},
	}
}

// GetState returns a copy of the current state
func (sm *StateManager) GetState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	stateCopy := *sm.state
	stateCopy.Queue = append([]models.MediaItem(nil), sm.state.Queue...)
	if sm.state.Selected != nil {
		selected := *sm.state.Selected
		stateCopy.Selected = &selected
	}
	return stateCopy
}

// current must be called with the lock held
func (sm *StateManager) current() (models.MediaItem, bool) {
	if sm.state.Selected != nil {
		return *sm.state.Selected, true
	}
	if sm.state.Index >= 0 && sm.state.Index < len(sm.state.Queue) {
		return sm.state.Queue[sm.state.Index], true
	}
	return models.MediaItem{}, false
}

// Current returns the item that is loaded, if any
func (sm *StateManager) Current() (models.MediaItem, bool) {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.current()
}

func (sm *StateManager) touch() {
	sm.state.UpdatedAt = time.Now()
}

// SetQueue replaces the queue and starts at index. Playback state is kept.
func (sm *StateManager) SetQueue(items []models.MediaItem, index int) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.state.Queue = append([]models.MediaItem(nil), items...)
	if index < 0 || index >= len(items) {
		index = 0
	}
	sm.state.Index = index
	sm.state.Selected = nil
	sm.state.Position = 0
	sm.touch()
}

// RefreshQueue replaces the queue after a library update without
// interrupting playback: the loaded item keeps playing and, if it is part of
// the new queue, navigation continues from its new position.
func (sm *StateManager) RefreshQueue(items []models.MediaItem) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	cur, loaded := sm.current()
	sm.state.Queue = append([]models.MediaItem(nil), items...)
	sm.state.Index = 0
	sm.state.Selected = nil
	if !loaded {
		sm.touch()
		return
	}
	for i, it := range items {
		if it.ID == cur.ID {
			sm.state.Index = i
			sm.touch()
			return
		}
	}
	// keep the loaded item as a selection outside the queue
	sm.state.Selected = &cur
	sm.touch()
}

// Play resumes playback
func (sm *StateManager) Play() {
	sm.setPlaying(true)
}

// Pause pauses playback
func (sm *StateManager) Pause() {
	sm.setPlaying(false)
}

func (sm *StateManager) setPlaying(playing bool) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.state.IsPlaying = playing
	sm.touch()
}

// Stop pauses playback and rewinds to the start of the item
func (sm *StateManager) Stop() {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.state.IsPlaying = false
	sm.state.Position = 0
	sm.touch()
}

// Next advances to the next queue item, wrapping at the end
func (sm *StateManager) Next() {
	sm.step(1)
}

// Previous goes back one queue item, wrapping at the start
func (sm *StateManager) Previous() {
	sm.step(-1)
}

func (sm *StateManager) step(delta int) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	n := len(sm.state.Queue)
	sm.state.Selected = nil
	sm.state.Position = 0
	if n == 0 {
		sm.state.Index = 0
		sm.touch()
		return
	}
	sm.state.Index = ((sm.state.Index+delta)%n + n) % n
	sm.touch()
}

// Select loads item and starts playing it. If the item is in the queue the
// queue position moves to it.
func (sm *StateManager) Select(item models.MediaItem) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.state.Selected = nil
	found := false
	for i, it := range sm.state.Queue {
		if it.ID == item.ID {
			sm.state.Index = i
			found = true
			break
		}
	}
	if !found {
		selected := item
		sm.state.Selected = &selected
	}
	sm.state.IsPlaying = true
	sm.state.Position = 0
	sm.touch()
}

// Seek moves the playback position
func (sm *StateManager) Seek(position int64) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if position < 0 {
		position = 0
	}
	sm.state.Position = position
	sm.touch()
}

// Project computes the PlayerState to report. A non-nil override is
// projected instead of the loaded item.
func (sm *StateManager) Project(override *models.MediaItem) models.PlayerState {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	item, ok := sm.current()
	if override != nil {
		item, ok = *override, true
	}
	return project(item, ok, sm.state.IsPlaying, sm.state.Position)
}

func project(item models.MediaItem, loaded, playing bool, position int64) models.PlayerState {
	if !loaded {
		return models.PlayerState{
			Title:     NoTrackTitle,
			Artist:    UnknownArtist,
			IsPlaying: playing,
		}
	}

	artist := item.Artist
	if artist == "" {
		artist = UnknownArtist
	}
	if item.Duration > 0 && position > item.Duration {
		position = item.Duration
	}
	return models.PlayerState{
		Title:      item.Title,
		Artist:     artist,
		Album:      item.Album,
		ArtworkURL: item.ArtworkURL,
		IsPlaying:  playing,
		Duration:   item.Duration,
		Position:   position,
	}
}
