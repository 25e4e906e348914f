package player

import (
	"testing"

	"carbridge/pkg/models"
)

func testQueue() []models.MediaItem {
	return []models.MediaItem{
		{ID: "track_1", Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", Duration: 354000},
		{ID: "track_2", Title: "Stairway to Heaven", Artist: "Led Zeppelin", Duration: 482000},
		{ID: "track_3", Title: "Hotel California", Artist: "Eagles", Duration: 391000},
	}
}

func TestEmptyProjection(t *testing.T) {
	sm := NewStateManager()
	state := sm.Project(nil)

	if state.Title != NoTrackTitle || state.Artist != UnknownArtist {
		t.Errorf("Expected placeholder state, got %+v", state)
	}
	if state.IsPlaying {
		t.Error("Expected not playing")
	}
}

func TestTransportControls(t *testing.T) {
	sm := NewStateManager()
	sm.SetQueue(testQueue(), 0)

	sm.Play()
	if s := sm.Project(nil); !s.IsPlaying || s.Title != "Bohemian Rhapsody" {
		t.Errorf("After play got %+v", s)
	}

	sm.Pause()
	if sm.Project(nil).IsPlaying {
		t.Error("Expected paused")
	}

	sm.Seek(10000)
	sm.Stop()
	if s := sm.GetState(); s.IsPlaying || s.Position != 0 {
		t.Errorf("Expected stopped and rewound, got playing=%v position=%d", s.IsPlaying, s.Position)
	}
}

func TestNextPreviousWrap(t *testing.T) {
	sm := NewStateManager()
	sm.SetQueue(testQueue(), 0)

	tests := []struct {
		name   string
		action func()
		want   string
	}{
		{"previous wraps to end", sm.Previous, "track_3"},
		{"next wraps to start", sm.Next, "track_1"},
		{"next advances", sm.Next, "track_2"},
		{"previous goes back", sm.Previous, "track_1"},
	}
	for _, tt := range tests {
		tt.action()
		cur, ok := sm.Current()
		if !ok || cur.ID != tt.want {
			t.Errorf("%s: current = %q, want %q", tt.name, cur.ID, tt.want)
		}
	}
}

func TestNextOnEmptyQueue(t *testing.T) {
	sm := NewStateManager()
	sm.Next()
	sm.Previous()
	if _, ok := sm.Current(); ok {
		t.Error("Expected nothing loaded")
	}
}

func TestSelect(t *testing.T) {
	sm := NewStateManager()
	sm.SetQueue(testQueue(), 0)

	sm.Select(testQueue()[2])
	if s := sm.GetState(); s.Index != 2 || s.Selected != nil || !s.IsPlaying {
		t.Errorf("Selecting a queued item should move the index, got %+v", s)
	}

	outside := models.MediaItem{ID: "track_9", Title: "Outside", Duration: 1000}
	sm.Select(outside)
	if s := sm.Project(nil); s.Title != "Outside" || !s.IsPlaying {
		t.Errorf("Expected selected item projected, got %+v", s)
	}

	// navigation resumes from the queue position
	sm.Next()
	if cur, _ := sm.Current(); cur.ID != "track_1" {
		t.Errorf("Expected track_1 after next, got %s", cur.ID)
	}
}

func TestProjectOverride(t *testing.T) {
	sm := NewStateManager()
	sm.SetQueue(testQueue(), 0)
	sm.Play()

	override := models.MediaItem{ID: "x", Title: "Override", Artist: "Someone", ArtworkURL: "https://example.com/x.jpg", Duration: 5000}
	s := sm.Project(&override)
	if s.Title != "Override" || s.ArtworkURL != "https://example.com/x.jpg" || !s.IsPlaying {
		t.Errorf("Expected override projected, got %+v", s)
	}
	if cur, _ := sm.Current(); cur.ID != "track_1" {
		t.Error("Override must not change the loaded item")
	}
}

func TestProjectClampsPosition(t *testing.T) {
	sm := NewStateManager()
	sm.SetQueue([]models.MediaItem{{ID: "a", Title: "Short", Duration: 3000}}, 0)

	sm.Seek(9000)
	if s := sm.Project(nil); s.Position != 3000 {
		t.Errorf("Expected position clamped to 3000, got %d", s.Position)
	}

	sm.Seek(-5)
	if s := sm.Project(nil); s.Position != 0 {
		t.Errorf("Expected negative seek to clamp to 0, got %d", s.Position)
	}
}

func TestProjectUnknownArtist(t *testing.T) {
	sm := NewStateManager()
	sm.SetQueue([]models.MediaItem{{ID: "a", Title: "Untitled"}}, 0)
	if s := sm.Project(nil); s.Artist != UnknownArtist {
		t.Errorf("Expected %q, got %q", UnknownArtist, s.Artist)
	}
}

func TestRefreshQueue(t *testing.T) {
	sm := NewStateManager()
	sm.SetQueue(testQueue(), 1)
	sm.Play()

	reordered := []models.MediaItem{{ID: "new", Title: "New"}, testQueue()[1], testQueue()[0]}
	sm.RefreshQueue(reordered)
	s := sm.GetState()
	if s.Index != 1 || !s.IsPlaying {
		t.Errorf("Expected index to follow loaded item, got index %d playing %v", s.Index, s.IsPlaying)
	}

	sm.RefreshQueue([]models.MediaItem{{ID: "other", Title: "Other"}})
	if cur, _ := sm.Current(); cur.ID != "track_2" {
		t.Errorf("Expected loaded item kept as selection, got %s", cur.ID)
	}
}

func TestGetStateReturnsCopy(t *testing.T) {
	sm := NewStateManager()
	sm.SetQueue(testQueue(), 0)

	s := sm.GetState()
	s.Queue[0].Title = "Changed"
	if cur, _ := sm.Current(); cur.Title != "Bohemian Rhapsody" {
		t.Error("GetState leaked internal queue")
	}
}
