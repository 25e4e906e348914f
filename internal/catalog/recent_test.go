package catalog

import (
	"fmt"
	"testing"

	"carbridge/pkg/models"
)

func TestPushRecentBound(t *testing.T) {
	recent := make([]models.MediaItem, 10)
	for i := range recent {
		recent[i] = models.MediaItem{ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("Track %d", i)}
	}

	newest := models.MediaItem{ID: "new", Title: "New Song"}
	got := PushRecent(recent, newest, 10)

	if len(got) != 10 {
		t.Fatalf("Expected 10 recent tracks, got %d", len(got))
	}
	if got[0].ID != "new" {
		t.Errorf("Expected newest item at index 0, got %s", got[0].ID)
	}
	if got[9].ID != "t8" {
		t.Errorf("Expected t8 at the tail, got %s", got[9].ID)
	}
	if recent[0].ID != "t0" {
		t.Error("PushRecent modified its input")
	}
}

func TestPushRecentMovesExistingToFront(t *testing.T) {
	recent := []models.MediaItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	got := PushRecent(recent, models.MediaItem{ID: "c"}, 10)
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d items, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestPushRecentDefaultLimit(t *testing.T) {
	var recent []models.MediaItem
	for i := 0; i < 15; i++ {
		recent = PushRecent(recent, models.MediaItem{ID: fmt.Sprintf("t%d", i)}, 0)
	}
	if len(recent) != DefaultRecentLimit {
		t.Errorf("Expected %d items, got %d", DefaultRecentLimit, len(recent))
	}
	if recent[0].ID != "t14" {
		t.Errorf("Expected t14 first, got %s", recent[0].ID)
	}
}
