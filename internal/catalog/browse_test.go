package catalog

import (
	"testing"
)

func TestChildrenRoot(t *testing.T) {
	nodes, ok := Children(testLibrary(), RootID, true)
	if !ok {
		t.Fatal("Expected root to be browsable")
	}

	wantIDs := []string{RecentID, PlaylistsID, AlbumsID, ArtistsID}
	if len(nodes) != len(wantIDs) {
		t.Fatalf("Expected %d root nodes, got %d", len(wantIDs), len(nodes))
	}
	for i, id := range wantIDs {
		if nodes[i].ID != id {
			t.Errorf("root[%d] = %s, want %s", i, nodes[i].ID, id)
		}
		if !nodes[i].Browsable || nodes[i].Playable {
			t.Errorf("root node %s must be browsable only", id)
		}
	}
	if nodes[0].PlayableHint != StyleGrid || nodes[1].PlayableHint != StyleList {
		t.Error("Unexpected content style hints on root nodes")
	}
}

func TestChildrenCategories(t *testing.T) {
	nodes, ok := Children(testLibrary(), PlaylistsID, true)
	if !ok || len(nodes) != 2 {
		t.Fatalf("Expected 2 playlist nodes, got %d (ok=%v)", len(nodes), ok)
	}
	if nodes[0].ID != "playlist_rock" {
		t.Errorf("Expected prefixed id playlist_rock, got %s", nodes[0].ID)
	}
	if nodes[0].Subtitle != "50 tracks" {
		t.Errorf("Expected published subtitle, got %q", nodes[0].Subtitle)
	}
	if nodes[1].Subtitle != "1 tracks" {
		t.Errorf("Expected default subtitle from item count, got %q", nodes[1].Subtitle)
	}
}

func TestChildrenCategoryListing(t *testing.T) {
	lib := testLibrary()

	nodes, ok := Children(lib, "playlist_rock", true)
	if !ok {
		t.Fatal("Expected playlist_rock to be browsable")
	}
	if len(nodes) != 3 {
		t.Fatalf("Expected shuffle entry plus 2 items, got %d", len(nodes))
	}
	if nodes[0].ID != "shuffle_playlist_rock" || !nodes[0].Playable {
		t.Errorf("Expected playable shuffle entry first, got %+v", nodes[0])
	}
	if nodes[0].ArtworkURL != "https://example.com/rock.jpg" {
		t.Errorf("Shuffle entry should inherit category artwork, got %q", nodes[0].ArtworkURL)
	}
	if nodes[1].ID != "track_4" || nodes[1].Subtitle != "Guns N' Roses" {
		t.Errorf("Unexpected first item node %+v", nodes[1])
	}

	plain, _ := Children(lib, "album_queen", false)
	if len(plain) != 2 || plain[0].ID != "track_1" {
		t.Errorf("Expected items without shuffle entry, got %+v", plain)
	}
}

func TestChildrenUnknown(t *testing.T) {
	for _, id := range []string{"", "nope", "playlist_missing", "track_1"} {
		if _, ok := Children(testLibrary(), id, true); ok {
			t.Errorf("Expected %q to be unknown", id)
		}
	}
}

func TestParseShuffleID(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"shuffle_playlist_rock", "playlist_rock", true},
		{"shuffle_artist_queen", "artist_queen", true},
		{"shuffle_track_1", "", false},
		{"playlist_rock", "", false},
		{"shuffle_album_", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseShuffleID(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseShuffleID(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFindCategory(t *testing.T) {
	k, c, ok := FindCategory(testLibrary(), "artist_queen")
	if !ok || k != KindArtist || c.Title != "Queen" {
		t.Errorf("FindCategory returned %v %+v %v", k, c, ok)
	}
	// same category id, other kind
	k, c, ok = FindCategory(testLibrary(), "album_queen")
	if !ok || k != KindAlbum || c.Title != "A Night at the Opera" {
		t.Errorf("FindCategory returned %v %+v %v", k, c, ok)
	}
}
