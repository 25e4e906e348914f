package catalog

import (
	"testing"

	"carbridge/pkg/models"
)

func TestResolve(t *testing.T) {
	lib := testLibrary()

	tests := []struct {
		name      string
		id        string
		wantFound bool
		wantTitle string
	}{
		{name: "recent track", id: "track_2", wantFound: true, wantTitle: "Stairway to Heaven"},
		{name: "playlist item", id: "track_6", wantFound: true, wantTitle: "Wonderwall"},
		{name: "album item", id: "track_7", wantFound: true, wantTitle: "You're My Best Friend"},
		{name: "artist item", id: "track_8", wantFound: true, wantTitle: "We Will Rock You"},
		{name: "missing id", id: "missing", wantFound: false},
		{name: "empty id", id: "", wantFound: false},
		{name: "category id is not an item", id: "rock", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := Resolve(lib, tt.id)
			if ok != tt.wantFound {
				t.Fatalf("Resolve(%q) found = %v, want %v", tt.id, ok, tt.wantFound)
			}
			if ok && item.Title != tt.wantTitle {
				t.Errorf("Resolve(%q) title = %q, want %q", tt.id, item.Title, tt.wantTitle)
			}
		})
	}
}

func TestResolveReturnsFullMetadata(t *testing.T) {
	lib := testLibrary()
	want := lib.Playlists[0].Items[1]

	got, ok := Resolve(lib, "track_5")
	if !ok {
		t.Fatal("Expected track_5 to be found")
	}
	if got != want {
		t.Errorf("Resolve returned %+v, want %+v", got, want)
	}
}

func TestResolvePriority(t *testing.T) {
	lib := models.MediaLibrary{
		RecentTracks: []models.MediaItem{{ID: "dup", Title: "Recent Version"}},
		Playlists: []models.MediaCategory{
			{ID: "p", Title: "P", Items: []models.MediaItem{{ID: "dup", Title: "Playlist Version"}, {ID: "only_pl", Title: "Playlist Only"}}},
		},
		Albums: []models.MediaCategory{
			{ID: "a", Title: "A", Items: []models.MediaItem{{ID: "only_pl", Title: "Album Version"}}},
		},
	}

	if item, _ := Resolve(lib, "dup"); item.Title != "Recent Version" {
		t.Errorf("Expected recent-tracks version, got %q", item.Title)
	}
	if item, _ := Resolve(lib, "only_pl"); item.Title != "Playlist Only" {
		t.Errorf("Expected playlist version over album, got %q", item.Title)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	lib := testLibrary()

	lower, ok1 := Search(lib, "queen", ScopeRecentAndPlaylists)
	upper, ok2 := Search(lib, "QUEEN", ScopeRecentAndPlaylists)
	if !ok1 || !ok2 {
		t.Fatalf("Expected both searches to match, got %v and %v", ok1, ok2)
	}
	if lower != upper {
		t.Errorf("Case-insensitive search mismatch: %+v vs %+v", lower, upper)
	}
	if lower.ID != "track_1" {
		t.Errorf("Expected track_1, got %s", lower.ID)
	}
}

func TestSearchOrder(t *testing.T) {
	lib := testLibrary()

	tests := []struct {
		name   string
		query  string
		scope  SearchScope
		wantID string
	}{
		{name: "title substring in recent", query: "rhap", scope: ScopeRecentAndPlaylists, wantID: "track_1"},
		{name: "artist match in playlist only", query: "oasis", scope: ScopeRecentAndPlaylists, wantID: "track_6"},
		{name: "recent scanned before playlists", query: "o", scope: ScopeRecentAndPlaylists, wantID: "track_1"},
		{name: "album not searched by default", query: "best friend", scope: ScopeRecentAndPlaylists, wantID: ""},
		{name: "album searched with all scope", query: "best friend", scope: ScopeAll, wantID: "track_7"},
		{name: "artist section searched with all scope", query: "rock you", scope: ScopeAll, wantID: "track_8"},
		{name: "no match", query: "mozart", scope: ScopeAll, wantID: ""},
		{name: "empty query", query: "", scope: ScopeAll, wantID: ""},
		{name: "trailing space is significant", query: "rhap ", scope: ScopeAll, wantID: ""},
		{name: "inner space matches", query: "best friend", scope: ScopeAll, wantID: "track_7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := Search(lib, tt.query, tt.scope)
			if tt.wantID == "" {
				if ok {
					t.Errorf("Expected no match for %q, got %s", tt.query, item.ID)
				}
				return
			}
			if !ok || item.ID != tt.wantID {
				t.Errorf("Search(%q) = %q (found %v), want %q", tt.query, item.ID, ok, tt.wantID)
			}
		})
	}
}

func TestSearchRecentBeatsPlaylist(t *testing.T) {
	lib := models.MediaLibrary{
		Playlists: []models.MediaCategory{
			{ID: "p", Title: "P", Items: []models.MediaItem{{ID: "pl", Title: "Love Song"}}},
		},
		RecentTracks: []models.MediaItem{{ID: "rc", Title: "Another Love"}},
	}

	item, ok := Search(lib, "love", ScopeRecentAndPlaylists)
	if !ok || item.ID != "rc" {
		t.Errorf("Expected recent match rc, got %q (found %v)", item.ID, ok)
	}
}

func TestSearchAll(t *testing.T) {
	lib := testLibrary()

	results := SearchAll(lib, "queen", ScopeAll, 0)
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	want := []string{"track_1", "track_7", "track_8"}
	if len(ids) != len(want) {
		t.Fatalf("SearchAll ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("SearchAll[%d] = %s, want %s", i, ids[i], want[i])
		}
	}

	limited := SearchAll(lib, "queen", ScopeAll, 2)
	if len(limited) != 2 {
		t.Errorf("Expected 2 limited results, got %d", len(limited))
	}

	if got := SearchAll(lib, "queen", ScopeRecentAndPlaylists, 0); len(got) != 1 {
		t.Errorf("Expected 1 result in default scope, got %d", len(got))
	}
}

func TestParseSearchScope(t *testing.T) {
	if s, err := ParseSearchScope(""); err != nil || s != ScopeRecentAndPlaylists {
		t.Errorf("Empty scope = %q, %v", s, err)
	}
	if s, err := ParseSearchScope("all"); err != nil || s != ScopeAll {
		t.Errorf("all scope = %q, %v", s, err)
	}
	if _, err := ParseSearchScope("everything"); err == nil {
		t.Error("Expected error for unknown scope")
	}
}
