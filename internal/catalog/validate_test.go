package catalog

import (
	"errors"
	"strings"
	"testing"

	"carbridge/pkg/models"
)

func TestValidateAcceptsExampleLibrary(t *testing.T) {
	conflicts, err := Validate(testLibrary())
	if err != nil {
		t.Fatalf("Expected valid library, got %v", err)
	}
	// track_1 recurs with fewer fields set, which is not a conflict
	if len(conflicts) != 0 {
		t.Errorf("Expected no conflicts, got %v", conflicts)
	}
}

func TestValidateStructuralProblems(t *testing.T) {
	tests := []struct {
		name    string
		lib     models.MediaLibrary
		wantMsg string
	}{
		{
			name:    "empty item id",
			lib:     models.MediaLibrary{RecentTracks: []models.MediaItem{{Title: "x"}}},
			wantMsg: "recentTracks[0]: empty id",
		},
		{
			name:    "empty title",
			lib:     models.MediaLibrary{RecentTracks: []models.MediaItem{{ID: "x"}}},
			wantMsg: "empty title",
		},
		{
			name:    "negative duration",
			lib:     models.MediaLibrary{RecentTracks: []models.MediaItem{{ID: "x", Title: "x", Duration: -1}}},
			wantMsg: "negative duration",
		},
		{
			name: "duplicate playlist id",
			lib: models.MediaLibrary{Playlists: []models.MediaCategory{
				{ID: "p", Title: "One"}, {ID: "p", Title: "Two"},
			}},
			wantMsg: `duplicate playlist id "p"`,
		},
		{
			name: "invalid nested item",
			lib: models.MediaLibrary{Albums: []models.MediaCategory{
				{ID: "a", Title: "A", Items: []models.MediaItem{{ID: "", Title: "x"}}},
			}},
			wantMsg: "albums[0].items[0]: empty id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.lib)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateSameIDAcrossKinds(t *testing.T) {
	lib := models.MediaLibrary{
		Albums:  []models.MediaCategory{{ID: "queen", Title: "Album"}},
		Artists: []models.MediaCategory{{ID: "queen", Title: "Artist"}},
	}
	if _, err := Validate(lib); err != nil {
		t.Errorf("Category ids only need to be unique within a kind: %v", err)
	}
}

func TestValidateConflicts(t *testing.T) {
	lib := models.MediaLibrary{
		RecentTracks: []models.MediaItem{{ID: "dup", Title: "One", Artist: "A"}},
		Playlists: []models.MediaCategory{
			{ID: "p", Title: "P", Items: []models.MediaItem{{ID: "dup", Title: "Two", Artist: "A"}}},
		},
	}

	conflicts, err := Validate(lib)
	if err != nil {
		t.Fatalf("Conflicts are not structural errors: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("Expected 1 conflict, got %d", len(conflicts))
	}
	c := conflicts[0]
	if c.ID != "dup" || c.Field != "title" || c.First != "One" || c.Other != "Two" {
		t.Errorf("Unexpected conflict %+v", c)
	}
}
