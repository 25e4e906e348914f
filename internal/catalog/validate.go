package catalog

import (
	"fmt"
	"strings"

	"carbridge/pkg/models"
)

// ValidationError lists every structural problem found in a library.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid library: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid library: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Conflict describes an id whose recurring entries disagree on metadata.
type Conflict struct {
	ID      string
	Field   string
	First   string
	Other   string
	Section string
}

func (c Conflict) String() string {
	return fmt.Sprintf("item %q: %s %q in %s conflicts with %q", c.ID, c.Field, c.Other, c.Section, c.First)
}

// Validate checks the structural rules of a library: items need an id and a
// title and a non-negative duration; categories need an id unique within
// their kind and a title. Metadata conflicts between recurring ids are not
// structural; they are returned separately so callers can decide.
func Validate(lib models.MediaLibrary) ([]Conflict, error) {
	v := validator{first: make(map[string]models.MediaItem)}

	v.items("recentTracks", lib.RecentTracks)
	v.categories(KindPlaylist, lib.Playlists)
	v.categories(KindAlbum, lib.Albums)
	v.categories(KindArtist, lib.Artists)

	if len(v.problems) > 0 {
		return v.conflicts, &ValidationError{Problems: v.problems}
	}
	return v.conflicts, nil
}

type validator struct {
	problems  []string
	conflicts []Conflict
	first     map[string]models.MediaItem
}

func (v *validator) items(section string, items []models.MediaItem) {
	for i, it := range items {
		where := fmt.Sprintf("%s[%d]", section, i)
		if it.ID == "" {
			v.problems = append(v.problems, where+": empty id")
			continue
		}
		if it.Title == "" {
			v.problems = append(v.problems, where+": empty title")
		}
		if it.Duration < 0 {
			v.problems = append(v.problems, where+": negative duration")
		}

		prev, seen := v.first[it.ID]
		if !seen {
			v.first[it.ID] = it
			continue
		}
		v.compare(prev, it, where)
	}
}

func (v *validator) categories(kind Kind, categories []models.MediaCategory) {
	ids := make(map[string]bool)
	for i, c := range categories {
		where := fmt.Sprintf("%ss[%d]", kind, i)
		switch {
		case c.ID == "":
			v.problems = append(v.problems, where+": empty id")
		case ids[c.ID]:
			v.problems = append(v.problems, fmt.Sprintf("%s: duplicate %s id %q", where, kind, c.ID))
		}
		ids[c.ID] = true
		if c.Title == "" {
			v.problems = append(v.problems, where+": empty title")
		}
		v.items(where+".items", c.Items)
	}
}

// compare reports fields set on both entries with different values. An
// absent optional field never conflicts.
func (v *validator) compare(a, b models.MediaItem, where string) {
	check := func(field, x, y string) {
		if x != "" && y != "" && x != y {
			v.conflicts = append(v.conflicts, Conflict{ID: a.ID, Field: field, First: x, Other: y, Section: where})
		}
	}
	check("title", a.Title, b.Title)
	check("artist", a.Artist, b.Artist)
	check("album", a.Album, b.Album)
	check("artworkUrl", a.ArtworkURL, b.ArtworkURL)
	if a.Duration > 0 && b.Duration > 0 && a.Duration != b.Duration {
		check("duration", fmt.Sprint(a.Duration), fmt.Sprint(b.Duration))
	}
}
