package catalog

import (
	"fmt"
	"strings"

	"carbridge/pkg/models"
)

// SearchScope selects which library sections free-text search scans.
type SearchScope string

const (
	// ScopeRecentAndPlaylists scans recent tracks, then playlists. Albums
	// and artists are not searched.
	ScopeRecentAndPlaylists SearchScope = "recent_playlists"
	// ScopeAll scans recent tracks, playlists, albums and artists in that order.
	ScopeAll SearchScope = "all"
)

// ParseSearchScope validates a configured scope name. Empty means the default.
func ParseSearchScope(s string) (SearchScope, error) {
	switch SearchScope(s) {
	case "", ScopeRecentAndPlaylists:
		return ScopeRecentAndPlaylists, nil
	case ScopeAll:
		return ScopeAll, nil
	default:
		return "", fmt.Errorf("invalid search scope: %s (must be %s or %s)", s, ScopeRecentAndPlaylists, ScopeAll)
	}
}

// Resolve finds the item with the given id. Sections are scanned in fixed
// priority order: recent tracks, playlists, albums, artists; within a
// section categories and items are scanned in publication order. The first
// match wins, so an id recurring in several places resolves to its
// highest-priority occurrence.
func Resolve(lib models.MediaLibrary, id string) (models.MediaItem, bool) {
	if id == "" {
		return models.MediaItem{}, false
	}
	if item, ok := findInItems(lib.RecentTracks, func(it models.MediaItem) bool { return it.ID == id }); ok {
		return item, true
	}
	for _, group := range [][]models.MediaCategory{lib.Playlists, lib.Albums, lib.Artists} {
		if item, ok := findInCategories(group, func(it models.MediaItem) bool { return it.ID == id }); ok {
			return item, true
		}
	}
	return models.MediaItem{}, false
}

// Search returns the first item whose title or artist contains query,
// ignoring case. It is first-hit, not best-match: sections are scanned in
// the scope's order and the first matching item is returned.
func Search(lib models.MediaLibrary, query string, scope SearchScope) (models.MediaItem, bool) {
	match, ok := matcher(query)
	if !ok {
		return models.MediaItem{}, false
	}
	if item, ok := findInItems(lib.RecentTracks, match); ok {
		return item, true
	}
	for _, group := range scopedCategories(lib, scope) {
		if item, ok := findInCategories(group, match); ok {
			return item, true
		}
	}
	return models.MediaItem{}, false
}

// SearchAll returns every matching item in scope order, each id at most
// once. A limit of zero or less means no limit.
func SearchAll(lib models.MediaLibrary, query string, scope SearchScope, limit int) []models.MediaItem {
	match, ok := matcher(query)
	if !ok {
		return nil
	}

	results := make([]models.MediaItem, 0)
	seen := make(map[string]bool)
	collect := func(items []models.MediaItem) bool {
		for _, it := range items {
			if seen[it.ID] || !match(it) {
				continue
			}
			seen[it.ID] = true
			results = append(results, it)
			if limit > 0 && len(results) >= limit {
				return false
			}
		}
		return true
	}

	if !collect(lib.RecentTracks) {
		return results
	}
	for _, group := range scopedCategories(lib, scope) {
		for _, c := range group {
			if !collect(c.Items) {
				return results
			}
		}
	}
	return results
}

func scopedCategories(lib models.MediaLibrary, scope SearchScope) [][]models.MediaCategory {
	if scope == ScopeAll {
		return [][]models.MediaCategory{lib.Playlists, lib.Albums, lib.Artists}
	}
	return [][]models.MediaCategory{lib.Playlists}
}

// matcher compares the query as given, whitespace included. An empty query
// matches nothing.
func matcher(query string) (func(models.MediaItem) bool, bool) {
	q := strings.ToLower(query)
	if q == "" {
		return nil, false
	}
	return func(it models.MediaItem) bool {
		if strings.Contains(strings.ToLower(it.Title), q) {
			return true
		}
		return it.Artist != "" && strings.Contains(strings.ToLower(it.Artist), q)
	}, true
}

func findInItems(items []models.MediaItem, match func(models.MediaItem) bool) (models.MediaItem, bool) {
	for _, it := range items {
		if match(it) {
			return it, true
		}
	}
	return models.MediaItem{}, false
}

func findInCategories(categories []models.MediaCategory, match func(models.MediaItem) bool) (models.MediaItem, bool) {
	for _, c := range categories {
		if item, ok := findInItems(c.Items, match); ok {
			return item, true
		}
	}
	return models.MediaItem{}, false
}
