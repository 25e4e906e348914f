package database

import (
	"fmt"
	"slices"
	"strings"

	"carbridge/pkg/models"

	"github.com/sirupsen/logrus"
)

// VariousArtists is the album subtitle when an album has several artists
const VariousArtists = "Various Artists"

// BuildLibrary assembles a catalog snapshot from the store: the recent
// plays, playlists in creation order, albums and artists ordered by title.
// artworkBase prefixes embedded artwork URLs.
func (db *Database) BuildLibrary(recentLimit int, artworkBase string) (models.MediaLibrary, error) {
	var lib models.MediaLibrary
	artworkBase = strings.TrimRight(artworkBase, "/")

	recent, err := db.RecentTracks(recentLimit)
	if err != nil {
		return lib, fmt.Errorf("failed to load recent tracks: %w", err)
	}
	lib.RecentTracks = toItems(recent, artworkBase)

	playlists, err := db.GetAllPlaylists()
	if err != nil {
		return lib, fmt.Errorf("failed to load playlists: %w", err)
	}
	for _, p := range playlists {
		tracks, err := db.GetPlaylistTracks(p.ID)
		if err != nil {
			return lib, fmt.Errorf("failed to load playlist %s: %w", p.ID, err)
		}
		items := toItems(tracks, artworkBase)
		artwork := p.ArtworkURL
		if artwork == "" {
			artwork = firstArtwork(items)
		}
		lib.Playlists = append(lib.Playlists, models.MediaCategory{
			ID:         p.ID,
			Title:      p.Title,
			Subtitle:   p.Subtitle,
			ArtworkURL: artwork,
			Items:      items,
		})
	}

	tracks, err := db.GetAllTracks()
	if err != nil {
		return lib, fmt.Errorf("failed to load tracks: %w", err)
	}
	lib.Albums = groupAlbums(tracks, artworkBase)
	lib.Artists = groupArtists(tracks, artworkBase)

	db.logger.WithFields(logrus.Fields{
		"recent":    len(lib.RecentTracks),
		"playlists": len(lib.Playlists),
		"albums":    len(lib.Albums),
		"artists":   len(lib.Artists),
	}).Debug("Built library snapshot")
	return lib, nil
}

func toItems(tracks []models.Track, artworkBase string) []models.MediaItem {
	items := make([]models.MediaItem, 0, len(tracks))
	for _, t := range tracks {
		items = append(items, t.MediaItem(artworkBase))
	}
	return items
}

func firstArtwork(items []models.MediaItem) string {
	for _, it := range items {
		if it.ArtworkURL != "" {
			return it.ArtworkURL
		}
	}
	return ""
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// group buckets tracks by key, keeping first-seen order of tracks within a
// bucket, and returns the buckets sorted by key.
func group(tracks []models.Track, key func(models.Track) string) [][]models.Track {
	index := make(map[string]int)
	var buckets [][]models.Track
	var keys []string
	for _, t := range tracks {
		k := key(t)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, nil)
			keys = append(keys, k)
		}
		buckets[i] = append(buckets[i], t)
	}

	order := make([]int, len(buckets))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return compareFold(keys[a], keys[b]) })

	sorted := make([][]models.Track, len(order))
	for i, j := range order {
		sorted[i] = buckets[j]
	}
	return sorted
}

func groupAlbums(tracks []models.Track, artworkBase string) []models.MediaCategory {
	var albums []models.MediaCategory
	for _, bucket := range group(tracks, func(t models.Track) string { return normalize(t.Album) }) {
		slices.SortStableFunc(bucket, func(a, b models.Track) int {
			if a.TrackNumber != b.TrackNumber {
				return a.TrackNumber - b.TrackNumber
			}
			return compareFold(a.Title, b.Title)
		})

		subtitle := bucket[0].Artist
		for _, t := range bucket[1:] {
			if !strings.EqualFold(t.Artist, subtitle) {
				subtitle = VariousArtists
				break
			}
		}

		items := toItems(bucket, artworkBase)
		albums = append(albums, models.MediaCategory{
			ID:         AlbumID(bucket[0].Album),
			Title:      bucket[0].Album,
			Subtitle:   subtitle,
			ArtworkURL: firstArtwork(items),
			Items:      items,
		})
	}
	return albums
}

func groupArtists(tracks []models.Track, artworkBase string) []models.MediaCategory {
	var artists []models.MediaCategory
	for _, bucket := range group(tracks, func(t models.Track) string { return normalize(t.Artist) }) {
		items := toItems(bucket, artworkBase)
		artists = append(artists, models.MediaCategory{
			ID:         ArtistID(bucket[0].Artist),
			Title:      bucket[0].Artist,
			ArtworkURL: firstArtwork(items),
			Items:      items,
		})
	}
	return artists
}
