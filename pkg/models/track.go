package models

import "time"

// Track is a scanned audio file as stored in the library database
type Track struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album"`
	TrackNumber int       `json:"trackNumber"`
	Duration    int64     `json:"duration"` // in milliseconds
	FilePath    string    `json:"filePath"`
	FileSize    int64     `json:"fileSize"`
	AlbumArtID  string    `json:"albumArtId,omitempty"`
	Playable    bool      `json:"playable"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MediaItem converts the track to its catalog form. Embedded artwork is
// addressed below artworkBase, e.g. "http://host:8080".
func (t Track) MediaItem(artworkBase string) MediaItem {
	item := MediaItem{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		Album:      t.Album,
		Duration:   t.Duration,
		IsPlayable: t.Playable,
	}
	if t.AlbumArtID != "" {
		item.ArtworkURL = artworkBase + "/albumart/" + t.AlbumArtID
	}
	return item
}

// Playlist is a user-defined, ordered track list
type Playlist struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle,omitempty"`
	ArtworkURL string    `json:"artworkUrl,omitempty"`
	TrackCount int       `json:"trackCount"`
	CreatedAt  time.Time `json:"createdAt"`
}
