package models

// MediaItem represents a playable unit published to the head unit
type MediaItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist,omitempty"`
	Album      string `json:"album,omitempty"`
	ArtworkURL string `json:"artworkUrl,omitempty"`
	Duration   int64  `json:"duration,omitempty"` // in milliseconds
	IsPlayable bool   `json:"isPlayable"`
}

// MediaCategory is a named, ordered grouping of items (playlist, album or artist)
type MediaCategory struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Subtitle   string      `json:"subtitle,omitempty"`
	ArtworkURL string      `json:"artworkUrl,omitempty"`
	Items      []MediaItem `json:"items,omitempty"`
}

// MediaLibrary is a complete catalog snapshot. Publishing a new one replaces
// the previous one in full.
type MediaLibrary struct {
	RecentTracks []MediaItem     `json:"recentTracks,omitempty"`
	Playlists    []MediaCategory `json:"playlists,omitempty"`
	Albums       []MediaCategory `json:"albums,omitempty"`
	Artists      []MediaCategory `json:"artists,omitempty"`
}

// Clone returns a deep copy of the library.
func (l MediaLibrary) Clone() MediaLibrary {
	return MediaLibrary{
		RecentTracks: cloneItems(l.RecentTracks),
		Playlists:    cloneCategories(l.Playlists),
		Albums:       cloneCategories(l.Albums),
		Artists:      cloneCategories(l.Artists),
	}
}

// IsEmpty reports whether the library has no sections at all.
func (l MediaLibrary) IsEmpty() bool {
	return len(l.RecentTracks) == 0 && len(l.Playlists) == 0 &&
		len(l.Albums) == 0 && len(l.Artists) == 0
}

// TrackCount counts item entries across every section, duplicates included.
func (l MediaLibrary) TrackCount() int {
	n := len(l.RecentTracks)
	for _, group := range [][]MediaCategory{l.Playlists, l.Albums, l.Artists} {
		for _, c := range group {
			n += len(c.Items)
		}
	}
	return n
}

func cloneItems(items []MediaItem) []MediaItem {
	if items == nil {
		return nil
	}
	out := make([]MediaItem, len(items))
	copy(out, items)
	return out
}

func cloneCategories(categories []MediaCategory) []MediaCategory {
	if categories == nil {
		return nil
	}
	out := make([]MediaCategory, len(categories))
	for i, c := range categories {
		out[i] = c
		out[i].Items = cloneItems(c.Items)
	}
	return out
}

// PlayerState is the transport state reported to the head unit
type PlayerState struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	ArtworkURL string `json:"artworkUrl,omitempty"`
	IsPlaying  bool   `json:"isPlaying"`
	Duration   int64  `json:"duration,omitempty"` // in milliseconds
	Position   int64  `json:"position,omitempty"` // in milliseconds
}

// BrowseNode is one entry of the head unit's browse tree
type BrowseNode struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle,omitempty"`
	Description  string `json:"description,omitempty"`
	ArtworkURL   string `json:"artworkUrl,omitempty"`
	Browsable    bool   `json:"browsable"`
	Playable     bool   `json:"playable"`
	BrowseHint   int    `json:"browseHint,omitempty"`   // style for browsable children
	PlayableHint int    `json:"playableHint,omitempty"` // style for playable children
}
