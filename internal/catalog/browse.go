package catalog

import (
	"fmt"
	"strings"

	"carbridge/pkg/models"
)

// Well-known browse tree ids.
const (
	RootID      = "root"
	RecentID    = "recent"
	PlaylistsID = "playlists"
	AlbumsID    = "albums"
	ArtistsID   = "artists"

	shufflePrefix = "shuffle_"
)

// Content style hints understood by head units.
const (
	StyleList = 1
	StyleGrid = 2
)

// Kind is a category kind.
type Kind string

const (
	KindPlaylist Kind = "playlist"
	KindAlbum    Kind = "album"
	KindArtist   Kind = "artist"
)

// NodeID returns the browse id of a category of this kind.
func (k Kind) NodeID(categoryID string) string {
	return string(k) + "_" + categoryID
}

// ParseNodeID splits a category browse id into its kind and category id.
func ParseNodeID(nodeID string) (Kind, string, bool) {
	for _, k := range []Kind{KindPlaylist, KindAlbum, KindArtist} {
		if id, ok := strings.CutPrefix(nodeID, string(k)+"_"); ok && id != "" {
			return k, id, true
		}
	}
	return "", "", false
}

// ShuffleID returns the id of the shuffle entry heading a category listing.
func ShuffleID(nodeID string) string {
	return shufflePrefix + nodeID
}

// ParseShuffleID returns the category browse id a shuffle entry belongs to.
func ParseShuffleID(mediaID string) (string, bool) {
	nodeID, ok := strings.CutPrefix(mediaID, shufflePrefix)
	if !ok {
		return "", false
	}
	if _, _, valid := ParseNodeID(nodeID); !valid {
		return "", false
	}
	return nodeID, true
}

func sectionOf(lib models.MediaLibrary, k Kind) []models.MediaCategory {
	switch k {
	case KindPlaylist:
		return lib.Playlists
	case KindAlbum:
		return lib.Albums
	case KindArtist:
		return lib.Artists
	}
	return nil
}

// FindCategory resolves a category browse id such as "playlist_rock".
func FindCategory(lib models.MediaLibrary, nodeID string) (Kind, models.MediaCategory, bool) {
	k, id, ok := ParseNodeID(nodeID)
	if !ok {
		return "", models.MediaCategory{}, false
	}
	for _, c := range sectionOf(lib, k) {
		if c.ID == id {
			return k, c, true
		}
	}
	return "", models.MediaCategory{}, false
}

// Children lists the browse tree below parentID. The second result is false
// for unknown ids.
func Children(lib models.MediaLibrary, parentID string, withShuffle bool) ([]models.BrowseNode, bool) {
	switch parentID {
	case RootID:
		return rootNodes(), true
	case RecentID:
		return itemNodes(lib.RecentTracks), true
	case PlaylistsID:
		return categoryNodes(KindPlaylist, lib.Playlists), true
	case AlbumsID:
		return categoryNodes(KindAlbum, lib.Albums), true
	case ArtistsID:
		return categoryNodes(KindArtist, lib.Artists), true
	}

	_, c, ok := FindCategory(lib, parentID)
	if !ok {
		return nil, false
	}
	nodes := make([]models.BrowseNode, 0, len(c.Items)+1)
	if withShuffle {
		nodes = append(nodes, models.BrowseNode{
			ID:         ShuffleID(parentID),
			Title:      "Shuffle play",
			Subtitle:   "Shuffle",
			ArtworkURL: c.ArtworkURL,
			Playable:   true,
		})
	}
	return append(nodes, itemNodes(c.Items)...), true
}

func rootNodes() []models.BrowseNode {
	root := func(id, title, subtitle string, browseHint, playableHint int) models.BrowseNode {
		return models.BrowseNode{
			ID:           id,
			Title:        title,
			Subtitle:     subtitle,
			Browsable:    true,
			BrowseHint:   browseHint,
			PlayableHint: playableHint,
		}
	}
	return []models.BrowseNode{
		root(RecentID, "Recent", "Recently played tracks", StyleGrid, StyleGrid),
		root(PlaylistsID, "Playlists", "Your playlists", StyleGrid, StyleList),
		root(AlbumsID, "Albums", "All albums", StyleGrid, StyleList),
		root(ArtistsID, "Artists", "All artists", StyleGrid, StyleList),
	}
}

func itemNodes(items []models.MediaItem) []models.BrowseNode {
	nodes := make([]models.BrowseNode, 0, len(items))
	for _, it := range items {
		nodes = append(nodes, models.BrowseNode{
			ID:          it.ID,
			Title:       it.Title,
			Subtitle:    it.Artist,
			Description: it.Album,
			ArtworkURL:  it.ArtworkURL,
			Playable:    it.IsPlayable,
		})
	}
	return nodes
}

func categoryNodes(k Kind, categories []models.MediaCategory) []models.BrowseNode {
	nodes := make([]models.BrowseNode, 0, len(categories))
	for _, c := range categories {
		subtitle := c.Subtitle
		if subtitle == "" {
			subtitle = fmt.Sprintf("%d tracks", len(c.Items))
		}
		nodes = append(nodes, models.BrowseNode{
			ID:           k.NodeID(c.ID),
			Title:        c.Title,
			Subtitle:     subtitle,
			ArtworkURL:   c.ArtworkURL,
			Browsable:    true,
			PlayableHint: StyleList,
		})
	}
	return nodes
}
