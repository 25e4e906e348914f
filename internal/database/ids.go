package database

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("carbridge.media"))

// TrackID returns the stable id of the track stored at path
func TrackID(path string) string {
	return uuid.NewSHA1(idNamespace, []byte("track:"+filepath.Clean(path))).String()
}

// AlbumID returns the stable category id of an album
func AlbumID(album string) string {
	return uuid.NewSHA1(idNamespace, []byte("album:"+normalize(album))).String()
}

// ArtistID returns the stable category id of an artist
func ArtistID(artist string) string {
	return uuid.NewSHA1(idNamespace, []byte("artist:"+normalize(artist))).String()
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
