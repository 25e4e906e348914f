package metadata

import (
	"crypto/md5"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"carbridge/pkg/models"

	"github.com/dhowden/tag"
	"github.com/sirupsen/logrus"
)

// Fallbacks for files without usable tags
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// DefaultFormats lists the file extensions scanned by default
var DefaultFormats = []string{".mp3", ".flac", ".wav", ".m4a"}

// Result is the outcome of reading one audio file. Artwork holds the
// embedded picture, if any; Track.AlbumArtID is its content id.
type Result struct {
	Track   models.Track
	Artwork []byte
}

// Extractor reads tags and durations from audio files
type Extractor struct {
	formats map[string]bool
	logger  *logrus.Logger
}

// NewExtractor creates an extractor accepting the given extensions
func NewExtractor(formats []string, logger *logrus.Logger) *Extractor {
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	if logger == nil {
		logger = logrus.New()
	}
	set := make(map[string]bool, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if !strings.HasPrefix(f, ".") {
			f = "." + f
		}
		set[f] = true
	}
	return &Extractor{formats: set, logger: logger}
}

// IsAudioFile checks if a file has a supported extension
func (e *Extractor) IsAudioFile(path string) bool {
	return e.formats[strings.ToLower(filepath.Ext(path))]
}

// Extract reads metadata from path. The returned track has no ID; the
// library store assigns one from the path.
func (e *Extractor) Extract(path string) (Result, error) {
	start := time.Now()
	logger := e.logger.WithField("file_path", path)

	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat audio file: %w", err)
	}

	track := models.Track{
		Title:    titleFromPath(path),
		Artist:   UnknownArtist,
		Album:    UnknownAlbum,
		FilePath: path,
		FileSize: stat.Size(),
		Playable: true,
	}

	duration, err := Duration(path)
	if err != nil {
		logger.WithError(err).Warn("Failed to calculate duration, setting to 0")
	}
	track.Duration = duration.Milliseconds()

	var result Result
	tags, err := tag.ReadFrom(file)
	if err != nil {
		logger.WithError(err).Debug("No readable tags, using filename")
	} else {
		if v := strings.TrimSpace(tags.Title()); v != "" {
			track.Title = v
		}
		if v := strings.TrimSpace(tags.Artist()); v != "" {
			track.Artist = v
		} else if v := strings.TrimSpace(tags.AlbumArtist()); v != "" {
			track.Artist = v
		}
		if v := strings.TrimSpace(tags.Album()); v != "" {
			track.Album = v
		}
		track.TrackNumber, _ = tags.Track()
		if pic := tags.Picture(); pic != nil && len(pic.Data) > 0 {
			result.Artwork = pic.Data
			track.AlbumArtID = ArtworkID(pic.Data)
		}
	}
	result.Track = track

	logger.WithFields(logrus.Fields{
		"title":       track.Title,
		"artist":      track.Artist,
		"album":       track.Album,
		"duration_ms": track.Duration,
		"has_artwork": track.AlbumArtID != "",
		"elapsed":     time.Since(start),
	}).Debug("Extracted metadata")
	return result, nil
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ArtworkID derives a content id for artwork bytes
func ArtworkID(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}

// ArtworkMimeType sniffs the image type of artwork bytes
func ArtworkMimeType(data []byte) string {
	mime := http.DetectContentType(data)
	if strings.HasPrefix(mime, "image/") {
		return mime
	}
	return "application/octet-stream"
}
