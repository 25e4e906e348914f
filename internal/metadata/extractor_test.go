package metadata

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

// writeWAV writes a silent mono 16-bit PCM file of the given length
func writeWAV(t *testing.T, path string, sampleRate, seconds int) {
	t.Helper()
	dataSize := uint32(sampleRate * 2 * seconds)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create wav: %v", err)
	}
	defer f.Close()

	header := []any{
		[4]byte{'R', 'I', 'F', 'F'}, uint32(36 + dataSize), [4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '}, uint32(16), uint16(1), uint16(1),
		uint32(sampleRate), uint32(sampleRate * 2), uint16(2), uint16(16),
		[4]byte{'d', 'a', 't', 'a'}, dataSize,
	}
	for _, v := range header {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			t.Fatalf("Failed to write wav header: %v", err)
		}
	}
	if _, err := f.Write(make([]byte, dataSize)); err != nil {
		t.Fatalf("Failed to write wav data: %v", err)
	}
}

func testExtractor() *Extractor {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewExtractor(nil, logger)
}

func TestIsAudioFile(t *testing.T) {
	e := NewExtractor([]string{"mp3", ".FLAC"}, nil)

	tests := []struct {
		path     string
		expected bool
	}{
		{"song.mp3", true},
		{"song.MP3", true},
		{"song.flac", true},
		{"song.wav", false},
		{"cover.jpg", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := e.IsAudioFile(tt.path); got != tt.expected {
				t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestWAVDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 8000, 2)

	d, err := Duration(path)
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	if d.Milliseconds() != 2000 {
		t.Errorf("Expected 2000ms, got %dms", d.Milliseconds())
	}
}

func TestDurationUnsupported(t *testing.T) {
	if _, err := Duration("notes.txt"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestExtractUntaggedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Field Recording.wav")
	writeWAV(t, path, 8000, 1)

	result, err := testExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	track := result.Track
	if track.Title != "Field Recording" {
		t.Errorf("Expected title from filename, got %q", track.Title)
	}
	if track.Artist != UnknownArtist || track.Album != UnknownAlbum {
		t.Errorf("Expected fallback artist/album, got %q/%q", track.Artist, track.Album)
	}
	if track.Duration != 1000 {
		t.Errorf("Expected 1000ms, got %d", track.Duration)
	}
	if !track.Playable || track.FileSize == 0 {
		t.Errorf("Expected playable track with size, got %+v", track)
	}
	if track.AlbumArtID != "" || result.Artwork != nil {
		t.Error("Expected no artwork")
	}
}

func TestExtractMissingFile(t *testing.T) {
	if _, err := testExtractor().Extract(filepath.Join(t.TempDir(), "gone.mp3")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestArtwork(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	if got := ArtworkMimeType(png); got != "image/png" {
		t.Errorf("Expected image/png, got %s", got)
	}
	if got := ArtworkMimeType([]byte("plain text")); got != "application/octet-stream" {
		t.Errorf("Expected octet-stream, got %s", got)
	}
	if ArtworkID(png) != ArtworkID(append([]byte(nil), png...)) {
		t.Error("Expected artwork id to depend on content only")
	}
	if len(ArtworkID(png)) != 32 {
		t.Errorf("Expected md5 hex id, got %q", ArtworkID(png))
	}
}
