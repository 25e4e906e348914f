package cli

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"carbridge/internal/catalog"
	"carbridge/internal/config"

	"github.com/sirupsen/logrus"
)

func writeSilentWAV(t *testing.T, path string) {
	t.Helper()
	const sampleRate = 8000
	dataSize := uint32(sampleRate * 2)

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
	f.Write(make([]byte, dataSize))
}

func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	music := filepath.Join(dir, "music")
	if err := os.MkdirAll(music, 0755); err != nil {
		t.Fatalf("Failed to create music dir: %v", err)
	}
	writeSilentWAV(t, filepath.Join(music, "Highway Song.wav"))
	writeSilentWAV(t, filepath.Join(music, "Coastal Drive.wav"))

	c := config.DefaultConfig()
	c.Database.Path = filepath.Join(dir, "carbridge.db")
	c.Music.LibraryPath = music
	c.Library.SearchScope = "all"
	c.Logging.Level = "error"
	path := filepath.Join(dir, "config.toml")
	if err := c.SaveToFile(path); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestScanThenSearch(t *testing.T) {
	path := setupWorkspace(t)

	rootCmd.SetArgs([]string{"--config", path, "--json", "scan"})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	var trackID string
	err := withResolver(func(r *catalog.Resolver) error {
		item, ok := r.Search("highway")
		if !ok {
			t.Fatal("Expected search to find the scanned track")
		}
		if item.Title != "Highway Song" {
			t.Errorf("Expected Highway Song, got %q", item.Title)
		}
		trackID = item.ID
		if _, ok := r.Resolve(item.ID); !ok {
			t.Errorf("Expected %s to resolve", item.ID)
		}

		nodes, ok := r.Children(catalog.AlbumsID)
		if !ok || len(nodes) != 1 {
			t.Fatalf("Expected one album, got %d", len(nodes))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withResolver failed: %v", err)
	}

	rootCmd.SetArgs([]string{"--config", path, "select", trackID})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	rootCmd.SetArgs([]string{"--config", path, "select", "no-such-track"})
	if err := rootCmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected select of unknown id to fail")
	}

	db, err := openDatabase()
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if n, _ := db.PlayCount(trackID); n != 1 {
		t.Errorf("Expected 1 recorded play, got %d", n)
	}
}

func TestNewLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "carbridge.log")
	l, closer, err := newLogger(config.LoggingConfig{Level: "warn", Format: "json", File: logFile}, false)
	if err != nil {
		t.Fatalf("newLogger failed: %v", err)
	}
	defer closer.Close()

	if l.GetLevel() != logrus.WarnLevel {
		t.Errorf("Expected warn level, got %s", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("Expected JSON formatter, got %T", l.Formatter)
	}
	l.Warn("written")
	if data, _ := os.ReadFile(logFile); len(data) == 0 {
		t.Error("Expected log file to receive output")
	}

	l, _, err = newLogger(config.LoggingConfig{Level: "info", Format: "text"}, true)
	if err != nil {
		t.Fatalf("newLogger failed: %v", err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected verbose to force debug, got %s", l.GetLevel())
	}

	if _, _, err := newLogger(config.LoggingConfig{Level: "loud"}, false); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "-"},
		{59000, "0:59"},
		{354000, "5:54"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.ms); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
