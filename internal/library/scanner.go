package library

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"carbridge/internal/database"
	"carbridge/internal/metadata"

	"github.com/sirupsen/logrus"
)

// ScanStats summarizes a library scan
type ScanStats struct {
	Found   int64         `json:"found"`
	Stored  int64         `json:"stored"`
	Failed  int64         `json:"failed"`
	Removed int64         `json:"removed"`
	Elapsed time.Duration `json:"elapsed"`
}

// Scanner walks a music directory and stores what it finds in the database
type Scanner struct {
	db        *database.Database
	extractor *metadata.Extractor
	workers   int
	logger    *logrus.Logger
}

// NewScanner creates a scanner. workers <= 0 uses one worker per CPU.
func NewScanner(db *database.Database, extractor *metadata.Extractor, workers int, logger *logrus.Logger) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{db: db, extractor: extractor, workers: workers, logger: logger}
}

// IsAudioFile reports whether path is a file the scanner would pick up
func (s *Scanner) IsAudioFile(path string) bool {
	return !ignored(path) && s.extractor.IsAudioFile(path)
}

// ignored filters hidden and temporary files
func ignored(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp")
}

// Scan stores every audio file below root and removes tracks whose files
// are gone. Individual file failures are logged and counted, not returned.
func (s *Scanner) Scan(ctx context.Context, root string) (ScanStats, error) {
	start := time.Now()
	var stats ScanStats

	s.logger.WithField("library_path", root).Info("Scanning music library")

	var wg sync.WaitGroup
	jobs := make(chan string, 100)
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if err := s.ScanFile(path); err != nil {
					s.logger.WithError(err).WithField("file_path", path).Warn("Failed to scan file")
					atomic.AddInt64(&stats.Failed, 1)
					continue
				}
				atomic.AddInt64(&stats.Stored, 1)
			}
		}()
	}

	seen := make(map[string]bool)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if s.IsAudioFile(path) {
			seen[filepath.Clean(path)] = true
			stats.Found++
			jobs <- path
		}
		return nil
	})

	close(jobs)
	wg.Wait()

	if walkErr == nil {
		removed, err := s.prune(root, seen)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to prune removed tracks")
		}
		stats.Removed = removed
	}

	stats.Elapsed = time.Since(start)
	s.logger.WithFields(logrus.Fields{
		"found":   stats.Found,
		"stored":  stats.Stored,
		"failed":  stats.Failed,
		"removed": stats.Removed,
		"elapsed": stats.Elapsed,
	}).Info("Library scan complete")
	return stats, walkErr
}

// ScanFile extracts and stores a single file together with its artwork.
func (s *Scanner) ScanFile(path string) error {
	result, err := s.extractor.Extract(path)
	if err != nil {
		return err
	}
	if len(result.Artwork) > 0 {
		mime := metadata.ArtworkMimeType(result.Artwork)
		if err := s.db.SaveArtwork(result.Track.AlbumArtID, mime, result.Artwork); err != nil {
			s.logger.WithError(err).WithField("file_path", path).Warn("Failed to store artwork")
			result.Track.AlbumArtID = ""
		}
	}
	id, err := s.db.UpsertTrack(result.Track)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"track_id": id,
		"artist":   result.Track.Artist,
		"title":    result.Track.Title,
	}).Debug("Stored track")
	return nil
}

// Remove deletes the track stored for path, if any.
func (s *Scanner) Remove(path string) error {
	return s.db.RemoveTrackByPath(path)
}

// prune removes tracks under root whose files were not seen by the walk.
func (s *Scanner) prune(root string, seen map[string]bool) (int64, error) {
	paths, err := s.db.TrackPaths()
	if err != nil {
		return 0, err
	}
	root = filepath.Clean(root)

	var removed int64
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] || !within(root, clean) {
			continue
		}
		if _, err := os.Stat(clean); err == nil || !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := s.db.RemoveTrackByPath(p); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
