package database

import (
	"database/sql"
	"errors"
	"fmt"

	"carbridge/pkg/models"
)

// UpsertTrack inserts a track or updates the row with the same file path.
// An empty ID is derived from the file path. Returns the stored id.
func (db *Database) UpsertTrack(track models.Track) (string, error) {
	if track.FilePath == "" {
		return "", errors.New("track has no file path")
	}
	if track.ID == "" {
		track.ID = TrackID(track.FilePath)
	}

	var artID sql.NullString
	if track.AlbumArtID != "" {
		artID = sql.NullString{String: track.AlbumArtID, Valid: true}
	}

	_, err := db.upsertTrackStmt.Exec(track.ID, track.Title, track.Artist, track.Album,
		track.TrackNumber, track.Duration, track.FilePath, track.FileSize, artID, track.Playable)
	if err != nil {
		db.logger.WithError(err).WithField("file_path", track.FilePath).Error("Failed to upsert track")
		return "", err
	}
	return track.ID, nil
}

// GetAllTracks returns all tracks ordered by artist, album, track number and title.
func (db *Database) GetAllTracks() ([]models.Track, error) {
	rows, err := db.conn.Query(`SELECT ` + trackColumns + ` FROM tracks
		ORDER BY artist COLLATE NOCASE, album COLLATE NOCASE, track_number, title COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// GetTrackByID returns a single track. ErrNotFound if there is none.
func (db *Database) GetTrackByID(id string) (*models.Track, error) {
	t, err := scanTrack(db.getTrackByIDStmt.QueryRow(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("track %s: %w", id, ErrNotFound)
		}
		db.logger.WithError(err).WithField("track_id", id).Error("Failed to get track by ID")
		return nil, err
	}
	return &t, nil
}

// CountTracks returns the number of stored tracks
func (db *Database) CountTracks() (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&n)
	return n, err
}

// SearchTracks performs a LIKE search over title, artist and album.
func (db *Database) SearchTracks(query string) ([]models.Track, error) {
	pattern := "%" + query + "%"
	rows, err := db.conn.Query(`SELECT `+trackColumns+` FROM tracks
		WHERE title LIKE ? OR artist LIKE ? OR album LIKE ?
		ORDER BY artist, album, track_number, title`, pattern, pattern, pattern)
	if err != nil {
		db.logger.WithError(err).WithField("query", query).Error("Failed to search tracks")
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// TrackExists reports whether a track is stored for filePath
func (db *Database) TrackExists(filePath string) (bool, error) {
	var count int
	if err := db.trackExistsStmt.QueryRow(filePath).Scan(&count); err != nil {
		db.logger.WithError(err).WithField("file_path", filePath).Error("Failed to check if track exists")
		return false, err
	}
	return count > 0, nil
}

// RemoveTrackByPath deletes the track stored for filePath. Playlist entries
// and play history for it are removed with it.
func (db *Database) RemoveTrackByPath(filePath string) error {
	if _, err := db.removeTrackStmt.Exec(filePath); err != nil {
		db.logger.WithError(err).WithField("file_path", filePath).Error("Failed to remove track by path")
		return err
	}
	return nil
}

// TrackPaths returns the file paths of all stored tracks
func (db *Database) TrackPaths() ([]string, error) {
	rows, err := db.conn.Query(`SELECT file_path FROM tracks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// SaveArtwork stores embedded artwork by content id. Existing ids are kept.
func (db *Database) SaveArtwork(id, mimeType string, data []byte) error {
	_, err := db.conn.Exec(`INSERT INTO artwork (id, mime_type, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING`, id, mimeType, data)
	return err
}

// GetArtwork returns stored artwork and its MIME type. ErrNotFound if unknown.
func (db *Database) GetArtwork(id string) ([]byte, string, error) {
	var data []byte
	var mimeType string
	err := db.conn.QueryRow(`SELECT data, mime_type FROM artwork WHERE id = ?`, id).Scan(&data, &mimeType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("artwork %s: %w", id, ErrNotFound)
	}
	return data, mimeType, err
}
