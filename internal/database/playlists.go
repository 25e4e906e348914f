package database

import (
	"database/sql"
	"errors"
	"fmt"

	"carbridge/pkg/models"

	"github.com/google/uuid"
)

// CreatePlaylist inserts a new playlist and returns its id.
func (db *Database) CreatePlaylist(title, subtitle string) (string, error) {
	if title == "" {
		return "", errors.New("playlist title is required")
	}
	id := uuid.New().String()
	_, err := db.conn.Exec(`INSERT INTO playlists (id, title, subtitle) VALUES (?, ?, ?)`, id, title, subtitle)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetAllPlaylists returns playlists in creation order with their track counts.
func (db *Database) GetAllPlaylists() ([]models.Playlist, error) {
	rows, err := db.conn.Query(`
		SELECT p.id, p.title, COALESCE(p.subtitle, ''), COALESCE(p.artwork_url, ''), p.created_at,
			COUNT(pt.track_id) AS track_count
		FROM playlists p
		LEFT JOIN playlist_tracks pt ON p.id = pt.playlist_id
		GROUP BY p.id
		ORDER BY p.created_at, p.rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Title, &p.Subtitle, &p.ArtworkURL, &p.CreatedAt, &p.TrackCount); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// GetPlaylistTracks returns a playlist's tracks in stored order.
func (db *Database) GetPlaylistTracks(playlistID string) ([]models.Track, error) {
	rows, err := db.conn.Query(`
		SELECT t.id, t.title, t.artist, t.album, t.track_number, t.duration_ms, t.file_path, t.file_size,
			COALESCE(t.album_art_id, ''), t.playable, t.created_at
		FROM tracks t
		JOIN playlist_tracks pt ON t.id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// AddTrackToPlaylist appends a track to a playlist if not already present.
func (db *Database) AddTrackToPlaylist(playlistID, trackID string) error {
	var exists int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM playlists WHERE id = ?`, playlistID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("playlist %s: %w", playlistID, ErrNotFound)
	}

	var maxPosition sql.NullInt64
	err = db.conn.QueryRow(`SELECT MAX(position) FROM playlist_tracks WHERE playlist_id = ?`,
		playlistID).Scan(&maxPosition)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	position := 1
	if maxPosition.Valid {
		position = int(maxPosition.Int64) + 1
	}

	_, err = db.conn.Exec(`
		INSERT INTO playlist_tracks (playlist_id, track_id, position)
		VALUES (?, ?, ?)
		ON CONFLICT(playlist_id, track_id) DO NOTHING`,
		playlistID, trackID, position)
	return err
}

// RemoveTrackFromPlaylist removes a track from the given playlist.
func (db *Database) RemoveTrackFromPlaylist(playlistID, trackID string) error {
	_, err := db.conn.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?`,
		playlistID, trackID)
	return err
}

// UpdatePlaylist updates playlist metadata.
func (db *Database) UpdatePlaylist(playlistID, title, subtitle, artworkURL string) error {
	res, err := db.conn.Exec(`UPDATE playlists SET title = ?, subtitle = ?, artwork_url = ? WHERE id = ?`,
		title, subtitle, artworkURL, playlistID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("playlist %s: %w", playlistID, ErrNotFound)
	}
	return nil
}

// DeletePlaylist deletes a playlist and its membership rows.
func (db *Database) DeletePlaylist(playlistID string) error {
	_, err := db.conn.Exec(`DELETE FROM playlists WHERE id = ?`, playlistID)
	return err
}
