package database

import (
	"context"
	"time"

	"carbridge/pkg/models"
)

// RecordPlay appends a play of trackID to the history.
func (db *Database) RecordPlay(ctx context.Context, trackID string) error {
	_, err := db.recordPlayStmt.ExecContext(ctx, trackID, time.Now().UTC())
	if err != nil {
		db.logger.WithError(err).WithField("track_id", trackID).Error("Failed to record play")
	}
	return err
}

// RecentTracks returns up to limit distinct tracks, most recently played first.
func (db *Database) RecentTracks(limit int) ([]models.Track, error) {
	rows, err := db.conn.Query(`
		SELECT t.id, t.title, t.artist, t.album, t.track_number, t.duration_ms, t.file_path, t.file_size,
			COALESCE(t.album_art_id, ''), t.playable, t.created_at
		FROM tracks t
		JOIN (SELECT track_id, MAX(id) AS last_play FROM plays GROUP BY track_id) p ON p.track_id = t.id
		ORDER BY p.last_play DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// PlayCount returns how often trackID has been played
func (db *Database) PlayCount(trackID string) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM plays WHERE track_id = ?`, trackID).Scan(&n)
	return n, err
}
