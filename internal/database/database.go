package database

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"carbridge/pkg/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a looked-up row does not exist
var ErrNotFound = errors.New("not found")

const trackColumns = `id, title, artist, album, track_number, duration_ms, file_path, file_size, COALESCE(album_art_id, ''), playable, created_at`

// Database is the library store behind the published catalog. It is safe
// for concurrent use.
type Database struct {
	conn   *sql.DB
	logger *logrus.Logger

	upsertTrackStmt  *sql.Stmt
	getTrackByIDStmt *sql.Stmt
	trackExistsStmt  *sql.Stmt
	removeTrackStmt  *sql.Stmt
	recordPlayStmt   *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath and makes
// sure the schema exists. Callers must Close it.
func NewDatabase(dbPath string, logger *logrus.Logger) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
	}

	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=2000;",
		"PRAGMA temp_store=memory;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	db := &Database{conn: conn, logger: logger}

	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := db.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("db_path", filepath.Clean(dbPath)).Info("Database initialized")
	return db, nil
}

func (db *Database) createTables() error {
	tables := []string{`
	CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT NOT NULL,
		track_number INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		file_path TEXT NOT NULL UNIQUE,
		file_size INTEGER NOT NULL,
		album_art_id TEXT,
		playable BOOLEAN DEFAULT TRUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`, `
	CREATE TABLE IF NOT EXISTS playlists (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		subtitle TEXT,
		artwork_url TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`, `
	CREATE TABLE IF NOT EXISTS playlist_tracks (
		playlist_id TEXT NOT NULL,
		track_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		FOREIGN KEY (track_id) REFERENCES tracks(id) ON DELETE CASCADE,
		PRIMARY KEY (playlist_id, track_id)
	);`, `
	CREATE TABLE IF NOT EXISTS plays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		track_id TEXT NOT NULL,
		played_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (track_id) REFERENCES tracks(id) ON DELETE CASCADE
	);`, `
	CREATE TABLE IF NOT EXISTS artwork (
		id TEXT PRIMARY KEY,
		mime_type TEXT NOT NULL,
		data BLOB NOT NULL
	);`,
	}

	indices := []string{
		"CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist);",
		"CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album, track_number);",
		"CREATE INDEX IF NOT EXISTS idx_playlist_tracks_position ON playlist_tracks(playlist_id, position);",
		"CREATE INDEX IF NOT EXISTS idx_plays_track ON plays(track_id);",
	}

	for _, stmt := range append(tables, indices...) {
		if _, err := db.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (db *Database) prepareStatements() error {
	var err error

	db.upsertTrackStmt, err = db.conn.Prepare(`
		INSERT INTO tracks (id, title, artist, album, track_number, duration_ms, file_path, file_size, album_art_id, playable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			track_number = excluded.track_number,
			duration_ms = excluded.duration_ms,
			file_size = excluded.file_size,
			album_art_id = excluded.album_art_id,
			playable = excluded.playable`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert track statement: %w", err)
	}

	db.getTrackByIDStmt, err = db.conn.Prepare(`SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get track by ID statement: %w", err)
	}

	db.trackExistsStmt, err = db.conn.Prepare(`SELECT COUNT(*) FROM tracks WHERE file_path = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare track exists statement: %w", err)
	}

	db.removeTrackStmt, err = db.conn.Prepare(`DELETE FROM tracks WHERE file_path = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare remove track statement: %w", err)
	}

	db.recordPlayStmt, err = db.conn.Prepare(`INSERT INTO plays (track_id, played_at) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare record play statement: %w", err)
	}
	return nil
}

// Close closes the prepared statements and the connection.
func (db *Database) Close() error {
	statements := []*sql.Stmt{
		db.upsertTrackStmt,
		db.getTrackByIDStmt,
		db.trackExistsStmt,
		db.removeTrackStmt,
		db.recordPlayStmt,
	}
	for _, stmt := range statements {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				db.logger.WithError(err).Error("Failed to close prepared statement")
			}
		}
	}
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (models.Track, error) {
	var t models.Track
	err := row.Scan(&t.ID, &t.Title, &t.Artist, &t.Album, &t.TrackNumber,
		&t.Duration, &t.FilePath, &t.FileSize, &t.AlbumArtID, &t.Playable, &t.CreatedAt)
	return t, err
}

// scanTrackRows collects a track result set. Callers must close rows.
func scanTrackRows(rows *sql.Rows) ([]models.Track, error) {
	var tracks []models.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}
