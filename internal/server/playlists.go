package server

import (
	"errors"
	"net/http"

	"carbridge/internal/database"

	"github.com/google/uuid"
)

// validateRecordID checks a playlist or track id from the URL
func validateRecordID(field, id string) *ValidationError {
	if _, err := uuid.Parse(id); err != nil {
		return &ValidationError{
			Field:   field,
			Message: "Invalid " + field,
			Code:    "INVALID_ID",
		}
	}
	return nil
}

// libraryChanged lets the session republish after a playlist edit
func (s *Server) libraryChanged(r *http.Request) {
	if s.onLibraryChanged != nil {
		s.onLibraryChanged(r.Context())
	}
}

// handleGetPlaylists returns all playlists (with track counts) as JSON.
func (s *Server) handleGetPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.db.GetAllPlaylists()
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving playlists", err)
		return
	}
	s.respondJSON(w, http.StatusOK, playlists)
}

// handleCreatePlaylist creates a new playlist (POST json title/subtitle).
func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
	}
	if verr := decodeJSON(r, &req); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}
	req.Title = sanitizeInput(req.Title)
	if verr := validatePlaylistTitle(req.Title); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}

	id, err := s.db.CreatePlaylist(req.Title, sanitizeInput(req.Subtitle))
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Error creating playlist", err)
		return
	}
	s.libraryChanged(r)

	s.respondJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"message": "Playlist created successfully",
	})
}

// handleUpdatePlaylist updates playlist title, subtitle and artwork URL.
func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if verr := validateRecordID("playlistId", id); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}

	var req struct {
		Title      string `json:"title"`
		Subtitle   string `json:"subtitle"`
		ArtworkURL string `json:"artworkUrl"`
	}
	if verr := decodeJSON(r, &req); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}
	req.Title = sanitizeInput(req.Title)
	if verr := validatePlaylistTitle(req.Title); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}
	if req.ArtworkURL != "" {
		if _, verr := validateArtworkURL(req.ArtworkURL); verr != nil {
			s.respondWithValidationError(w, r, *verr)
			return
		}
	}

	err := s.db.UpdatePlaylist(id, req.Title, sanitizeInput(req.Subtitle), req.ArtworkURL)
	if errors.Is(err, database.ErrNotFound) {
		s.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
		return
	}
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Error updating playlist", err)
		return
	}
	s.libraryChanged(r)

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Playlist updated successfully"})
}

// handleDeletePlaylist deletes a playlist.
func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if verr := validateRecordID("playlistId", id); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}

	if err := s.db.DeletePlaylist(id); err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Error deleting playlist", err)
		return
	}
	s.libraryChanged(r)

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Playlist deleted"})
}

// handleGetPlaylistTracks returns tracks contained in the specified playlist.
func (s *Server) handleGetPlaylistTracks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if verr := validateRecordID("playlistId", id); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}

	tracks, err := s.db.GetPlaylistTracks(id)
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving playlist tracks", err)
		return
	}
	s.respondJSON(w, http.StatusOK, tracks)
}

// handleAddTrackToPlaylist appends a track to a playlist (POST json trackId).
func (s *Server) handleAddTrackToPlaylist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if verr := validateRecordID("playlistId", id); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}

	var req struct {
		TrackID string `json:"trackId"`
	}
	if verr := decodeJSON(r, &req); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}
	if verr := validateRecordID("trackId", req.TrackID); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}

	if _, err := s.db.GetTrackByID(req.TrackID); errors.Is(err, database.ErrNotFound) {
		s.respondWithError(w, r, http.StatusNotFound, "Track not found", nil)
		return
	} else if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving track", err)
		return
	}

	err := s.db.AddTrackToPlaylist(id, req.TrackID)
	if errors.Is(err, database.ErrNotFound) {
		s.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
		return
	}
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Error adding track to playlist", err)
		return
	}
	s.libraryChanged(r)

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Track added to playlist"})
}

// handleRemoveTrackFromPlaylist removes a track from a playlist.
func (s *Server) handleRemoveTrackFromPlaylist(w http.ResponseWriter, r *http.Request) {
	id, trackID := r.PathValue("id"), r.PathValue("trackID")
	if verr := validateRecordID("playlistId", id); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}
	if verr := validateRecordID("trackId", trackID); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}

	if err := s.db.RemoveTrackFromPlaylist(id, trackID); err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Error removing track from playlist", err)
		return
	}
	s.libraryChanged(r)

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Track removed from playlist"})
}
