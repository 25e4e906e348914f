package server

import (
	"errors"
	"net/http"
	"strconv"

	"carbridge/internal/catalog"
	"carbridge/internal/database"
	"carbridge/internal/host"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// handleHealth reports liveness and a short status summary
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	lib, published := s.bridge.Library()
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"running":    s.bridge.Running(),
		"published":  published,
		"generation": s.resolver.Generation(),
		"clients":    s.bridge.hub.Count(),
		"tracks":     lib.TrackCount(),
	})
}

// handleWebsocket attaches a head unit to the push channel
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	s.bridge.hub.Serve(w, r, s.bridge.snapshot(), s.bridge.Emit)
}

// handleLibrary returns the library last published to the head unit
func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	lib, ok := s.bridge.Library()
	if !ok {
		s.respondWithError(w, r, http.StatusServiceUnavailable, "No media library published", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, lib)
}

// handleBrowse lists the children of a browse node, the root by default
func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("mediaID")
	if id == "" {
		id = catalog.RootID
	}
	if verr := validateMediaID(id); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}

	children, ok := s.resolver.Children(id)
	if !ok {
		s.respondWithError(w, r, http.StatusNotFound, "Unknown browse node", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"children": children,
	})
}

// handleResolve looks up a single playable item
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("mediaID")
	if verr := validateMediaID(id); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}

	item, ok := s.resolver.Resolve(id)
	if !ok {
		s.respondWithError(w, r, http.StatusNotFound, "Media item not found", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

// handleSearch runs a catalog search within the configured scope
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if verr := validateSearchQuery(query); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}
	query = sanitizeInput(query)

	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondWithValidationError(w, r, ValidationError{
				Field:   "limit",
				Message: "Limit must be a positive integer",
				Code:    "INVALID_LIMIT",
			})
			return
		}
		limit = min(n, maxSearchLimit)
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"scope":   catalog.ScopeAll,
		"results": s.resolver.SearchAll(query, limit),
	})
}

// handlePlayerState returns the state last reported to the head unit
func (s *Server) handlePlayerState(w http.ResponseWriter, r *http.Request) {
	state, ok := s.bridge.PlayerState()
	if !ok {
		s.respondWithError(w, r, http.StatusNotFound, "No player state reported yet", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, state)
}

// handleClients lists connected head units
func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.bridge.hub.Clients())
}

func (s *Server) handleButtonEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Button string `json:"button"`
	}
	s.emitEvent(w, r, &req, func() (host.Event, error) { return buttonEvent(req.Button) })
}

func (s *Server) handleSelectEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MediaID string `json:"mediaId"`
	}
	s.emitEvent(w, r, &req, func() (host.Event, error) { return selectEvent(req.MediaID) })
}

func (s *Server) handleSearchEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	s.emitEvent(w, r, &req, func() (host.Event, error) { return searchEvent(req.Query) })
}

// emitEvent decodes req, builds the event and hands it to the session
func (s *Server) emitEvent(w http.ResponseWriter, r *http.Request, req any, build func() (host.Event, error)) {
	if verr := decodeJSON(r, req); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}
	ev, err := build()
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.respondWithValidationError(w, r, *verr)
			return
		}
		s.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	s.bridge.Emit(ev)
	s.respondJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"kind":    ev.Kind(),
	})
}

// handleArtworkProxy serves a scaled copy of remote artwork
func (s *Server) handleArtworkProxy(w http.ResponseWriter, r *http.Request) {
	u, verr := validateArtworkURL(r.URL.Query().Get("url"))
	if verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}

	img, err := s.artwork.Fetch(r.Context(), u.String())
	if err != nil {
		s.respondWithError(w, r, http.StatusBadGateway, "Failed to fetch artwork", err)
		return
	}
	writeImage(w, img.Data, img.MimeType)
}

// handleAlbumArt serves artwork embedded in library files
func (s *Server) handleAlbumArt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if verr := validateMediaID(id); verr != nil {
		s.respondWithValidationError(w, r, *verr)
		return
	}

	if s.artwork != nil {
		img, err := s.artwork.Cached("albumart:"+id, func() ([]byte, error) {
			data, _, err := s.db.GetArtwork(id)
			return data, err
		})
		if err == nil {
			writeImage(w, img.Data, img.MimeType)
			return
		}
		if !errors.Is(err, database.ErrNotFound) {
			s.logger.WithError(err).WithField("artwork_id", id).Debug("Serving embedded artwork unscaled")
		}
	}

	data, mimeType, err := s.db.GetArtwork(id)
	if errors.Is(err, database.ErrNotFound) {
		s.respondWithError(w, r, http.StatusNotFound, "Artwork not found", nil)
		return
	}
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving artwork", err)
		return
	}
	writeImage(w, data, mimeType)
}

func writeImage(w http.ResponseWriter, data []byte, mimeType string) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
