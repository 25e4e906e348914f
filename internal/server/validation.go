package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carbridge/internal/host"

	"github.com/sirupsen/logrus"
)

const (
	maxMediaIDLength = 512
	maxQueryLength   = 1000
	maxURLLength     = 2048
	maxBodyBytes     = 64 * 1024
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationResult contains validation results
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("Failed to write JSON response")
	}
}

// respondWithValidationError sends a structured validation error response
func (s *Server) respondWithValidationError(w http.ResponseWriter, r *http.Request, errs ...ValidationError) {
	s.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"errors": errs,
	}).Warn("Validation failed")

	s.respondJSON(w, http.StatusBadRequest, ValidationResult{Valid: false, Errors: errs})
}

// respondWithError sends a structured error response
func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	entry := s.logger.WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status_code": statusCode,
		"message":     message,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	if statusCode >= 500 {
		entry.Error("Server error")
	} else {
		entry.Warn("Client error")
	}

	s.respondJSON(w, statusCode, map[string]any{
		"error":   message,
		"code":    statusCode,
		"success": false,
	})
}

// decodeJSON reads a size-limited JSON body into v
func decodeJSON(r *http.Request, v any) *ValidationError {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		return &ValidationError{
			Field:   "body",
			Message: "Invalid JSON body",
			Code:    "INVALID_JSON",
		}
	}
	return nil
}

// validateMediaID checks an id sent by the head unit
func validateMediaID(id string) *ValidationError {
	if id == "" {
		return &ValidationError{
			Field:   "mediaId",
			Message: "Media ID is required",
			Code:    "MISSING_MEDIA_ID",
		}
	}
	if len(id) > maxMediaIDLength {
		return &ValidationError{
			Field:   "mediaId",
			Message: fmt.Sprintf("Media ID too long (max %d characters)", maxMediaIDLength),
			Code:    "MEDIA_ID_TOO_LONG",
		}
	}
	if strings.ContainsAny(id, "\x00\n\r") {
		return &ValidationError{
			Field:   "mediaId",
			Message: "Media ID contains invalid characters",
			Code:    "INVALID_MEDIA_ID_CHARACTERS",
		}
	}
	return nil
}

// validateSearchQuery validates search query parameters
func validateSearchQuery(query string) *ValidationError {
	if len(query) > maxQueryLength {
		return &ValidationError{
			Field:   "query",
			Message: fmt.Sprintf("Search query too long (max %d characters)", maxQueryLength),
			Code:    "SEARCH_QUERY_TOO_LONG",
		}
	}
	if strings.Contains(query, "\x00") {
		return &ValidationError{
			Field:   "query",
			Message: "Search query contains invalid characters",
			Code:    "INVALID_SEARCH_CHARACTERS",
		}
	}
	return nil
}

// validateArtworkURL accepts absolute http(s) URLs only
func validateArtworkURL(raw string) (*url.URL, *ValidationError) {
	if raw == "" {
		return nil, &ValidationError{
			Field:   "url",
			Message: "URL is required",
			Code:    "MISSING_URL",
		}
	}
	if len(raw) > maxURLLength {
		return nil, &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("URL too long (max %d characters)", maxURLLength),
			Code:    "URL_TOO_LONG",
		}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, &ValidationError{
			Field:   "url",
			Message: "Invalid URL format",
			Code:    "INVALID_URL_FORMAT",
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ValidationError{
			Field:   "url",
			Message: "URL must use HTTP or HTTPS protocol",
			Code:    "INVALID_URL_PROTOCOL",
		}
	}
	return u, nil
}

// validatePlaylistTitle validates a playlist title
func validatePlaylistTitle(title string) *ValidationError {
	if title == "" {
		return &ValidationError{
			Field:   "title",
			Message: "Playlist title is required",
			Code:    "MISSING_PLAYLIST_TITLE",
		}
	}
	if len(title) > 255 {
		return &ValidationError{
			Field:   "title",
			Message: "Playlist title too long (max 255 characters)",
			Code:    "PLAYLIST_TITLE_TOO_LONG",
		}
	}
	if strings.ContainsAny(title, "\x00\n\r") {
		return &ValidationError{
			Field:   "title",
			Message: "Playlist title contains invalid characters",
			Code:    "INVALID_PLAYLIST_TITLE_CHARACTERS",
		}
	}
	return nil
}

// sanitizeInput removes null bytes and surrounding whitespace
func sanitizeInput(input string) string {
	return strings.TrimSpace(strings.ReplaceAll(input, "\x00", ""))
}

func buttonEvent(name string) (host.Event, error) {
	b, err := host.ParseButton(name)
	if err != nil {
		return nil, &ValidationError{Field: "button", Message: err.Error(), Code: "INVALID_BUTTON"}
	}
	return host.ButtonPressed{Button: b, Timestamp: time.Now()}, nil
}

func selectEvent(mediaID string) (host.Event, error) {
	mediaID = sanitizeInput(mediaID)
	if verr := validateMediaID(mediaID); verr != nil {
		return nil, verr
	}
	return host.MediaItemSelected{MediaID: mediaID, Timestamp: time.Now()}, nil
}

func searchEvent(query string) (host.Event, error) {
	if verr := validateSearchQuery(query); verr != nil {
		return nil, verr
	}
	query = sanitizeInput(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "Search query is required", Code: "MISSING_QUERY"}
	}
	return host.SearchRequested{Query: query, Timestamp: time.Now()}, nil
}
