package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"carbridge/internal/artwork"
	"carbridge/internal/auth"
	"carbridge/internal/catalog"
	"carbridge/internal/config"
	"carbridge/internal/database"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Options carries the optional collaborators of a Server
type Options struct {
	// DB enables the playlist and embedded artwork endpoints.
	DB *database.Database
	// Artwork enables the remote artwork proxy and scales embedded art.
	Artwork *artwork.Proxy
	Pairing *auth.Pairing
	// OnLibraryChanged is called after a playlist edit so the catalog can
	// be rebuilt and republished.
	OnLibraryChanged func(ctx context.Context)
	Logger           *logrus.Logger
}

// Server exposes the bridge to head units over HTTP and websocket
type Server struct {
	cfg      *config.Config
	bridge   *Bridge
	resolver *catalog.Resolver
	db       *database.Database
	artwork  *artwork.Proxy
	pairing  *auth.Pairing
	logger   *logrus.Logger

	onLibraryChanged func(ctx context.Context)
}

// New creates a server for bridge. resolver answers browse and search
// requests against the published catalog.
func New(cfg *config.Config, bridge *Bridge, resolver *catalog.Resolver, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{
		cfg:              cfg,
		bridge:           bridge,
		resolver:         resolver,
		db:               opts.DB,
		artwork:          opts.Artwork,
		pairing:          opts.Pairing,
		logger:           logger,
		onLibraryChanged: opts.OnLibraryChanged,
	}
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebsocket)

	mux.HandleFunc("GET /api/library", s.handleLibrary)
	mux.HandleFunc("GET /api/browse", s.handleBrowse)
	mux.HandleFunc("GET /api/browse/{mediaID}", s.handleBrowse)
	mux.HandleFunc("GET /api/resolve/{mediaID}", s.handleResolve)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/player/state", s.handlePlayerState)
	mux.HandleFunc("GET /api/clients", s.handleClients)

	mux.HandleFunc("POST /api/events/button", s.handleButtonEvent)
	mux.HandleFunc("POST /api/events/select", s.handleSelectEvent)
	mux.HandleFunc("POST /api/events/search", s.handleSearchEvent)

	if s.artwork != nil {
		mux.HandleFunc("GET /artwork", s.handleArtworkProxy)
	}
	if s.db != nil {
		mux.HandleFunc("GET /albumart/{id}", s.handleAlbumArt)

		mux.HandleFunc("GET /api/playlists", s.handleGetPlaylists)
		mux.HandleFunc("POST /api/playlists", s.handleCreatePlaylist)
		mux.HandleFunc("PUT /api/playlists/{id}", s.handleUpdatePlaylist)
		mux.HandleFunc("DELETE /api/playlists/{id}", s.handleDeletePlaylist)
		mux.HandleFunc("GET /api/playlists/{id}/tracks", s.handleGetPlaylistTracks)
		mux.HandleFunc("POST /api/playlists/{id}/tracks", s.handleAddTrackToPlaylist)
		mux.HandleFunc("DELETE /api/playlists/{id}/tracks/{trackID}", s.handleRemoveTrackFromPlaylist)
	}

	var h http.Handler = mux
	h = s.requireAuth(h)
	h = s.corsMiddleware(h)
	h = s.requestLoggingMiddleware(h)
	h = s.panicRecoveryMiddleware(h)
	return h
}

// requireAuth rejects requests without a valid pairing token. Health checks
// and embedded artwork stay public so head units can load cover images.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	if !s.pairing.IsEnabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || strings.HasPrefix(r.URL.Path, "/albumart/") {
			next.ServeHTTP(w, r)
			return
		}
		if !s.pairing.VerifyRequest(r) {
			s.respondWithError(w, r, http.StatusUnauthorized, "Pairing token required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start serves on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.GetAddress())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.GetAddress(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout(),
		WriteTimeout: s.cfg.WriteTimeout(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("address", ln.Addr().String()).Info("Head-unit bridge listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	s.bridge.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}
