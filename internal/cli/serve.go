package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"carbridge/internal/artwork"
	"carbridge/internal/auth"
	"carbridge/internal/cache"
	"carbridge/internal/catalog"
	"carbridge/internal/database"
	"carbridge/internal/library"
	"carbridge/internal/metadata"
	"carbridge/internal/ngrok"
	"carbridge/internal/player"
	"carbridge/internal/server"
	"carbridge/internal/session"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	servePort   string
	serveMusic  string
	serveNoScan bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the head-unit bridge",
	Long: `Scans the music library, publishes the catalog and serves head units until
interrupted. Library changes on disk and playlist edits are republished.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (overrides config)")
	serveCmd.Flags().StringVarP(&serveMusic, "music", "m", "", "music directory (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoScan, "no-scan", false, "skip the startup scan")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != "" {
		cfg.Server.Port = servePort
	}
	if serveMusic != "" {
		cfg.Music.LibraryPath = serveMusic
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := os.Stat(cfg.Music.LibraryPath); os.IsNotExist(err) {
		return fmt.Errorf("music directory %s does not exist", cfg.Music.LibraryPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	scanner := library.NewScanner(db, metadata.NewExtractor(cfg.Music.SupportedFormats, logger), cfg.Music.ScanWorkers, logger)

	scope, err := catalog.ParseSearchScope(cfg.Library.SearchScope)
	if err != nil {
		return err
	}
	bridge := server.NewBridge(server.NewHub(logger), logger)
	defer bridge.Close()
	resolver := catalog.NewResolver(bridge, catalog.Options{
		SearchScope:       scope,
		ShuffleItems:      cfg.Library.ShuffleItems,
		StrictConsistency: cfg.Library.StrictConsistency,
		Logger:            logger,
	})
	controller := session.NewController(bridge, resolver, player.NewStateManager(), session.Options{
		TrackRecent: cfg.Library.TrackRecent,
		RecentLimit: cfg.Library.RecentLimit,
		Recorder:    db,
		Logger:      logger,
	})

	pairing, err := auth.NewPairing(&cfg.Auth)
	if err != nil {
		return err
	}
	tunnel, err := ngrok.NewService(&cfg.Ngrok, logger)
	if err != nil {
		return err
	}
	proxy := artwork.NewProxy(
		cfg.Artwork.MaxSize,
		time.Duration(cfg.Artwork.FetchTimeout)*time.Second,
		cache.NewArtworkCache(time.Duration(cfg.Artwork.CacheTTLMinutes)*time.Minute, cfg.Artwork.CacheEntries),
		logger,
	)
	defer proxy.Close()

	baseURL := cfg.BaseURL()
	if tunnel != nil {
		if err := tunnel.StartTunnel(ctx, "http://localhost:"+cfg.Server.Port); err != nil {
			return err
		}
		defer tunnel.Stop()
		if cfg.Server.PublicURL == "" {
			baseURL = tunnel.PublicURL()
		}
	}

	publish := func(ctx context.Context) {
		lib, err := db.BuildLibrary(cfg.Library.RecentLimit, baseURL)
		if err != nil {
			logger.WithError(err).Error("Failed to build media library")
			return
		}
		// failures are logged by the controller; the previous catalog stays
		_ = controller.Publish(ctx, lib)
	}

	if err := controller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start media session: %w", err)
	}

	var wg sync.WaitGroup
	events, unsubscribe := bridge.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		controller.Run(ctx, events)
	}()

	if cfg.Music.ScanOnStartup && !serveNoScan {
		stats, err := scanner.Scan(ctx, cfg.Music.LibraryPath)
		if err != nil {
			logger.WithError(err).Error("Library scan failed")
		} else if stats.Stored == 0 {
			logger.WithField("supported_formats", cfg.Music.SupportedFormats).Warn("No supported audio files found in music directory")
		}
	}
	publish(ctx)

	if cfg.Music.WatchForChanges {
		watcher := library.NewWatcher(scanner, cfg.Music.LibraryPath, cfg.WatchDebounce(), publish, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				logger.WithError(err).Error("Music directory watcher stopped")
			}
		}()
	}

	go func() {
		select {
		case <-tunnel.Done():
			if ctx.Err() == nil {
				logger.Warn("Ngrok tunnel closed")
			}
		case <-ctx.Done():
		}
	}()

	srv := server.New(cfg, bridge, resolver, server.Options{
		DB:               db,
		Artwork:          proxy,
		Pairing:          pairing,
		OnLibraryChanged: publish,
		Logger:           logger,
	})
	logger.WithFields(logrus.Fields{
		"address":  cfg.GetAddress(),
		"base_url": baseURL,
		"pairing":  pairing.IsEnabled(),
	}).Info("Starting carbridge")
	serveErr := srv.Start(ctx)
	if serveErr != nil {
		logger.WithError(serveErr).Error("HTTP server failed")
	} else {
		logger.Info("Received shutdown signal")
	}
	stop()
	unsubscribe()
	wg.Wait()

	if err := controller.Stop(context.Background()); err != nil {
		logger.WithError(err).Warn("Failed to stop media session")
	}
	return serveErr
}
