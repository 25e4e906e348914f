package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"carbridge/internal/catalog"
	"carbridge/internal/database"
	"carbridge/internal/host"
	"carbridge/internal/library"
	"carbridge/internal/metadata"
	"carbridge/internal/player"
	"carbridge/internal/session"
	"carbridge/pkg/models"

	"github.com/spf13/cobra"
)

var searchLimit int

var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "Scan the music directory into the library database",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog the way a head-unit voice search would",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <media-id>",
	Short: "Look up a catalog item by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

var browseCmd = &cobra.Command{
	Use:   "browse [node-id]",
	Short: "List a browse node, the root by default",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBrowse,
}

var selectCmd = &cobra.Command{
	Use:   "select <media-id>",
	Short: "Play a catalog entry without a head unit and print the player state",
	Long: `Runs a selection through a media session on the fallback platform, as if
no car were connected, and prints the resulting player state. The play is
recorded in the library history.`,
	Args: cobra.ExactArgs(1),
	RunE: runSelect,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	rootCmd.AddCommand(scanCmd, searchCmd, resolveCmd, browseCmd, selectCmd)
}

func openDatabase() (*database.Database, error) {
	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// localResolver builds the catalog from the database without publishing it
func localResolver(db *database.Database) (*catalog.Resolver, error) {
	scope, err := catalog.ParseSearchScope(cfg.Library.SearchScope)
	if err != nil {
		return nil, err
	}
	lib, err := db.BuildLibrary(cfg.Library.RecentLimit, cfg.BaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to build library: %w", err)
	}
	r := catalog.NewResolver(nil, catalog.Options{
		SearchScope:       scope,
		ShuffleItems:      cfg.Library.ShuffleItems,
		StrictConsistency: cfg.Library.StrictConsistency,
		Logger:            logger,
	})
	if err := r.SetLibrary(context.Background(), lib); err != nil {
		return nil, err
	}
	return r, nil
}

func withResolver(fn func(r *catalog.Resolver) error) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := localResolver(db)
	if err != nil {
		return err
	}
	return fn(r)
}

func runScan(cmd *cobra.Command, args []string) error {
	root := cfg.Music.LibraryPath
	if len(args) == 1 {
		root = args[0]
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	scanner := library.NewScanner(db, metadata.NewExtractor(cfg.Music.SupportedFormats, logger), cfg.Music.ScanWorkers, logger)
	stats, err := scanner.Scan(cmd.Context(), root)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(stats)
	}
	fmt.Printf("Scanned %s in %s\n", root, stats.Elapsed.Round(time.Millisecond))
	fmt.Printf("  found %d, stored %d, failed %d, removed %d\n", stats.Found, stats.Stored, stats.Failed, stats.Removed)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	return withResolver(func(r *catalog.Resolver) error {
		items := r.SearchAll(args[0], searchLimit)
		if jsonOut {
			return printJSON(items)
		}
		if len(items) == 0 {
			fmt.Printf("No matches for %q\n", args[0])
			return nil
		}
		printItems(items)
		return nil
	})
}

func runResolve(cmd *cobra.Command, args []string) error {
	return withResolver(func(r *catalog.Resolver) error {
		item, ok := r.Resolve(args[0])
		if !ok {
			return fmt.Errorf("media item %s not found", args[0])
		}
		if jsonOut {
			return printJSON(item)
		}
		printItems([]models.MediaItem{item})
		return nil
	})
}

func runBrowse(cmd *cobra.Command, args []string) error {
	id := catalog.RootID
	if len(args) == 1 {
		id = args[0]
	}
	return withResolver(func(r *catalog.Resolver) error {
		nodes, ok := r.Children(id)
		if !ok {
			return fmt.Errorf("browse node %s not found", id)
		}
		if jsonOut {
			return printJSON(nodes)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSUBTITLE\tTYPE")
		for _, n := range nodes {
			kind := "item"
			if n.Browsable {
				kind = "folder"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.Title, n.Subtitle, kind)
		}
		return w.Flush()
	})
}

func runSelect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	scope, err := catalog.ParseSearchScope(cfg.Library.SearchScope)
	if err != nil {
		return err
	}
	platform := host.NewUnsupported(logger)
	resolver := catalog.NewResolver(nil, catalog.Options{
		SearchScope:  scope,
		ShuffleItems: cfg.Library.ShuffleItems,
		Logger:       logger,
	})
	sm := player.NewStateManager()
	controller := session.NewController(platform, resolver, sm, session.Options{
		RecentLimit: cfg.Library.RecentLimit,
		Recorder:    db,
		Logger:      logger,
	})

	lib, err := db.BuildLibrary(cfg.Library.RecentLimit, cfg.BaseURL())
	if err != nil {
		return fmt.Errorf("failed to build library: %w", err)
	}
	if err := resolver.SetLibrary(ctx, lib); err != nil {
		return err
	}
	if err := controller.Start(ctx); err != nil {
		return err
	}
	defer controller.Stop(ctx)

	controller.Handle(ctx, host.MediaItemSelected{MediaID: args[0], Timestamp: time.Now()})
	if _, ok := sm.Current(); !ok {
		return fmt.Errorf("media item %s not found", args[0])
	}

	state := sm.Project(nil)
	if jsonOut {
		return printJSON(state)
	}
	status := "paused"
	if state.IsPlaying {
		status = "playing"
	}
	fmt.Printf("%s: %s by %s (%s)\n", status, state.Title, state.Artist, formatDuration(state.Duration))
	return nil
}

func printItems(items []models.MediaItem) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tARTIST\tALBUM\tDURATION")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Title, it.Artist, it.Album, formatDuration(it.Duration))
	}
	w.Flush()
}

func formatDuration(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	s := ms / 1000
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
