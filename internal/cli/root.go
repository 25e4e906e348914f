package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"carbridge/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg    *config.Config
	logger *logrus.Logger
	logOut io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "carbridge",
	Short: "Publish a local music library to a car head unit",
	Long: `carbridge scans a music directory, builds a browsable catalog of recent
tracks, playlists, albums and artists, and serves it to a car head unit over
HTTP and websocket. Head-unit buttons, selections and voice searches are
resolved against the published catalog.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logOut != nil {
			logOut.Close()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "./config.toml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func initConfig() error {
	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, logOut, err = newLogger(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// printJSON writes v as indented JSON to stdout
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
