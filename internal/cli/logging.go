package cli

import (
	"fmt"
	"io"
	"os"

	"carbridge/internal/config"

	"github.com/sirupsen/logrus"
)

// newLogger builds the process logger. When a log file is configured output
// goes to both stderr and the file; the returned closer closes the file.
func newLogger(cfg config.LoggingConfig, verbose bool) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if cfg.File == "" {
		logger.SetOutput(os.Stderr)
		return logger, nil, nil
	}
	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, file))
	return logger, file, nil
}
