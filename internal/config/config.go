package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Music    MusicConfig    `toml:"music"`
	Library  LibraryConfig  `toml:"library"`
	Artwork  ArtworkConfig  `toml:"artwork"`
	Logging  LoggingConfig  `toml:"logging"`
	Auth     AuthConfig     `toml:"auth"`
	Ngrok    NgrokConfig    `toml:"ngrok"`
}

// ServerConfig contains the head-unit bridge listener settings
type ServerConfig struct {
	Port         string `toml:"port"`
	Host         string `toml:"host"`
	PublicURL    string `toml:"public_url"` // base for artwork URLs; derived from host/port when empty
	EnableCORS   bool   `toml:"enable_cors"`
	ReadTimeout  int    `toml:"read_timeout_seconds"`
	WriteTimeout int    `toml:"write_timeout_seconds"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// MusicConfig contains music directory configuration
type MusicConfig struct {
	LibraryPath      string   `toml:"library_path"`
	SupportedFormats []string `toml:"supported_formats"`
	WatchForChanges  bool     `toml:"watch_for_changes"`
	ScanOnStartup    bool     `toml:"scan_on_startup"`
	ScanWorkers      int      `toml:"scan_workers"` // 0 = one per CPU
	WatchDebounceMS  int      `toml:"watch_debounce_ms"`
}

// LibraryConfig controls catalog behaviour
type LibraryConfig struct {
	RecentLimit       int    `toml:"recent_limit"`
	SearchScope       string `toml:"search_scope"` // recent_playlists or all
	ShuffleItems      bool   `toml:"shuffle_items"`
	TrackRecent       bool   `toml:"track_recent"`
	StrictConsistency bool   `toml:"strict_consistency"`
}

// ArtworkConfig controls the remote artwork proxy
type ArtworkConfig struct {
	MaxSize         int `toml:"max_size"`
	FetchTimeout    int `toml:"fetch_timeout_seconds"`
	CacheTTLMinutes int `toml:"cache_ttl_minutes"`
	CacheEntries    int `toml:"cache_entries"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	File           string `toml:"file"`
	RequestLogging bool   `toml:"request_logging"`
}

// AuthConfig controls head-unit pairing. TokenHash is a bcrypt hash of the
// pairing token; CARBRIDGE_PAIRING_TOKEN supplies a plain token instead.
type AuthConfig struct {
	Enabled   bool   `toml:"enabled"`
	TokenHash string `toml:"token_hash"`
	Token     string `toml:"-"`
}

// NgrokConfig contains ngrok tunnel configuration
type NgrokConfig struct {
	Enabled      bool   `toml:"enabled"`
	AuthToken    string `toml:"auth_token"`
	Domain       string `toml:"domain"`
	EnableAuth   bool   `toml:"enable_auth"`
	AuthProvider string `toml:"auth_provider"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Host:         "0.0.0.0",
			EnableCORS:   true,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Database: DatabaseConfig{
			Path: "./carbridge.db",
		},
		Music: MusicConfig{
			LibraryPath:      "./music",
			SupportedFormats: []string{".flac", ".mp3", ".wav", ".m4a"},
			WatchForChanges:  true,
			ScanOnStartup:    true,
			WatchDebounceMS:  2000,
		},
		Library: LibraryConfig{
			RecentLimit:  10,
			SearchScope:  "recent_playlists",
			ShuffleItems: true,
			TrackRecent:  true,
		},
		Artwork: ArtworkConfig{
			MaxSize:         512,
			FetchTimeout:    5,
			CacheTTLMinutes: 60,
			CacheEntries:    256,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			RequestLogging: true,
		},
		Ngrok: NgrokConfig{
			AuthProvider: "google",
		},
	}
}

// LoadConfig loads configuration from a TOML file, creating it with
// defaults when missing, then applies environment overrides. A .env file
// next to the config file is loaded first if present.
func LoadConfig(configPath string) (*Config, error) {
	if err := LoadEnvFile(filepath.Join(filepath.Dir(configPath), ".env")); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
	} else if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file. Existing environment
// variables win; a missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from CARBRIDGE_* variables and NGROK_AUTHTOKEN.
func (c *Config) ApplyEnv() error {
	str := map[string]*string{
		"CARBRIDGE_PORT":          &c.Server.Port,
		"CARBRIDGE_HOST":          &c.Server.Host,
		"CARBRIDGE_PUBLIC_URL":    &c.Server.PublicURL,
		"CARBRIDGE_DB_PATH":       &c.Database.Path,
		"CARBRIDGE_MUSIC_PATH":    &c.Music.LibraryPath,
		"CARBRIDGE_SEARCH_SCOPE":  &c.Library.SearchScope,
		"CARBRIDGE_LOG_LEVEL":     &c.Logging.Level,
		"CARBRIDGE_LOG_FORMAT":    &c.Logging.Format,
		"CARBRIDGE_PAIRING_TOKEN": &c.Auth.Token,
		"NGROK_AUTHTOKEN":         &c.Ngrok.AuthToken,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("CARBRIDGE_RECENT_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CARBRIDGE_RECENT_LIMIT %q: %w", v, err)
		}
		c.Library.RecentLimit = n
	}
	if c.Auth.Token != "" {
		c.Auth.Enabled = true
	}
	return nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# carbridge configuration
# Library catalog and head-unit bridge settings. Environment variables
# (CARBRIDGE_*, NGROK_AUTHTOKEN) and a .env file override these values.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	if err := toml.NewEncoder(file).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port must be numeric: %s", c.Server.Port)
	}
	if c.Server.Host == "" {
		return errors.New("server host cannot be empty")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return errors.New("server timeouts cannot be negative")
	}

	if c.Database.Path == "" {
		return errors.New("database path cannot be empty")
	}

	if c.Music.LibraryPath == "" {
		return errors.New("music library path cannot be empty")
	}
	if len(c.Music.SupportedFormats) == 0 {
		return errors.New("at least one supported audio format must be specified")
	}
	if c.Music.ScanWorkers < 0 {
		return errors.New("scan workers cannot be negative")
	}

	if c.Library.RecentLimit < 1 {
		return errors.New("library recent limit must be at least 1")
	}
	switch c.Library.SearchScope {
	case "recent_playlists", "all":
	default:
		return fmt.Errorf("invalid search scope: %s (must be recent_playlists or all)", c.Library.SearchScope)
	}

	if c.Artwork.MaxSize < 1 {
		return errors.New("artwork max size must be positive")
	}
	if c.Artwork.FetchTimeout < 1 {
		return errors.New("artwork fetch timeout must be at least 1 second")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	if c.Auth.Enabled && c.Auth.TokenHash == "" && c.Auth.Token == "" {
		return errors.New("auth is enabled but neither token_hash nor CARBRIDGE_PAIRING_TOKEN is set")
	}
	if c.Ngrok.Enabled && c.Ngrok.AuthToken == "" {
		return errors.New("ngrok is enabled but no auth token is set (auth_token or NGROK_AUTHTOKEN)")
	}
	return nil
}

// GetAddress returns the listen address
func (c *Config) GetAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// BaseURL returns the URL the head unit uses to reach the bridge
func (c *Config) BaseURL() string {
	if c.Server.PublicURL != "" {
		return strings.TrimRight(c.Server.PublicURL, "/")
	}
	host := c.Server.Host
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return "http://" + host + ":" + c.Server.Port
}

// ReadTimeout returns the server read timeout
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeout) * time.Second
}

// WriteTimeout returns the server write timeout
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeout) * time.Second
}

// WatchDebounce returns the music watcher debounce interval
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Music.WatchDebounceMS) * time.Millisecond
}
