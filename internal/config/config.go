package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rawcull/pkg/types"

	"gopkg.in/yaml.v3"
)

// DefaultExtensions are the camera RAW extensions recognised out of the box.
var DefaultExtensions = []string{
	"raf", "cr2", "cr3", "nef", "nrw", "arw", "srf", "sr2", "dng",
	"orf", "rw2", "pef", "srw", "raw", "rwl", "3fr", "iiq", "x3f",
}

// Config represents the application configuration structure.
type Config struct {
	Library struct {
		Default     string   `yaml:"default"`      // Folder opened on start
		Extensions  []string `yaml:"extensions"`   // RAW file extensions, without the dot
		NaturalSort bool     `yaml:"natural_sort"` // IMG_2 before IMG_10
		Watch       bool     `yaml:"watch"`        // Rescan when files appear or disappear
	} `yaml:"library"`
	Preview struct {
		ThumbSize    int `yaml:"thumb_size"`    // Longest edge of grid thumbnails in pixels
		ThumbCache   int `yaml:"thumb_cache"`   // Thumbnails kept in memory
		DisplaySize  int `yaml:"display_size"`  // Longest edge of the single-view image
		DisplayCache int `yaml:"display_cache"` // Single-view images kept in memory
		Workers      int `yaml:"workers"`       // Parallel preview decoders
	} `yaml:"preview"`
	Ratings struct {
		Persist  bool   `yaml:"persist"`  // Keep ratings in a database between runs
		Database string `yaml:"database"` // SQLite file used when persist is on
	} `yaml:"ratings"`
	Export struct {
		Directory string `yaml:"directory"`  // Default export destination
		Quality   int    `yaml:"quality"`    // JPEG quality 1-100
		MinRating int    `yaml:"min_rating"` // Lowest rating that gets exported
		Collision string `yaml:"collision"`  // rename, skip or overwrite
		Workers   int    `yaml:"workers"`    // Parallel encoders
	} `yaml:"export"`
	View struct {
		StartMode string `yaml:"start_mode"` // grid or single
	} `yaml:"view"`
	Log struct {
		Debug bool `yaml:"debug"`
		JSON  bool `yaml:"json"`
	} `yaml:"log"`
}

// DefaultPath returns ~/.config/rawcull/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rawcull", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location
// (~/.config/rawcull/config.yaml).
func LoadConfig() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(configPath)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if tempCfg.Library.Default != "" {
		cfg.Library.Default = tempCfg.Library.Default
	}
	if len(tempCfg.Library.Extensions) > 0 {
		cfg.Library.Extensions = tempCfg.Library.Extensions
	}
	cfg.Library.NaturalSort = tempCfg.Library.NaturalSort
	cfg.Library.Watch = tempCfg.Library.Watch

	if tempCfg.Preview.ThumbSize > 0 {
		cfg.Preview.ThumbSize = tempCfg.Preview.ThumbSize
	}
	if tempCfg.Preview.ThumbCache > 0 {
		cfg.Preview.ThumbCache = tempCfg.Preview.ThumbCache
	}
	if tempCfg.Preview.DisplaySize > 0 {
		cfg.Preview.DisplaySize = tempCfg.Preview.DisplaySize
	}
	if tempCfg.Preview.DisplayCache > 0 {
		cfg.Preview.DisplayCache = tempCfg.Preview.DisplayCache
	}
	if tempCfg.Preview.Workers > 0 {
		cfg.Preview.Workers = tempCfg.Preview.Workers
	}

	cfg.Ratings.Persist = tempCfg.Ratings.Persist
	if tempCfg.Ratings.Database != "" {
		cfg.Ratings.Database = tempCfg.Ratings.Database
	}

	if tempCfg.Export.Directory != "" {
		cfg.Export.Directory = tempCfg.Export.Directory
	}
	if tempCfg.Export.Quality != 0 {
		cfg.Export.Quality = tempCfg.Export.Quality
	}
	if tempCfg.Export.MinRating != 0 {
		cfg.Export.MinRating = tempCfg.Export.MinRating
	}
	if tempCfg.Export.Collision != "" {
		cfg.Export.Collision = tempCfg.Export.Collision
	}
	if tempCfg.Export.Workers > 0 {
		cfg.Export.Workers = tempCfg.Export.Workers
	}

	if tempCfg.View.StartMode != "" {
		cfg.View.StartMode = tempCfg.View.StartMode
	}
	cfg.Log = tempCfg.Log

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration with safe defaults.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Library.Default = "."
	cfg.Library.Extensions = append([]string(nil), DefaultExtensions...)
	cfg.Library.NaturalSort = false
	cfg.Library.Watch = false

	cfg.Preview.ThumbSize = 280 // matches the grid cell
	cfg.Preview.ThumbCache = 256
	cfg.Preview.DisplaySize = 2048
	cfg.Preview.DisplayCache = 8
	cfg.Preview.Workers = 4

	cfg.Ratings.Persist = false
	cfg.Ratings.Database = defaultDatabasePath()

	cfg.Export.Directory = ""
	cfg.Export.Quality = 95
	cfg.Export.MinRating = 1
	cfg.Export.Collision = "rename"
	cfg.Export.Workers = 2

	cfg.View.StartMode = "grid"

	return cfg
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rawcull.db"
	}
	return filepath.Join(home, ".local", "share", "rawcull", "ratings.db")
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Returns error if any settings are invalid.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	if len(c.Library.Extensions) == 0 {
		return fmt.Errorf("library.extensions must not be empty")
	}
	for i, ext := range c.Library.Extensions {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext == "" || strings.ContainsAny(ext, "{},*?[]/") {
			return fmt.Errorf("library.extensions[%d]: invalid extension %q", i, c.Library.Extensions[i])
		}
	}

	if c.Preview.ThumbSize < 16 {
		return fmt.Errorf("preview.thumb_size must be >= 16")
	}
	if c.Preview.DisplaySize < c.Preview.ThumbSize {
		return fmt.Errorf("preview.display_size must be >= preview.thumb_size")
	}
	if c.Preview.ThumbCache < 1 || c.Preview.DisplayCache < 1 {
		return fmt.Errorf("preview cache sizes must be >= 1")
	}
	if c.Preview.Workers < 1 {
		return fmt.Errorf("preview.workers must be >= 1")
	}

	if c.Ratings.Persist && c.Ratings.Database == "" {
		return fmt.Errorf("ratings.database is required when ratings.persist is true")
	}

	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("export.quality must be between 1 and 100")
	}
	if !types.Rating(c.Export.MinRating).Valid() {
		return fmt.Errorf("export.min_rating must be between 0 and 5")
	}
	validCollisions := map[string]bool{"rename": true, "skip": true, "overwrite": true}
	if !validCollisions[c.Export.Collision] {
		return fmt.Errorf("invalid collision setting: %s", c.Export.Collision)
	}
	if c.Export.Workers < 1 {
		return fmt.Errorf("export.workers must be >= 1")
	}

	if _, err := types.ParseViewMode(c.View.StartMode); err != nil {
		return fmt.Errorf("view.start_mode: %w", err)
	}

	return nil
}

// StartMode returns the configured initial view mode.
func (c *Config) StartMode() types.ViewMode {
	m, _ := types.ParseViewMode(c.View.StartMode)
	return m
}

// NewTestConfig creates a configuration instance for testing purposes.
func NewTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Preview.ThumbSize = 32
	cfg.Preview.DisplaySize = 64
	cfg.Preview.Workers = 2
	cfg.Ratings.Database = ""
	cfg.Export.Workers = 1
	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}
