package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the top-level vmdeck configuration.
type Config struct {
	User    UserConfig    `toml:"user"`
	Search  SearchConfig  `toml:"search"`
	Console ConsoleConfig `toml:"console"`
}

type UserConfig struct {
	Name string `toml:"name"`
}

// SearchConfig controls how VM lists are filtered.
type SearchConfig struct {
	// Mode is "fuzzy" (ranked, gapped matching) or "contains" (plain substring).
	Mode string `toml:"mode"`
	// Limit caps printed search results. 0 means no limit.
	Limit int `toml:"limit"`
}

// ConsoleConfig controls how remote consoles are opened.
type ConsoleConfig struct {
	Viewer          string `toml:"viewer"`           // external viewer binary
	DefaultProtocol string `toml:"default_protocol"` // vnc or spice
	DefaultHost     string `toml:"default_host"`
}

// Paths holds the resolved XDG locations.
type Paths struct {
	ConfigDir  string
	DataDir    string
	CacheDir   string
	StateDir   string
	ConfigFile string
	DBFile     string
}

// GetPaths returns the resolved paths, respecting XDG env vars.
func GetPaths() Paths {
	home, _ := os.UserHomeDir()

	configDir := envOr("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	dataDir := envOr("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	cacheDir := envOr("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	stateDir := envOr("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))

	appConfig := filepath.Join(configDir, "vmdeck")
	appData := filepath.Join(dataDir, "vmdeck")

	return Paths{
		ConfigDir:  appConfig,
		DataDir:    appData,
		CacheDir:   filepath.Join(cacheDir, "vmdeck"),
		StateDir:   filepath.Join(stateDir, "vmdeck"),
		ConfigFile: filepath.Join(appConfig, "config.toml"),
		DBFile:     filepath.Join(appData, "vmdeck.db"),
	}
}

// EnsureDirs creates all required directories.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.ConfigDir, p.DataDir, p.CacheDir, p.StateDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// Load reads config from disk, returning defaults if not found.
// Keys missing from the file keep their default values.
func Load() (*Config, error) {
	paths := GetPaths()

	data, err := os.ReadFile(paths.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	cfg := defaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", paths.ConfigFile, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", paths.ConfigFile, err)
	}
	return cfg, nil
}

// Save writes config to disk.
func Save(cfg *Config) error {
	paths := GetPaths()
	if err := paths.EnsureDirs(); err != nil {
		return err
	}

	f, err := os.Create(paths.ConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Initialized returns true if a config file exists.
func Initialized() bool {
	_, err := os.Stat(GetPaths().ConfigFile)
	return err == nil
}

// Validate rejects values the rest of vmdeck cannot act on.
func (c *Config) Validate() error {
	switch c.Search.Mode {
	case "", "fuzzy", "contains":
	default:
		return fmt.Errorf("search.mode must be fuzzy or contains, got %q", c.Search.Mode)
	}
	if c.Search.Limit < 0 {
		return fmt.Errorf("search.limit must not be negative, got %d", c.Search.Limit)
	}
	switch c.Console.DefaultProtocol {
	case "", "vnc", "spice":
	default:
		return fmt.Errorf("console.default_protocol must be vnc or spice, got %q", c.Console.DefaultProtocol)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Mode: "fuzzy",
		},
		Console: ConsoleConfig{
			Viewer:          envOr("VMDECK_VIEWER", "remote-viewer"),
			DefaultProtocol: "spice",
			DefaultHost:     "127.0.0.1",
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
