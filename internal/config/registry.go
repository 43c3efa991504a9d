package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// KeyType represents the data type of a config key.
type KeyType string

const (
	KeyTypeString KeyType = "string"
	KeyTypeInt    KeyType = "int"
)

// KeyEntry describes a known, settable config key.
type KeyEntry struct {
	Type KeyType
	// Desc is shown by `vmdeck config keys`.
	Desc       string
	DefaultStr string

	get   func(*Config) string
	set   func(cfg *Config, value string) error
	unset func(cfg *Config)
}

// Get returns the current value of the key as a string.
func (e *KeyEntry) Get(cfg *Config) string { return e.get(cfg) }

// Set validates and applies the value.
func (e *KeyEntry) Set(cfg *Config, value string) error { return e.set(cfg, value) }

// Unset resets the key to its default.
func (e *KeyEntry) Unset(cfg *Config) { e.unset(cfg) }

// SchemaKeys is the registry of settable config keys, named after their TOML
// section and field.
var SchemaKeys = map[string]*KeyEntry{
	"user.name": {
		Type:  KeyTypeString,
		Desc:  "Display name",
		get:   func(cfg *Config) string { return cfg.User.Name },
		set:   func(cfg *Config, v string) error { cfg.User.Name = v; return nil },
		unset: func(cfg *Config) { cfg.User.Name = "" },
	},
	"search.mode": {
		Type:       KeyTypeString,
		Desc:       "Default search mode (fuzzy, contains)",
		DefaultStr: "fuzzy",
		get:        func(cfg *Config) string { return cfg.Search.Mode },
		set: func(cfg *Config, v string) error {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "fuzzy" && v != "contains" {
				return fmt.Errorf("invalid search mode %q (use fuzzy or contains)", v)
			}
			cfg.Search.Mode = v
			return nil
		},
		unset: func(cfg *Config) { cfg.Search.Mode = "fuzzy" },
	},
	"search.limit": {
		Type:       KeyTypeInt,
		Desc:       "Maximum search results to print (0 = all)",
		DefaultStr: "0",
		get:        func(cfg *Config) string { return strconv.Itoa(cfg.Search.Limit) },
		set: func(cfg *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 0 {
				return fmt.Errorf("search.limit must be a non-negative integer, got %q", v)
			}
			cfg.Search.Limit = n
			return nil
		},
		unset: func(cfg *Config) { cfg.Search.Limit = 0 },
	},
	"console.viewer": {
		Type:       KeyTypeString,
		Desc:       "Remote console viewer binary",
		DefaultStr: "remote-viewer",
		get:        func(cfg *Config) string { return cfg.Console.Viewer },
		set: func(cfg *Config, v string) error {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("console.viewer must not be empty")
			}
			cfg.Console.Viewer = v
			return nil
		},
		unset: func(cfg *Config) { cfg.Console.Viewer = "remote-viewer" },
	},
	"console.default_protocol": {
		Type:       KeyTypeString,
		Desc:       "Console protocol for new VMs (vnc, spice)",
		DefaultStr: "spice",
		get:        func(cfg *Config) string { return cfg.Console.DefaultProtocol },
		set: func(cfg *Config, v string) error {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "vnc" && v != "spice" {
				return fmt.Errorf("invalid console protocol %q (use vnc or spice)", v)
			}
			cfg.Console.DefaultProtocol = v
			return nil
		},
		unset: func(cfg *Config) { cfg.Console.DefaultProtocol = "spice" },
	},
	"console.default_host": {
		Type:       KeyTypeString,
		Desc:       "Console host for new VMs",
		DefaultStr: "127.0.0.1",
		get:        func(cfg *Config) string { return cfg.Console.DefaultHost },
		set:        func(cfg *Config, v string) error { cfg.Console.DefaultHost = strings.TrimSpace(v); return nil },
		unset:      func(cfg *Config) { cfg.Console.DefaultHost = "127.0.0.1" },
	},
}

// ValidKeyNames returns the sorted list of all known config key names.
func ValidKeyNames() []string {
	names := make([]string, 0, len(SchemaKeys))
	for k := range SchemaKeys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LookupKey returns the KeyEntry for a known config key.
func LookupKey(key string) (*KeyEntry, bool) {
	entry, ok := SchemaKeys[key]
	return entry, ok
}
