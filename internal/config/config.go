// Package config provides configuration management for wifiutils.
//
// Config file locations (priority order):
//  1. $WIFIUTILS_CONFIG
//  2. ./wifiutils.yaml
//  3. $XDG_CONFIG_HOME/wifiutils/config.yaml
//  4. ~/.config/wifiutils/config.yaml
//  5. /etc/wifiutils/config.yaml
//
// Keys missing from the file keep their defaults. A few settings can also be
// overridden from the environment, see ApplyEnv.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr    = ":8080"
	DefaultDBPath  = "./wifiutils.db"
	DefaultWorkers = 4
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Parse decodes YAML config over the defaults
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Server:   ServerConfig{Addr: DefaultAddr, CORSOrigin: "*"},
		Database: DatabaseConfig{Path: DefaultDBPath, RetainTransitions: 10000},
		Inspector: InspectorConfig{
			Workers:        DefaultWorkers,
			WPACtrlDir:     "/var/run/wpa_supplicant",
			HostapdCtrlDir: "/var/run/hostapd",
		},
		Adapters: AdaptersConfig{
			WPA:     AdapterSettings{Enabled: true},
			Link:    AdapterSettings{Enabled: true},
			Hotspot: AdapterSettings{Enabled: true, PollInterval: Duration(5 * time.Second)},
			Nmap: NmapSettings{
				AdapterSettings: AdapterSettings{Enabled: false, PollInterval: Duration(10 * time.Minute)},
				Timeout:         Duration(2 * time.Minute),
				ResolveNames:    true,
			},
		},
	}
}

// applyDefaults fills in values the file cleared explicitly
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Inspector.Workers <= 0 {
		c.Inspector.Workers = def.Inspector.Workers
	}
	if c.Inspector.WPACtrlDir == "" {
		c.Inspector.WPACtrlDir = def.Inspector.WPACtrlDir
	}
	if c.Inspector.HostapdCtrlDir == "" {
		c.Inspector.HostapdCtrlDir = def.Inspector.HostapdCtrlDir
	}
	if c.Adapters.Hotspot.PollInterval <= 0 {
		c.Adapters.Hotspot.PollInterval = def.Adapters.Hotspot.PollInterval
	}
	if c.Adapters.Nmap.PollInterval <= 0 {
		c.Adapters.Nmap.PollInterval = def.Adapters.Nmap.PollInterval
	}
	if c.Adapters.Nmap.Timeout <= 0 {
		c.Adapters.Nmap.Timeout = def.Adapters.Nmap.Timeout
	}
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	if c.Database.RetainTransitions < 0 {
		return fmt.Errorf("database.retain_transitions must not be negative: %d", c.Database.RetainTransitions)
	}
	if c.Inspector.Workers > 64 {
		return fmt.Errorf("inspector.workers too large: %d", c.Inspector.Workers)
	}
	return nil
}

// LockInterface returns the interface the WiFi lock acts on
func (c *Config) LockInterface() string {
	if c.Lock.Interface != "" {
		return c.Lock.Interface
	}
	return c.Inspector.Interface
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	enabled := ""
	for _, a := range []struct {
		name string
		on   bool
	}{
		{"wpa", c.Adapters.WPA.Enabled},
		{"link", c.Adapters.Link.Enabled},
		{"hotspot", c.Adapters.Hotspot.Enabled},
		{"nmap", c.Adapters.Nmap.Enabled},
	} {
		if a.on {
			enabled += " " + a.name
		}
	}

	summary := fmt.Sprintf("Listen: %s, Database: %s, Workers: %d\n",
		c.Server.Addr, c.Database.Path, c.Inspector.Workers)
	summary += fmt.Sprintf("AP state offset: %v, Interface: %q\n",
		c.Inspector.APStateOffset, c.Inspector.Interface)
	summary += "Enabled adapters:" + enabled
	return summary
}
