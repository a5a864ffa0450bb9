package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "WIFIUTILS_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "wifiutils.yaml"
	// ConfigDirName is the directory under XDG and /etc
	ConfigDirName = "wifiutils"

	systemConfigDir = "/etc"
)

// SearchPaths lists the config file candidates, most specific first:
// $WIFIUTILS_CONFIG, ./wifiutils.yaml, $XDG_CONFIG_HOME/wifiutils/config.yaml,
// ~/.config/wifiutils/config.yaml and /etc/wifiutils/config.yaml.
// Locations whose variable is unset are left out.
func SearchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, ConfigFileName)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join(systemConfigDir, ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing candidate from SearchPaths, or
// "" when there is none. A file found in the working directory is returned
// as an absolute path so the watcher keeps following it.
func FindConfigPath() string {
	for _, p := range SearchPaths() {
		if !fileExists(p) {
			continue
		}
		if p == ConfigFileName {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
		}
		return p
	}
	return ""
}

// DefaultConfigPath is where a new config file is written: the XDG config
// home, then ~/.config, then the working directory
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, ConfigDirName, "config.yaml")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName, "config.yaml")
	}
	return ConfigFileName
}

// EnsureConfigDir creates the directory holding configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
