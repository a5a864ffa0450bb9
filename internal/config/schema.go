package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Inspector InspectorConfig `yaml:"inspector"`
	Lock      LockConfig      `yaml:"lock"`
	Adapters  AdaptersConfig  `yaml:"adapters"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	CORSOrigin string `yaml:"cors_origin"`
}

// DatabaseConfig holds journal settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
	// RetainTransitions caps the journaled transitions; 0 keeps everything
	RetainTransitions int `yaml:"retain_transitions"`
}

// InspectorConfig holds adapter inspection settings
type InspectorConfig struct {
	// APStateOffset shifts legacy 0..4 hotspot codes to 10..14 before classification
	APStateOffset  bool   `yaml:"ap_state_offset"`
	Workers        int    `yaml:"workers"`
	Interface      string `yaml:"interface,omitempty"` // station interface override
	APInterface    string `yaml:"ap_interface,omitempty"`
	WPACtrlDir     string `yaml:"wpa_ctrl_dir"`
	HostapdCtrlDir string `yaml:"hostapd_ctrl_dir"`
}

// LockConfig holds WiFi performance lock settings
type LockConfig struct {
	Interface string `yaml:"interface,omitempty"` // defaults to the station interface
}

// AdaptersConfig configures the platform monitors
type AdaptersConfig struct {
	WPA     AdapterSettings `yaml:"wpa"`
	Link    AdapterSettings `yaml:"link"`
	Hotspot AdapterSettings `yaml:"hotspot"`
	Nmap    NmapSettings    `yaml:"nmap"`
}

// AdapterSettings enables an adapter and sets its poll interval
type AdapterSettings struct {
	Enabled      bool     `yaml:"enabled"`
	PollInterval Duration `yaml:"poll_interval,omitempty"`
}

// NmapSettings configures the neighbour scan
type NmapSettings struct {
	AdapterSettings `yaml:",inline"`
	Targets         []string `yaml:"targets,omitempty"` // scanned in addition to the active subnet
	Timeout         Duration `yaml:"timeout,omitempty"`
	ResolveNames    bool     `yaml:"resolve_names"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String renders the duration for adapter configs
func (d Duration) String() string {
	return time.Duration(d).String()
}
