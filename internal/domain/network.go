package domain

import "time"

// AccessPoint is one entry of a WLAN scan as seen from the station interface
type AccessPoint struct {
	SSID         string `json:"ssid" yaml:"ssid"`
	BSSID        string `json:"bssid" yaml:"bssid"`
	Frequency    int    `json:"frequency" yaml:"frequency"`
	Level        int    `json:"level" yaml:"level"`
	Capabilities string `json:"capabilities" yaml:"capabilities"`
}

// Neighbor is a host that answered on the active subnet
type Neighbor struct {
	IP       string    `json:"ip" yaml:"ip"`
	MAC      string    `json:"mac,omitempty" yaml:"mac,omitempty"`
	Vendor   string    `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Hostname string    `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	LastSeen time.Time `json:"last_seen" yaml:"last_seen"`
}
