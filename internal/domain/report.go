package domain

import "time"

// AddressType distinguishes IPv4 from IPv6 addresses
type AddressType string

const (
	AddressTypeIPv4 AddressType = "ipv4"
	AddressTypeIPv6 AddressType = "ipv6"
)

// AddressInfo describes one non-loopback address bound to the active adapter.
// SubnetMask, NetworkID and BroadcastAddress are only set for IPv4.
type AddressInfo struct {
	AddressType      AddressType `json:"addressType" yaml:"address_type"`
	IPAddress        string      `json:"ipAddress" yaml:"ip_address"`
	SubnetMask       string      `json:"subnetMask,omitempty" yaml:"subnet_mask,omitempty"`
	NetworkID        string      `json:"networkId,omitempty" yaml:"network_id,omitempty"`
	BroadcastAddress string      `json:"broadcastAddress,omitempty" yaml:"broadcast_address,omitempty"`
}

// IsIPv4 reports whether the address carries the IPv4 derived fields
func (a AddressInfo) IsIPv4() bool {
	return a.AddressType == AddressTypeIPv4
}

// AdapterReport is a point-in-time snapshot of the WiFi adapter and hotspot state.
// A report is built fresh for every inspection and is never modified afterwards.
type AdapterReport struct {
	Connected     bool   `json:"connected" yaml:"connected"`
	APEnabled     bool   `json:"apEnabled" yaml:"ap_enabled"`
	WifiConnected bool   `json:"wifiConnected" yaml:"wifi_connected"`
	WifiState     string `json:"wifiState" yaml:"wifi_state"`
	APState       string `json:"apState" yaml:"ap_state"`

	SupplicantState string `json:"supplicantState" yaml:"supplicant_state"`
	SSID            string `json:"ssid" yaml:"ssid"`
	BSSID           string `json:"bssid" yaml:"bssid"`
	HiddenSSID      bool   `json:"hiddenSSID" yaml:"hidden_ssid"`
	MACAddress      string `json:"macAddress" yaml:"mac_address"`
	Hostname        string `json:"hostname" yaml:"hostname"`
	RSSI            int    `json:"rssi" yaml:"rssi"`
	LinkSpeed       int    `json:"linkSpeed" yaml:"link_speed"`

	// Absent when no interface survives the candidate filter
	ActiveAdapter string        `json:"activeAdapter,omitempty" yaml:"active_adapter,omitempty"`
	Addresses     []AddressInfo `json:"addresses,omitempty" yaml:"addresses,omitempty"`

	InspectedAt time.Time `json:"inspectedAt" yaml:"inspected_at"`
}

// HasActiveAdapter reports whether an active interface was selected
func (r *AdapterReport) HasActiveAdapter() bool {
	return r != nil && r.ActiveAdapter != ""
}

// IPv4Addresses returns the IPv4 subset of the report's addresses
func (r *AdapterReport) IPv4Addresses() []AddressInfo {
	if r == nil {
		return nil
	}
	var out []AddressInfo
	for _, a := range r.Addresses {
		if a.IsIPv4() {
			out = append(out, a)
		}
	}
	return out
}

// StationInfo is what the platform reports about the station-mode link
type StationInfo struct {
	Interface       string
	Connected       bool
	SupplicantState string
	SSID            string
	BSSID           string
	HiddenSSID      bool
	MACAddress      string
	RSSI            int
	LinkSpeed       int // Mbps
	Frequency       int // MHz
}

// SupplicantUninitialized is reported when no supplicant state is known
const SupplicantUninitialized = "UNINITIALIZED"
