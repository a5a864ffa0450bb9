// Package domain defines the core types of the WiFi adapter inspector.
//
// This package contains the value objects exchanged between the platform
// adapters, the inspector, the notifier and the bridge. It has no
// dependencies on infrastructure.
//
// # Reports
//
// AdapterReport is the snapshot returned by an inspection: connectivity flags,
// station link details (SSID, BSSID, RSSI, link speed), the selected active
// adapter and its addresses. AddressInfo carries the IPv4 subnet mask, network
// id and broadcast address alongside the address itself.
//
// # States
//
// ConnectionState enumerates station-mode connection states. APState
// classifies the numeric hotspot codes 10..14 and exposes the WIFI_AP_STATE_*
// labels delivered to subscribers. Legacy platforms report the hotspot codes
// as 0..4; CorrectAPCode shifts them into range.
//
// # Observations
//
// Transition records a single station or hotspot state change. Platform
// adapters hand transitions and neighbors to the registry wrapped in an
// Observation.
package domain
