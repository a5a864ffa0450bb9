// Package inspect builds AdapterReports from platform sources.
//
// The Inspector reads the station link, probes the hotspot state, enumerates
// network interfaces and selects the active one with SelectActive. Addresses
// of the active interface are described with their IPv4 subnet mask, network
// id and broadcast address.
//
// Platform access goes through the InterfaceSource, StationSource, APProbe and
// HostnameSource interfaces so the inspection logic runs against fakes in
// tests and against nl80211, wpa_supplicant and the net package in production.
package inspect
