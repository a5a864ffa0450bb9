// Package adapter connects wifiutils to the platform's network services.
//
// Two kinds of components live here. Sources answer the inspector's
// questions on demand: NetInterfaces enumerates interfaces, NL80211 and
// WPASupplicant describe the station link, NL80211 and HostapdProbe report
// the hotspot state, HostnameProbe names the device and PowerSaveLock backs
// the WiFi performance lock.
//
// Adapters watch the platform and feed observations to the registry:
//
//   - wpa follows wpa_supplicant control socket events (stream)
//   - link follows rtnetlink operstate changes of the wireless link (stream)
//   - hotspot polls the hotspot probe for state changes (polling)
//   - nmap ping-scans the active subnet for neighbours (polling)
//
// # Adapter Registry
//
// Registry owns the adapter lifecycle. Polling adapters are synced on their
// configured interval; stream adapters are reopened after failures. Every
// non-empty observation is handed to a single ReconcileFunc.
package adapter
