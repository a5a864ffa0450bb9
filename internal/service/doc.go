// Package service implements the connectivity logic of wifiutils.
//
// # Services
//
// Notifier tracks station and hotspot transitions, fans the state labels out
// to subscribers and runs an inspection when the device becomes connected or
// the hotspot becomes enabled.
//
// WifiLock wraps the platform lock that keeps the radio at full performance.
//
// ReconcileService is the single sink of the adapter registry. It routes
// observed transitions through the notifier and journals what was
// delivered, together with neighbours and connection reports.
//
// # Event System
//
// Services publish events via EventBus for real-time updates to connected
// clients via Server-Sent Events (SSE). A slow subscriber misses events
// instead of blocking the publisher.
package service
