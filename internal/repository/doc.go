// Package repository defines the data access interfaces for the wifiutils
// journal.
//
// The journal keeps what the service observed over time: station and
// hotspot transitions as the notifier delivered them, the reports produced
// after connection events and the neighbours found on the active subnet.
// The implementation lives in the sqlite subpackage.
//
// # Records
//
// Journaled records are append-only. A report stored by SaveReport is a
// copy of the value handed to clients and is never rewritten; neighbours are
// the exception and are upserted by IP address so that LastSeen advances.
//
// # Schema Migration
//
// The sqlite repository creates its tables with CREATE TABLE IF NOT EXISTS
// when it is opened.
package repository
