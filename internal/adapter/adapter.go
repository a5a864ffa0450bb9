package adapter

import (
	"context"

	"wifiutils/internal/domain"
)

// AdapterType defines how an adapter interacts with its data source
type AdapterType string

const (
	// AdapterTypePolling - adapter pulls state on a schedule
	AdapterTypePolling AdapterType = "polling"
	// AdapterTypeStream - platform pushes notifications over a long-lived socket
	AdapterTypeStream AdapterType = "stream"
	// AdapterTypeOneShot - manual trigger only
	AdapterTypeOneShot AdapterType = "oneshot"
)

// AdapterConfig holds configuration for an adapter instance
type AdapterConfig struct {
	// Enabled determines if the adapter should run
	Enabled bool `json:"enabled"`
	// Priority orders adapters in listings (higher = more authoritative).
	// Zero takes the adapter's own Priority.
	Priority int `json:"priority"`
	// PollInterval for polling adapters (e.g., "5s", "5m")
	PollInterval string `json:"poll_interval,omitempty"`
	// Settings holds adapter-specific configuration
	Settings map[string]any `json:"settings,omitempty"`
}

// Adapter defines the interface for platform state sources
type Adapter interface {
	// Name returns the unique identifier for this adapter
	Name() string

	// Type returns how this adapter interacts with its source
	Type() AdapterType

	// Priority returns the authority level (higher = more authoritative)
	Priority() int

	// Start initializes the adapter (called once on startup)
	Start(ctx context.Context) error

	// Stop gracefully shuts down the adapter
	Stop() error

	// Sync pulls the current state and returns what changed since the last call.
	// Called on schedule for polling adapters, or manually for oneshot.
	Sync(ctx context.Context) (*domain.Observation, error)
}

// StreamAdapter is an adapter fed by platform notifications
type StreamAdapter interface {
	Adapter

	// Stream blocks, calling emit for every observation, until ctx is done
	// or the underlying socket fails.
	Stream(ctx context.Context, emit func(*domain.Observation)) error
}

// EventPublisher allows adapters to publish progress events
type EventPublisher interface {
	PublishAdapterEvent(eventType string, payload interface{})
}

// ProgressAdapter extends Adapter with progress reporting
type ProgressAdapter interface {
	Adapter

	// SetEventPublisher sets the event publisher for progress updates
	SetEventPublisher(pub EventPublisher)
}
