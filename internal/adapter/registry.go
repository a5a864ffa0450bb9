package adapter

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"wifiutils/internal/domain"
)

// ReconcileFunc is called when an adapter produces an observation
type ReconcileFunc func(ctx context.Context, source string, obs *domain.Observation) error

// AdapterEventFunc is called when adapters publish progress events
type AdapterEventFunc func(eventType string, payload interface{})

// streamRetryDelay is the pause before a failed stream is reopened
var streamRetryDelay = 5 * time.Second

// Registry manages all registered adapters and their lifecycle
type Registry struct {
	mu           sync.RWMutex
	adapters     map[string]Adapter
	configs      map[string]AdapterConfig
	running      map[string]bool
	reconcile    ReconcileFunc
	adapterEvent AdapterEventFunc
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewRegistry creates a new adapter registry
func NewRegistry(reconcile ReconcileFunc) *Registry {
	return &Registry{
		adapters:  make(map[string]Adapter),
		configs:   make(map[string]AdapterConfig),
		running:   make(map[string]bool),
		reconcile: reconcile,
	}
}

// SetAdapterEventHandler sets the handler for adapter progress events
func (r *Registry) SetAdapterEventHandler(handler AdapterEventFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapterEvent = handler
}

// PublishAdapterEvent implements EventPublisher
func (r *Registry) PublishAdapterEvent(eventType string, payload interface{}) {
	r.mu.RLock()
	handler := r.adapterEvent
	r.mu.RUnlock()

	if handler != nil {
		handler(eventType, payload)
	}
}

// Register adds an adapter to the registry. A zero config priority takes the
// adapter's own.
func (r *Registry) Register(adapter Adapter, config AdapterConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := adapter.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter %s already registered", name)
	}

	if progressAdapter, ok := adapter.(ProgressAdapter); ok {
		progressAdapter.SetEventPublisher(r)
	}

	if config.Priority == 0 {
		config.Priority = adapter.Priority()
	}
	r.adapters[name] = adapter
	r.configs[name] = config
	log.Printf("Registered adapter: %s (type=%s, priority=%d, enabled=%v)",
		name, adapter.Type(), config.Priority, config.Enabled)

	return nil
}

// Start initializes all enabled adapters and begins their polling loops and streams
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ctx, r.cancel = context.WithCancel(ctx)

	for name, adapter := range r.adapters {
		config := r.configs[name]
		if !config.Enabled {
			log.Printf("Adapter %s is disabled, skipping", name)
			continue
		}

		if err := adapter.Start(r.ctx); err != nil {
			log.Printf("Failed to start adapter %s: %v", name, err)
			continue
		}
		r.running[name] = true

		switch adapter.Type() {
		case AdapterTypePolling:
			r.startPollingLoop(name, adapter, config)
		case AdapterTypeStream:
			if stream, ok := adapter.(StreamAdapter); ok {
				r.startStream(name, stream)
			}
		}
	}

	return nil
}

// Stop gracefully shuts down all adapters
func (r *Registry) Stop() error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	// Running adapters publish events under the read lock
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, adapter := range r.adapters {
		if !r.running[name] {
			continue
		}
		if err := adapter.Stop(); err != nil {
			log.Printf("Error stopping adapter %s: %v", name, err)
		}
		r.running[name] = false
	}

	return nil
}

// TriggerSync manually triggers a sync for a specific adapter
func (r *Registry) TriggerSync(ctx context.Context, name string) error {
	r.mu.RLock()
	adapter, exists := r.adapters[name]
	config := r.configs[name]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("adapter %s not found", name)
	}

	if !config.Enabled {
		return fmt.Errorf("adapter %s is disabled", name)
	}

	return r.runSync(ctx, name, adapter)
}

// ListAdapters returns information about registered adapters, highest priority first
func (r *Registry) ListAdapters() []AdapterInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]AdapterInfo, 0, len(r.adapters))
	for name, adapter := range r.adapters {
		config := r.configs[name]
		infos = append(infos, AdapterInfo{
			Name:         name,
			Type:         adapter.Type(),
			Priority:     config.Priority,
			Enabled:      config.Enabled,
			Running:      r.running[name],
			PollInterval: config.PollInterval,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Priority != infos[j].Priority {
			return infos[i].Priority > infos[j].Priority
		}
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// AdapterInfo provides read-only information about an adapter
type AdapterInfo struct {
	Name         string      `json:"name"`
	Type         AdapterType `json:"type"`
	Priority     int         `json:"priority"`
	Enabled      bool        `json:"enabled"`
	Running      bool        `json:"running"`
	PollInterval string      `json:"poll_interval,omitempty"`
}

// startPollingLoop starts a goroutine that polls the adapter on schedule
func (r *Registry) startPollingLoop(name string, adapter Adapter, config AdapterConfig) {
	interval, err := time.ParseDuration(config.PollInterval)
	if err != nil || interval <= 0 {
		log.Printf("Invalid poll interval for %s: %q, using 1m default", name, config.PollInterval)
		interval = time.Minute
	}

	ctx := r.ctx
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if err := r.runSync(ctx, name, adapter); err != nil {
			log.Printf("Initial sync failed for %s: %v", name, err)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Printf("Stopping polling loop for %s", name)
				return
			case <-ticker.C:
				if err := r.runSync(ctx, name, adapter); err != nil {
					log.Printf("Sync failed for %s: %v", name, err)
				}
			}
		}
	}()

	log.Printf("Started polling loop for %s (interval=%s)", name, interval)
}

// startStream runs the adapter's stream, reopening it after failures
func (r *Registry) startStream(name string, adapter StreamAdapter) {
	ctx := r.ctx
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		emit := func(obs *domain.Observation) {
			if err := r.apply(ctx, name, obs); err != nil {
				log.Printf("Failed to reconcile %s observation: %v", name, err)
			}
		}

		for {
			err := adapter.Stream(ctx, emit)
			if ctx.Err() != nil {
				log.Printf("Stopping stream for %s", name)
				return
			}
			log.Printf("Stream for %s ended: %v, reopening in %s", name, err, streamRetryDelay)

			select {
			case <-ctx.Done():
				return
			case <-time.After(streamRetryDelay):
			}
		}
	}()

	log.Printf("Started stream for %s", name)
}

// runSync executes a sync operation and reconciles the result
func (r *Registry) runSync(ctx context.Context, name string, adapter Adapter) error {
	obs, err := adapter.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return r.apply(ctx, name, obs)
}

func (r *Registry) apply(ctx context.Context, name string, obs *domain.Observation) error {
	if obs.IsEmpty() {
		return nil
	}

	if err := r.reconcile(ctx, name, obs); err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	log.Printf("Adapter %s: %d transitions, %d neighbors",
		name, len(obs.Transitions), len(obs.Neighbors))
	return nil
}
