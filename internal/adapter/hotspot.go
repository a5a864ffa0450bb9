package adapter

import (
	"context"
	"fmt"
	"log"
	"sync"

	"wifiutils/internal/core/inspect"
	"wifiutils/internal/domain"
)

// HostapdProbe reads the hotspot state from the hostapd control socket
type HostapdProbe struct {
	ctrl *CtrlClient
}

// NewHostapdProbe creates a probe over the given control client
func NewHostapdProbe(ctrl *CtrlClient) *HostapdProbe {
	return &HostapdProbe{ctrl: ctrl}
}

// Available reports whether hostapd's control socket exists
func (h *HostapdProbe) Available() bool {
	return h.ctrl.Available()
}

// ProbeAP implements inspect.APProbe
func (h *HostapdProbe) ProbeAP(ctx context.Context) inspect.ProbeResult {
	reply, err := h.ctrl.Request(ctx, "STATUS")
	if err != nil {
		return inspect.ProbeResult{Code: domain.APCodeFailed, Err: fmt.Errorf("hostapd status: %w", err)}
	}
	return inspect.ProbeResult{Code: hostapdCode(parseKeyValues(reply)["state"])}
}

// hostapdCode maps hostapd's interface state to a hotspot state code
func hostapdCode(state string) int {
	switch state {
	case "ENABLED":
		return domain.APCodeEnabled
	case "DISABLED", "UNINITIALIZED":
		return domain.APCodeDisabled
	case "COUNTRY_UPDATE", "ACS", "HT_SCAN", "DFS", "NO_IR":
		return domain.APCodeEnabling
	default:
		return -1
	}
}

// FirstProbe returns a probe that tries each probe in order and reports the
// first result without an error. When all fail the last failure is reported.
func FirstProbe(probes ...inspect.APProbe) inspect.APProbe {
	return inspect.APProbeFunc(func(ctx context.Context) inspect.ProbeResult {
		res := inspect.ProbeResult{Code: domain.APCodeFailed, Err: inspect.ErrNoProbe}
		for _, p := range probes {
			if p == nil {
				continue
			}
			res = inspect.SafeProbe(ctx, p)
			if res.Err == nil {
				return res
			}
		}
		return res
	})
}

// HotspotAdapter polls the hotspot probe and reports state changes
type HotspotAdapter struct {
	probe inspect.APProbe
	iface string

	mu   sync.Mutex
	last int
	seen bool
}

// NewHotspotAdapter creates the hotspot polling adapter
func NewHotspotAdapter(probe inspect.APProbe, iface string) *HotspotAdapter {
	return &HotspotAdapter{probe: probe, iface: iface}
}

// Name returns the adapter identifier
func (h *HotspotAdapter) Name() string {
	return "hotspot"
}

// Type returns the adapter type
func (h *HotspotAdapter) Type() AdapterType {
	return AdapterTypePolling
}

// Priority returns the adapter priority
func (h *HotspotAdapter) Priority() int {
	return 70
}

// Start checks that a probe is configured
func (h *HotspotAdapter) Start(ctx context.Context) error {
	if h.probe == nil {
		return inspect.ErrNoProbe
	}
	return nil
}

// Stop forgets the last state so a restart reports the current one again
func (h *HotspotAdapter) Stop() error {
	h.mu.Lock()
	h.seen = false
	h.mu.Unlock()
	return nil
}

// Sync probes once and emits a hotspot transition when the code changed
func (h *HotspotAdapter) Sync(ctx context.Context) (*domain.Observation, error) {
	res := inspect.SafeProbe(ctx, h.probe)
	code := res.Code
	if res.Err != nil {
		log.Printf("Hotspot: probe failed: %v", res.Err)
		code = domain.APCodeFailed
	}

	h.mu.Lock()
	changed := !h.seen || code != h.last
	h.last = code
	h.seen = true
	h.mu.Unlock()

	obs := domain.NewObservation()
	if changed {
		obs.AddTransition(domain.NewAPTransition(code, h.iface, "hotspot"))
	}
	return obs, nil
}
