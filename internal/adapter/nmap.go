package adapter

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"

	"wifiutils/internal/domain"
)

// TargetFunc resolves the scan targets at sync time
type TargetFunc func(ctx context.Context) ([]string, error)

// NmapAdapter ping-scans the active subnet with nmap to find neighbours
type NmapAdapter struct {
	targets      []string
	targetFunc   TargetFunc
	timeout      time.Duration
	resolveNames bool
	timing       nmap.Timing
	publisher    EventPublisher
	mu           sync.Mutex
	running      bool
	lastScanTime time.Time
}

// NewNmapAdapter creates a new nmap-based neighbour scanning adapter
// targets: list of CIDR ranges or individual IPs to scan
// opts: optional configuration options
func NewNmapAdapter(targets []string, opts ...NmapOption) *NmapAdapter {
	adapter := &NmapAdapter{
		targets:      targets,
		timeout:      2 * time.Minute,
		resolveNames: true,
		timing:       nmap.TimingAggressive,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// SetEventPublisher sets the event publisher for progress updates
func (n *NmapAdapter) SetEventPublisher(pub EventPublisher) {
	n.publisher = pub
}

func (n *NmapAdapter) publishProgress(eventType string, payload interface{}) {
	if n.publisher != nil {
		n.publisher.PublishAdapterEvent(eventType, payload)
	}
}

// Name returns the adapter identifier
func (n *NmapAdapter) Name() string {
	return "nmap"
}

// Type returns the adapter type
func (n *NmapAdapter) Type() AdapterType {
	return AdapterTypePolling
}

// Priority returns the adapter priority
func (n *NmapAdapter) Priority() int {
	return 50
}

// Start checks that nmap can run
func (n *NmapAdapter) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !NmapAvailable(ctx) {
		return fmt.Errorf("nmap binary not found in PATH")
	}

	n.running = true
	log.Printf("Nmap adapter started (targets=%v, dynamic=%v)", n.targets, n.targetFunc != nil)
	return nil
}

// Stop shuts down the adapter
func (n *NmapAdapter) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.running = false
	log.Printf("Nmap adapter stopped")
	return nil
}

// LastScan returns when the last scan started
func (n *NmapAdapter) LastScan() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastScanTime
}

// Sync ping-scans the targets and returns the hosts that answered
func (n *NmapAdapter) Sync(ctx context.Context) (*domain.Observation, error) {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil, fmt.Errorf("adapter not running")
	}
	n.lastScanTime = time.Now()
	n.mu.Unlock()

	targets, err := n.resolveTargets(ctx)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		log.Printf("Nmap: no targets")
		return nil, nil
	}

	log.Printf("Nmap: starting scan of %v", targets)
	n.publishProgress("scan-started", map[string]interface{}{
		"targets": targets,
		"message": fmt.Sprintf("Starting neighbour scan of %d targets", len(targets)),
	})

	scanCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	opts := []nmap.Option{
		nmap.WithTargets(targets...),
		nmap.WithPingScan(),
		nmap.WithTimingTemplate(n.timing),
	}
	if !n.resolveNames {
		opts = append(opts, nmap.WithDisabledDNSResolution())
	}

	scanner, err := nmap.NewScanner(scanCtx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		log.Printf("Nmap: warnings: %v", *warnings)
	}

	obs := domain.NewObservation()
	for _, nb := range neighborsFromRun(result, time.Now()) {
		obs.AddNeighbor(nb)
	}

	n.publishProgress("scan-complete", map[string]interface{}{
		"discovered": len(obs.Neighbors),
		"message":    fmt.Sprintf("Neighbour scan complete: %d hosts", len(obs.Neighbors)),
	})
	log.Printf("Nmap: scan complete, %d neighbours", len(obs.Neighbors))
	return obs, nil
}

func (n *NmapAdapter) resolveTargets(ctx context.Context) ([]string, error) {
	if n.targetFunc == nil {
		return expandTargets(n.targets)
	}
	dynamic, err := n.targetFunc(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve targets: %w", err)
	}
	return expandTargets(append(append([]string(nil), n.targets...), dynamic...))
}

// NmapAvailable checks if the nmap binary runs
func NmapAvailable(ctx context.Context) bool {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	)
	if err != nil {
		return false
	}

	_, _, err = scanner.Run()
	return err == nil
}

// neighborsFromRun converts the hosts that are up into neighbours
func neighborsFromRun(result *nmap.Run, now time.Time) []domain.Neighbor {
	if result == nil {
		return nil
	}

	var out []domain.Neighbor
	for _, host := range result.Hosts {
		if len(host.Addresses) == 0 || host.Status.State != "up" {
			continue
		}

		nb := domain.Neighbor{LastSeen: now}
		for _, addr := range host.Addresses {
			switch addr.AddrType {
			case "ipv4":
				if nb.IP == "" {
					nb.IP = addr.Addr
				}
			case "mac":
				nb.MAC = strings.ToUpper(addr.Addr)
				nb.Vendor = addr.Vendor
			}
		}
		if nb.IP == "" {
			nb.IP = host.Addresses[0].Addr
		}
		if len(host.Hostnames) > 0 {
			nb.Hostname = host.Hostnames[0].Name
		}
		out = append(out, nb)
	}
	return out
}

// SubnetTargets returns the IPv4 networks of a report in CIDR notation
func SubnetTargets(report *domain.AdapterReport) []string {
	if report == nil {
		return nil
	}
	var targets []string
	for _, a := range report.IPv4Addresses() {
		mask := net.ParseIP(a.SubnetMask).To4()
		if mask == nil || a.NetworkID == "" {
			continue
		}
		ones, _ := net.IPMask(mask).Size()
		// Single host or whole-internet networks are not worth a scan
		if ones == 0 || ones == 32 {
			continue
		}
		targets = append(targets, fmt.Sprintf("%s/%d", a.NetworkID, ones))
	}
	return targets
}

// expandTargets validates CIDR targets and drops duplicates
func expandTargets(targets []string) ([]string, error) {
	var expanded []string
	seen := make(map[string]bool)
	for _, target := range targets {
		if strings.Contains(target, "/") {
			_, ipNet, err := net.ParseCIDR(target)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %s: %w", target, err)
			}
			// nmap handles expansion, keep the canonical CIDR
			target = ipNet.String()
		}
		if seen[target] {
			continue
		}
		seen[target] = true
		expanded = append(expanded, target)
	}
	return expanded, nil
}
