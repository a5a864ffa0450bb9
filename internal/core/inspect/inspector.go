package inspect

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"wifiutils/internal/domain"
)

// Option is a functional option for configuring an Inspector
type Option func(*Inspector)

// WithStationSource sets the station link source
func WithStationSource(s StationSource) Option {
	return func(i *Inspector) {
		i.station = s
	}
}

// WithAPProbe sets the hotspot state probe
func WithAPProbe(p APProbe) Option {
	return func(i *Inspector) {
		i.ap = p
	}
}

// WithHostnameSource sets the host name source
func WithHostnameSource(h HostnameSource) Option {
	return func(i *Inspector) {
		i.hostname = h
	}
}

// WithHostname uses a fixed host name
func WithHostname(name string) Option {
	return func(i *Inspector) {
		i.hostname = staticHostname(name)
	}
}

// WithLegacyAPCodes enables the 0..4 hotspot code correction
func WithLegacyAPCodes(enabled bool) Option {
	return func(i *Inspector) {
		i.legacyAPCodes.Store(enabled)
	}
}

// WithClock overrides the time source used for InspectedAt
func WithClock(now func() time.Time) Option {
	return func(i *Inspector) {
		i.now = now
	}
}

// Inspector assembles AdapterReports from the platform sources
type Inspector struct {
	interfaces InterfaceSource
	station    StationSource
	ap         APProbe
	hostname   HostnameSource
	now        func() time.Time

	legacyAPCodes atomic.Bool

	mu    sync.RWMutex
	state StateReporter
}

// New creates an inspector over the given interface source
func New(interfaces InterfaceSource, opts ...Option) *Inspector {
	i := &Inspector{
		interfaces: interfaces,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// SetStateReporter sets where the wifiState label is read from
func (i *Inspector) SetStateReporter(r StateReporter) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = r
}

// SetLegacyAPCodes toggles the 0..4 hotspot code correction
func (i *Inspector) SetLegacyAPCodes(enabled bool) {
	i.legacyAPCodes.Store(enabled)
}

// LegacyAPCodes reports whether the hotspot code correction is active
func (i *Inspector) LegacyAPCodes() bool {
	return i.legacyAPCodes.Load()
}

// ClassifyAP probes the hotspot once and classifies the result
func (i *Inspector) ClassifyAP(ctx context.Context) (domain.APState, ProbeResult) {
	res := SafeProbe(ctx, i.ap)
	if res.Err != nil {
		log.Printf("Inspector: hotspot probe failed: %v", res.Err)
	}
	return res.Classify(i.LegacyAPCodes()), res
}

// Inspect takes a fresh snapshot of the adapter state.
// Only interface enumeration and address resolution errors are returned;
// station and hotspot failures degrade to zero values.
func (i *Inspector) Inspect(ctx context.Context) (*domain.AdapterReport, error) {
	report := &domain.AdapterReport{
		SupplicantState: domain.SupplicantUninitialized,
		InspectedAt:     i.now(),
	}

	if st := i.stationInfo(ctx); st != nil {
		report.WifiConnected = st.Connected
		report.SSID = st.SSID
		report.BSSID = st.BSSID
		report.HiddenSSID = st.HiddenSSID
		report.MACAddress = st.MACAddress
		report.RSSI = st.RSSI
		report.LinkSpeed = st.LinkSpeed
		if st.SupplicantState != "" {
			report.SupplicantState = st.SupplicantState
		}
	}

	apState, _ := i.ClassifyAP(ctx)
	report.APEnabled = apState == domain.APStateEnabled
	report.APState = apState.Label()
	report.Connected = report.WifiConnected || report.APEnabled

	report.WifiState = string(domain.StateUnknown)
	i.mu.RLock()
	if i.state != nil {
		report.WifiState = i.state.CurrentState()
	}
	i.mu.RUnlock()

	if i.hostname != nil {
		report.Hostname = i.hostname.Hostname()
	}

	if i.interfaces == nil {
		return report, nil
	}
	ifaces, err := i.interfaces.Interfaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate interfaces: %w", err)
	}

	active, ok := SelectActive(ifaces)
	if !ok {
		return report, nil
	}

	addrs, err := describeAddresses(active.Addrs)
	if err != nil {
		return nil, fmt.Errorf("resolve addresses of %s: %w", active.Name, err)
	}
	report.ActiveAdapter = active.Label()
	report.Addresses = addrs

	return report, nil
}

func (i *Inspector) stationInfo(ctx context.Context) *domain.StationInfo {
	if i.station == nil {
		return nil
	}
	st, err := i.station.Station(ctx)
	if err != nil {
		log.Printf("Inspector: station info unavailable: %v", err)
		return nil
	}
	return st
}

// describeAddresses converts interface addresses, dropping loopback ones
func describeAddresses(in []InterfaceAddress) ([]domain.AddressInfo, error) {
	out := make([]domain.AddressInfo, 0, len(in))
	for _, a := range in {
		if a.IP == nil || a.IP.IsLoopback() {
			continue
		}

		ip4 := a.IP.To4()
		if ip4 == nil {
			out = append(out, domain.AddressInfo{
				AddressType: domain.AddressTypeIPv6,
				IPAddress:   a.IP.String(),
			})
			continue
		}

		info := domain.AddressInfo{
			AddressType: domain.AddressTypeIPv4,
			IPAddress:   ip4.String(),
		}

		mask, err := SubnetMask(a.PrefixLen)
		if err != nil {
			return nil, err
		}
		info.SubnetMask = mask.String()

		netID, err := NetworkID(ip4, mask)
		if err != nil {
			return nil, err
		}
		info.NetworkID = netID.String()

		if a.Broadcast != nil {
			info.BroadcastAddress = a.Broadcast.String()
		}

		out = append(out, info)
	}
	return out, nil
}
