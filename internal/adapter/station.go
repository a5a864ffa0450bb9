package adapter

import (
	"context"
	"errors"
	"os"
	"strings"

	"wifiutils/internal/core/inspect"
	"wifiutils/internal/domain"
)

// MergedStation reads the primary source and fills the gaps from the secondary.
// The supplicant state always comes from the secondary when it has one.
type MergedStation struct {
	primary   inspect.StationSource
	secondary inspect.StationSource
}

// NewMergedStation combines two station sources; either may be nil
func NewMergedStation(primary, secondary inspect.StationSource) *MergedStation {
	return &MergedStation{primary: primary, secondary: secondary}
}

// Station implements inspect.StationSource
func (m *MergedStation) Station(ctx context.Context) (*domain.StationInfo, error) {
	p, perr := stationOf(ctx, m.primary)
	s, serr := stationOf(ctx, m.secondary)

	switch {
	case p == nil && s == nil:
		return nil, errors.Join(perr, serr)
	case p == nil:
		return s, nil
	case s == nil:
		return p, nil
	}

	out := *p
	out.Connected = p.Connected || s.Connected
	out.HiddenSSID = p.HiddenSSID || s.HiddenSSID
	if s.SupplicantState != "" {
		out.SupplicantState = s.SupplicantState
	}
	fill(&out.Interface, s.Interface)
	fill(&out.SSID, s.SSID)
	fill(&out.BSSID, s.BSSID)
	fill(&out.MACAddress, s.MACAddress)
	if out.RSSI == 0 {
		out.RSSI = s.RSSI
	}
	if out.LinkSpeed == 0 {
		out.LinkSpeed = s.LinkSpeed
	}
	if out.Frequency == 0 {
		out.Frequency = s.Frequency
	}
	return &out, nil
}

func stationOf(ctx context.Context, src inspect.StationSource) (*domain.StationInfo, error) {
	if src == nil {
		return nil, nil
	}
	return src.Station(ctx)
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// HostnameProbe reports the host name, falling back to "host-<machine id>"
type HostnameProbe struct {
	hostname      func() (string, error)
	machineIDPath string
}

// NewHostnameProbe creates a probe backed by os.Hostname and /etc/machine-id
func NewHostnameProbe() *HostnameProbe {
	return &HostnameProbe{hostname: os.Hostname, machineIDPath: "/etc/machine-id"}
}

// Hostname implements inspect.HostnameSource
func (h *HostnameProbe) Hostname() string {
	if name, err := h.hostname(); err == nil && name != "" {
		return name
	}
	data, err := os.ReadFile(h.machineIDPath)
	if err != nil {
		return "host-unknown"
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "host-unknown"
	}
	return "host-" + id
}
