package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mdlayher/wifi"

	"wifiutils/internal/core/inspect"
	"wifiutils/internal/domain"
)

// ErrNoWirelessInterface is returned when nl80211 lists no matching interface
var ErrNoWirelessInterface = errors.New("no wireless interface")

// wifiClient is the part of *wifi.Client the adapters use
type wifiClient interface {
	Interfaces() ([]*wifi.Interface, error)
	BSS(ifi *wifi.Interface) (*wifi.BSS, error)
	StationInfo(ifi *wifi.Interface) ([]*wifi.StationInfo, error)
	Close() error
}

// NL80211 reads station and hotspot state through the nl80211 generic netlink family
type NL80211 struct {
	iface string
	dial  func() (wifiClient, error)
}

// NewNL80211 creates an nl80211 source. An empty iface selects the first
// interface of the requested type.
func NewNL80211(iface string) *NL80211 {
	return &NL80211{
		iface: iface,
		dial: func() (wifiClient, error) {
			c, err := wifi.New()
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// Available reports whether the nl80211 family answers
func (n *NL80211) Available() bool {
	c, err := n.dial()
	if err != nil {
		return false
	}
	defer c.Close()
	_, err = c.Interfaces()
	return err == nil
}

// Station reports the associated BSS and link quality of the station interface
func (n *NL80211) Station(ctx context.Context) (*domain.StationInfo, error) {
	c, err := n.dial()
	if err != nil {
		return nil, fmt.Errorf("nl80211: %w", err)
	}
	defer c.Close()

	ifi, err := n.find(c, wifi.InterfaceTypeStation)
	if err != nil {
		return nil, err
	}

	info := &domain.StationInfo{
		Interface:  ifi.Name,
		MACAddress: ifi.HardwareAddr.String(),
		Frequency:  ifi.Frequency,
	}

	bss, err := c.BSS(ifi)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return info, nil
	case err != nil:
		return nil, fmt.Errorf("nl80211 bss of %s: %w", ifi.Name, err)
	}

	info.Connected = bss.Status == wifi.BSSStatusAssociated
	info.SSID = bss.SSID
	info.BSSID = bss.BSSID.String()
	info.Frequency = bss.Frequency
	// Hidden networks beacon an empty SSID
	info.HiddenSSID = info.Connected && bss.SSID == ""

	stations, err := c.StationInfo(ifi)
	if err == nil && len(stations) > 0 {
		info.RSSI = stations[0].Signal
		info.LinkSpeed = stations[0].TransmitBitrate / 1_000_000
	}

	return info, nil
}

// ProbeAP reports enabled when any interface runs in AP mode, disabled otherwise
func (n *NL80211) ProbeAP(ctx context.Context) inspect.ProbeResult {
	c, err := n.dial()
	if err != nil {
		return inspect.ProbeResult{Code: domain.APCodeFailed, Err: fmt.Errorf("nl80211: %w", err)}
	}
	defer c.Close()

	ifaces, err := c.Interfaces()
	if err != nil {
		return inspect.ProbeResult{Code: domain.APCodeFailed, Err: fmt.Errorf("nl80211 interfaces: %w", err)}
	}
	for _, ifi := range ifaces {
		if ifi.Type == wifi.InterfaceTypeAP {
			return inspect.ProbeResult{Code: domain.APCodeEnabled}
		}
	}
	return inspect.ProbeResult{Code: domain.APCodeDisabled}
}

// IsStation reports whether nl80211 lists name as a station interface.
// Interfaces nl80211 does not know, or an unreachable nl80211, count as
// stations so that non-nl80211 drivers are still followed.
func (n *NL80211) IsStation(name string) bool {
	c, err := n.dial()
	if err != nil {
		return true
	}
	defer c.Close()

	ifaces, err := c.Interfaces()
	if err != nil {
		return true
	}
	for _, ifi := range ifaces {
		if ifi.Name == name {
			return ifi.Type == wifi.InterfaceTypeStation
		}
	}
	return true
}

func (n *NL80211) find(c wifiClient, want wifi.InterfaceType) (*wifi.Interface, error) {
	ifaces, err := c.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("nl80211 interfaces: %w", err)
	}
	for _, ifi := range ifaces {
		// P2P device entries have no netdev name
		if ifi.Name == "" {
			continue
		}
		if n.iface != "" {
			if ifi.Name == n.iface {
				return ifi, nil
			}
			continue
		}
		if ifi.Type == want {
			return ifi, nil
		}
	}
	if n.iface != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoWirelessInterface, n.iface)
	}
	return nil, ErrNoWirelessInterface
}
