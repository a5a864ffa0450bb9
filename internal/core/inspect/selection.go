package inspect

import (
	"net"
	"strings"
)

// Interface is a platform network interface as seen by the inspector
type Interface struct {
	Name         string
	DisplayName  string
	Index        int
	HardwareAddr string
	Up           bool
	Multicast    bool
	Loopback     bool
	Virtual      bool
	PointToPoint bool
	Addrs        []InterfaceAddress
}

// InterfaceAddress is one address bound to an interface
type InterfaceAddress struct {
	IP        net.IP
	PrefixLen int
	// Broadcast is nil when the platform does not supply one
	Broadcast net.IP
}

// Label returns the display name, falling back to the interface name
func (i Interface) Label() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Name
}

// IsCandidate reports whether the interface may be selected as active:
// up, multicast capable, addressed, and not loopback, virtual or point-to-point.
func (i Interface) IsCandidate() bool {
	return i.Up &&
		i.Multicast &&
		len(i.Addrs) > 0 &&
		!i.Loopback &&
		!i.Virtual &&
		!i.PointToPoint
}

// looksWireless matches names of station or access point interfaces
func looksWireless(name string) bool {
	return strings.Contains(name, "wlan") || strings.Contains(name, "ap")
}

// SelectActive picks the active interface among the candidates.
//
// The first candidate is taken, then every later candidate replaces the
// current selection as long as the current selection's name contains neither
// "wlan" nor "ap". Among non-wireless names the last candidate therefore wins.
func SelectActive(ifaces []Interface) (Interface, bool) {
	var active *Interface
	for i := range ifaces {
		if !ifaces[i].IsCandidate() {
			continue
		}
		if active == nil || !looksWireless(active.Name) {
			active = &ifaces[i]
		}
	}
	if active == nil {
		return Interface{}, false
	}
	return *active, true
}
