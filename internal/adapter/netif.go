package adapter

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"wifiutils/internal/core/inspect"
)

// virtualPrefixes name software interfaces created by container and VM tooling
var virtualPrefixes = []string{"veth", "docker", "br-", "virbr", "cni", "flannel", "tun", "tap", "vnet"}

// NetInterfaces enumerates interfaces through the net package and sysfs
type NetInterfaces struct {
	sysfs string
}

// NewNetInterfaces creates an interface source reading /sys/class/net
func NewNetInterfaces() *NetInterfaces {
	return &NetInterfaces{sysfs: "/sys/class/net"}
}

// Interfaces implements inspect.InterfaceSource
func (n *NetInterfaces) Interfaces(ctx context.Context) ([]inspect.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	out := make([]inspect.Interface, 0, len(ifaces))
	for _, ifi := range ifaces {
		addrs, err := ifi.Addrs()
		if err != nil {
			return nil, fmt.Errorf("addresses of %s: %w", ifi.Name, err)
		}
		out = append(out, n.convert(ifi, addrs))
	}
	return out, nil
}

func (n *NetInterfaces) convert(ifi net.Interface, addrs []net.Addr) inspect.Interface {
	it := inspect.Interface{
		Name:         ifi.Name,
		DisplayName:  ifi.Name,
		Index:        ifi.Index,
		HardwareAddr: ifi.HardwareAddr.String(),
		Up:           ifi.Flags&net.FlagUp != 0,
		Multicast:    ifi.Flags&net.FlagMulticast != 0,
		Loopback:     ifi.Flags&net.FlagLoopback != 0,
		PointToPoint: ifi.Flags&net.FlagPointToPoint != 0,
		Virtual:      n.isVirtual(ifi.Name),
	}

	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		prefix, _ := ipnet.Mask.Size()
		addr := inspect.InterfaceAddress{IP: ipnet.IP, PrefixLen: prefix}
		if ip4 := ipnet.IP.To4(); ip4 != nil && ifi.Flags&net.FlagBroadcast != 0 {
			addr.Broadcast = broadcastOf(ip4, prefix)
		}
		it.Addrs = append(it.Addrs, addr)
	}
	return it
}

// isVirtual reports interfaces with a virtual name and no backing device
func (n *NetInterfaces) isVirtual(name string) bool {
	if !hasVirtualName(name) {
		return false
	}
	_, err := os.Stat(filepath.Join(n.sysfs, name, "device"))
	return err != nil
}

// IsWireless reports whether sysfs exposes wireless extensions for the interface
func (n *NetInterfaces) IsWireless(name string) bool {
	if _, err := os.Stat(filepath.Join(n.sysfs, name, "wireless")); err == nil {
		return true
	}
	_, err := os.Stat(filepath.Join(n.sysfs, name, "phy80211"))
	return err == nil
}

func hasVirtualName(name string) bool {
	for _, p := range virtualPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func broadcastOf(ip4 net.IP, prefix int) net.IP {
	mask, err := inspect.SubnetMask(prefix)
	if err != nil {
		return nil
	}
	b, err := inspect.Broadcast(ip4, mask)
	if err != nil {
		return nil
	}
	return b
}
