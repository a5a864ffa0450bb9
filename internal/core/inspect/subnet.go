package inspect

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrPrefixLength is returned for IPv4 prefix lengths outside 0..32
	ErrPrefixLength = errors.New("invalid ipv4 prefix length")
	// ErrAddressLength is returned when an address and its mask differ in length
	ErrAddressLength = errors.New("address and mask length differ")
)

// SubnetMask derives the dotted-quad IPv4 mask for a prefix length.
// The mask is 0xffffffff shifted left by (32 - prefix), rendered big-endian.
func SubnetMask(prefix int) (net.IP, error) {
	if prefix < 0 || prefix > 32 {
		return nil, fmt.Errorf("%w: %d", ErrPrefixLength, prefix)
	}
	// Shifting a uint32 by 32 yields 0, so /0 maps to 0.0.0.0
	mask := uint32(0xffffffff) << uint(32-prefix)
	return net.IPv4(byte(mask>>24), byte(mask>>16), byte(mask>>8), byte(mask)).To4(), nil
}

// NetworkID is the byte-wise AND of an address and its mask.
// Both slices must have the same length.
func NetworkID(ip, mask []byte) (net.IP, error) {
	if len(ip) != len(mask) {
		return nil, fmt.Errorf("%w: %d != %d", ErrAddressLength, len(ip), len(mask))
	}
	out := make(net.IP, len(ip))
	for i := range ip {
		out[i] = ip[i] & mask[i]
	}
	return out, nil
}

// Broadcast is the address with every host bit set: ip | ^mask.
func Broadcast(ip, mask []byte) (net.IP, error) {
	if len(ip) != len(mask) {
		return nil, fmt.Errorf("%w: %d != %d", ErrAddressLength, len(ip), len(mask))
	}
	out := make(net.IP, len(ip))
	for i := range ip {
		out[i] = ip[i] | ^mask[i]
	}
	return out, nil
}

// CIDR returns the network of an IPv4 address in a.b.c.d/n notation
func CIDR(ip net.IP, prefix int) (string, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return "", fmt.Errorf("%w: %s is not ipv4", ErrAddressLength, ip)
	}
	mask, err := SubnetMask(prefix)
	if err != nil {
		return "", err
	}
	netID, err := NetworkID(ip4, mask)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%d", netID, prefix), nil
}
