package inspect

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"
)

func TestSubnetMask(t *testing.T) {
	tests := []struct {
		prefix int
		want   string
	}{
		// /0 is the all-zero mask. A 32-bit int shift that masks its count
		// to five bits would leave 0xffffffff unshifted and give
		// 255.255.255.255; the full-width shift here is deliberate.
		{0, "0.0.0.0"},
		{1, "128.0.0.0"},
		{8, "255.0.0.0"},
		{16, "255.255.0.0"},
		{20, "255.255.240.0"},
		{24, "255.255.255.0"},
		{30, "255.255.255.252"},
		{31, "255.255.255.254"},
		{32, "255.255.255.255"},
	}

	for _, tt := range tests {
		mask, err := SubnetMask(tt.prefix)
		if err != nil {
			t.Fatalf("SubnetMask(%d) error: %v", tt.prefix, err)
		}
		if mask.String() != tt.want {
			t.Errorf("SubnetMask(%d) = %s, want %s", tt.prefix, mask, tt.want)
		}
		if len(mask) != 4 {
			t.Errorf("SubnetMask(%d) length = %d, want 4", tt.prefix, len(mask))
		}
	}
}

func TestSubnetMaskInvalid(t *testing.T) {
	for _, prefix := range []int{-1, 33, 128} {
		if _, err := SubnetMask(prefix); !errors.Is(err, ErrPrefixLength) {
			t.Errorf("SubnetMask(%d) error = %v, want ErrPrefixLength", prefix, err)
		}
	}
}

func TestSubnetExamples(t *testing.T) {
	tests := []struct {
		ip        string
		prefix    int
		mask      string
		network   string
		broadcast string
	}{
		{"192.168.1.42", 24, "255.255.255.0", "192.168.1.0", "192.168.1.255"},
		{"10.0.0.5", 30, "255.255.255.252", "10.0.0.4", "10.0.0.7"},
		{"172.16.5.9", 16, "255.255.0.0", "172.16.0.0", "172.16.255.255"},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip).To4()
			mask, err := SubnetMask(tt.prefix)
			if err != nil {
				t.Fatalf("SubnetMask error: %v", err)
			}
			if mask.String() != tt.mask {
				t.Errorf("mask = %s, want %s", mask, tt.mask)
			}

			netID, err := NetworkID(ip, mask)
			if err != nil {
				t.Fatalf("NetworkID error: %v", err)
			}
			if netID.String() != tt.network {
				t.Errorf("network = %s, want %s", netID, tt.network)
			}

			bcast, err := Broadcast(ip, mask)
			if err != nil {
				t.Fatalf("Broadcast error: %v", err)
			}
			if bcast.String() != tt.broadcast {
				t.Errorf("broadcast = %s, want %s", bcast, tt.broadcast)
			}
		})
	}
}

// Masking through the dotted-quad mask must match an independent uint32 AND
// for every prefix length.
func TestNetworkIDMatchesUint32Mask(t *testing.T) {
	addrs := []string{"192.168.1.42", "10.0.0.5", "255.255.255.255", "0.0.0.0", "172.31.200.17"}

	for prefix := 0; prefix <= 32; prefix++ {
		mask, err := SubnetMask(prefix)
		if err != nil {
			t.Fatalf("SubnetMask(%d) error: %v", prefix, err)
		}

		var want uint32
		if prefix > 0 {
			want = ^uint32(0) << (32 - prefix)
		}
		if got := binary.BigEndian.Uint32(mask); got != want {
			t.Errorf("prefix %d: mask = %08x, want %08x", prefix, got, want)
		}

		stdMask := net.CIDRMask(prefix, 32)
		for _, s := range addrs {
			ip := net.ParseIP(s).To4()
			netID, err := NetworkID(ip, mask)
			if err != nil {
				t.Fatalf("NetworkID(%s/%d) error: %v", s, prefix, err)
			}

			direct := binary.BigEndian.Uint32(ip) & want
			if got := binary.BigEndian.Uint32(netID); got != direct {
				t.Errorf("%s/%d: network = %s, want %08x", s, prefix, netID, direct)
			}
			if !netID.Equal(ip.Mask(stdMask)) {
				t.Errorf("%s/%d: network = %s, net.IP.Mask = %s", s, prefix, netID, ip.Mask(stdMask))
			}
		}
	}
}

func TestNetworkIDLengthMismatch(t *testing.T) {
	ip := net.ParseIP("fe80::1")
	mask, _ := SubnetMask(24)

	if _, err := NetworkID(ip, mask); !errors.Is(err, ErrAddressLength) {
		t.Errorf("NetworkID error = %v, want ErrAddressLength", err)
	}
	if _, err := Broadcast(ip, mask); !errors.Is(err, ErrAddressLength) {
		t.Errorf("Broadcast error = %v, want ErrAddressLength", err)
	}
}

func TestCIDR(t *testing.T) {
	got, err := CIDR(net.ParseIP("192.168.1.42"), 24)
	if err != nil {
		t.Fatalf("CIDR error: %v", err)
	}
	if got != "192.168.1.0/24" {
		t.Errorf("CIDR = %s, want 192.168.1.0/24", got)
	}

	if _, err := CIDR(net.ParseIP("fe80::1"), 64); err == nil {
		t.Error("expected error for ipv6 address")
	}
}
