package adapter

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mdlayher/wifi"

	"wifiutils/internal/core/inspect"
	"wifiutils/internal/domain"
)

type fakeWifi struct {
	ifaces   []*wifi.Interface
	bss      *wifi.BSS
	bssErr   error
	stations []*wifi.StationInfo
	err      error
	closed   bool
}

func (f *fakeWifi) Interfaces() ([]*wifi.Interface, error) { return f.ifaces, f.err }
func (f *fakeWifi) BSS(ifi *wifi.Interface) (*wifi.BSS, error) {
	return f.bss, f.bssErr
}
func (f *fakeWifi) StationInfo(ifi *wifi.Interface) ([]*wifi.StationInfo, error) {
	return f.stations, nil
}
func (f *fakeWifi) Close() error {
	f.closed = true
	return nil
}

func nl80211With(f *fakeWifi, iface string) *NL80211 {
	n := NewNL80211(iface)
	n.dial = func() (wifiClient, error) { return f, nil }
	return n
}

var (
	stationMAC = net.HardwareAddr{0x02, 0, 0, 0, 0, 0}
	apBSSID    = net.HardwareAddr{0x02, 0, 0, 0, 0x01, 0}
)

func TestNL80211Station(t *testing.T) {
	f := &fakeWifi{
		ifaces: []*wifi.Interface{
			{Name: "", Type: wifi.InterfaceTypeP2PDevice},
			{Name: "wlan0", Type: wifi.InterfaceTypeStation, HardwareAddr: stationMAC, Frequency: 2412},
		},
		bss: &wifi.BSS{
			SSID:      "homenet",
			BSSID:     apBSSID,
			Frequency: 2437,
			Status:    wifi.BSSStatusAssociated,
		},
		stations: []*wifi.StationInfo{{Signal: -48, TransmitBitrate: 144_400_000}},
	}

	got, err := nl80211With(f, "").Station(context.Background())
	if err != nil {
		t.Fatalf("Station() error: %v", err)
	}
	want := domain.StationInfo{
		Interface:  "wlan0",
		Connected:  true,
		SSID:       "homenet",
		BSSID:      "02:00:00:00:01:00",
		MACAddress: "02:00:00:00:00:00",
		RSSI:       -48,
		LinkSpeed:  144,
		Frequency:  2437,
	}
	if *got != want {
		t.Errorf("Station() = %+v, want %+v", *got, want)
	}
	if !f.closed {
		t.Error("client should be closed after use")
	}
}

func TestNL80211StationNotAssociated(t *testing.T) {
	f := &fakeWifi{
		ifaces: []*wifi.Interface{{Name: "wlan0", Type: wifi.InterfaceTypeStation, HardwareAddr: stationMAC}},
		bssErr: os.ErrNotExist,
	}

	got, err := nl80211With(f, "wlan0").Station(context.Background())
	if err != nil {
		t.Fatalf("Station() error: %v", err)
	}
	if got.Connected || got.SSID != "" || got.MACAddress != "02:00:00:00:00:00" {
		t.Errorf("Station() = %+v", got)
	}
}

func TestNL80211StationNoInterface(t *testing.T) {
	f := &fakeWifi{ifaces: []*wifi.Interface{{Name: "wlan0", Type: wifi.InterfaceTypeStation}}}

	_, err := nl80211With(f, "wlan9").Station(context.Background())
	if !errors.Is(err, ErrNoWirelessInterface) {
		t.Errorf("Station() error = %v, want ErrNoWirelessInterface", err)
	}
}

func TestNL80211ProbeAP(t *testing.T) {
	tests := []struct {
		name    string
		f       *fakeWifi
		want    int
		wantErr bool
	}{
		{
			name: "ap interface present",
			f: &fakeWifi{ifaces: []*wifi.Interface{
				{Name: "wlan0", Type: wifi.InterfaceTypeStation},
				{Name: "ap0", Type: wifi.InterfaceTypeAP},
			}},
			want: domain.APCodeEnabled,
		},
		{
			name: "station only",
			f:    &fakeWifi{ifaces: []*wifi.Interface{{Name: "wlan0", Type: wifi.InterfaceTypeStation}}},
			want: domain.APCodeDisabled,
		},
		{
			name:    "netlink failure",
			f:       &fakeWifi{err: errors.New("operation not permitted")},
			want:    domain.APCodeFailed,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := nl80211With(tt.f, "").ProbeAP(context.Background())
			if res.Code != tt.want {
				t.Errorf("code = %d, want %d", res.Code, tt.want)
			}
			if (res.Err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", res.Err, tt.wantErr)
			}
		})
	}

	n := NewNL80211("")
	n.dial = func() (wifiClient, error) { return nil, errors.New("nl80211 not found") }
	if res := n.ProbeAP(context.Background()); res.Err == nil || res.Classify(false) != domain.APStateFailed {
		t.Errorf("dial failure: %+v", res)
	}
	if n.Available() {
		t.Error("Available() should be false when dial fails")
	}
}

func TestNL80211IsStation(t *testing.T) {
	f := &fakeWifi{ifaces: []*wifi.Interface{
		{Name: "wlan0", Type: wifi.InterfaceTypeStation},
		{Name: "ap0", Type: wifi.InterfaceTypeAP},
	}}
	n := nl80211With(f, "")

	tests := []struct {
		name string
		want bool
	}{
		{"wlan0", true},
		{"ap0", false},
		{"wlx00c0ca", true}, // unknown to nl80211
	}
	for _, tt := range tests {
		if got := n.IsStation(tt.name); got != tt.want {
			t.Errorf("IsStation(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	broken := NewNL80211("")
	broken.dial = func() (wifiClient, error) { return nil, errors.New("nl80211 not found") }
	if !broken.IsStation("ap0") {
		t.Error("IsStation should not filter when nl80211 is unreachable")
	}

	// the link monitor drops ap0 once wired to nl80211
	a := NewLinkAdapter("", func(name string) bool { return name == "wlan0" || name == "ap0" })
	a.SetStationFilter(n.IsStation)
	if !a.follows("wlan0") || a.follows("ap0") {
		t.Error("link monitor should follow wlan0 and skip ap0")
	}
}

type stubStation struct {
	info *domain.StationInfo
	err  error
}

func (s stubStation) Station(ctx context.Context) (*domain.StationInfo, error) {
	return s.info, s.err
}

func TestMergedStation(t *testing.T) {
	nl := stubStation{info: &domain.StationInfo{
		Interface: "wlan0", Connected: true, SSID: "homenet", BSSID: "02:00:00:00:01:00",
		MACAddress: "02:00:00:00:00:00", RSSI: -48, LinkSpeed: 144, Frequency: 2437,
	}}
	wpa := stubStation{info: &domain.StationInfo{
		Interface: "wlan0", Connected: true, SupplicantState: "COMPLETED", SSID: "homenet",
		HiddenSSID: true, RSSI: -50, LinkSpeed: 130,
	}}
	broken := stubStation{err: errors.New("socket closed")}

	t.Run("both", func(t *testing.T) {
		got, err := NewMergedStation(nl, wpa).Station(context.Background())
		if err != nil {
			t.Fatalf("Station() error: %v", err)
		}
		if got.SupplicantState != "COMPLETED" || !got.HiddenSSID {
			t.Errorf("secondary fields not merged: %+v", got)
		}
		if got.RSSI != -48 || got.LinkSpeed != 144 {
			t.Errorf("primary fields overwritten: %+v", got)
		}
	})

	t.Run("primary fails", func(t *testing.T) {
		got, err := NewMergedStation(broken, wpa).Station(context.Background())
		if err != nil || got.RSSI != -50 {
			t.Errorf("Station() = %+v, %v", got, err)
		}
	})

	t.Run("secondary missing", func(t *testing.T) {
		got, err := NewMergedStation(nl, nil).Station(context.Background())
		if err != nil || got.SSID != "homenet" || got.SupplicantState != "" {
			t.Errorf("Station() = %+v, %v", got, err)
		}
	})

	t.Run("both fail", func(t *testing.T) {
		_, err := NewMergedStation(broken, broken).Station(context.Background())
		if err == nil || !strings.Contains(err.Error(), "socket closed") {
			t.Errorf("Station() error = %v", err)
		}
	})
}

func TestHostnameProbe(t *testing.T) {
	dir := t.TempDir()
	idPath := filepath.Join(dir, "machine-id")
	if err := os.WriteFile(idPath, []byte("4f1c2a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		hostname func() (string, error)
		idPath   string
		want     string
	}{
		{"hostname", func() (string, error) { return "pi-kitchen", nil }, idPath, "pi-kitchen"},
		{"machine id fallback", func() (string, error) { return "", errors.New("uname failed") }, idPath, "host-4f1c2a"},
		{"empty hostname", func() (string, error) { return "", nil }, idPath, "host-4f1c2a"},
		{"nothing available", func() (string, error) { return "", errors.New("uname failed") }, filepath.Join(dir, "missing"), "host-unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &HostnameProbe{hostname: tt.hostname, machineIDPath: tt.idPath}
			if got := h.Hostname(); got != tt.want {
				t.Errorf("Hostname() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPowerSaveLock(t *testing.T) {
	var calls []string
	l := NewPowerSaveLock("wlan0")
	l.run = func(ctx context.Context, name string, args ...string) error {
		calls = append(calls, name+" "+strings.Join(args, " "))
		return nil
	}

	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}

	want := []string{"iw dev wlan0 set power_save off", "iw dev wlan0 set power_save on"}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("commands = %q, want %q", calls, want)
	}

	failing := NewPowerSaveLock("wlan0")
	failing.run = func(ctx context.Context, name string, args ...string) error {
		return errors.New("exit status 161")
	}
	if err := failing.Acquire(); err == nil || !strings.Contains(err.Error(), "wlan0") {
		t.Errorf("Acquire() error = %v", err)
	}

	if err := NewPowerSaveLock("").Acquire(); err == nil {
		t.Error("expected error without an interface")
	}
}

func TestFirstProbe(t *testing.T) {
	failed := inspect.APProbeFunc(func(ctx context.Context) inspect.ProbeResult {
		return inspect.ProbeResult{Code: domain.APCodeFailed, Err: errors.New("hostapd gone")}
	})
	enabled := inspect.APProbeFunc(func(ctx context.Context) inspect.ProbeResult {
		return inspect.ProbeResult{Code: domain.APCodeEnabled}
	})
	panicking := inspect.APProbeFunc(func(ctx context.Context) inspect.ProbeResult {
		panic("boom")
	})

	ctx := context.Background()
	if res := FirstProbe(failed, nil, enabled).ProbeAP(ctx); res.Err != nil || res.Code != domain.APCodeEnabled {
		t.Errorf("fallback = %+v", res)
	}
	if res := FirstProbe(panicking, failed).ProbeAP(ctx); res.Err == nil {
		t.Error("all failing probes should report an error")
	}
	if res := FirstProbe().ProbeAP(ctx); !errors.Is(res.Err, inspect.ErrNoProbe) {
		t.Errorf("no probes = %+v", res)
	}
}

func TestHotspotAdapterSync(t *testing.T) {
	codes := []inspect.ProbeResult{
		{Code: domain.APCodeDisabled},
		{Code: domain.APCodeDisabled},
		{Code: domain.APCodeEnabling},
		{Code: domain.APCodeEnabled},
		{Err: errors.New("nl80211 gone")},
		{Err: errors.New("nl80211 gone")},
	}
	i := 0
	probe := inspect.APProbeFunc(func(ctx context.Context) inspect.ProbeResult {
		res := codes[i]
		i++
		return res
	})

	h := NewHotspotAdapter(probe, "ap0")
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	var got []int
	for range codes {
		obs, err := h.Sync(context.Background())
		if err != nil {
			t.Fatalf("Sync() error: %v", err)
		}
		for _, tr := range obs.Transitions {
			if tr.Kind != domain.TransitionAP || tr.Source != "hotspot" || tr.Interface != "ap0" {
				t.Errorf("transition = %+v", tr)
			}
			got = append(got, tr.Code)
		}
	}

	want := []int{domain.APCodeDisabled, domain.APCodeEnabling, domain.APCodeEnabled, domain.APCodeFailed}
	if len(got) != len(want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}
	for k := range want {
		if got[k] != want[k] {
			t.Errorf("codes[%d] = %d, want %d", k, got[k], want[k])
		}
	}

	if err := NewHotspotAdapter(nil, "").Start(context.Background()); err == nil {
		t.Error("Start() without probe should fail")
	}
}

func TestNetInterfacesConvert(t *testing.T) {
	sysfs := t.TempDir()
	// docker0 has no backing device, the usb ethernet adapter veth-named by udev does
	if err := os.MkdirAll(filepath.Join(sysfs, "vethusb", "device"), 0o755); err != nil {
		t.Fatal(err)
	}
	n := &NetInterfaces{sysfs: sysfs}

	ifi := net.Interface{
		Index:        3,
		Name:         "wlan0",
		HardwareAddr: stationMAC,
		Flags:        net.FlagUp | net.FlagBroadcast | net.FlagMulticast,
	}
	addrs := []net.Addr{
		&net.IPNet{IP: net.IPv4(192, 168, 1, 10), Mask: net.CIDRMask(24, 32)},
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
		&net.IPAddr{IP: net.IPv4(10, 0, 0, 1)},
	}

	got := n.convert(ifi, addrs)
	if !got.Up || !got.Multicast || got.Loopback || got.PointToPoint || got.Virtual {
		t.Errorf("flags = %+v", got)
	}
	if got.HardwareAddr != "02:00:00:00:00:00" || got.Label() != "wlan0" {
		t.Errorf("identity = %s %s", got.HardwareAddr, got.Label())
	}
	if len(got.Addrs) != 2 {
		t.Fatalf("addrs = %+v", got.Addrs)
	}
	if got.Addrs[0].PrefixLen != 24 || got.Addrs[0].Broadcast.String() != "192.168.1.255" {
		t.Errorf("ipv4 = %+v", got.Addrs[0])
	}
	if got.Addrs[1].PrefixLen != 64 || got.Addrs[1].Broadcast != nil {
		t.Errorf("ipv6 = %+v", got.Addrs[1])
	}

	tests := map[string]bool{
		"docker0":  true,
		"veth1a2b": true,
		"br-1f2e":  true,
		"vethusb":  false,
		"wlan0":    false,
		"eth0":     false,
	}
	for name, want := range tests {
		if got := n.isVirtual(name); got != want {
			t.Errorf("isVirtual(%s) = %v, want %v", name, got, want)
		}
	}
}

func TestNetInterfacesIsWireless(t *testing.T) {
	sysfs := t.TempDir()
	if err := os.MkdirAll(filepath.Join(sysfs, "wlp2s0", "phy80211"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(sysfs, "eth0"), 0o755); err != nil {
		t.Fatal(err)
	}
	n := &NetInterfaces{sysfs: sysfs}

	if !n.IsWireless("wlp2s0") {
		t.Error("wlp2s0 should be wireless")
	}
	if n.IsWireless("eth0") {
		t.Error("eth0 should not be wireless")
	}
}
