package inspect

import (
	"context"
	"errors"
	"net"
	"reflect"
	"testing"
	"time"

	"wifiutils/internal/domain"
	"wifiutils/internal/service"
)

type fakeInterfaces struct {
	ifaces []Interface
	err    error
}

func (f *fakeInterfaces) Interfaces(ctx context.Context) ([]Interface, error) {
	return f.ifaces, f.err
}

type fakeStation struct {
	info *domain.StationInfo
	err  error
}

func (f *fakeStation) Station(ctx context.Context) (*domain.StationInfo, error) {
	return f.info, f.err
}

type fixedState string

func (s fixedState) CurrentState() string { return string(s) }

func apCode(code int) APProbe {
	return APProbeFunc(func(ctx context.Context) ProbeResult {
		return ProbeResult{Code: code}
	})
}

func wlan0() Interface {
	return Interface{
		Name:      "wlan0",
		Up:        true,
		Multicast: true,
		Addrs: []InterfaceAddress{
			{IP: net.ParseIP("192.168.1.42"), PrefixLen: 24, Broadcast: net.ParseIP("192.168.1.255")},
			{IP: net.ParseIP("fe80::1c2b:3aff:fe4d:5e6f"), PrefixLen: 64},
			{IP: net.ParseIP("127.0.0.1"), PrefixLen: 8},
			{IP: net.ParseIP("::1"), PrefixLen: 128},
		},
	}
}

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestInspector(ifaces []Interface, opts ...Option) *Inspector {
	base := []Option{WithClock(func() time.Time { return fixedTime })}
	return New(&fakeInterfaces{ifaces: ifaces}, append(base, opts...)...)
}

func TestInspectFullReport(t *testing.T) {
	station := &fakeStation{info: &domain.StationInfo{
		Interface:       "wlan0",
		Connected:       true,
		SupplicantState: "COMPLETED",
		SSID:            "homenet",
		BSSID:           "aa:bb:cc:dd:ee:ff",
		MACAddress:      "11:22:33:44:55:66",
		RSSI:            -52,
		LinkSpeed:       866,
	}}

	insp := newTestInspector([]Interface{wlan0()},
		WithStationSource(station),
		WithAPProbe(apCode(domain.APCodeDisabled)),
		WithHostname("kitchen-pi"),
	)
	insp.SetStateReporter(fixedState("CONNECTED"))

	report, err := insp.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}

	want := &domain.AdapterReport{
		Connected:       true,
		APEnabled:       false,
		WifiConnected:   true,
		WifiState:       "CONNECTED",
		APState:         "WIFI_AP_STATE_DISABLED",
		SupplicantState: "COMPLETED",
		SSID:            "homenet",
		BSSID:           "aa:bb:cc:dd:ee:ff",
		MACAddress:      "11:22:33:44:55:66",
		Hostname:        "kitchen-pi",
		RSSI:            -52,
		LinkSpeed:       866,
		ActiveAdapter:   "wlan0",
		Addresses: []domain.AddressInfo{
			{
				AddressType:      domain.AddressTypeIPv4,
				IPAddress:        "192.168.1.42",
				SubnetMask:       "255.255.255.0",
				NetworkID:        "192.168.1.0",
				BroadcastAddress: "192.168.1.255",
			},
			{
				AddressType: domain.AddressTypeIPv6,
				IPAddress:   "fe80::1c2b:3aff:fe4d:5e6f",
			},
		},
		InspectedAt: fixedTime,
	}

	if !reflect.DeepEqual(report, want) {
		t.Errorf("Inspect() =\n%+v\nwant\n%+v", report, want)
	}
}

func TestInspectWifiStateBeforeAnyTransition(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Inspector)
	}{
		{"no state reporter", func(*Inspector) {}},
		{"fresh notifier", func(i *Inspector) { i.SetStateReporter(service.NewNotifier(i, nil)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insp := newTestInspector([]Interface{wlan0()}, WithAPProbe(apCode(domain.APCodeDisabled)))
			tt.setup(insp)

			report, err := insp.Inspect(context.Background())
			if err != nil {
				t.Fatalf("Inspect() error: %v", err)
			}
			if report.WifiState != "UNKNOWN" {
				t.Errorf("WifiState = %q, want UNKNOWN", report.WifiState)
			}
		})
	}
}

func TestInspectHotspotEnabled(t *testing.T) {
	insp := newTestInspector(nil, WithAPProbe(apCode(domain.APCodeEnabled)))

	report, err := insp.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if !report.APEnabled || !report.Connected {
		t.Errorf("expected apEnabled and connected, got %+v", report)
	}
	if report.WifiConnected {
		t.Error("expected wifiConnected false without station")
	}
}

func TestInspectLegacyAPCodes(t *testing.T) {
	insp := newTestInspector(nil, WithAPProbe(apCode(3)))

	report, _ := insp.Inspect(context.Background())
	if report.APEnabled {
		t.Error("code 3 must not classify as enabled without correction")
	}
	if report.APState != "WIFI_AP_STATE_UNKNOWN" {
		t.Errorf("APState = %s, want WIFI_AP_STATE_UNKNOWN", report.APState)
	}

	insp.SetLegacyAPCodes(true)
	report, _ = insp.Inspect(context.Background())
	if !report.APEnabled {
		t.Error("code 3 should classify as enabled with correction")
	}
}

func TestInspectFailingAPProbe(t *testing.T) {
	tests := []struct {
		name  string
		probe APProbe
	}{
		{"no probe", nil},
		{"error", APProbeFunc(func(ctx context.Context) ProbeResult {
			return ProbeResult{Err: errors.New("method not found")}
		})},
		{"panic", APProbeFunc(func(ctx context.Context) ProbeResult {
			panic("security restriction")
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insp := newTestInspector([]Interface{wlan0()}, WithAPProbe(tt.probe))

			report, err := insp.Inspect(context.Background())
			if err != nil {
				t.Fatalf("Inspect() error: %v", err)
			}
			if report.APEnabled {
				t.Error("expected apEnabled false")
			}
			if report.APState != domain.APStateFailed.Label() {
				t.Errorf("APState = %s, want %s", report.APState, domain.APStateFailed.Label())
			}

			state, _ := insp.ClassifyAP(context.Background())
			if state != domain.APStateFailed {
				t.Errorf("ClassifyAP() = %s, want failed", state)
			}
		})
	}
}

func TestInspectNoCandidates(t *testing.T) {
	lo := wlan0()
	lo.Name = "lo"
	lo.Loopback = true
	down := wlan0()
	down.Up = false

	for _, ifaces := range [][]Interface{nil, {lo}, {lo, down}} {
		insp := newTestInspector(ifaces)
		report, err := insp.Inspect(context.Background())
		if err != nil {
			t.Fatalf("Inspect() error: %v", err)
		}
		if report.ActiveAdapter != "" {
			t.Errorf("ActiveAdapter = %q, want empty", report.ActiveAdapter)
		}
		if report.Addresses != nil {
			t.Errorf("Addresses = %v, want nil", report.Addresses)
		}
	}
}

func TestInspectNeverReportsLoopback(t *testing.T) {
	iface := wlan0()
	iface.Addrs = append(iface.Addrs,
		InterfaceAddress{IP: net.ParseIP("127.0.1.1"), PrefixLen: 8},
		InterfaceAddress{IP: net.ParseIP("::ffff:127.0.0.1"), PrefixLen: 104},
	)
	insp := newTestInspector([]Interface{iface})

	report, err := insp.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	for _, a := range report.Addresses {
		if net.ParseIP(a.IPAddress).IsLoopback() {
			t.Errorf("loopback address reported: %s", a.IPAddress)
		}
		if !a.IsIPv4() && (a.SubnetMask != "" || a.NetworkID != "" || a.BroadcastAddress != "") {
			t.Errorf("ipv6 address carries ipv4 fields: %+v", a)
		}
	}
	if len(report.Addresses) != 2 {
		t.Errorf("len(Addresses) = %d, want 2", len(report.Addresses))
	}
}

func TestInspectEnumerationError(t *testing.T) {
	insp := New(&fakeInterfaces{err: errors.New("socket: permission denied")})

	report, err := insp.Inspect(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if report != nil {
		t.Errorf("expected nil report, got %+v", report)
	}
}

func TestInspectInvalidPrefix(t *testing.T) {
	iface := wlan0()
	iface.Addrs = []InterfaceAddress{{IP: net.ParseIP("10.0.0.5"), PrefixLen: 40}}
	insp := newTestInspector([]Interface{iface})

	if _, err := insp.Inspect(context.Background()); !errors.Is(err, ErrPrefixLength) {
		t.Errorf("Inspect() error = %v, want ErrPrefixLength", err)
	}
}

func TestInspectStationFailureIsAbsorbed(t *testing.T) {
	insp := newTestInspector([]Interface{wlan0()},
		WithStationSource(&fakeStation{err: errors.New("nl80211 not available")}),
	)

	report, err := insp.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if report.WifiConnected || report.SSID != "" {
		t.Errorf("expected empty station fields, got %+v", report)
	}
	if report.SupplicantState != domain.SupplicantUninitialized {
		t.Errorf("SupplicantState = %s, want %s", report.SupplicantState, domain.SupplicantUninitialized)
	}
}

func TestInspectIsIdempotent(t *testing.T) {
	station := &fakeStation{info: &domain.StationInfo{Connected: true, SSID: "homenet", RSSI: -60}}
	insp := newTestInspector([]Interface{wlan0(), candidate("eth0")},
		WithStationSource(station),
		WithAPProbe(apCode(domain.APCodeDisabled)),
	)

	first, err := insp.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	for i := 0; i < 3; i++ {
		next, err := insp.Inspect(context.Background())
		if err != nil {
			t.Fatalf("Inspect() error: %v", err)
		}
		if !reflect.DeepEqual(first, next) {
			t.Errorf("run %d differs:\n%+v\n%+v", i, first, next)
		}
		if first == next {
			t.Error("expected a fresh report per inspection")
		}
	}
}
