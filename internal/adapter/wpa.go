package adapter

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"wifiutils/internal/domain"
)

// WPASupplicant reads station state and scan results from wpa_supplicant
type WPASupplicant struct {
	ctrl *CtrlClient
}

// NewWPASupplicant creates a station source over the given control client
func NewWPASupplicant(ctrl *CtrlClient) *WPASupplicant {
	return &WPASupplicant{ctrl: ctrl}
}

// Station returns the supplicant's view of the station link
func (w *WPASupplicant) Station(ctx context.Context) (*domain.StationInfo, error) {
	reply, err := w.ctrl.Request(ctx, "STATUS")
	if err != nil {
		return nil, fmt.Errorf("wpa status: %w", err)
	}
	status := parseKeyValues(reply)

	info := &domain.StationInfo{
		Interface:       w.ctrl.Interface(),
		SupplicantState: status["wpa_state"],
		SSID:            status["ssid"],
		BSSID:           status["bssid"],
		MACAddress:      status["address"],
	}
	if info.SupplicantState == "" {
		info.SupplicantState = domain.SupplicantUninitialized
	}
	info.Connected = info.SupplicantState == "COMPLETED"
	info.Frequency, _ = strconv.Atoi(status["freq"])

	if id := status["id"]; id != "" {
		// Networks configured with scan_ssid=1 are probed for because they do not beacon
		if v, err := w.ctrl.Request(ctx, "GET_NETWORK "+id+" scan_ssid"); err == nil {
			info.HiddenSSID = strings.TrimSpace(v) == "1"
		}
	}

	if info.Connected {
		if reply, err := w.ctrl.Request(ctx, "SIGNAL_POLL"); err == nil {
			signal := parseKeyValues(reply)
			info.RSSI, _ = strconv.Atoi(signal["RSSI"])
			info.LinkSpeed, _ = strconv.Atoi(signal["LINKSPEED"])
		} else {
			log.Printf("wpa: signal poll failed: %v", err)
		}
	}

	return info, nil
}

// ScanResults returns the access points of the last scan
func (w *WPASupplicant) ScanResults(ctx context.Context) ([]domain.AccessPoint, error) {
	reply, err := w.ctrl.Request(ctx, "SCAN_RESULTS")
	if err != nil {
		return nil, fmt.Errorf("wpa scan results: %w", err)
	}
	return parseScanResults(reply), nil
}

// parseScanResults parses the tab separated SCAN_RESULTS table:
// bssid, frequency, signal level, flags, ssid
func parseScanResults(reply string) []domain.AccessPoint {
	aps := []domain.AccessPoint{}
	lines := strings.Split(reply, "\n")
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "bssid /") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 4 {
			continue
		}

		ap := domain.AccessPoint{
			BSSID:        parts[0],
			Capabilities: parts[3],
		}
		ap.Frequency, _ = strconv.Atoi(parts[1])
		ap.Level, _ = strconv.Atoi(parts[2])
		if len(parts) > 4 {
			ap.SSID = parts[4]
		}
		aps = append(aps, ap)
	}
	return aps
}

// stationState maps a wpa_state value to a connection state
func stationState(wpaState string) domain.ConnectionState {
	switch wpaState {
	case "COMPLETED":
		return domain.StateConnected
	case "AUTHENTICATING", "ASSOCIATING", "ASSOCIATED", "4WAY_HANDSHAKE", "GROUP_HANDSHAKE":
		return domain.StateConnecting
	case "DISCONNECTED", "INACTIVE", "SCANNING", "INTERFACE_DISABLED":
		return domain.StateDisconnected
	default:
		return domain.StateUnknown
	}
}

// parseWPAEvent maps an unsolicited control socket event to a transition
func parseWPAEvent(msg, iface string) (domain.Transition, bool) {
	event := stripEventLevel(msg)
	name, _, _ := strings.Cut(event, " ")

	switch {
	case name == "CTRL-EVENT-CONNECTED":
		return domain.NewStationTransition(domain.StateConnected, iface, "wpa"), true
	case name == "CTRL-EVENT-DISCONNECTED", name == "CTRL-EVENT-TERMINATING":
		return domain.NewStationTransition(domain.StateDisconnected, iface, "wpa"), true
	case strings.HasPrefix(event, "Trying to associate"), strings.HasPrefix(event, "SME: Trying to authenticate"):
		return domain.NewStationTransition(domain.StateConnecting, iface, "wpa"), true
	case name == "AP-ENABLED":
		return domain.NewAPTransition(domain.APCodeEnabled, iface, "wpa"), true
	case name == "AP-DISABLED":
		return domain.NewAPTransition(domain.APCodeDisabled, iface, "wpa"), true
	}
	return domain.Transition{}, false
}

// WPAAdapter streams connection events from wpa_supplicant
type WPAAdapter struct {
	ctrl *CtrlClient
}

// NewWPAAdapter creates the wpa_supplicant event adapter
func NewWPAAdapter(ctrl *CtrlClient) *WPAAdapter {
	return &WPAAdapter{ctrl: ctrl}
}

// Name returns the adapter identifier
func (a *WPAAdapter) Name() string {
	return "wpa"
}

// Type returns the adapter type
func (a *WPAAdapter) Type() AdapterType {
	return AdapterTypeStream
}

// Priority returns the adapter priority
func (a *WPAAdapter) Priority() int {
	return 90
}

// Start checks that the control socket exists
func (a *WPAAdapter) Start(ctx context.Context) error {
	if !a.ctrl.Available() {
		return fmt.Errorf("no wpa_supplicant control socket in %s", a.ctrl.dir)
	}
	log.Printf("wpa: adapter started (socket=%s)", a.ctrl.SocketPath())
	return nil
}

// Stop shuts down the adapter
func (a *WPAAdapter) Stop() error {
	return nil
}

// Sync reports the current supplicant state as a station transition
func (a *WPAAdapter) Sync(ctx context.Context) (*domain.Observation, error) {
	reply, err := a.ctrl.Request(ctx, "STATUS")
	if err != nil {
		return nil, err
	}
	state := stationState(parseKeyValues(reply)["wpa_state"])

	obs := domain.NewObservation()
	obs.AddTransition(domain.NewStationTransition(state, a.ctrl.Interface(), "wpa"))
	return obs, nil
}

// Stream attaches to the control socket and emits a transition per event
func (a *WPAAdapter) Stream(ctx context.Context, emit func(*domain.Observation)) error {
	// Seed with the current state so subscribers see one before the first event
	if obs, err := a.Sync(ctx); err == nil {
		emit(obs)
	} else {
		log.Printf("wpa: initial status failed: %v", err)
	}

	conn, err := a.ctrl.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(ctrlTimeout)); err != nil {
		return err
	}
	reply, err := roundTrip(conn, "ATTACH")
	if err != nil {
		return err
	}
	if reply != "OK\n" {
		return fmt.Errorf("attach: unexpected reply %q", strings.TrimSpace(reply))
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	iface := a.ctrl.Interface()
	buf := make([]byte, ctrlBufSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wpa event stream: %w", err)
		}

		msg := string(buf[:n])
		if !strings.HasPrefix(msg, "<") {
			continue
		}
		t, ok := parseWPAEvent(msg, iface)
		if !ok {
			continue
		}
		obs := domain.NewObservation()
		obs.AddTransition(t)
		emit(obs)
	}
}

var _ StreamAdapter = (*WPAAdapter)(nil)
