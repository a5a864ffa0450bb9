package domain

import "testing"

func TestClassifyAPCode(t *testing.T) {
	tests := []struct {
		code   int
		legacy bool
		want   APState
		label  string
	}{
		{10, false, APStateDisabling, "WIFI_AP_STATE_DISABLING"},
		{11, false, APStateDisabled, "WIFI_AP_STATE_DISABLED"},
		{12, false, APStateEnabling, "WIFI_AP_STATE_ENABLING"},
		{13, false, APStateEnabled, "WIFI_AP_STATE_ENABLED"},
		{14, false, APStateFailed, "WIFI_AP_STATE_FAILED"},
		{15, false, APStateUnknown, "WIFI_AP_STATE_UNKNOWN"},
		{-1, false, APStateUnknown, "WIFI_AP_STATE_UNKNOWN"},
		{3, false, APStateUnknown, "WIFI_AP_STATE_UNKNOWN"},
		{3, true, APStateEnabled, "WIFI_AP_STATE_ENABLED"},
		{0, true, APStateDisabling, "WIFI_AP_STATE_DISABLING"},
		{4, true, APStateFailed, "WIFI_AP_STATE_FAILED"},
		{13, true, APStateEnabled, "WIFI_AP_STATE_ENABLED"},
		{5, true, APStateUnknown, "WIFI_AP_STATE_UNKNOWN"},
	}

	for _, tt := range tests {
		got := ClassifyAPCode(tt.code, tt.legacy)
		if got != tt.want {
			t.Errorf("ClassifyAPCode(%d, %v) = %s, want %s", tt.code, tt.legacy, got, tt.want)
		}
		if got.Label() != tt.label {
			t.Errorf("ClassifyAPCode(%d, %v).Label() = %s, want %s", tt.code, tt.legacy, got.Label(), tt.label)
		}
	}
}

func TestAPStateCodeRoundTrip(t *testing.T) {
	for code := APCodeDisabling; code <= APCodeFailed; code++ {
		if got := ClassifyAPCode(code, false).Code(); got != code {
			t.Errorf("Code() round trip for %d = %d", code, got)
		}
	}
	if APStateUnknown.Code() != -1 {
		t.Errorf("APStateUnknown.Code() = %d, want -1", APStateUnknown.Code())
	}
}

func TestParseConnectionState(t *testing.T) {
	tests := []struct {
		in   string
		want ConnectionState
	}{
		{"CONNECTED", StateConnected},
		{"connecting", StateConnecting},
		{" Suspended ", StateSuspended},
		{"DISCONNECTING", StateDisconnecting},
		{"DISCONNECTED", StateDisconnected},
		{"", StateUnknown},
		{"COMPLETED", StateUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseConnectionState(tt.in); got != tt.want {
				t.Errorf("ParseConnectionState(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestReportIPv4Addresses(t *testing.T) {
	r := &AdapterReport{
		ActiveAdapter: "wlan0",
		Addresses: []AddressInfo{
			{AddressType: AddressTypeIPv4, IPAddress: "192.168.1.42", SubnetMask: "255.255.255.0"},
			{AddressType: AddressTypeIPv6, IPAddress: "fe80::1"},
		},
	}

	if !r.HasActiveAdapter() {
		t.Error("expected HasActiveAdapter to be true")
	}
	v4 := r.IPv4Addresses()
	if len(v4) != 1 || v4[0].IPAddress != "192.168.1.42" {
		t.Errorf("IPv4Addresses() = %v", v4)
	}

	var empty *AdapterReport
	if empty.HasActiveAdapter() {
		t.Error("nil report should not have an active adapter")
	}
}

func TestObservation(t *testing.T) {
	o := NewObservation()
	if !o.IsEmpty() {
		t.Error("new observation should be empty")
	}
	o.AddTransition(NewStationTransition(StateConnected, "wlan0", "wpa"))
	if o.IsEmpty() {
		t.Error("observation with a transition should not be empty")
	}
	if o.Transitions[0].Kind != TransitionStation || o.Transitions[0].State != "CONNECTED" {
		t.Errorf("unexpected transition %+v", o.Transitions[0])
	}

	ap := NewAPTransition(13, "ap0", "hotspot")
	if ap.Kind != TransitionAP || ap.Code != 13 || ap.State != "" {
		t.Errorf("unexpected ap transition %+v", ap)
	}
}
