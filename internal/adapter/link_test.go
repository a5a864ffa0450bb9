package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jsimonetti/rtnetlink"
	"github.com/mdlayher/netlink"

	"wifiutils/internal/domain"
)

// fakeLinkConn hands out queued batches and blocks until closed
type fakeLinkConn struct {
	batches chan []rtnetlink.Message
	closed  chan struct{}
	once    sync.Once
}

func newFakeLinkConn() *fakeLinkConn {
	return &fakeLinkConn{
		batches: make(chan []rtnetlink.Message, 8),
		closed:  make(chan struct{}),
	}
}

func (f *fakeLinkConn) Receive() ([]rtnetlink.Message, []netlink.Message, error) {
	select {
	case msgs := <-f.batches:
		return msgs, nil, nil
	case <-f.closed:
		return nil, nil, errors.New("use of closed file")
	}
}

func (f *fakeLinkConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func link(name string, state rtnetlink.OperationalState) rtnetlink.LinkMessage {
	return rtnetlink.LinkMessage{Attributes: &rtnetlink.LinkAttributes{Name: name, OperationalState: state}}
}

func TestOperState(t *testing.T) {
	tests := []struct {
		in     rtnetlink.OperationalState
		want   domain.ConnectionState
		wantOK bool
	}{
		{rtnetlink.OperStateUp, domain.StateConnected, true},
		{rtnetlink.OperStateDormant, domain.StateConnecting, true},
		{rtnetlink.OperStateDown, domain.StateDisconnected, true},
		{rtnetlink.OperStateLowerLayerDown, domain.StateDisconnected, true},
		{rtnetlink.OperStateNotPresent, domain.StateDisconnected, true},
		{rtnetlink.OperStateUnknown, "", false},
		{rtnetlink.OperStateTesting, "", false},
	}

	for _, tt := range tests {
		got, ok := operState(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("operState(%v) = %s, %v, want %s, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestLinkAdapterSync(t *testing.T) {
	links := []rtnetlink.LinkMessage{
		link("lo", rtnetlink.OperStateUnknown),
		link("eth0", rtnetlink.OperStateUp),
		link("wlan0", rtnetlink.OperStateUp),
		{},
	}
	a := NewLinkAdapter("", nil)
	a.list = func() ([]rtnetlink.LinkMessage, error) { return links, nil }

	obs, err := a.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if len(obs.Transitions) != 1 {
		t.Fatalf("transitions = %+v", obs.Transitions)
	}
	tr := obs.Transitions[0]
	if tr.Interface != "wlan0" || tr.State != string(domain.StateConnected) || tr.Source != "link" {
		t.Errorf("transition = %+v", tr)
	}

	// unchanged state is not reported twice
	obs, _ = a.Sync(context.Background())
	if !obs.IsEmpty() {
		t.Errorf("repeated Sync() = %+v, want empty", obs.Transitions)
	}

	// Stop resets the memory
	a.Stop()
	obs, _ = a.Sync(context.Background())
	if len(obs.Transitions) != 1 {
		t.Errorf("Sync() after Stop = %+v", obs.Transitions)
	}

	a.list = func() ([]rtnetlink.LinkMessage, error) { return nil, errors.New("permission denied") }
	if _, err := a.Sync(context.Background()); err == nil {
		t.Error("expected list error")
	}
}

func TestLinkAdapterFollowsConfiguredInterface(t *testing.T) {
	a := NewLinkAdapter("wlp2s0", nil)
	if !a.follows("wlp2s0") || a.follows("wlan0") {
		t.Error("configured interface should be the only one followed")
	}

	b := NewLinkAdapter("", func(name string) bool { return name == "ra0" })
	if !b.follows("ra0") || b.follows("wlan0") {
		t.Error("custom isWifi should decide which links are followed")
	}
}

func TestLinkAdapterSkipsHotspotInterface(t *testing.T) {
	links := []rtnetlink.LinkMessage{
		link("wlan0", rtnetlink.OperStateDown),
		link("ap0", rtnetlink.OperStateUp),
	}
	a := NewLinkAdapter("", func(name string) bool { return name == "wlan0" || name == "ap0" })
	a.SetStationFilter(func(name string) bool { return name != "ap0" })
	a.list = func() ([]rtnetlink.LinkMessage, error) { return links, nil }

	obs, err := a.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if len(obs.Transitions) != 1 {
		t.Fatalf("transitions = %+v, want only wlan0", obs.Transitions)
	}
	tr := obs.Transitions[0]
	if tr.Interface != "wlan0" || tr.State != string(domain.StateDisconnected) {
		t.Errorf("transition = %+v, want wlan0 DISCONNECTED", tr)
	}

	// a configured interface is followed whatever its mode
	c := NewLinkAdapter("ap0", nil)
	c.SetStationFilter(func(string) bool { return false })
	if !c.follows("ap0") {
		t.Error("configured interface should bypass the station filter")
	}
}

func TestLinkAdapterStream(t *testing.T) {
	conn := newFakeLinkConn()
	a := NewLinkAdapter("", nil)
	a.list = func() ([]rtnetlink.LinkMessage, error) {
		return []rtnetlink.LinkMessage{link("wlan0", rtnetlink.OperStateDormant)}, nil
	}
	a.dial = func() (linkConn, error) { return conn, nil }

	up := link("wlan0", rtnetlink.OperStateUp)
	eth := link("eth0", rtnetlink.OperStateDown)
	dup := link("wlan0", rtnetlink.OperStateUp)
	down := link("wlan0", rtnetlink.OperStateDown)
	conn.batches <- []rtnetlink.Message{&up, &eth, &dup}
	conn.batches <- []rtnetlink.Message{&down}

	got := make(chan string, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Stream(ctx, func(obs *domain.Observation) {
			for _, tr := range obs.Transitions {
				got <- tr.State
			}
		})
	}()

	want := []domain.ConnectionState{domain.StateConnecting, domain.StateConnected, domain.StateDisconnected}
	for i, w := range want {
		select {
		case s := <-got:
			if s != string(w) {
				t.Errorf("state[%d] = %s, want %s", i, s, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", w)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stream() after cancel = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stream() did not return after cancel")
	}

	select {
	case s := <-got:
		t.Errorf("unexpected extra state %s", s)
	default:
	}
}

func TestLinkAdapterStreamDialFailure(t *testing.T) {
	a := NewLinkAdapter("", nil)
	a.list = func() ([]rtnetlink.LinkMessage, error) { return nil, nil }
	a.dial = func() (linkConn, error) { return nil, errors.New("protocol not supported") }

	if err := a.Start(context.Background()); err == nil {
		t.Error("Start() should fail when the monitor cannot be opened")
	}
	if err := a.Stream(context.Background(), func(*domain.Observation) {}); err == nil {
		t.Error("Stream() should fail when the monitor cannot be opened")
	}
}
