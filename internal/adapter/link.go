package adapter

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/jsimonetti/rtnetlink"
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"wifiutils/internal/domain"
)

// linkConn receives rtnetlink messages
type linkConn interface {
	Receive() ([]rtnetlink.Message, []netlink.Message, error)
	Close() error
}

// LinkAdapter follows the operational state of the wireless interface
// through rtnetlink link notifications.
type LinkAdapter struct {
	iface     string
	isWifi    func(name string) bool
	isStation func(name string) bool
	dial   func() (linkConn, error)
	list   func() ([]rtnetlink.LinkMessage, error)

	mu   sync.Mutex
	last map[string]domain.ConnectionState
}

// NewLinkAdapter creates the link monitor. An empty iface follows every
// interface that isWifi accepts and the station filter does not reject.
func NewLinkAdapter(iface string, isWifi func(name string) bool) *LinkAdapter {
	if isWifi == nil {
		isWifi = func(name string) bool { return strings.HasPrefix(name, "wl") }
	}
	return &LinkAdapter{
		iface:     iface,
		isWifi:    isWifi,
		isStation: func(string) bool { return true },
		dial:      dialLinkMonitor,
		list:      listLinks,
		last:      make(map[string]domain.ConnectionState),
	}
}

// SetStationFilter sets the check that keeps hotspot interfaces out of the
// station state when no interface is configured. See NL80211.IsStation.
func (a *LinkAdapter) SetStationFilter(isStation func(name string) bool) {
	if isStation == nil {
		return
	}
	a.isStation = isStation
}

func dialLinkMonitor() (linkConn, error) {
	conn, err := rtnetlink.Dial(&netlink.Config{Groups: unix.RTMGRP_LINK})
	if err != nil {
		return nil, fmt.Errorf("rtnetlink dial: %w", err)
	}
	return conn, nil
}

func listLinks() ([]rtnetlink.LinkMessage, error) {
	conn, err := rtnetlink.Dial(nil)
	if err != nil {
		return nil, fmt.Errorf("rtnetlink dial: %w", err)
	}
	defer conn.Close()
	return conn.Link.List()
}

// Name returns the adapter identifier
func (a *LinkAdapter) Name() string {
	return "link"
}

// Type returns the adapter type
func (a *LinkAdapter) Type() AdapterType {
	return AdapterTypeStream
}

// Priority returns the adapter priority
func (a *LinkAdapter) Priority() int {
	return 80
}

// Start checks that a monitor socket can be opened
func (a *LinkAdapter) Start(ctx context.Context) error {
	conn, err := a.dial()
	if err != nil {
		return err
	}
	return conn.Close()
}

// Stop forgets the per-interface states
func (a *LinkAdapter) Stop() error {
	a.mu.Lock()
	a.last = make(map[string]domain.ConnectionState)
	a.mu.Unlock()
	return nil
}

// Sync lists the links and reports the state of the followed interfaces
func (a *LinkAdapter) Sync(ctx context.Context) (*domain.Observation, error) {
	links, err := a.list()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	obs := domain.NewObservation()
	for i := range links {
		a.observe(&links[i], obs)
	}
	return obs, nil
}

// Stream emits a station transition whenever a followed link changes operstate
func (a *LinkAdapter) Stream(ctx context.Context, emit func(*domain.Observation)) error {
	if obs, err := a.Sync(ctx); err == nil {
		emit(obs)
	} else {
		log.Printf("Link: initial listing failed: %v", err)
	}

	conn, err := a.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		msgs, _, err := conn.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("link notifications: %w", err)
		}

		obs := domain.NewObservation()
		for _, m := range msgs {
			if lm, ok := m.(*rtnetlink.LinkMessage); ok {
				a.observe(lm, obs)
			}
		}
		if !obs.IsEmpty() {
			emit(obs)
		}
	}
}

// observe adds a transition for lm when it belongs to a followed interface
// and its operstate differs from the last one seen
func (a *LinkAdapter) observe(lm *rtnetlink.LinkMessage, obs *domain.Observation) {
	if lm.Attributes == nil {
		return
	}
	name := lm.Attributes.Name
	if !a.follows(name) {
		return
	}
	state, ok := operState(lm.Attributes.OperationalState)
	if !ok {
		return
	}

	a.mu.Lock()
	prev, seen := a.last[name]
	a.last[name] = state
	a.mu.Unlock()

	if seen && prev == state {
		return
	}
	obs.AddTransition(domain.NewStationTransition(state, name, "link"))
}

func (a *LinkAdapter) follows(name string) bool {
	if a.iface != "" {
		return name == a.iface
	}
	return a.isWifi(name) && a.isStation(name)
}

// operState maps an RFC 2863 operational state to a connection state
func operState(s rtnetlink.OperationalState) (domain.ConnectionState, bool) {
	switch s {
	case rtnetlink.OperStateUp:
		return domain.StateConnected, true
	case rtnetlink.OperStateDormant:
		return domain.StateConnecting, true
	case rtnetlink.OperStateDown, rtnetlink.OperStateLowerLayerDown, rtnetlink.OperStateNotPresent:
		return domain.StateDisconnected, true
	default:
		return "", false
	}
}

var _ StreamAdapter = (*LinkAdapter)(nil)
