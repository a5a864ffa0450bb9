package service

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"wifiutils/internal/domain"
)

// Inspector produces adapter reports
type Inspector interface {
	Inspect(ctx context.Context) (*domain.AdapterReport, error)
	LegacyAPCodes() bool
}

// SubscriptionID identifies a state subscriber
type SubscriptionID string

// StateListener receives transition labels. It is called repeatedly, in order,
// on a goroutine owned by the subscription.
type StateListener func(state string)

// ReportListener receives the reports produced by connectivity transitions
type ReportListener interface {
	OnReport(ctx context.Context, report *domain.AdapterReport)
}

// ReportListenerFunc adapts a function to ReportListener
type ReportListenerFunc func(ctx context.Context, report *domain.AdapterReport)

// OnReport calls f
func (f ReportListenerFunc) OnReport(ctx context.Context, report *domain.AdapterReport) {
	f(ctx, report)
}

// Dispatcher runs the inspections triggered by transitions. *bridge.Pool
// satisfies it.
type Dispatcher interface {
	Go(fn func())
}

// subscriberBuffer bounds the labels queued for a single slow subscriber
const subscriberBuffer = 32

type subscriber struct {
	id     SubscriptionID
	events chan string
}

// Notifier tracks station and hotspot transitions and fans them out.
//
// Station transitions are delivered only when the state differs from the last
// station state; a transition into CONNECTED also runs an inspection whose
// report goes to the report listener. Hotspot transitions are always
// delivered, and an inspection runs when the hotspot becomes enabled.
type Notifier struct {
	inspector Inspector
	bus       *EventBus

	mu          sync.Mutex
	lastStation domain.ConnectionState
	current     string
	subs        map[SubscriptionID]*subscriber
	reports     ReportListener
	dispatch    Dispatcher
}

// NewNotifier creates a notifier that inspects through insp and publishes on bus.
// bus may be nil.
func NewNotifier(insp Inspector, bus *EventBus) *Notifier {
	return &Notifier{
		inspector:   insp,
		bus:         bus,
		lastStation: domain.StateUnknown,
		current:     string(domain.StateUnknown),
		subs:        make(map[SubscriptionID]*subscriber),
	}
}

// Subscribe registers a listener for transition labels
func (n *Notifier) Subscribe(listener StateListener) SubscriptionID {
	sub := &subscriber{
		id:     SubscriptionID(uuid.New().String()),
		events: make(chan string, subscriberBuffer),
	}

	n.mu.Lock()
	n.subs[sub.id] = sub
	total := len(n.subs)
	n.mu.Unlock()

	go func() {
		for state := range sub.events {
			listener(state)
		}
	}()

	log.Printf("Notifier: subscriber %s registered (total: %d)", sub.id, total)
	return sub.id
}

// Unsubscribe removes a subscriber. It returns false for unknown ids.
func (n *Notifier) Unsubscribe(id SubscriptionID) bool {
	n.mu.Lock()
	sub, ok := n.subs[id]
	if ok {
		delete(n.subs, id)
		close(sub.events)
	}
	total := len(n.subs)
	n.mu.Unlock()

	if ok {
		log.Printf("Notifier: subscriber %s removed (total: %d)", id, total)
	}
	return ok
}

// SubscriberCount returns the number of registered subscribers
func (n *Notifier) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// SetReportListener sets the listener for reports triggered by transitions
func (n *Notifier) SetReportListener(l ReportListener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = l
}

// SetDispatcher runs triggered inspections on d instead of the caller's
// goroutine
func (n *Notifier) SetDispatcher(d Dispatcher) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dispatch = d
}

// CurrentState returns the last delivered transition label, UNKNOWN before
// the first transition
func (n *Notifier) CurrentState() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Handle routes an observed transition to the station or hotspot handler.
// It returns the transition with its State filled in and whether it was delivered.
func (n *Notifier) Handle(ctx context.Context, t domain.Transition) (domain.Transition, bool) {
	switch t.Kind {
	case domain.TransitionStation:
		state := domain.ParseConnectionState(t.State)
		t.State = string(state)
		return t, n.OnStationTransition(ctx, state)
	case domain.TransitionAP:
		t.State = n.OnAPTransition(ctx, t.Code).Label()
		return t, true
	default:
		log.Printf("Notifier: ignoring transition of unknown kind %q", t.Kind)
		return t, false
	}
}

// OnStationTransition handles a station state change. Repeated states are
// ignored and false is returned.
func (n *Notifier) OnStationTransition(ctx context.Context, state domain.ConnectionState) bool {
	n.mu.Lock()
	if state == n.lastStation {
		n.mu.Unlock()
		return false
	}
	n.lastStation = state
	n.current = string(state)
	n.deliverLocked(string(state))
	n.mu.Unlock()

	n.bus.Publish(Event{Type: EventStationState, Payload: map[string]string{"state": string(state)}})

	if state == domain.StateConnected {
		n.triggerInspection(ctx)
	}
	return true
}

// OnAPTransition handles a hotspot state change and returns its classification
func (n *Notifier) OnAPTransition(ctx context.Context, code int) domain.APState {
	legacy := false
	if n.inspector != nil {
		legacy = n.inspector.LegacyAPCodes()
	}
	apState := domain.ClassifyAPCode(code, legacy)
	label := apState.Label()

	n.mu.Lock()
	n.current = label
	n.deliverLocked(label)
	n.mu.Unlock()

	n.bus.Publish(Event{Type: EventAPState, Payload: map[string]any{"state": label, "code": code}})

	if apState == domain.APStateEnabled {
		n.triggerInspection(ctx)
	}
	return apState
}

// Close removes every subscriber
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, sub := range n.subs {
		delete(n.subs, id)
		close(sub.events)
	}
}

func (n *Notifier) deliverLocked(state string) {
	for _, sub := range n.subs {
		select {
		case sub.events <- state:
		default:
			log.Printf("Notifier: subscriber %s is slow, dropping %s", sub.id, state)
		}
	}
}

// triggerInspection hands the inspection to the dispatcher when one is set.
// The monitor that reported the transition may stop before the job runs, so
// the job keeps ctx values but not its cancellation.
func (n *Notifier) triggerInspection(ctx context.Context) {
	n.mu.Lock()
	d := n.dispatch
	n.mu.Unlock()

	if d == nil {
		n.inspectAndForward(ctx)
		return
	}
	jobCtx := context.WithoutCancel(ctx)
	d.Go(func() { n.inspectAndForward(jobCtx) })
}

// inspectAndForward never fails: an inspection error yields an empty report
func (n *Notifier) inspectAndForward(ctx context.Context) {
	report := &domain.AdapterReport{}
	if n.inspector != nil {
		r, err := n.inspector.Inspect(ctx)
		if err != nil {
			log.Printf("Notifier: inspection after transition failed: %v", err)
		} else if r != nil {
			report = r
		}
	}

	n.mu.Lock()
	listener := n.reports
	n.mu.Unlock()

	if listener != nil {
		listener.OnReport(ctx, report)
	}
	n.bus.Publish(Event{Type: EventReport, Payload: report})
}
