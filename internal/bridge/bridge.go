package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"wifiutils/internal/domain"
	"wifiutils/internal/service"
)

// Action names understood by the bridge
const (
	ActionGetInfos                = "getInfos"
	ActionInit                    = "init"
	ActionAcquireWifiLock         = "aquireWifiLock"
	ActionReleaseWifiLock         = "releaseWifiLock"
	ActionOnConnectionStateChange = "onConnectionStateChange"
	ActionGetReachableWlans       = "getReachableWlans"
	ActionGetNeighbors            = "getNeighbors"
)

// Callback receives the outcome of an action
type Callback interface {
	Success(result interface{})
	Error(doc ErrorDocument)
}

// CallbackFuncs adapts two functions to Callback
type CallbackFuncs struct {
	OnSuccess func(result interface{})
	OnError   func(doc ErrorDocument)
}

// Success calls OnSuccess if set
func (c CallbackFuncs) Success(result interface{}) {
	if c.OnSuccess != nil {
		c.OnSuccess(result)
	}
}

// Error calls OnError if set
func (c CallbackFuncs) Error(doc ErrorDocument) {
	if c.OnError != nil {
		c.OnError(doc)
	}
}

// once completes a callback at most one time
type once struct {
	o  sync.Once
	cb Callback
}

func (c *once) Success(result interface{}) {
	c.o.Do(func() { c.cb.Success(result) })
}

func (c *once) Error(doc ErrorDocument) {
	c.o.Do(func() { c.cb.Error(doc) })
}

// Inspector produces adapter reports
type Inspector interface {
	Inspect(ctx context.Context) (*domain.AdapterReport, error)
}

// Subscriber registers state listeners
type Subscriber interface {
	Subscribe(listener service.StateListener) service.SubscriptionID
	Unsubscribe(id service.SubscriptionID) bool
}

// Lock is the radio performance lock
type Lock interface {
	Acquire() error
	Release() error
}

// WlanScanner lists reachable access points
type WlanScanner interface {
	ScanResults(ctx context.Context) ([]domain.AccessPoint, error)
}

// NeighborLister lists hosts seen on the active subnet
type NeighborLister interface {
	ListNeighbors(ctx context.Context) ([]domain.Neighbor, error)
}

// Bridge dispatches named actions to the inspector, notifier and lock
type Bridge struct {
	inspector Inspector
	notifier  Subscriber
	lock      Lock
	scanner   WlanScanner
	neighbors NeighborLister
	pool      *Pool

	mu   sync.Mutex
	subs map[service.SubscriptionID]struct{}
}

// New creates a bridge running inspections on a pool of the given size
func New(insp Inspector, notifier Subscriber, lock Lock, workers int) *Bridge {
	return &Bridge{
		inspector: insp,
		notifier:  notifier,
		lock:      lock,
		pool:      NewPool(workers),
		subs:      make(map[service.SubscriptionID]struct{}),
	}
}

// SetWlanScanner sets the reachable WLAN scanner
func (b *Bridge) SetWlanScanner(s WlanScanner) {
	b.scanner = s
}

// SetNeighborLister sets the neighbor source
func (b *Bridge) SetNeighborLister(n NeighborLister) {
	b.neighbors = n
}

// Actions returns the names Execute understands
func (b *Bridge) Actions() []string {
	return []string{
		ActionGetInfos,
		ActionInit,
		ActionAcquireWifiLock,
		ActionReleaseWifiLock,
		ActionOnConnectionStateChange,
		ActionGetReachableWlans,
		ActionGetNeighbors,
	}
}

// Execute runs an action. Subscriptions made by onConnectionStateChange live
// until Close.
func (b *Bridge) Execute(action string, args json.RawMessage, cb Callback) bool {
	return b.ExecuteContext(context.Background(), action, args, cb)
}

// ExecuteContext runs an action and reports whether it is known. Unknown
// actions return false and leave cb untouched. A subscription made by
// onConnectionStateChange is removed when ctx is done.
func (b *Bridge) ExecuteContext(ctx context.Context, action string, args json.RawMessage, cb Callback) bool {
	switch action {
	case ActionGetInfos:
		b.dispatch(cb, func() (interface{}, error) {
			return b.inspector.Inspect(context.Background())
		})
	case ActionInit:
		cb.Success(nil)
	case ActionAcquireWifiLock:
		b.runLock(cb, true)
	case ActionReleaseWifiLock:
		b.runLock(cb, false)
	case ActionOnConnectionStateChange:
		b.subscribe(ctx, cb)
	case ActionGetReachableWlans:
		b.dispatch(cb, func() (interface{}, error) {
			if b.scanner == nil {
				return []domain.AccessPoint{}, nil
			}
			return b.scanner.ScanResults(context.Background())
		})
	case ActionGetNeighbors:
		b.dispatch(cb, func() (interface{}, error) {
			if b.neighbors == nil {
				return []domain.Neighbor{}, nil
			}
			return b.neighbors.ListNeighbors(context.Background())
		})
	default:
		log.Printf("Bridge: %s: %q", ErrUnknownAction, action)
		return false
	}
	return true
}

// dispatch runs job on the pool and completes cb exactly once
func (b *Bridge) dispatch(cb Callback, job func() (interface{}, error)) {
	done := &once{cb: cb}
	b.pool.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Bridge: job panicked: %v", r)
				done.Error(panicDocument(r))
			}
		}()

		result, err := job()
		if err != nil {
			log.Printf("Bridge: job failed: %v", err)
			done.Error(NewErrorDocument(err))
			return
		}
		done.Success(result)
	})
}

func (b *Bridge) runLock(cb Callback, acquire bool) {
	if b.lock == nil {
		cb.Success(nil)
		return
	}
	op := b.lock.Release
	if acquire {
		op = b.lock.Acquire
	}
	if err := op(); err != nil {
		log.Printf("Bridge: wifi lock: %v", err)
		cb.Error(NewErrorDocument(err))
		return
	}
	cb.Success(nil)
}

func (b *Bridge) subscribe(ctx context.Context, cb Callback) {
	if b.notifier == nil {
		cb.Error(NewErrorDocument(fmt.Errorf("connection state notifications not available")))
		return
	}

	id := b.notifier.Subscribe(func(state string) {
		cb.Success(state)
	})

	b.mu.Lock()
	b.subs[id] = struct{}{}
	b.mu.Unlock()

	if ctx.Done() == nil {
		return
	}
	go func() {
		<-ctx.Done()
		b.unsubscribe(id)
	}()
}

func (b *Bridge) unsubscribe(id service.SubscriptionID) {
	b.mu.Lock()
	_, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()

	if ok {
		b.notifier.Unsubscribe(id)
	}
}

// Go runs fn on the inspection pool. It lets the notifier dispatch the
// inspections triggered by transitions alongside bridge calls.
func (b *Bridge) Go(fn func()) {
	b.pool.Go(fn)
}

// Close drops every subscription and waits for running jobs
func (b *Bridge) Close() {
	b.mu.Lock()
	ids := make([]service.SubscriptionID, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	for _, id := range ids {
		b.unsubscribe(id)
	}
	b.pool.Wait()
}
