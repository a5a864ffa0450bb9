package service

import (
	"fmt"
	"log"
	"sync"
)

// LockHandle is the platform mechanism keeping the radio at full performance
type LockHandle interface {
	Acquire() error
	Release() error
}

// WifiLock wraps a LockHandle so that acquiring twice or releasing an
// unheld lock are no-ops.
type WifiLock struct {
	mu     sync.Mutex
	handle LockHandle
	held   bool
	bus    *EventBus
}

// NewWifiLock creates a lock over the platform handle. bus may be nil.
func NewWifiLock(handle LockHandle, bus *EventBus) *WifiLock {
	return &WifiLock{handle: handle, bus: bus}
}

// Acquire takes the lock unless it is already held
func (l *WifiLock) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return nil
	}
	if l.handle != nil {
		if err := l.handle.Acquire(); err != nil {
			return fmt.Errorf("acquire wifi lock: %w", err)
		}
	}
	l.held = true
	log.Printf("WifiLock: acquired")
	l.bus.Publish(Event{Type: EventLockChanged, Payload: map[string]bool{"held": true}})
	return nil
}

// Release frees the lock if held. The lock is cleared even when the
// platform release fails.
func (l *WifiLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return nil
	}
	l.held = false
	l.bus.Publish(Event{Type: EventLockChanged, Payload: map[string]bool{"held": false}})

	if l.handle != nil {
		if err := l.handle.Release(); err != nil {
			return fmt.Errorf("release wifi lock: %w", err)
		}
	}
	log.Printf("WifiLock: released")
	return nil
}

// Held reports whether the lock is currently held
func (l *WifiLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}
