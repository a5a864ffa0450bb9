package adapter

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"
)

const iwTimeout = 5 * time.Second

// PowerSaveLock keeps the radio at full performance by disabling WiFi power
// saving while held. It implements service.LockHandle.
type PowerSaveLock struct {
	iface string
	run   func(ctx context.Context, name string, args ...string) error
}

// NewPowerSaveLock creates a lock for iface driven through iw
func NewPowerSaveLock(iface string) *PowerSaveLock {
	return &PowerSaveLock{iface: iface, run: runCommand}
}

// Acquire turns power saving off
func (l *PowerSaveLock) Acquire() error {
	return l.set("off")
}

// Release turns power saving back on
func (l *PowerSaveLock) Release() error {
	return l.set("on")
}

func (l *PowerSaveLock) set(mode string) error {
	if l.iface == "" {
		return fmt.Errorf("power save %s: no wireless interface configured", mode)
	}
	ctx, cancel := context.WithTimeout(context.Background(), iwTimeout)
	defer cancel()

	if err := l.run(ctx, "iw", "dev", l.iface, "set", "power_save", mode); err != nil {
		return fmt.Errorf("power save %s on %s: %w", mode, l.iface, err)
	}
	log.Printf("Lock: power save %s on %s", mode, l.iface)
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
