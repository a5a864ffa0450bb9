package adapter

import (
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
)

// NmapOption is a functional option for configuring NmapAdapter
type NmapOption func(*NmapAdapter)

// WithTimeout sets the timeout for the entire nmap scan
func WithTimeout(d time.Duration) NmapOption {
	return func(n *NmapAdapter) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithTargets sets or replaces the static target list
func WithTargets(targets []string) NmapOption {
	return func(n *NmapAdapter) {
		n.targets = targets
	}
}

// WithTargetFunc adds targets resolved at every scan, e.g. the active subnet
func WithTargetFunc(fn TargetFunc) NmapOption {
	return func(n *NmapAdapter) {
		n.targetFunc = fn
	}
}

// WithNameResolution enables or disables reverse DNS for neighbours (-n)
func WithNameResolution(enabled bool) NmapOption {
	return func(n *NmapAdapter) {
		n.resolveNames = enabled
	}
}

// WithTiming sets the nmap timing template (-T0 .. -T5)
func WithTiming(t nmap.Timing) NmapOption {
	return func(n *NmapAdapter) {
		n.timing = t
	}
}
