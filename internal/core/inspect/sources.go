package inspect

import (
	"context"
	"errors"
	"fmt"

	"wifiutils/internal/domain"
)

// ErrNoProbe is reported when no hotspot probe is configured
var ErrNoProbe = errors.New("hotspot state probe not available")

// InterfaceSource enumerates the platform's network interfaces
type InterfaceSource interface {
	Interfaces(ctx context.Context) ([]Interface, error)
}

// StationSource reports the station-mode link
type StationSource interface {
	Station(ctx context.Context) (*domain.StationInfo, error)
}

// HostnameSource reports the device host name
type HostnameSource interface {
	Hostname() string
}

// ProbeResult is the outcome of a best-effort hotspot state probe.
// Err is set when the platform accessor could not be used.
type ProbeResult struct {
	Code int
	Err  error
}

// Classify maps the result to a hotspot classification.
// A failed probe always classifies as failed.
func (r ProbeResult) Classify(legacy bool) domain.APState {
	if r.Err != nil {
		return domain.APStateFailed
	}
	return domain.ClassifyAPCode(r.Code, legacy)
}

// APProbe queries the platform hotspot state
type APProbe interface {
	ProbeAP(ctx context.Context) ProbeResult
}

// APProbeFunc adapts a function to APProbe
type APProbeFunc func(ctx context.Context) ProbeResult

// ProbeAP calls f
func (f APProbeFunc) ProbeAP(ctx context.Context) ProbeResult {
	return f(ctx)
}

// SafeProbe runs a probe and converts a panic into a failed result
func SafeProbe(ctx context.Context, p APProbe) (res ProbeResult) {
	if p == nil {
		return ProbeResult{Code: domain.APCodeFailed, Err: ErrNoProbe}
	}
	defer func() {
		if r := recover(); r != nil {
			res = ProbeResult{Code: domain.APCodeFailed, Err: fmt.Errorf("hotspot probe panicked: %v", r)}
		}
	}()
	return p.ProbeAP(ctx)
}

// StateReporter exposes the last observed transition label
type StateReporter interface {
	CurrentState() string
}

type staticHostname string

func (h staticHostname) Hostname() string { return string(h) }
