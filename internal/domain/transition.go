package domain

import "time"

// TransitionKind identifies which radio mode changed state
type TransitionKind string

const (
	TransitionStation TransitionKind = "station"
	TransitionAP      TransitionKind = "ap"
)

// Transition is a single observed state change of the station link or the hotspot
type Transition struct {
	ID         int64          `json:"id,omitempty" yaml:"id,omitempty"`
	Kind       TransitionKind `json:"kind" yaml:"kind"`
	State      string         `json:"state" yaml:"state"`                   // ConnectionState or WIFI_AP_STATE_* label
	Code       int            `json:"code,omitempty" yaml:"code,omitempty"` // raw hotspot code, ap only
	Interface  string         `json:"interface,omitempty" yaml:"interface,omitempty"`
	Source     string         `json:"source" yaml:"source"`
	ObservedAt time.Time      `json:"observed_at" yaml:"observed_at"`
}

// NewStationTransition creates a station transition observed now
func NewStationTransition(state ConnectionState, iface, source string) Transition {
	return Transition{
		Kind:       TransitionStation,
		State:      string(state),
		Interface:  iface,
		Source:     source,
		ObservedAt: time.Now(),
	}
}

// NewAPTransition creates a hotspot transition observed now.
// State is left empty; the notifier fills it in after classification.
func NewAPTransition(code int, iface, source string) Transition {
	return Transition{
		Kind:       TransitionAP,
		Code:       code,
		Interface:  iface,
		Source:     source,
		ObservedAt: time.Now(),
	}
}

// Observation is what a platform adapter hands back to the registry
type Observation struct {
	Transitions []Transition
	Neighbors   []Neighbor
}

// NewObservation creates an empty observation
func NewObservation() *Observation {
	return &Observation{}
}

// AddTransition appends a transition to the observation
func (o *Observation) AddTransition(t Transition) {
	o.Transitions = append(o.Transitions, t)
}

// AddNeighbor appends a neighbor to the observation
func (o *Observation) AddNeighbor(n Neighbor) {
	o.Neighbors = append(o.Neighbors, n)
}

// IsEmpty reports whether the observation carries nothing
func (o *Observation) IsEmpty() bool {
	return o == nil || (len(o.Transitions) == 0 && len(o.Neighbors) == 0)
}
