// Package bootstrap gathers evidence about which platform backends work on
// this host. Probes never fail: an unavailable backend is itself evidence,
// recorded with a confidence score, and the plan derived from the evidence
// decides which adapters are worth starting.
package bootstrap

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies types of evidence
type Category string

const (
	CategoryEnvironment Category = "environment"
	CategoryPermissions Category = "permissions"
	CategoryWireless    Category = "wireless"
	CategoryTools       Category = "tools"
)

// Evidence represents a single piece of discovered knowledge
type Evidence struct {
	ID         string         `json:"id"`
	Category   Category       `json:"category"`
	Property   string         `json:"property"`
	Value      any            `json:"value"`
	Confidence float64        `json:"confidence"` // 0.0-1.0
	Source     string         `json:"source"`     // e.g., "sysfs", "syscall", "probe"
	Method     string         `json:"method"`     // e.g., "/var/run/wpa_supplicant/wlan0 exists"
	Timestamp  time.Time      `json:"timestamp"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// NewEvidence creates evidence with a fresh ID
func NewEvidence(cat Category, prop string, value any, conf float64, source, method string) Evidence {
	return Evidence{
		ID:         uuid.NewString(),
		Category:   cat,
		Property:   prop,
		Value:      value,
		Confidence: conf,
		Source:     source,
		Method:     method,
		Timestamp:  time.Now(),
	}
}

// WithRaw adds raw data to evidence and returns it (for chaining)
func (e Evidence) WithRaw(raw map[string]any) Evidence {
	e.Raw = raw
	return e
}

// EvidenceSet aggregates multiple pieces of evidence
type EvidenceSet struct {
	items []Evidence
}

// NewEvidenceSet creates an empty evidence set
func NewEvidenceSet() *EvidenceSet {
	return &EvidenceSet{}
}

// Add appends a single piece of evidence
func (es *EvidenceSet) Add(e Evidence) {
	es.items = append(es.items, e)
}

// AddAll appends multiple pieces of evidence
func (es *EvidenceSet) AddAll(items []Evidence) {
	es.items = append(es.items, items...)
}

// All returns all evidence
func (es *EvidenceSet) All() []Evidence {
	return es.items
}

// Count returns the number of evidence items
func (es *EvidenceSet) Count() int {
	return len(es.items)
}

// ByCategory returns evidence filtered by category
func (es *EvidenceSet) ByCategory(cat Category) []Evidence {
	var result []Evidence
	for _, e := range es.items {
		if e.Category == cat {
			result = append(result, e)
		}
	}
	return result
}

// BestValue returns the highest-confidence value for a property
func (es *EvidenceSet) BestValue(cat Category, prop string) (any, float64, bool) {
	var best Evidence
	var found bool

	for _, e := range es.items {
		if e.Category == cat && e.Property == prop {
			if !found || e.Confidence > best.Confidence {
				best = e
				found = true
			}
		}
	}

	if !found {
		return nil, 0, false
	}
	return best.Value, best.Confidence, true
}

// Bool returns the best value of a boolean property, false when absent
func (es *EvidenceSet) Bool(cat Category, prop string) bool {
	v, _, _ := es.BestValue(cat, prop)
	b, _ := v.(bool)
	return b
}

// Summary returns the best value per category and property
func (es *EvidenceSet) Summary() map[string]map[string]any {
	best := make(map[string]map[string]Evidence)
	for _, e := range es.items {
		catKey := string(e.Category)
		if best[catKey] == nil {
			best[catKey] = make(map[string]Evidence)
		}
		if cur, ok := best[catKey][e.Property]; ok && cur.Confidence >= e.Confidence {
			continue
		}
		best[catKey][e.Property] = e
	}

	result := make(map[string]map[string]any, len(best))
	for cat, props := range best {
		result[cat] = make(map[string]any, len(props))
		for prop, e := range props {
			result[cat][prop] = e.Value
		}
	}
	return result
}
