package bootstrap

import (
	"context"
	"log"
	"os"
	"os/exec"
	"time"
)

// Options locates the platform backends. Zero fields take the Linux defaults.
type Options struct {
	SysfsNet       string
	RfkillDir      string
	WPACtrlDir     string
	HostapdCtrlDir string
	MachineIDPath  string

	// NL80211 reports whether the nl80211 generic netlink family answers
	NL80211 func() bool
	// LookPath finds helper binaries
	LookPath func(file string) (string, error)
	// Euid returns the effective user id
	Euid func() int
}

func (o Options) withDefaults() Options {
	if o.SysfsNet == "" {
		o.SysfsNet = "/sys/class/net"
	}
	if o.RfkillDir == "" {
		o.RfkillDir = "/sys/class/rfkill"
	}
	if o.WPACtrlDir == "" {
		o.WPACtrlDir = "/var/run/wpa_supplicant"
	}
	if o.HostapdCtrlDir == "" {
		o.HostapdCtrlDir = "/var/run/hostapd"
	}
	if o.MachineIDPath == "" {
		o.MachineIDPath = "/etc/machine-id"
	}
	if o.LookPath == nil {
		o.LookPath = exec.LookPath
	}
	if o.Euid == nil {
		o.Euid = os.Geteuid
	}
	return o
}

// Result contains all bootstrap findings
type Result struct {
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Evidence  *EvidenceSet  `json:"-"`
	Plan      Plan          `json:"plan"`
}

// Run executes the full bootstrap sequence
func Run(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log.Println("Bootstrap: probing platform backends...")
	start := time.Now()

	evidence := NewEvidenceSet()

	phases := []struct {
		name   string
		detect func() []Evidence
	}{
		{"environment", func() []Evidence { return DetectEnvironment(opts) }},
		{"permissions", func() []Evidence { return DetectPermissions(opts) }},
		{"wireless", func() []Evidence { return DetectWireless(opts) }},
		{"tools", func() []Evidence { return DetectTools(ctx, opts) }},
	}
	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found := p.detect()
		evidence.AddAll(found)
		logPhaseStats(p.name, found)
	}

	plan := Synthesize(evidence)
	duration := time.Since(start)

	log.Printf("Bootstrap: Complete in %s", duration)
	log.Printf("Bootstrap: Gathered %d pieces of evidence", evidence.Count())
	for _, r := range plan.Reasons {
		log.Printf("Bootstrap:   - %s", r)
	}
	for _, w := range plan.Warnings {
		log.Printf("Bootstrap: WARNING: %s", w)
	}

	return &Result{
		Timestamp: time.Now(),
		Duration:  duration,
		Evidence:  evidence,
		Plan:      plan,
	}, nil
}

func logPhaseStats(phase string, evidence []Evidence) {
	if len(evidence) == 0 {
		log.Printf("Bootstrap:   %s: no evidence gathered", phase)
		return
	}
	log.Printf("Bootstrap:   %s: gathered %d pieces of evidence", phase, len(evidence))
}

// Capabilities is the document served by the capabilities endpoint
type Capabilities struct {
	Timestamp time.Time                 `json:"timestamp"`
	Plan      Plan                      `json:"plan"`
	Summary   map[string]map[string]any `json:"summary"`
	Evidence  []Evidence                `json:"evidence"`
}

// Capabilities renders the result for clients
func (r *Result) Capabilities() Capabilities {
	c := Capabilities{Timestamp: r.Timestamp, Plan: r.Plan}
	if r.Evidence != nil {
		c.Summary = r.Evidence.Summary()
		c.Evidence = r.Evidence.All()
	}
	return c
}
