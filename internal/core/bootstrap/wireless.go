package bootstrap

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DetectWireless gathers evidence about the wireless hardware and the
// daemons that manage it
func DetectWireless(opts Options) []Evidence {
	var evidence []Evidence

	ifaces := wirelessInterfaces(opts.SysfsNet)
	evidence = append(evidence, NewEvidence(
		CategoryWireless, "interfaces", ifaces, 0.95, "sysfs",
		"entries of "+opts.SysfsNet+" with wireless or phy80211",
	))

	evidence = append(evidence, detectRfkill(opts.RfkillDir)...)
	evidence = append(evidence, ctrlSocketEvidence("wpa_ctrl_socket", opts.WPACtrlDir, "wpa_supplicant"))
	evidence = append(evidence, ctrlSocketEvidence("hostapd_ctrl_socket", opts.HostapdCtrlDir, "hostapd"))

	if opts.NL80211 != nil {
		ok := opts.NL80211()
		method := "nl80211 interface dump succeeded"
		if !ok {
			method = "nl80211 family not reachable"
		}
		evidence = append(evidence, NewEvidence(CategoryWireless, "nl80211", ok, 0.95, "netlink", method))
	}

	return evidence
}

func wirelessInterfaces(sysfs string) []string {
	entries, err := os.ReadDir(sysfs)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		for _, marker := range []string{"wireless", "phy80211"} {
			if _, err := os.Stat(filepath.Join(sysfs, e.Name(), marker)); err == nil {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// detectRfkill reports whether any wlan radio is soft or hard blocked
func detectRfkill(dir string) []Evidence {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var blocked []string
	seen := false
	for _, e := range entries {
		base := filepath.Join(dir, e.Name())
		if strings.TrimSpace(readFileSafe(filepath.Join(base, "type"))) != "wlan" {
			continue
		}
		seen = true
		soft := strings.TrimSpace(readFileSafe(filepath.Join(base, "soft")))
		hard := strings.TrimSpace(readFileSafe(filepath.Join(base, "hard")))
		if soft == "1" || hard == "1" {
			blocked = append(blocked, e.Name())
		}
	}
	if !seen {
		return nil
	}

	return []Evidence{NewEvidence(
		CategoryWireless, "rfkill_blocked", len(blocked) > 0, 0.95, "sysfs", "read "+dir+"/*/soft,hard",
	).WithRaw(map[string]any{"blocked": blocked})}
}

// ctrlSocketEvidence reports the control sockets found in dir, ignoring p2p
// device sockets
func ctrlSocketEvidence(prop, dir, daemon string) Evidence {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return NewEvidence(CategoryWireless, prop, false, 0.90, "filesystem",
			daemon+" control directory "+dir+" not readable")
	}

	var sockets []string
	for _, e := range entries {
		if e.Type()&os.ModeSocket == 0 || strings.HasPrefix(e.Name(), "p2p-") {
			continue
		}
		sockets = append(sockets, e.Name())
	}
	if len(sockets) == 0 {
		return NewEvidence(CategoryWireless, prop, false, 0.90, "filesystem",
			"no "+daemon+" control sockets in "+dir)
	}
	return NewEvidence(CategoryWireless, prop, true, 0.95, "filesystem",
		daemon+" control socket in "+dir,
	).WithRaw(map[string]any{"sockets": sockets})
}
