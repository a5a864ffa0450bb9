package bootstrap

// Plan says which adapters have a working backend on this host
type Plan struct {
	WPA      bool     `json:"wpa"`
	Link     bool     `json:"link"`
	Hotspot  bool     `json:"hotspot"`
	Nmap     bool     `json:"nmap"`
	Lock     bool     `json:"lock"`
	Reasons  []string `json:"reasons"`
	Warnings []string `json:"warnings,omitempty"`
}

// Synthesize derives the adapter plan from gathered evidence
func Synthesize(es *EvidenceSet) Plan {
	var p Plan

	if es.Bool(CategoryWireless, "wpa_ctrl_socket") {
		p.WPA = true
		p.Reasons = append(p.Reasons, "wpa_supplicant control socket found - following supplicant events")
	} else {
		p.Reasons = append(p.Reasons, "No wpa_supplicant control socket - supplicant state unavailable")
	}

	if es.Bool(CategoryPermissions, "can_netlink_route") {
		p.Link = true
		p.Reasons = append(p.Reasons, "rtnetlink available - following link operstate")
	}

	hostapd := es.Bool(CategoryWireless, "hostapd_ctrl_socket")
	nl80211 := es.Bool(CategoryWireless, "nl80211")
	switch {
	case hostapd:
		p.Hotspot = true
		p.Reasons = append(p.Reasons, "hostapd control socket found - hotspot state from hostapd")
	case nl80211:
		p.Hotspot = true
		p.Reasons = append(p.Reasons, "nl80211 reachable - hotspot state from interface mode")
	default:
		p.Reasons = append(p.Reasons, "No hotspot backend - hotspot state reports failed")
	}

	if es.Bool(CategoryTools, "has_nmap") {
		p.Nmap = true
		p.Reasons = append(p.Reasons, "nmap available for neighbour scans")
		if !es.Bool(CategoryPermissions, "can_raw_socket") {
			p.Warnings = append(p.Warnings, "No raw socket capability - nmap falls back to TCP ping")
		}
	}

	p.Lock = es.Bool(CategoryTools, "has_iw") && es.Bool(CategoryPermissions, "is_root")
	if !p.Lock {
		p.Warnings = append(p.Warnings, "WiFi lock needs iw and root - aquireWifiLock will report errors")
	}

	if v, _, ok := es.BestValue(CategoryWireless, "interfaces"); ok {
		if ifaces, _ := v.([]string); len(ifaces) == 0 {
			msg := "No wireless interface found"
			if es.Bool(CategoryEnvironment, "containerized") {
				msg += " - container may need host networking"
			}
			p.Warnings = append(p.Warnings, msg)
		}
	}

	if es.Bool(CategoryWireless, "rfkill_blocked") {
		p.Warnings = append(p.Warnings, "WiFi radio is blocked by rfkill")
	}

	return p
}
