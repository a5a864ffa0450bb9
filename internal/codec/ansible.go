package codec

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"wifiutils/internal/domain"

	"gopkg.in/yaml.v3"
)

// NeighborGroup is the inventory group holding hosts seen on the active subnet
const NeighborGroup = "wifi_neighbors"

// AnsibleCodec writes the neighbor table as an Ansible YAML inventory.
// Parsing reads the hosts of every group back as neighbors.
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible inventory codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

// ContentType returns the MIME type of exported documents
func (c *AnsibleCodec) ContentType() string {
	return "application/yaml"
}

type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
	Hosts    map[string]ansibleHost     `yaml:"hosts,omitempty"`
	Vars     map[string]interface{}     `yaml:"vars,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string `yaml:"ansible_host"`
	MAC         string `yaml:"mac_address,omitempty"`
	Vendor      string `yaml:"vendor,omitempty"`
	LastSeen    string `yaml:"last_seen,omitempty"`
}

// Parse reads neighbors from an inventory. Hosts without ansible_host are
// skipped.
func (c *AnsibleCodec) Parse(r io.Reader) (*Snapshot, error) {
	var inv ansibleInventory
	if err := yaml.NewDecoder(r).Decode(&inv); err != nil {
		return nil, fmt.Errorf("failed to parse Ansible inventory: %w", err)
	}

	seen := make(map[string]bool)
	s := &Snapshot{}
	add := func(name string, h ansibleHost) {
		if h.AnsibleHost == "" || seen[h.AnsibleHost] {
			return
		}
		seen[h.AnsibleHost] = true
		n := domain.Neighbor{
			IP:     h.AnsibleHost,
			MAC:    h.MAC,
			Vendor: h.Vendor,
		}
		if name != hostKey(h.AnsibleHost) {
			n.Hostname = name
		}
		if t, err := time.Parse(time.RFC3339, h.LastSeen); err == nil {
			n.LastSeen = t
		}
		s.Neighbors = append(s.Neighbors, n)
	}

	for _, name := range sortedKeys(inv.All.Hosts) {
		add(name, inv.All.Hosts[name])
	}
	groups := make([]string, 0, len(inv.All.Children))
	for g := range inv.All.Children {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		hosts := inv.All.Children[g].Hosts
		for _, name := range sortedKeys(hosts) {
			add(name, hosts[name])
		}
	}
	return s, nil
}

// Export writes the snapshot's neighbors under the wifi_neighbors group.
// The active subnet of the report, if any, becomes group vars.
func (c *AnsibleCodec) Export(s *Snapshot, w io.Writer) error {
	hosts := make(map[string]ansibleHost)
	if s != nil {
		for _, n := range s.Neighbors {
			name := n.Hostname
			if name == "" {
				name = hostKey(n.IP)
			}
			h := ansibleHost{
				AnsibleHost: n.IP,
				MAC:         n.MAC,
				Vendor:      n.Vendor,
			}
			if !n.LastSeen.IsZero() {
				h.LastSeen = n.LastSeen.UTC().Format(time.RFC3339)
			}
			hosts[name] = h
		}
	}

	inv := ansibleInventory{All: ansibleGroup{
		Children: map[string]ansibleGroupDef{NeighborGroup: {Hosts: hosts}},
	}}
	if vars := subnetVars(s); len(vars) > 0 {
		inv.All.Vars = vars
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}
	return nil
}

func subnetVars(s *Snapshot) map[string]interface{} {
	if s == nil || !s.Report.HasActiveAdapter() {
		return nil
	}
	vars := map[string]interface{}{
		"wifi_interface": s.Report.ActiveAdapter,
	}
	if s.Report.SSID != "" {
		vars["wifi_ssid"] = s.Report.SSID
	}
	if v4 := s.Report.IPv4Addresses(); len(v4) > 0 {
		vars["wifi_network_id"] = v4[0].NetworkID
		vars["wifi_subnet_mask"] = v4[0].SubnetMask
	}
	return vars
}

// hostKey turns an address into an inventory host name
func hostKey(ip string) string {
	return "host-" + strings.NewReplacer(".", "-", ":", "-").Replace(ip)
}

func sortedKeys(m map[string]ansibleHost) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
