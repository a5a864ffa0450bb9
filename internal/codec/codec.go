// Package codec converts inspector snapshots to and from export formats.
package codec

import (
	"fmt"
	"io"
	"strings"
	"time"

	"wifiutils/internal/domain"
)

// Snapshot is an exportable view of the latest report, the transition
// journal and the neighbor table
type Snapshot struct {
	ExportedAt  time.Time             `json:"exportedAt" yaml:"exported_at"`
	Report      *domain.AdapterReport `json:"report,omitempty" yaml:"report,omitempty"`
	Transitions []domain.Transition   `json:"transitions,omitempty" yaml:"transitions,omitempty"`
	Neighbors   []domain.Neighbor     `json:"neighbors,omitempty" yaml:"neighbors,omitempty"`
}

// Importer reads a snapshot from a format
type Importer interface {
	Parse(r io.Reader) (*Snapshot, error)
	Format() string
}

// Exporter writes a snapshot in a format
type Exporter interface {
	Export(s *Snapshot, w io.Writer) error
	Format() string
	ContentType() string
}

// Codec both reads and writes a format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec registered under format. An empty format
// selects JSON.
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "ansible", "ansible-inventory":
		return NewAnsibleCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
