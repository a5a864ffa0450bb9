// Package loader reads neighbour seed files from disk.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wifiutils/internal/codec"
	"wifiutils/internal/domain"
)

// NeighborStore receives loaded neighbours
type NeighborStore interface {
	UpsertNeighbors(ctx context.Context, neighbors []domain.Neighbor) error
}

// FormatFor picks a codec format from the file extension. Files named
// inventory.* or hosts.* are read as Ansible inventories.
func FormatFor(path string) string {
	base := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	switch {
	case ext == ".json":
		return "json"
	case stem == "inventory" || stem == "hosts":
		return "ansible-inventory"
	default:
		return "yaml"
	}
}

// LoadFile parses a snapshot or inventory file
func LoadFile(path string) (*codec.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	c, err := codec.ForFormat(FormatFor(path))
	if err != nil {
		return nil, err
	}
	s, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return s, nil
}

// SeedNeighbors loads path and stores its neighbours, returning how many
// were stored
func SeedNeighbors(ctx context.Context, store NeighborStore, path string) (int, error) {
	s, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	if len(s.Neighbors) == 0 {
		return 0, nil
	}
	if err := store.UpsertNeighbors(ctx, s.Neighbors); err != nil {
		return 0, fmt.Errorf("failed to store neighbours from %s: %w", path, err)
	}
	return len(s.Neighbors), nil
}
