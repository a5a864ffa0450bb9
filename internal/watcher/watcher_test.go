package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wifiutils/internal/config"
)

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wifiutils.yaml")
	if err := config.DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	reloads := make(chan *config.Config, 4)
	w := New(path, func(cfg *config.Config) { reloads <- cfg }).WithDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	select {
	case <-w.Ready():
	case err := <-done:
		t.Skipf("fsnotify unavailable: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never became ready")
	}

	// A broken revision is ignored
	replaceFile(t, path, []byte("inspector: [\n"))
	select {
	case cfg := <-reloads:
		t.Fatalf("unexpected reload of invalid file: %+v", cfg)
	case <-time.After(200 * time.Millisecond):
	}

	cfg := config.DefaultConfig()
	cfg.Inspector.APStateOffset = true
	staged := filepath.Join(t.TempDir(), "staged.yaml")
	if err := cfg.Save(staged); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, err := os.ReadFile(staged)
	if err != nil {
		t.Fatal(err)
	}
	replaceFile(t, path, data)

	select {
	case got := <-reloads:
		if !got.Inspector.APStateOffset {
			t.Error("reloaded config should carry the new offset")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Watch() = %v, want context.Canceled", err)
	}
}

// replaceFile swaps the file in with a rename so the watcher sees one event
func replaceFile(t *testing.T, path string, data []byte) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherMissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope", "wifiutils.yaml"), nil)
	if err := w.Watch(context.Background()); err == nil {
		t.Error("expected error watching a missing directory")
	}
}
