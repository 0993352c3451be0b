package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls a condition until it returns true or timeout expires.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("timeout waiting for: %s", msg)
}

func startWatcher(t *testing.T, path string, debounce time.Duration) *atomic.Int32 {
	t.Helper()
	var calls atomic.Int32
	w, err := New(path, debounce, func(string) { calls.Add(1) }, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	return &calls
}

func TestWriteTriggersChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	calls := startWatcher(t, path, 50*time.Millisecond)

	if err := os.WriteFile(path, []byte(`{"version":1}`), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool { return calls.Load() == 1 }, "change callback")
}

func TestBurstIsDebounced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	calls := startWatcher(t, path, 300*time.Millisecond)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 1 }, "change callback")
	time.Sleep(400 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 callback for a burst, got %d", n)
	}
}

func TestSiblingFilesIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	calls := startWatcher(t, path, 20*time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("expected no callback for sibling file, got %d", n)
	}
}

func TestRenameOverTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	calls := startWatcher(t, path, 50*time.Millisecond)

	tmp := filepath.Join(dir, "scene.json.tmp")
	if err := os.WriteFile(tmp, []byte(`{"version":1}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool { return calls.Load() == 1 }, "change after rename")
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "scene.json"), 0, func(string) {}, nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
