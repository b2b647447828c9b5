package control

import (
	"testing"
	"time"
)

func TestSendAndDetectCancel(t *testing.T) {
	sm, err := NewSignalManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewSignalManager: %v", err)
	}
	defer sm.Close()

	if sm.CancelRequested("wf-1") {
		t.Fatal("no signal sent yet")
	}

	if err := sm.SendCancel("wf-1"); err != nil {
		t.Fatalf("SendCancel: %v", err)
	}

	// Stat fallback works regardless of watcher delivery.
	if !sm.CancelRequested("wf-1") {
		t.Error("cancel signal not detected")
	}
	if sm.CancelRequested("wf-other") {
		t.Error("unrelated workflow reported cancelled")
	}
}

func TestWatcherDeliversCancel(t *testing.T) {
	sm, err := NewSignalManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewSignalManager: %v", err)
	}
	defer sm.Close()

	if sm.watcher == nil {
		t.Skip("fsnotify unavailable on this platform")
	}

	if err := sm.SendCancel("wf-42"); err != nil {
		t.Fatalf("SendCancel: %v", err)
	}

	select {
	case id := <-sm.Cancels():
		if id != "wf-42" {
			t.Errorf("got cancel for %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never delivered the cancel")
	}
}

func TestScanDeliversCancelWithoutWatcher(t *testing.T) {
	dir := t.TempDir()
	sm, err := NewSignalManager(dir)
	if err != nil {
		t.Fatalf("NewSignalManager: %v", err)
	}
	defer sm.Close()

	// Drop the watcher to exercise the directory-scan mode directly.
	if sm.watcher != nil {
		sm.watcher.Close()
		sm.watcher = nil
	}

	if err := sm.SendCancel("wf-7"); err != nil {
		t.Fatalf("SendCancel: %v", err)
	}

	sm.scanSignals()

	select {
	case id := <-sm.Cancels():
		if id != "wf-7" {
			t.Errorf("got cancel for %q", id)
		}
	default:
		t.Fatal("scan did not deliver the cancel")
	}

	// A second scan must not deliver the same signal again.
	sm.scanSignals()
	select {
	case id := <-sm.Cancels():
		t.Errorf("duplicate delivery for %q", id)
	default:
	}
}

func TestClearResetsSignal(t *testing.T) {
	sm, err := NewSignalManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewSignalManager: %v", err)
	}
	defer sm.Close()

	if err := sm.SendCancel("wf-1"); err != nil {
		t.Fatalf("SendCancel: %v", err)
	}
	if !sm.CancelRequested("wf-1") {
		t.Fatal("signal not detected")
	}

	sm.Clear("wf-1")
	if sm.CancelRequested("wf-1") {
		t.Error("signal survived Clear")
	}
}
