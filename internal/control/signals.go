// Package control implements file-based run control signals under the
// project's .foreman directory, so a second foreman process (or the user)
// can cancel a workflow that is looping in another process.
package control

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const cancelPrefix = "cancel-"

// SignalManager watches the signals directory for cancellation requests.
type SignalManager struct {
	signalsDir string

	mu        sync.RWMutex
	cancelled map[string]bool

	watcher *fsnotify.Watcher
	cancels chan string
	done    chan struct{}
}

// NewSignalManager creates a signal manager for the given project root.
// The watcher is best-effort: if it cannot be started, stat-based polling
// via CancelRequested still works.
func NewSignalManager(projectRoot string) (*SignalManager, error) {
	signalsDir := filepath.Join(projectRoot, ".foreman", "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	sm := &SignalManager{
		signalsDir: signalsDir,
		cancelled:  make(map[string]bool),
		cancels:    make(chan string, 16),
		done:       make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		go sm.pollSignals()
		return sm, nil
	}
	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		go sm.pollSignals()
		return sm, nil
	}
	sm.watcher = watcher

	go sm.watchSignals()

	return sm, nil
}

// watchSignals monitors the signals directory for cancel files.
func (sm *SignalManager) watchSignals() {
	for {
		select {
		case <-sm.done:
			return
		case event, ok := <-sm.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == 0 && event.Op&fsnotify.Write == 0 {
				continue
			}
			base := filepath.Base(event.Name)
			if !strings.HasPrefix(base, cancelPrefix) {
				continue
			}
			workflowID := strings.TrimPrefix(base, cancelPrefix)

			sm.mu.Lock()
			already := sm.cancelled[workflowID]
			sm.cancelled[workflowID] = true
			sm.mu.Unlock()

			if !already {
				select {
				case sm.cancels <- workflowID:
				default:
				}
			}
		case <-sm.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// pollSignals is the degraded mode used when no watcher could be started:
// the signals directory is scanned on a fixed interval instead. Cancels()
// subscribers see the same stream either way.
func (sm *SignalManager) pollSignals() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-sm.done:
			return
		case <-ticker.C:
			sm.scanSignals()
		}
	}
}

// scanSignals reads the signals directory once and delivers any cancel
// files not seen before.
func (sm *SignalManager) scanSignals() {
	entries, err := os.ReadDir(sm.signalsDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, cancelPrefix) {
			continue
		}
		workflowID := strings.TrimPrefix(name, cancelPrefix)

		sm.mu.Lock()
		already := sm.cancelled[workflowID]
		sm.cancelled[workflowID] = true
		sm.mu.Unlock()

		if !already {
			select {
			case sm.cancels <- workflowID:
			default:
			}
		}
	}
}

// Cancels returns a channel of workflow IDs for which a cancel file
// appeared. Run loops subscribe to it alongside their own registries.
func (sm *SignalManager) Cancels() <-chan string {
	return sm.cancels
}

// CancelRequested reports whether a cancel signal exists for the workflow.
// It checks the file directly in case the watcher missed the event.
func (sm *SignalManager) CancelRequested(workflowID string) bool {
	path := filepath.Join(sm.signalsDir, cancelPrefix+workflowID)
	if _, err := os.Stat(path); err == nil {
		sm.mu.Lock()
		sm.cancelled[workflowID] = true
		sm.mu.Unlock()
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.cancelled[workflowID]
}

// SendCancel creates a cancel signal file for the workflow.
func (sm *SignalManager) SendCancel(workflowID string) error {
	path := filepath.Join(sm.signalsDir, cancelPrefix+workflowID)
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Clear removes the cancel signal for a workflow and resets its state.
func (sm *SignalManager) Clear(workflowID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.cancelled, workflowID)
	os.Remove(filepath.Join(sm.signalsDir, cancelPrefix+workflowID))
}

// Close shuts down the signal manager.
func (sm *SignalManager) Close() {
	close(sm.done)
	if sm.watcher != nil {
		sm.watcher.Close()
	}
}
