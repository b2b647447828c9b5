package orchestrator

import "sync"

// cancelRegistry tracks which workflows have a live scheduling loop in this
// process, and which of those have been asked to stop. The loop checks the
// cancel flag at each tick boundary, so cancellation is cooperative: a
// running task finishes before the workflow winds down.
type cancelRegistry struct {
	mu        sync.Mutex
	active    map[string]bool
	cancelled map[string]bool
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{
		active:    make(map[string]bool),
		cancelled: make(map[string]bool),
	}
}

// register records that a scheduling loop for the workflow is live in this
// process.
func (r *cancelRegistry) register(workflowID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[workflowID] = true
}

// isActive reports whether a scheduling loop for the workflow is live here.
// A workflow whose status reads running in the store but has no registration
// belongs to a dead process and cannot observe a cancel flag.
func (r *cancelRegistry) isActive(workflowID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[workflowID]
}

// requestCancel marks a workflow for cancellation.
func (r *cancelRegistry) requestCancel(workflowID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled[workflowID] = true
}

// isCancelled reports whether cancellation was requested for the workflow.
func (r *cancelRegistry) isCancelled(workflowID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled[workflowID]
}

// clear removes a workflow from the registry once execution has wound down,
// so a later retry starts clean.
func (r *cancelRegistry) clear(workflowID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, workflowID)
	delete(r.cancelled, workflowID)
}
