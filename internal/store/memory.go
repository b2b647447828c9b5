package store

import (
	"sort"
	"sync"

	"github.com/calebmorris/foreman/pkg/models"
)

// MemoryStore is an in-memory Store implementation used for tests and for
// ephemeral runs that should not touch disk.
type MemoryStore struct {
	mu        sync.RWMutex
	workflows map[string]models.Workflow
	tasks     map[string]models.WorkflowTask
	deps      map[string][]models.TaskDependency
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows: make(map[string]models.Workflow),
		tasks:     make(map[string]models.WorkflowTask),
		deps:      make(map[string][]models.TaskDependency),
	}
}

// Close is a no-op for the memory backend.
func (m *MemoryStore) Close() error { return nil }

// Migrate is a no-op for the memory backend.
func (m *MemoryStore) Migrate() error { return nil }

func (m *MemoryStore) CreateWorkflow(w *models.Workflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[w.ID] = *w
	return nil
}

func (m *MemoryStore) GetWorkflow(id string) (*models.Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workflows[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (m *MemoryStore) UpdateWorkflow(w *models.Workflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[w.ID] = *w
	return nil
}

func (m *MemoryStore) ListWorkflows() ([]models.Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	workflows := make([]models.Workflow, 0, len(m.workflows))
	for _, w := range m.workflows {
		workflows = append(workflows, w)
	}
	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})
	return workflows, nil
}

func (m *MemoryStore) CreateTask(t *models.WorkflowTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = *t
	return nil
}

func (m *MemoryStore) GetTask(id string) (*models.WorkflowTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *MemoryStore) UpdateTask(t *models.WorkflowTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = *t
	return nil
}

func (m *MemoryStore) ListTasksByWorkflow(workflowID string) ([]models.WorkflowTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var tasks []models.WorkflowTask
	for _, t := range m.tasks {
		if t.WorkflowID == workflowID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].OrderIndex < tasks[j].OrderIndex
	})
	return tasks, nil
}

func (m *MemoryStore) CreateDependency(d *models.TaskDependency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deps[d.WorkflowID] = append(m.deps[d.WorkflowID], *d)
	return nil
}

func (m *MemoryStore) ListDependenciesByWorkflow(workflowID string) ([]models.TaskDependency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	deps := make([]models.TaskDependency, len(m.deps[workflowID]))
	copy(deps, m.deps[workflowID])
	return deps, nil
}
