// Package worker manages the roster of LLM workers and executes individual
// workflow tasks against them.
package worker

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/calebmorris/foreman/pkg/models"
)

// RosterFileName is the roster file looked up inside the project's
// .foreman directory.
const RosterFileName = "workers.yaml"

// rosterFile is the on-disk shape of a worker roster.
type rosterFile struct {
	Workers []models.Worker `yaml:"workers"`
}

// LoadRoster reads the worker roster from dir/.foreman/workers.yaml.
// A missing file yields the default roster rather than an error so a
// fresh project works without any setup.
func LoadRoster(dir string) ([]models.Worker, error) {
	path := filepath.Join(dir, ".foreman", RosterFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRoster(), nil
		}
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}

	workers := make([]models.Worker, 0, len(file.Workers))
	for i, w := range file.Workers {
		if w.ID == "" {
			return nil, fmt.Errorf("roster entry %d: missing id", i)
		}
		if w.Role == "" {
			w.Role = "general"
		}
		if w.Status == "" {
			w.Status = models.WorkerIdle
		}
		workers = append(workers, w)
	}
	return workers, nil
}

// SaveRoster writes the roster to dir/.foreman/workers.yaml, creating the
// directory if needed.
func SaveRoster(dir string, workers []models.Worker) error {
	foremanDir := filepath.Join(dir, ".foreman")
	if err := os.MkdirAll(foremanDir, 0o755); err != nil {
		return fmt.Errorf("create .foreman dir: %w", err)
	}

	data, err := yaml.Marshal(rosterFile{Workers: workers})
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	if err := os.WriteFile(filepath.Join(foremanDir, RosterFileName), data, 0o644); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	return nil
}

// DirSource loads the roster from a project directory on each request, so
// roster edits take effect without restarting.
type DirSource struct {
	// Dir is the project root containing the .foreman directory.
	Dir string
}

// ListWorkers implements the roster lookup over the directory.
func (d DirSource) ListWorkers() ([]models.Worker, error) {
	return LoadRoster(d.Dir)
}

// DefaultRoster returns the built-in worker set used when no roster file
// exists.
func DefaultRoster() []models.Worker {
	return []models.Worker{
		{
			ID:      "worker-general",
			Name:    "Generalist",
			Role:    "general",
			Status:  models.WorkerIdle,
			Persona: "You are a capable generalist who handles any kind of task with care.",
		},
		{
			ID:      "worker-engineer",
			Name:    "Engineer",
			Role:    "engineer",
			Status:  models.WorkerIdle,
			Persona: "You are a senior software engineer. You write clear, well-tested code and explain technical tradeoffs.",
		},
		{
			ID:      "worker-researcher",
			Name:    "Researcher",
			Role:    "researcher",
			Status:  models.WorkerIdle,
			Persona: "You are a meticulous researcher. You gather facts, cite assumptions, and summarize findings concisely.",
		},
		{
			ID:      "worker-writer",
			Name:    "Writer",
			Role:    "writer",
			Status:  models.WorkerIdle,
			Persona: "You are a professional writer. You produce polished, well-structured prose tailored to the audience.",
		},
	}
}
