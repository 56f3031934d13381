package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ui_autoid/domain/entities"
	"ui_autoid/domain/interfaces"

	"gopkg.in/yaml.v3"
)

const assignmentsFile = "assignments.yaml"

type assignmentLog struct {
	path string
	mu   sync.Mutex
}

type logFile struct {
	Assignments []entities.Assignment `yaml:"assignments"`
}

// NewAssignmentLog - creates the assignment log under stateDir
func NewAssignmentLog(stateDir string) (interfaces.AssignmentLog, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &assignmentLog{
		path: filepath.Join(stateDir, assignmentsFile),
	}, nil
}

// Append - adds assignments to the log file
func (l *assignmentLog) Append(assignments []entities.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.read()
	if err != nil {
		return err
	}
	current.Assignments = append(current.Assignments, assignments...)
	return l.write(current)
}

// Load - returns every logged assignment
func (l *assignmentLog) Load() ([]entities.Assignment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.read()
	if err != nil {
		return nil, err
	}
	if current.Assignments == nil {
		return []entities.Assignment{}, nil
	}
	return current.Assignments, nil
}

// Clear - removes the log file
func (l *assignmentLog) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear assignment log: %w", err)
	}
	return nil
}

func (l *assignmentLog) read() (logFile, error) {
	var current logFile

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return current, nil
		}
		return current, fmt.Errorf("failed to read assignment log: %w", err)
	}

	if err := yaml.Unmarshal(data, &current); err != nil {
		return current, fmt.Errorf("failed to parse assignment log: %w", err)
	}
	return current, nil
}

func (l *assignmentLog) write(current logFile) error {
	data, err := yaml.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode assignment log: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".assignments-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write assignment log: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write assignment log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write assignment log: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("failed to write assignment log: %w", err)
	}
	return nil
}
