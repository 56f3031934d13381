package interfaces

import "ui_autoid/domain/entities"

// AssignmentLog keeps a report trail of written identifiers.
// It is never used to re-apply identifiers.
type AssignmentLog interface {
	// Append adds assignments to the log
	Append(assignments []entities.Assignment) error

	// Load returns every logged assignment
	Load() ([]entities.Assignment, error)

	// Clear removes all logged assignments
	Clear() error
}
