package entities

import "time"

// Assignment records one identifier written onto an element
type Assignment struct {
	SessionID  string    `yaml:"session_id" json:"session_id"`
	URL        string    `yaml:"url,omitempty" json:"url,omitempty"`
	Tag        string    `yaml:"tag" json:"tag"`
	Identifier string    `yaml:"identifier" json:"identifier"`
	Fallback   bool      `yaml:"fallback,omitempty" json:"fallback,omitempty"` // structural path, no text found
	AssignedAt time.Time `yaml:"assigned_at" json:"assigned_at"`
}
