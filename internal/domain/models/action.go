// internal/domain/models/action.go
package models

// Action is the outcome of reconciling one requirement against live state.
type Action string

const (
	// AlreadyPresent means the requirement was satisfied; nothing was written.
	AlreadyPresent Action = "already_present"
	// Created means the requirement was missing and one write created it
	// (or, in a dry run, would create it).
	Created Action = "created"
)
