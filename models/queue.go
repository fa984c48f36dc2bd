package models

import "time"

// QueuedActionType represents the mutation kind recorded in the offline queue
type QueuedActionType string

// Predefined QueuedActionType values
const (
	ActionCreate QueuedActionType = "create"
	ActionUpdate QueuedActionType = "update"
	ActionDelete QueuedActionType = "delete"
)

// IsValid checks if the QueuedActionType is one of the predefined constants
func (a QueuedActionType) IsValid() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// String returns the string representation of the QueuedActionType
func (a QueuedActionType) String() string {
	return string(a)
}

// QueuedOperation is a durably recorded mutation that could not reach the
// remote service. It is removed from the queue only after a successful
// replay; re-enqueueing with the same ID replaces the existing entry.
type QueuedOperation struct {
	ID        string           `json:"id"`
	Type      QueuedActionType `json:"type"`
	Payload   Report           `json:"payload"`
	TargetID  int              `json:"targetId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}
