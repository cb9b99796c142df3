package domain

import "time"

// WaitingEntry is a queued match request. It references the connection by ID
// only, never by containment, so a connection dropping mid-wait leaves at
// worst a dead entry that dequeue skips over.
type WaitingEntry struct {
	ConnectionID string
	DisplayName  string
	Mode         Mode
	EnqueuedAt   time.Time
}
