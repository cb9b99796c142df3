package domain

import (
	"errors"
	"sync"
	"time"
)

// Mode partitions matching: text waiters are never paired with video waiters.
type Mode string

const (
	ModeText  Mode = "text"
	ModeVideo Mode = "video"
)

const DefaultDisplayName = "Anonymous"

var ErrInvalidMode = errors.New("invalid chat mode")

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeText, ModeVideo:
		return Mode(s), nil
	}
	return "", ErrInvalidMode
}

// Connection represents one live transport-level session. The connection
// registry is the sole owner; every other structure refers to it by ID only.
type Connection struct {
	ID          string
	ConnectedAt time.Time

	// Transient marks a connection created by the polling REST entry point.
	// Nothing drains its event stream, and the idle sweep may discard it.
	Transient bool

	mu          sync.RWMutex
	displayName string
	mode        Mode
	roomID      string
	closed      bool
	events      chan Event
}

func NewConnection(id string) *Connection {
	return &Connection{
		ID:          id,
		ConnectedAt: time.Now().UTC(),
		displayName: DefaultDisplayName,
		events:      make(chan Event, 32),
	}
}

func (c *Connection) SetProfile(displayName string, mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if displayName == "" {
		displayName = DefaultDisplayName
	}
	c.displayName = displayName
	c.mode = mode
}

func (c *Connection) Profile() (string, Mode) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.displayName, c.mode
}

func (c *Connection) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.displayName
}

func (c *Connection) SetRoom(roomID string) {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
}

func (c *Connection) Room() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// EnqueueEvent hands an outbound event to the connection's writer without
// blocking. Events for a closed or saturated connection are dropped.
func (c *Connection) EnqueueEvent(event Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.events <- event:
	default:
	}
}

// Events exposes the outbound event stream drained by the transport writer.
// The channel is closed when the connection closes.
func (c *Connection) Events() <-chan Event {
	return c.events
}

// Close marks the connection dead and closes its event stream. Idempotent.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

// Alive reports whether the transport behind this connection still accepts
// events. A queued waiter whose connection is no longer alive is skipped at
// dequeue time instead of being surfaced as a match.
func (c *Connection) Alive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}
