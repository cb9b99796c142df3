package core

import (
	"sync"
	"time"

	"github.com/RohanJose/Chat-APP/internal/domain"
)

// WaitingQueue holds one strict-FIFO sequence of waiters per mode. A
// connection ID occupies at most one entry across both queues at any instant:
// Enqueue evicts any existing entry before appending.
type WaitingQueue struct {
	mu     sync.RWMutex
	queues map[domain.Mode][]*domain.WaitingEntry
}

func NewWaitingQueue() *WaitingQueue {
	return &WaitingQueue{
		queues: map[domain.Mode][]*domain.WaitingEntry{
			domain.ModeText:  {},
			domain.ModeVideo: {},
		},
	}
}

// Enqueue appends a waiter. If the connection was already queued anywhere the
// old entry is removed first; replaced reports whether that happened.
func (q *WaitingQueue) Enqueue(mode domain.Mode, connectionID, displayName string) (replaced bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	replaced = q.removeLocked(connectionID)
	q.queues[mode] = append(q.queues[mode], &domain.WaitingEntry{
		ConnectionID: connectionID,
		DisplayName:  displayName,
		Mode:         mode,
		EnqueuedAt:   time.Now().UTC(),
	})
	return replaced
}

// DequeueHead pops the oldest entry for the mode. Insertion order is queue
// order; there is no priority reordering.
func (q *WaitingQueue) DequeueHead(mode domain.Mode) (*domain.WaitingEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue := q.queues[mode]
	if len(queue) == 0 {
		return nil, false
	}
	head := queue[0]
	q.queues[mode] = queue[1:]
	return head, true
}

// Remove drops the connection from whichever queue holds it.
func (q *WaitingQueue) Remove(connectionID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(connectionID)
}

func (q *WaitingQueue) removeLocked(connectionID string) bool {
	for mode, queue := range q.queues {
		for i, entry := range queue {
			if entry.ConnectionID == connectionID {
				q.queues[mode] = append(queue[:i], queue[i+1:]...)
				return true
			}
		}
	}
	return false
}

func (q *WaitingQueue) Size(mode domain.Mode) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.queues[mode])
}

// Older returns the entries enqueued before cutoff, across both modes. Used
// by the idle-waiter sweep; removal goes through Remove like any other path.
func (q *WaitingQueue) Older(cutoff time.Time) []*domain.WaitingEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var stale []*domain.WaitingEntry
	for _, queue := range q.queues {
		for _, entry := range queue {
			if entry.EnqueuedAt.Before(cutoff) {
				stale = append(stale, entry)
			}
		}
	}
	return stale
}
