package core

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/RohanJose/Chat-APP/internal/domain"
)

const roomIDBytes = 4 // 8 hex chars, the original short-token format

// RoomRegistry owns every live Room record. Generated room IDs are checked
// against all currently live rooms, so uniqueness is guaranteed rather than
// merely probable.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*domain.Room),
	}
}

// Create inserts a room with exactly the two given members under a fresh ID.
func (r *RoomRegistry) Create(mode domain.Mode, a, b domain.RoomMember) *domain.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id string
	for {
		id = generateRoomID()
		if _, exists := r.rooms[id]; !exists {
			break
		}
	}

	room := domain.NewRoom(id, mode, a, b)
	r.rooms[id] = room
	return room
}

func (r *RoomRegistry) Get(roomID string) (*domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// IsMember authorizes relay traffic: every inbound event referencing a room
// is checked against the recorded membership.
func (r *RoomRegistry) IsMember(roomID, connectionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	return ok && room.Has(connectionID)
}

// RemoveMember takes the member out of the room. When the room still has a
// member the updated room is returned so the caller can notify them; when
// membership reaches zero the room is deleted and nil is returned. removed
// reports whether the member was actually present.
func (r *RoomRegistry) RemoveMember(roomID, connectionID string) (remaining *domain.Room, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok || !room.Has(connectionID) {
		return nil, false
	}

	members := room.Members[:0]
	for _, m := range room.Members {
		if m.ID != connectionID {
			members = append(members, m)
		}
	}
	room.Members = members

	if len(room.Members) == 0 {
		delete(r.rooms, roomID)
		return nil, true
	}
	return room, true
}

// RoomFor returns the room the connection is currently a member of, if any.
func (r *RoomRegistry) RoomFor(connectionID string) (*domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.rooms {
		if room.Has(connectionID) {
			return room, true
		}
	}
	return nil, false
}

func (r *RoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func generateRoomID() string {
	buf := make([]byte, roomIDBytes)
	if _, err := rand.Read(buf); err != nil {
		panic("room id entropy unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
