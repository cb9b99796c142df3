package domain

import "time"

// RoomMember is the slice of connection identity a room needs for
// notifications: the ID and the display name at pairing time.
type RoomMember struct {
	ID       string
	Username string
}

// Room is an active pairing between exactly two connections. Membership only
// shrinks: the lifecycle manager removes members one at a time and the
// registry deletes the room the instant it becomes empty.
type Room struct {
	ID        string
	Mode      Mode
	Members   []RoomMember
	CreatedAt time.Time
}

func NewRoom(id string, mode Mode, a, b RoomMember) *Room {
	return &Room{
		ID:        id,
		Mode:      mode,
		Members:   []RoomMember{a, b},
		CreatedAt: time.Now().UTC(),
	}
}

func (r *Room) Has(connectionID string) bool {
	for _, m := range r.Members {
		if m.ID == connectionID {
			return true
		}
	}
	return false
}

// Other returns the member that is not connectionID. ok is false when the
// room has no other member or connectionID is not a member.
func (r *Room) Other(connectionID string) (RoomMember, bool) {
	if !r.Has(connectionID) {
		return RoomMember{}, false
	}
	for _, m := range r.Members {
		if m.ID != connectionID {
			return m, true
		}
	}
	return RoomMember{}, false
}
