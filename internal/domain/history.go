package domain

import "time"

type RoomStatus string

const (
	RoomStatusActive RoomStatus = "active"
	RoomStatusEnded  RoomStatus = "ended"
)

// RoomRecord is the durable trace of a pairing. The session core writes it
// fire-and-forget after a match and never reads it back; the REST lookup does.
type RoomRecord struct {
	ID           string       `json:"roomName"`
	Mode         Mode         `json:"chatType"`
	Status       RoomStatus   `json:"status"`
	Participants []RoomMember `json:"participants"`
	CreatedAt    time.Time    `json:"createdAt"`
	EndedAt      *time.Time   `json:"endedAt,omitempty"`
}

func RecordOf(room *Room) *RoomRecord {
	participants := make([]RoomMember, len(room.Members))
	copy(participants, room.Members)
	return &RoomRecord{
		ID:           room.ID,
		Mode:         room.Mode,
		Status:       RoomStatusActive,
		Participants: participants,
		CreatedAt:    room.CreatedAt,
	}
}
