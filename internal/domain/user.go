package domain

import "time"

// User is the durable profile of a participant as seen by the history store.
// Identity is whatever the caller supplied; there is no authentication.
type User struct {
	ID          string    `json:"userId"`
	Username    string    `json:"username"`
	Mode        Mode      `json:"chatType"`
	IsWaiting   bool      `json:"isWaiting"`
	CurrentRoom string    `json:"currentRoom,omitempty"`
	LastActive  time.Time `json:"lastActive"`
}

func NewUser(id, username string, mode Mode) *User {
	if username == "" {
		username = DefaultDisplayName
	}
	return &User{
		ID:         id,
		Username:   username,
		Mode:       mode,
		LastActive: time.Now().UTC(),
	}
}
