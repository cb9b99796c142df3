package model

import "time"

type Room struct {
	ID           string `gorm:"size:64;primaryKey"`
	Mode         string `gorm:"size:16;not null;index"`
	Status       string `gorm:"size:16;not null;index"`
	CreatedAt    time.Time
	EndedAt      *time.Time
	Participants []Participant `gorm:"constraint:OnDelete:CASCADE"`
}

type Participant struct {
	ID       uint   `gorm:"primaryKey"`
	RoomID   string `gorm:"size:64;index;not null"`
	ConnID   string `gorm:"size:64;index;not null"`
	Username string `gorm:"size:255;not null"`
}

type User struct {
	ID          string    `gorm:"size:64;primaryKey"`
	Username    string    `gorm:"size:255;not null"`
	Mode        string    `gorm:"size:16;not null"`
	IsWaiting   bool      `gorm:"not null"`
	CurrentRoom *string   `gorm:"size:64;index"`
	LastActive  time.Time `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
