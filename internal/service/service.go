package service

import (
	"context"

	"github.com/RohanJose/Chat-APP/internal/domain"
)

// Stats is a consistent snapshot of the session core for telemetry.
type Stats struct {
	Connections  int `json:"connections"`
	TextWaiting  int `json:"textWaiting"`
	VideoWaiting int `json:"videoWaiting"`
	ActiveRooms  int `json:"activeRooms"`
}

type MatchInteractor interface {
	Connect(connectionID string) *domain.Connection
	EnsureConnection(connectionID string, transient bool) *domain.Connection
	GetRoom(roomID string) (*domain.Room, bool)
	RequestMatch(ctx context.Context, connectionID, username string, mode domain.Mode) (*domain.Room, error)
	ForwardSignal(ctx context.Context, connectionID, roomID, event string, data any) error
	SendChat(ctx context.Context, connectionID string, msg domain.ChatMessage) error
	Leave(ctx context.Context, connectionID, roomID string) error
	Next(ctx context.Context, connectionID, roomID string) error
	Disconnect(ctx context.Context, connectionID string)
	QueueSize(mode domain.Mode) int
	Stats() Stats
}

type TokenInteractor interface {
	CreateToken(roomName, identity string) (string, error)
}
