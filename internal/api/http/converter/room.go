package converter

import (
	"time"

	"github.com/RohanJose/Chat-APP/internal/domain"
)

type RoomRecordResponse struct {
	RoomName     string           `json:"roomName"`
	ChatType     string           `json:"chatType"`
	Status       string           `json:"status"`
	Participants []MemberResponse `json:"participants"`
	CreatedAt    time.Time        `json:"createdAt"`
	EndedAt      *time.Time       `json:"endedAt,omitempty"`
}

type MemberResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func RoomRecordToApi(r *domain.RoomRecord) *RoomRecordResponse {
	return &RoomRecordResponse{
		RoomName:     r.ID,
		ChatType:     string(r.Mode),
		Status:       string(r.Status),
		Participants: MembersToApi(r.Participants),
		CreatedAt:    r.CreatedAt,
		EndedAt:      r.EndedAt,
	}
}

func MembersToApi(members []domain.RoomMember) []MemberResponse {
	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, MemberResponse{ID: m.ID, Username: m.Username})
	}
	return out
}
