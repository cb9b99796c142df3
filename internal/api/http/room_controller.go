package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/RohanJose/Chat-APP/internal/api/http/converter"
	"github.com/RohanJose/Chat-APP/internal/domain"
	"github.com/RohanJose/Chat-APP/internal/repository"
	"github.com/RohanJose/Chat-APP/internal/service"
	"github.com/RohanJose/Chat-APP/lib/logger/sl"
	"github.com/gin-gonic/gin"
)

// RoomController is the poll-based REST surface: a legacy entry point into
// the same matchmaker the socket uses, plus lookups against the history
// store.
type RoomController struct {
	matches service.MatchInteractor
	history repository.RoomRepository
	log     *slog.Logger
}

func NewRoomController(matches service.MatchInteractor, history repository.RoomRepository, log *slog.Logger) *RoomController {
	return &RoomController{matches: matches, history: history, log: log}
}

// CreateRoom handles POST /api/rooms: pair-or-wait for a caller that polls
// instead of holding a socket.
func (c *RoomController) CreateRoom(ctx *gin.Context) {
	type request struct {
		UserID   string `json:"userId" binding:"required"`
		Username string `json:"username" binding:"required"`
		ChatType string `json:"chatType" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	mode, err := domain.ParseMode(req.ChatType)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat type"})
		return
	}

	conn := c.matches.EnsureConnection(req.UserID, true)

	// A previous poll may already have matched this caller.
	if roomID := conn.Room(); roomID != "" {
		if room, ok := c.matches.GetRoom(roomID); ok {
			ctx.JSON(http.StatusOK, matchedResponse(room))
			return
		}
	}

	room, err := c.matches.RequestMatch(ctx.Request.Context(), req.UserID, req.Username, mode)
	if err != nil {
		c.log.Error("rest match failed", "user_id", req.UserID, sl.Err(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
		return
	}

	if room != nil {
		ctx.JSON(http.StatusOK, matchedResponse(room))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":      true,
		"waiting":      true,
		"roomName":     nil,
		"participants": []any{},
		"waitingCount": c.matches.QueueSize(mode),
		"message":      "Waiting for a match...",
	})
}

func matchedResponse(room *domain.Room) gin.H {
	return gin.H{
		"success":      true,
		"roomName":     room.ID,
		"participants": converter.MembersToApi(room.Members),
		"message":      "Match found!",
	}
}

// GetRoom handles GET /api/rooms/:roomID against the history store.
func (c *RoomController) GetRoom(ctx *gin.Context) {
	record, err := c.history.GetByID(ctx.Request.Context(), ctx.Param("roomID"))
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get room"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"room": converter.RoomRecordToApi(record)})
}

// EndRoom handles POST /api/rooms/:roomID/end. The caller, when named, is
// taken through the normal lifecycle teardown; the stored record is marked
// ended either way.
func (c *RoomController) EndRoom(ctx *gin.Context) {
	type request struct {
		UserID string `json:"userId"`
	}

	roomID := ctx.Param("roomID")

	var req request
	_ = ctx.ShouldBindJSON(&req)

	if req.UserID != "" {
		if err := c.matches.Leave(ctx.Request.Context(), req.UserID, roomID); err != nil && !errors.Is(err, service.ErrNotRoomMember) {
			c.log.Warn("end room teardown failed", "room_id", roomID, sl.Err(err))
		}
	}

	if err := c.history.End(ctx.Request.Context(), roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end room"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Room ended successfully"})
}

// WaitingStatus handles GET /api/rooms/waiting/status?chatType=.
func (c *RoomController) WaitingStatus(ctx *gin.Context) {
	mode, err := domain.ParseMode(ctx.Query("chatType"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat type"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"count": c.matches.QueueSize(mode)})
}

// OnlineCount handles GET /api/online.
func (c *RoomController) OnlineCount(ctx *gin.Context) {
	stats := c.matches.Stats()
	activeUsers := stats.ActiveRooms * 2

	ctx.JSON(http.StatusOK, gin.H{
		"total":        stats.TextWaiting + stats.VideoWaiting + activeUsers,
		"textWaiting":  stats.TextWaiting,
		"videoWaiting": stats.VideoWaiting,
		"activeRooms":  stats.ActiveRooms,
		"activeUsers":  activeUsers,
	})
}

// Health handles GET /health.
func (c *RoomController) Health(ctx *gin.Context) {
	stats := c.matches.Stats()

	ctx.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"connections": stats.Connections,
		"waitingQueues": gin.H{
			"text":  stats.TextWaiting,
			"video": stats.VideoWaiting,
		},
		"activeRooms": stats.ActiveRooms,
	})
}
