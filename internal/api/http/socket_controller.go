package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/RohanJose/Chat-APP/internal/domain"
	"github.com/RohanJose/Chat-APP/internal/service"
	"github.com/RohanJose/Chat-APP/lib/logger/sl"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type SocketController struct {
	matches  service.MatchInteractor
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewSocketController(matches service.MatchInteractor, log *slog.Logger) *SocketController {
	return &SocketController{
		matches: matches,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Serve upgrades the request and runs the connection's event loop until the
// transport drops. All outbound traffic flows through the connection's event
// channel so a single writer owns the socket.
func (c *SocketController) Serve(ctx *gin.Context) {
	sock, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Error("websocket upgrade failed", sl.Err(err))
		return
	}

	id := uuid.New().String()
	conn := c.matches.Connect(id)

	go writePump(sock, conn)

	conn.EnqueueEvent(domain.Event{
		Event: domain.EventConnected,
		Data: domain.ConnectedData{
			Message:      "Connected to chat server",
			ConnectionID: id,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		},
	})

	for {
		var env domain.Envelope
		if err := sock.ReadJSON(&env); err != nil {
			c.matches.Disconnect(context.Background(), id)
			sock.Close()
			return
		}
		c.dispatch(context.Background(), conn, env)
	}
}

func (c *SocketController) dispatch(ctx context.Context, conn *domain.Connection, env domain.Envelope) {
	var err error

	switch env.Event {
	case domain.EventStartMatch:
		err = c.handleStartMatch(ctx, conn, env.Data)
	case domain.EventOffer:
		var data domain.OfferData
		if err = json.Unmarshal(env.Data, &data); err == nil {
			err = c.matches.ForwardSignal(ctx, conn.ID, data.RoomID, domain.EventOffer,
				domain.OfferData{Offer: data.Offer})
		}
	case domain.EventAnswer:
		var data domain.AnswerData
		if err = json.Unmarshal(env.Data, &data); err == nil {
			err = c.matches.ForwardSignal(ctx, conn.ID, data.RoomID, domain.EventAnswer,
				domain.AnswerData{Answer: data.Answer})
		}
	case domain.EventCandidate:
		var data domain.CandidateData
		if err = json.Unmarshal(env.Data, &data); err == nil {
			err = c.matches.ForwardSignal(ctx, conn.ID, data.RoomID, domain.EventCandidate,
				domain.CandidateData{Candidate: data.Candidate})
		}
	case domain.EventSendMessage:
		var data domain.SendMessageData
		if err = json.Unmarshal(env.Data, &data); err == nil {
			err = c.matches.SendChat(ctx, conn.ID, domain.ChatMessage{
				ID:        data.MessageID,
				RoomID:    data.RoomID,
				SenderID:  conn.ID,
				Text:      data.Text,
				Timestamp: data.Timestamp,
			})
		}
	case domain.EventNext:
		var data domain.RoomRefData
		if err = json.Unmarshal(env.Data, &data); err == nil {
			err = c.matches.Next(ctx, conn.ID, data.RoomID)
		}
	case domain.EventLeave:
		var data domain.RoomRefData
		if err = json.Unmarshal(env.Data, &data); err == nil {
			err = c.matches.Leave(ctx, conn.ID, data.RoomID)
		}
	default:
		conn.EnqueueEvent(domain.ErrorEvent("Unknown event: " + env.Event))
		return
	}

	if err != nil {
		c.log.Debug("event rejected", "event", env.Event, "conn_id", conn.ID, sl.Err(err))
		conn.EnqueueEvent(domain.ErrorEvent(errorMessage(env.Event, err)))
	}
}

func (c *SocketController) handleStartMatch(ctx context.Context, conn *domain.Connection, raw json.RawMessage) error {
	var data domain.StartMatchData
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return err
		}
	}
	if data.Mode == "" {
		data.Mode = string(domain.ModeText)
	}
	mode, err := domain.ParseMode(data.Mode)
	if err != nil {
		return err
	}

	_, err = c.matches.RequestMatch(ctx, conn.ID, data.Username, mode)
	return err
}

func errorMessage(event string, err error) string {
	switch {
	case errors.Is(err, service.ErrNotRoomMember):
		return "Not a member of this room"
	case errors.Is(err, service.ErrInvalidMessage):
		return "Invalid message payload"
	case errors.Is(err, domain.ErrInvalidMode):
		return "Invalid chat mode"
	default:
		return "Failed to process " + event
	}
}

func writePump(sock *websocket.Conn, conn *domain.Connection) {
	for event := range conn.Events() {
		if err := sock.WriteJSON(event); err != nil {
			return
		}
	}
	sock.Close()
}
