package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/RohanJose/Chat-APP/internal/core"
	"github.com/RohanJose/Chat-APP/internal/domain"
	"github.com/RohanJose/Chat-APP/internal/repository"
	"github.com/RohanJose/Chat-APP/lib/logger/sl"
)

var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrNotRoomMember     = errors.New("not a member of this room")
	ErrInvalidMessage    = errors.New("invalid message payload")
)

const (
	waitingMessage      = "Waiting for a partner..."
	nextWaitingMessage  = "Looking for a new partner..."
	partnerLeftMessage  = "Your partner has left the chat"
	disconnectedMessage = "Your partner has disconnected"

	persistTimeout = 5 * time.Second
)

// MatchService is the session core: matchmaker, signaling relay and lifecycle
// manager over the three in-memory structures. A single mutex serializes
// every compound read-then-write transaction, so two connections racing for
// the same queue head can never both receive a match.
type MatchService struct {
	log     *slog.Logger
	conns   *core.ConnectionRegistry
	queue   *core.WaitingQueue
	rooms   *core.RoomRegistry
	history repository.RoomRepository
	users   repository.UserRepository

	mu sync.Mutex

	waitingTTL    time.Duration
	sweepInterval time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

func NewMatchService(history repository.RoomRepository, users repository.UserRepository, log *slog.Logger, waitingTTL, sweepInterval time.Duration) *MatchService {
	if log == nil {
		log = slog.Default()
	}
	return &MatchService{
		log:           log,
		conns:         core.NewConnectionRegistry(),
		queue:         core.NewWaitingQueue(),
		rooms:         core.NewRoomRegistry(),
		history:       history,
		users:         users,
		waitingTTL:    waitingTTL,
		sweepInterval: sweepInterval,
		stopCh:        make(chan struct{}),
	}
}

// Start launches the periodic sweep that evicts waiters older than the
// configured TTL. It goes through the same removal path as a disconnect.
func (s *MatchService) Start() {
	if s.sweepInterval <= 0 || s.waitingTTL <= 0 {
		return
	}
	s.wg.Add(1)
	go s.sweepLoop()
}

func (s *MatchService) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.wg.Wait()
}

// Connect registers a fresh connection with default metadata.
func (s *MatchService) Connect(connectionID string) *domain.Connection {
	conn := s.conns.Register(connectionID)
	s.log.Info("connection registered", "conn_id", connectionID)
	return conn
}

// EnsureConnection returns the existing connection for id or registers a new
// one. The polling REST entry point uses it so repeated polls share one
// connection record.
func (s *MatchService) EnsureConnection(connectionID string, transient bool) *domain.Connection {
	if conn, ok := s.conns.Lookup(connectionID); ok {
		return conn
	}
	conn := s.conns.Register(connectionID)
	conn.Transient = transient
	return conn
}

// GetRoom returns a live room from the registry.
func (s *MatchService) GetRoom(roomID string) (*domain.Room, bool) {
	return s.rooms.Get(roomID)
}

// RequestMatch pairs the caller with the oldest live waiter of the same mode,
// or enqueues the caller. Returns the room when a match happened, nil when
// the caller is now waiting.
func (s *MatchService) RequestMatch(ctx context.Context, connectionID, username string, mode domain.Mode) (*domain.Room, error) {
	const op = "service.match.request"
	log := s.log.With("op", op, "conn_id", connectionID, "mode", string(mode))

	conn, ok := s.conns.Lookup(connectionID)
	if !ok {
		return nil, ErrUnknownConnection
	}
	s.conns.SetProfile(connectionID, username, mode)
	username, _ = conn.Profile()

	s.mu.Lock()
	// A connection holds at most one room. A repeat request from a matched
	// connection leaves the old room first, exactly as Next does.
	if prev, ok := s.rooms.RoomFor(connectionID); ok {
		if err := s.teardownLocked(connectionID, prev.ID, partnerLeftMessage); err == nil {
			log.Info("left previous room before rematch", "room_id", prev.ID)
		}
	}
	room, partner := s.matchLocked(conn, username, mode, waitingMessage, true)
	var record *domain.RoomRecord
	if room != nil {
		record = domain.RecordOf(room)
	}
	s.mu.Unlock()

	if room == nil {
		log.Info("enqueued", "queue_size", s.queue.Size(mode))
		s.persistWaiting(connectionID, username, mode)
		return nil, nil
	}

	log.Info("matched", "room_id", room.ID, "partner", partner.ID)
	s.persistMatch(record)
	return room, nil
}

// matchLocked runs the pair-or-enqueue transaction. Callers hold s.mu.
// Dead queue heads are discarded and the next head is tried until a live
// waiter is found or the queue empties.
func (s *MatchService) matchLocked(conn *domain.Connection, username string, mode domain.Mode, waitMsg string, emitWaiting bool) (*domain.Room, *domain.Connection) {
	for {
		entry, ok := s.queue.DequeueHead(mode)
		if !ok {
			s.queue.Enqueue(mode, conn.ID, username)
			if emitWaiting {
				conn.EnqueueEvent(domain.Event{
					Event: domain.EventWaiting,
					Data: domain.WaitingData{
						Message:   waitMsg,
						QueueSize: s.queue.Size(mode),
					},
				})
			}
			return nil, nil
		}

		if entry.ConnectionID == conn.ID {
			// The caller re-requested while still queued; drop the old entry.
			continue
		}

		partner, ok := s.conns.Lookup(entry.ConnectionID)
		if !ok || !partner.Alive() {
			s.log.Debug("skipping dead queue head", "conn_id", entry.ConnectionID)
			continue
		}

		// The caller may hold a stale entry further back in a queue.
		s.queue.Remove(conn.ID)

		room := s.rooms.Create(mode, domain.RoomMember{ID: conn.ID, Username: username},
			domain.RoomMember{ID: partner.ID, Username: entry.DisplayName})
		conn.SetRoom(room.ID)
		partner.SetRoom(room.ID)

		conn.EnqueueEvent(domain.Event{
			Event: domain.EventMatched,
			Data: domain.MatchedData{
				RoomID:  room.ID,
				Partner: domain.PartnerData{ID: partner.ID, Username: entry.DisplayName},
			},
		})
		partner.EnqueueEvent(domain.Event{
			Event: domain.EventMatched,
			Data: domain.MatchedData{
				RoomID:  room.ID,
				Partner: domain.PartnerData{ID: conn.ID, Username: username},
			},
		})

		return room, partner
	}
}

// ForwardSignal relays an opaque negotiation payload to the other member of
// the room. The payload is delivered unmodified and never persisted.
func (s *MatchService) ForwardSignal(ctx context.Context, connectionID, roomID, event string, data any) error {
	const op = "service.match.forward"

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms.Get(roomID)
	if !ok || !room.Has(connectionID) {
		return ErrNotRoomMember
	}

	other, ok := room.Other(connectionID)
	if !ok {
		// Sole remaining member; nothing to deliver to.
		return nil
	}

	partner, ok := s.conns.Lookup(other.ID)
	if !ok {
		s.log.Warn("room member missing from registry", "op", op, "room_id", roomID, "conn_id", other.ID)
		return nil
	}

	partner.EnqueueEvent(domain.Event{Event: event, Data: data})
	return nil
}

// SendChat validates, truncates and relays a chat message to the other room
// member, then acknowledges delivery back to the sender.
func (s *MatchService) SendChat(ctx context.Context, connectionID string, msg domain.ChatMessage) error {
	const op = "service.match.chat"

	if msg.RoomID == "" || msg.ID == "" || msg.Text == "" || msg.Timestamp == "" {
		return ErrInvalidMessage
	}

	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Text == "" {
		return ErrInvalidMessage
	}
	msg.Truncate()

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms.Get(msg.RoomID)
	if !ok || !room.Has(connectionID) {
		return ErrNotRoomMember
	}

	sender, ok := s.conns.Lookup(connectionID)
	if !ok {
		return ErrUnknownConnection
	}

	if other, ok := room.Other(connectionID); ok {
		if partner, ok := s.conns.Lookup(other.ID); ok {
			partner.EnqueueEvent(domain.Event{
				Event: domain.EventReceiveMessage,
				Data: domain.ReceiveMessageData{
					MessageID:      msg.ID,
					Text:           msg.Text,
					SenderID:       connectionID,
					SenderUsername: sender.DisplayName(),
					Timestamp:      msg.Timestamp,
				},
			})
		}
	}

	// Local transport acknowledgment, not an end-to-end read receipt.
	sender.EnqueueEvent(domain.Event{
		Event: domain.EventMessageDelivered,
		Data: domain.MessageDeliveredData{
			MessageID: msg.ID,
			Status:    "delivered",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})

	s.log.Debug("chat relayed", "op", op, "room_id", msg.RoomID, "message_id", msg.ID)
	return nil
}

// Leave tears the caller out of the room and notifies the remaining member.
func (s *MatchService) Leave(ctx context.Context, connectionID, roomID string) error {
	const op = "service.match.leave"

	s.mu.Lock()
	err := s.teardownLocked(connectionID, roomID, partnerLeftMessage)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.log.Info("left room", "op", op, "conn_id", connectionID, "room_id", roomID)
	return nil
}

// Next is leave plus an immediate re-match using the caller's last-known
// profile, all in one critical section so no third connection can be matched
// into the gap between teardown and requeue.
func (s *MatchService) Next(ctx context.Context, connectionID, roomID string) error {
	const op = "service.match.next"

	conn, ok := s.conns.Lookup(connectionID)
	if !ok {
		return ErrUnknownConnection
	}
	username, mode := conn.Profile()

	s.mu.Lock()
	if err := s.teardownLocked(connectionID, roomID, partnerLeftMessage); err != nil {
		s.mu.Unlock()
		return err
	}

	conn.EnqueueEvent(domain.Event{
		Event: domain.EventWaiting,
		Data:  domain.MessageData{Message: nextWaitingMessage},
	})

	// The previous profile is reused without re-checking transport liveness;
	// a dead requeued entry is skipped at the next dequeue.
	room, partner := s.matchLocked(conn, username, mode, nextWaitingMessage, false)
	var record *domain.RoomRecord
	if room != nil {
		record = domain.RecordOf(room)
	}
	s.mu.Unlock()

	if room != nil {
		s.log.Info("rematched", "op", op, "conn_id", connectionID, "room_id", room.ID, "partner", partner.ID)
		s.persistMatch(record)
	} else {
		s.log.Info("requeued", "op", op, "conn_id", connectionID, "mode", string(mode))
		s.persistWaiting(connectionID, username, mode)
	}
	return nil
}

// Disconnect cleans up everything a connection may hold: its queue entry, its
// room membership, and finally its registry entry. Idempotent; calling it for
// an already-cleaned-up identifier is a no-op.
func (s *MatchService) Disconnect(ctx context.Context, connectionID string) {
	const op = "service.match.disconnect"

	conn, ok := s.conns.Lookup(connectionID)
	if !ok {
		return
	}

	s.mu.Lock()
	s.queue.Remove(connectionID)
	if room, ok := s.rooms.RoomFor(connectionID); ok {
		if err := s.teardownLocked(connectionID, room.ID, disconnectedMessage); err != nil {
			s.log.Error("disconnect teardown failed", "op", op, sl.Err(err))
		}
	}
	s.mu.Unlock()

	conn.Close()
	// Unregister last, after all other structures released the identifier.
	s.conns.Unregister(connectionID)

	s.log.Info("disconnected", "op", op, "conn_id", connectionID)
}

// teardownLocked removes the member from the room, notifies the survivor and
// ends the history record once the room empties. Callers hold s.mu.
func (s *MatchService) teardownLocked(connectionID, roomID, notice string) error {
	if !s.rooms.IsMember(roomID, connectionID) {
		return ErrNotRoomMember
	}

	remaining, removed := s.rooms.RemoveMember(roomID, connectionID)
	if !removed {
		return ErrNotRoomMember
	}

	if conn, ok := s.conns.Lookup(connectionID); ok {
		conn.SetRoom("")
	}

	if remaining == nil {
		s.persistEnded(roomID)
		return nil
	}

	if len(remaining.Members) != 1 {
		// Invariant violation: a live room must hold one or two members.
		// Tear it down rather than leave it inconsistent.
		s.log.Error("room in inconsistent state, destroying",
			"room_id", roomID, "members", len(remaining.Members))
		for _, m := range remaining.Members {
			s.rooms.RemoveMember(roomID, m.ID)
		}
		s.persistEnded(roomID)
		return nil
	}

	if partner, ok := s.conns.Lookup(remaining.Members[0].ID); ok {
		partner.EnqueueEvent(domain.Event{
			Event: domain.EventPartnerLeft,
			Data:  domain.MessageData{Message: notice},
		})
	}
	return nil
}

func (s *MatchService) QueueSize(mode domain.Mode) int {
	return s.queue.Size(mode)
}

func (s *MatchService) Stats() Stats {
	return Stats{
		Connections:  s.conns.Count(),
		TextWaiting:  s.queue.Size(domain.ModeText),
		VideoWaiting: s.queue.Size(domain.ModeVideo),
		ActiveRooms:  s.rooms.Count(),
	}
}

func (s *MatchService) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepStaleWaiters()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MatchService) sweepStaleWaiters() {
	cutoff := time.Now().UTC().Add(-s.waitingTTL)

	// Snapshot and removal happen under the same lock, so an entry refreshed
	// by a concurrent re-enqueue is never evicted on its old timestamp.
	s.mu.Lock()
	stale := s.queue.Older(cutoff)
	for _, entry := range stale {
		if !s.queue.Remove(entry.ConnectionID) {
			continue
		}
		s.log.Info("evicted stale waiter", "conn_id", entry.ConnectionID, "mode", string(entry.Mode))

		conn, ok := s.conns.Lookup(entry.ConnectionID)
		if ok && conn.Transient && conn.Room() == "" {
			conn.Close()
			s.conns.Unregister(entry.ConnectionID)
		}
	}
	s.mu.Unlock()
}

// Persistence below is fire-and-forget: the durable store is never awaited
// before completing a match or forward.

func (s *MatchService) persistMatch(record *domain.RoomRecord) {
	if s.history == nil || record == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := s.history.Create(ctx, record); err != nil {
			s.log.Warn("failed to persist room", "room_id", record.ID, sl.Err(err))
		}
		if s.users == nil {
			return
		}
		for _, m := range record.Participants {
			user := domain.NewUser(m.ID, m.Username, record.Mode)
			user.CurrentRoom = record.ID
			if err := s.users.Upsert(ctx, user); err != nil {
				s.log.Warn("failed to persist participant", "conn_id", m.ID, sl.Err(err))
			}
		}
	}()
}

func (s *MatchService) persistWaiting(connectionID, username string, mode domain.Mode) {
	if s.users == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		user := domain.NewUser(connectionID, username, mode)
		user.IsWaiting = true
		if err := s.users.Upsert(ctx, user); err != nil {
			s.log.Warn("failed to persist waiter", "conn_id", connectionID, sl.Err(err))
		}
	}()
}

func (s *MatchService) persistEnded(roomID string) {
	if s.history == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := s.history.End(ctx, roomID); err != nil && !errors.Is(err, repository.ErrRoomNotFound) {
			s.log.Warn("failed to mark room ended", "room_id", roomID, sl.Err(err))
		}
		if s.users != nil {
			if err := s.users.ClearRoom(ctx, roomID); err != nil {
				s.log.Warn("failed to clear room participants", "room_id", roomID, sl.Err(err))
			}
		}
	}()
}
