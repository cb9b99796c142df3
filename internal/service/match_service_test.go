package service_test

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/RohanJose/Chat-APP/internal/domain"
	"github.com/RohanJose/Chat-APP/internal/repository"
	"github.com/RohanJose/Chat-APP/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newTestService() *service.MatchService {
	return service.NewMatchService(
		repository.NewInMemoryRoomRepository(),
		repository.NewInMemoryUserRepository(),
		testLogger(),
		0, 0,
	)
}

func nextEvent(t *testing.T, conn *domain.Connection) domain.Event {
	t.Helper()
	select {
	case ev, ok := <-conn.Events():
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

func assertNoEvent(t *testing.T, conn *domain.Connection) {
	t.Helper()
	select {
	case ev := <-conn.Events():
		t.Fatalf("unexpected event %q", ev.Event)
	default:
	}
}

func TestRequestMatch_FirstCallerWaits(t *testing.T) {
	s := newTestService()
	a := s.Connect("a")

	room, err := s.RequestMatch(context.Background(), "a", "Alice", domain.ModeText)
	require.NoError(t, err)
	assert.Nil(t, room)

	ev := nextEvent(t, a)
	assert.Equal(t, domain.EventWaiting, ev.Event)
	waiting, ok := ev.Data.(domain.WaitingData)
	require.True(t, ok)
	assert.Equal(t, 1, waiting.QueueSize)
	assert.Equal(t, 1, s.QueueSize(domain.ModeText))
}

func TestRequestMatch_SecondCallerPairsWithFirst(t *testing.T) {
	s := newTestService()
	a := s.Connect("a")
	b := s.Connect("b")

	_, err := s.RequestMatch(context.Background(), "a", "Alice", domain.ModeText)
	require.NoError(t, err)
	nextEvent(t, a) // waiting

	room, err := s.RequestMatch(context.Background(), "b", "Bob", domain.ModeText)
	require.NoError(t, err)
	require.NotNil(t, room)

	bMatch := nextEvent(t, b)
	aMatch := nextEvent(t, a)
	require.Equal(t, domain.EventMatched, bMatch.Event)
	require.Equal(t, domain.EventMatched, aMatch.Event)

	bData := bMatch.Data.(domain.MatchedData)
	aData := aMatch.Data.(domain.MatchedData)

	// Symmetric, not self-referential.
	assert.Equal(t, room.ID, bData.RoomID)
	assert.Equal(t, room.ID, aData.RoomID)
	assert.Equal(t, "a", bData.Partner.ID)
	assert.Equal(t, "Alice", bData.Partner.Username)
	assert.Equal(t, "b", aData.Partner.ID)
	assert.Equal(t, "Bob", aData.Partner.Username)

	// No residual waiting-queue entries for either party.
	assert.Equal(t, 0, s.QueueSize(domain.ModeText))
}

func TestRequestMatch_ModeIsolation(t *testing.T) {
	s := newTestService()
	a := s.Connect("a")
	b := s.Connect("b")

	_, err := s.RequestMatch(context.Background(), "a", "Alice", domain.ModeText)
	require.NoError(t, err)
	room, err := s.RequestMatch(context.Background(), "b", "Bob", domain.ModeVideo)
	require.NoError(t, err)

	assert.Nil(t, room)
	assert.Equal(t, domain.EventWaiting, nextEvent(t, a).Event)
	assert.Equal(t, domain.EventWaiting, nextEvent(t, b).Event)
	assert.Equal(t, 1, s.QueueSize(domain.ModeText))
	assert.Equal(t, 1, s.QueueSize(domain.ModeVideo))
}

func TestRequestMatch_FIFOFairness(t *testing.T) {
	s := newTestService()
	s.Connect("a")
	s.Connect("b")
	s.Connect("c")
	s.Connect("d")

	_, err := s.RequestMatch(context.Background(), "a", "Alice", domain.ModeText)
	require.NoError(t, err)
	_, err = s.RequestMatch(context.Background(), "b", "Bob", domain.ModeText)
	require.NoError(t, err)

	room, err := s.RequestMatch(context.Background(), "c", "Carol", domain.ModeText)
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.True(t, room.Has("a"), "oldest waiter matched first")

	room, err = s.RequestMatch(context.Background(), "d", "Dave", domain.ModeText)
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.True(t, room.Has("b"))
}

func TestRequestMatch_SkipsDeadQueueHead(t *testing.T) {
	s := newTestService()
	a := s.Connect("a")
	s.Connect("b")
	s.Connect("c")

	_, err := s.RequestMatch(context.Background(), "a", "Alice", domain.ModeText)
	require.NoError(t, err)
	_, err = s.RequestMatch(context.Background(), "b", "Bob", domain.ModeText)
	require.NoError(t, err)

	// a's transport died without a disconnect event being processed yet.
	a.Close()

	room, err := s.RequestMatch(context.Background(), "c", "Carol", domain.ModeText)
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.True(t, room.Has("b"), "dead head skipped, next live waiter matched")
	assert.Equal(t, 0, s.QueueSize(domain.ModeText))
}

func TestRequestMatch_QueueOfDeadHeadsEndsWaiting(t *testing.T) {
	s := newTestService()
	a := s.Connect("a")
	b := s.Connect("b")

	_, err := s.RequestMatch(context.Background(), "a", "Alice", domain.ModeText)
	require.NoError(t, err)
	a.Close()

	room, err := s.RequestMatch(context.Background(), "b", "Bob", domain.ModeText)
	require.NoError(t, err)
	assert.Nil(t, room)
	assert.Equal(t, domain.EventWaiting, nextEvent(t, b).Event)
	assert.Equal(t, 1, s.QueueSize(domain.ModeText))
}

func TestRequestMatch_AlreadyMatchedLeavesOldRoom(t *testing.T) {
	s := newTestService()
	a, b, room := matchPair(t, s)
	c := s.Connect("c")

	_, err := s.RequestMatch(context.Background(), "c", "Carol", domain.ModeText)
	require.NoError(t, err)
	nextEvent(t, c) // waiting

	room2, err := s.RequestMatch(context.Background(), "a", "Alice", domain.ModeText)
	require.NoError(t, err)
	require.NotNil(t, room2)
	assert.NotEqual(t, room.ID, room2.ID)

	// The abandoned partner is told, then the requester and the waiter match.
	assert.Equal(t, domain.EventPartnerLeft, nextEvent(t, b).Event)
	assert.Equal(t, domain.EventMatched, nextEvent(t, a).Event)
	assert.Equal(t, domain.EventMatched, nextEvent(t, c).Event)

	// At most one membership: the old room no longer authorizes the requester.
	err = s.ForwardSignal(context.Background(), "a", room.ID, domain.EventOffer, nil)
	assert.ErrorIs(t, err, service.ErrNotRoomMember)

	// The abandoned partner is alone in the old room; nothing leaks across.
	require.NoError(t, s.ForwardSignal(context.Background(), "b", room.ID, domain.EventOffer, nil))
	assertNoEvent(t, a)
	assertNoEvent(t, c)
}

func TestRequestMatch_UnknownConnection(t *testing.T) {
	s := newTestService()

	_, err := s.RequestMatch(context.Background(), "ghost", "Nobody", domain.ModeText)
	assert.ErrorIs(t, err, service.ErrUnknownConnection)
}

func matchPair(t *testing.T, s *service.MatchService) (a, b *domain.Connection, room *domain.Room) {
	t.Helper()
	a = s.Connect("a")
	b = s.Connect("b")

	_, err := s.RequestMatch(context.Background(), "a", "Alice", domain.ModeText)
	require.NoError(t, err)
	room, err = s.RequestMatch(context.Background(), "b", "Bob", domain.ModeText)
	require.NoError(t, err)
	require.NotNil(t, room)

	nextEvent(t, a) // waiting
	nextEvent(t, a) // matched
	nextEvent(t, b) // matched
	return a, b, room
}

func TestForwardSignal_DeliversToOtherMemberOnly(t *testing.T) {
	s := newTestService()
	a, b, room := matchPair(t, s)

	payload := map[string]any{"sdp": "v=0..."}
	err := s.ForwardSignal(context.Background(), "a", room.ID, domain.EventOffer, payload)
	require.NoError(t, err)

	ev := nextEvent(t, b)
	assert.Equal(t, domain.EventOffer, ev.Event)
	assert.Equal(t, payload, ev.Data)
	assertNoEvent(t, a)
}

func TestForwardSignal_RejectsNonMember(t *testing.T) {
	s := newTestService()
	a, b, room := matchPair(t, s)
	s.Connect("c")

	err := s.ForwardSignal(context.Background(), "c", room.ID, domain.EventOffer, nil)
	assert.ErrorIs(t, err, service.ErrNotRoomMember)

	// Zero delivery to anyone.
	assertNoEvent(t, a)
	assertNoEvent(t, b)
}

func TestForwardSignal_UnknownRoom(t *testing.T) {
	s := newTestService()
	s.Connect("a")

	err := s.ForwardSignal(context.Background(), "a", "nope", domain.EventOffer, nil)
	assert.ErrorIs(t, err, service.ErrNotRoomMember)
}

func TestSendChat_ForwardAndAck(t *testing.T) {
	s := newTestService()
	a, b, room := matchPair(t, s)

	err := s.SendChat(context.Background(), "a", domain.ChatMessage{
		ID:        "m1",
		RoomID:    room.ID,
		Text:      "hello there",
		Timestamp: "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	recv := nextEvent(t, b)
	require.Equal(t, domain.EventReceiveMessage, recv.Event)
	msg := recv.Data.(domain.ReceiveMessageData)
	assert.Equal(t, "m1", msg.MessageID)
	assert.Equal(t, "hello there", msg.Text)
	assert.Equal(t, "a", msg.SenderID)
	assert.Equal(t, "Alice", msg.SenderUsername)
	assert.Equal(t, "2024-01-01T00:00:00Z", msg.Timestamp)

	ack := nextEvent(t, a)
	require.Equal(t, domain.EventMessageDelivered, ack.Event)
	delivered := ack.Data.(domain.MessageDeliveredData)
	assert.Equal(t, "m1", delivered.MessageID)
	assert.Equal(t, "delivered", delivered.Status)
}

func TestSendChat_MissingFieldsRejected(t *testing.T) {
	s := newTestService()
	a, b, room := matchPair(t, s)

	err := s.SendChat(context.Background(), "a", domain.ChatMessage{
		ID:     "m1",
		RoomID: room.ID,
		Text:   "no timestamp",
	})
	assert.ErrorIs(t, err, service.ErrInvalidMessage)
	assertNoEvent(t, a)
	assertNoEvent(t, b)
}

func TestSendChat_TruncatesLongText(t *testing.T) {
	s := newTestService()
	_, b, room := matchPair(t, s)

	err := s.SendChat(context.Background(), "a", domain.ChatMessage{
		ID:        "m1",
		RoomID:    room.ID,
		Text:      strings.Repeat("x", 1500),
		Timestamp: "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	recv := nextEvent(t, b)
	msg := recv.Data.(domain.ReceiveMessageData)
	assert.Len(t, msg.Text, domain.MaxChatMessageLength)
}

func TestSendChat_RejectsNonMember(t *testing.T) {
	s := newTestService()
	_, _, room := matchPair(t, s)
	s.Connect("c")

	err := s.SendChat(context.Background(), "c", domain.ChatMessage{
		ID:        "m1",
		RoomID:    room.ID,
		Text:      "intruder",
		Timestamp: "2024-01-01T00:00:00Z",
	})
	assert.ErrorIs(t, err, service.ErrNotRoomMember)
}

func TestLeave_NotifiesPartnerAndDestroysRoom(t *testing.T) {
	s := newTestService()
	a, b, room := matchPair(t, s)

	require.NoError(t, s.Leave(context.Background(), "a", room.ID))

	ev := nextEvent(t, b)
	assert.Equal(t, domain.EventPartnerLeft, ev.Event)

	// The leaver is out immediately; a later signal from either side fails.
	err := s.ForwardSignal(context.Background(), "a", room.ID, domain.EventOffer, nil)
	assert.ErrorIs(t, err, service.ErrNotRoomMember)

	// b is the sole remaining member until it leaves too.
	require.NoError(t, s.Leave(context.Background(), "b", room.ID))
	_, ok := s.GetRoom(room.ID)
	assert.False(t, ok)

	err = s.ForwardSignal(context.Background(), "b", room.ID, domain.EventOffer, nil)
	assert.ErrorIs(t, err, service.ErrNotRoomMember)
	assertNoEvent(t, a)
}

func TestLeave_NonMember(t *testing.T) {
	s := newTestService()
	_, _, room := matchPair(t, s)
	s.Connect("c")

	err := s.Leave(context.Background(), "c", room.ID)
	assert.ErrorIs(t, err, service.ErrNotRoomMember)
}

func TestDisconnect_TearsDownLikeLeave(t *testing.T) {
	s := newTestService()
	_, b, room := matchPair(t, s)

	s.Disconnect(context.Background(), "a")

	ev := nextEvent(t, b)
	assert.Equal(t, domain.EventPartnerLeft, ev.Event)

	err := s.ForwardSignal(context.Background(), "a", room.ID, domain.EventOffer, nil)
	assert.ErrorIs(t, err, service.ErrNotRoomMember)
	assert.Equal(t, 0, s.QueueSize(domain.ModeText))
}

func TestDisconnect_RemovesWaiter(t *testing.T) {
	s := newTestService()
	a := s.Connect("a")

	_, err := s.RequestMatch(context.Background(), "a", "Alice", domain.ModeText)
	require.NoError(t, err)
	nextEvent(t, a)

	s.Disconnect(context.Background(), "a")
	assert.Equal(t, 0, s.QueueSize(domain.ModeText))
	assert.Equal(t, 0, s.Stats().Connections)
}

func TestDisconnect_Idempotent(t *testing.T) {
	s := newTestService()
	_, b, _ := matchPair(t, s)

	s.Disconnect(context.Background(), "a")
	nextEvent(t, b) // partner_left

	// Second disconnect must not panic and must not double-notify.
	s.Disconnect(context.Background(), "a")
	assertNoEvent(t, b)

	// Disconnect after leave is equally harmless.
	s.Disconnect(context.Background(), "b")
	s.Disconnect(context.Background(), "b")
}

func TestNext_RematchesWithWaiter(t *testing.T) {
	s := newTestService()
	a, b, room := matchPair(t, s)
	c := s.Connect("c")

	_, err := s.RequestMatch(context.Background(), "c", "Carol", domain.ModeText)
	require.NoError(t, err)
	nextEvent(t, c) // waiting

	require.NoError(t, s.Next(context.Background(), "a", room.ID))

	// Old partner is told, requester goes through waiting then matched.
	assert.Equal(t, domain.EventPartnerLeft, nextEvent(t, b).Event)
	assert.Equal(t, domain.EventWaiting, nextEvent(t, a).Event)

	aMatch := nextEvent(t, a)
	cMatch := nextEvent(t, c)
	require.Equal(t, domain.EventMatched, aMatch.Event)
	require.Equal(t, domain.EventMatched, cMatch.Event)

	aData := aMatch.Data.(domain.MatchedData)
	cData := cMatch.Data.(domain.MatchedData)
	assert.Equal(t, aData.RoomID, cData.RoomID)
	assert.NotEqual(t, room.ID, aData.RoomID)
	assert.Equal(t, "c", aData.Partner.ID)
	assert.Equal(t, "a", cData.Partner.ID)
	assert.Equal(t, "Alice", cData.Partner.Username)
	assert.Equal(t, 0, s.QueueSize(domain.ModeText))
}

func TestNext_RequeuesWhenNobodyWaits(t *testing.T) {
	s := newTestService()
	a, b, room := matchPair(t, s)

	require.NoError(t, s.Next(context.Background(), "a", room.ID))

	assert.Equal(t, domain.EventPartnerLeft, nextEvent(t, b).Event)
	assert.Equal(t, domain.EventWaiting, nextEvent(t, a).Event)
	assert.Equal(t, 1, s.QueueSize(domain.ModeText))
	assertNoEvent(t, a)
}

func TestNext_KeepsLastKnownProfile(t *testing.T) {
	s := newTestService()
	a, _, room := matchPair(t, s)
	d := s.Connect("d")

	require.NoError(t, s.Next(context.Background(), "a", room.ID))
	nextEvent(t, a) // waiting

	_, err := s.RequestMatch(context.Background(), "d", "Dave", domain.ModeText)
	require.NoError(t, err)

	aMatch := nextEvent(t, a)
	dMatch := nextEvent(t, d)
	require.Equal(t, domain.EventMatched, aMatch.Event)
	assert.Equal(t, "Alice", dMatch.Data.(domain.MatchedData).Partner.Username)
}

func TestStats(t *testing.T) {
	s := newTestService()
	matchPair(t, s)
	c := s.Connect("c")

	_, err := s.RequestMatch(context.Background(), "c", "Carol", domain.ModeVideo)
	require.NoError(t, err)
	nextEvent(t, c)

	stats := s.Stats()
	assert.Equal(t, 3, stats.Connections)
	assert.Equal(t, 0, stats.TextWaiting)
	assert.Equal(t, 1, stats.VideoWaiting)
	assert.Equal(t, 1, stats.ActiveRooms)
}

func TestSweep_EvictsStaleWaiters(t *testing.T) {
	s := service.NewMatchService(
		repository.NewInMemoryRoomRepository(),
		repository.NewInMemoryUserRepository(),
		testLogger(),
		10*time.Millisecond, 10*time.Millisecond,
	)
	s.Start()
	defer s.Stop()

	a := s.Connect("a")
	_, err := s.RequestMatch(context.Background(), "a", "Alice", domain.ModeText)
	require.NoError(t, err)
	nextEvent(t, a)

	assert.Eventually(t, func() bool {
		return s.QueueSize(domain.ModeText) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestMatch_PersistsRoomRecord(t *testing.T) {
	history := repository.NewInMemoryRoomRepository()
	s := service.NewMatchService(history, repository.NewInMemoryUserRepository(), testLogger(), 0, 0)

	s.Connect("a")
	s.Connect("b")
	_, err := s.RequestMatch(context.Background(), "a", "Alice", domain.ModeText)
	require.NoError(t, err)
	room, err := s.RequestMatch(context.Background(), "b", "Bob", domain.ModeText)
	require.NoError(t, err)
	require.NotNil(t, room)

	// Persistence is fire-and-forget, so give the write a moment.
	assert.Eventually(t, func() bool {
		record, err := history.GetByID(context.Background(), room.ID)
		return err == nil && record.Status == domain.RoomStatusActive && len(record.Participants) == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Leave(context.Background(), "a", room.ID))
	require.NoError(t, s.Leave(context.Background(), "b", room.ID))

	assert.Eventually(t, func() bool {
		record, err := history.GetByID(context.Background(), room.ID)
		return err == nil && record.Status == domain.RoomStatusEnded
	}, time.Second, 5*time.Millisecond)
}
