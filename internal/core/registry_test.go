package core_test

import (
	"testing"

	"github.com/RohanJose/Chat-APP/internal/core"
	"github.com/RohanJose/Chat-APP/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRegistry_RegisterAndLookup(t *testing.T) {
	r := core.NewConnectionRegistry()

	conn := r.Register("a")
	require.NotNil(t, conn)
	assert.Equal(t, domain.DefaultDisplayName, conn.DisplayName())

	got, ok := r.Lookup("a")
	require.True(t, ok)
	assert.Same(t, conn, got)
	assert.Equal(t, 1, r.Count())
}

func TestConnectionRegistry_RegisterOverwrites(t *testing.T) {
	r := core.NewConnectionRegistry()

	first := r.Register("a")
	second := r.Register("a")

	got, ok := r.Lookup("a")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.NotSame(t, first, got)
	assert.Equal(t, 1, r.Count())
}

func TestConnectionRegistry_SetProfile(t *testing.T) {
	r := core.NewConnectionRegistry()
	r.Register("a")

	r.SetProfile("a", "Alice", domain.ModeVideo)

	conn, _ := r.Lookup("a")
	name, mode := conn.Profile()
	assert.Equal(t, "Alice", name)
	assert.Equal(t, domain.ModeVideo, mode)

	// Unknown ID is a no-op, not a panic.
	r.SetProfile("missing", "Nobody", domain.ModeText)
}

func TestConnectionRegistry_SetProfileDefaultsName(t *testing.T) {
	r := core.NewConnectionRegistry()
	r.Register("a")

	r.SetProfile("a", "", domain.ModeText)

	conn, _ := r.Lookup("a")
	assert.Equal(t, domain.DefaultDisplayName, conn.DisplayName())
}

func TestConnectionRegistry_Unregister(t *testing.T) {
	r := core.NewConnectionRegistry()
	r.Register("a")

	r.Unregister("a")
	_, ok := r.Lookup("a")
	assert.False(t, ok)

	// Idempotent.
	r.Unregister("a")
	assert.Equal(t, 0, r.Count())
}

func TestConnection_CloseStopsEvents(t *testing.T) {
	conn := domain.NewConnection("a")
	require.True(t, conn.Alive())

	conn.EnqueueEvent(domain.Event{Event: "x"})
	conn.Close()
	conn.Close() // idempotent
	assert.False(t, conn.Alive())

	// Enqueue after close must not panic.
	conn.EnqueueEvent(domain.Event{Event: "y"})

	ev, ok := <-conn.Events()
	require.True(t, ok)
	assert.Equal(t, "x", ev.Event)

	_, ok = <-conn.Events()
	assert.False(t, ok)
}
