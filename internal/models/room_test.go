package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Astrobubu/StageTimer/internal/models"
)

func sampleAgenda() []models.TimerItem {
	return []models.TimerItem{
		{ID: "a", Name: "Opening", Duration: 5, Order: 0},
		{ID: "b", Name: "Keynote", Duration: 10, Order: 1},
		{ID: "c", Name: "Break", Duration: 3, Order: 2, IsPause: true},
	}
}

func newControlledRoom(t *testing.T) *models.Room {
	t.Helper()
	room := models.NewRoom("demo", sampleAgenda())
	room.Join("ctrl", models.RoleController)
	return room
}

func TestRoom_Join(t *testing.T) {
	t.Run("controller claim", func(t *testing.T) {
		room := models.NewRoom("demo", sampleAgenda())

		snap, evicted := room.Join("ctrl", models.RoleController)

		assert.Empty(t, evicted)
		assert.True(t, room.IsController("ctrl"))
		assert.Len(t, snap.Agenda, 3)
		assert.Nil(t, snap.CurrentItemID)
		assert.Equal(t, 0, snap.CurrentTimeLeft)
		assert.False(t, snap.IsRunning)
		assert.Nil(t, snap.Message)
	})

	t.Run("viewer join does not grant control", func(t *testing.T) {
		room := models.NewRoom("demo", nil)

		room.Join("v1", models.RoleViewer)

		assert.False(t, room.IsController("v1"))
		assert.False(t, room.Empty())
	})

	t.Run("second controller displaces the first", func(t *testing.T) {
		room := models.NewRoom("demo", nil)
		room.Join("first", models.RoleController)

		_, evicted := room.Join("second", models.RoleController)

		assert.Equal(t, "first", evicted)
		assert.True(t, room.IsController("second"))
		assert.False(t, room.IsController("first"))
		// The displaced controller stays in the room as a viewer.
		assert.False(t, room.Empty())
	})

	t.Run("controller rejoining as controller evicts nobody", func(t *testing.T) {
		room := models.NewRoom("demo", nil)
		room.Join("ctrl", models.RoleController)

		_, evicted := room.Join("ctrl", models.RoleController)

		assert.Empty(t, evicted)
		assert.True(t, room.IsController("ctrl"))
	})
}

func TestRoom_Leave(t *testing.T) {
	t.Run("last member leaving empties the room", func(t *testing.T) {
		room := models.NewRoom("demo", nil)
		room.Join("ctrl", models.RoleController)
		room.Join("v1", models.RoleViewer)

		touched, empty := room.Leave("ctrl")
		assert.True(t, touched)
		assert.False(t, empty)

		touched, empty = room.Leave("v1")
		assert.True(t, touched)
		assert.True(t, empty)
	})

	t.Run("unknown connection is untouched", func(t *testing.T) {
		room := models.NewRoom("demo", nil)
		room.Join("v1", models.RoleViewer)

		touched, empty := room.Leave("stranger")

		assert.False(t, touched)
		assert.False(t, empty)
	})
}

func TestRoom_SelectItem(t *testing.T) {
	room := newControlledRoom(t)

	t.Run("selects and arms duration", func(t *testing.T) {
		snap, ok := room.SelectItem("ctrl", "a")

		require.True(t, ok)
		require.NotNil(t, snap.CurrentItemID)
		assert.Equal(t, "a", *snap.CurrentItemID)
		assert.Equal(t, 5, snap.CurrentTimeLeft)
		assert.False(t, snap.IsRunning)
	})

	t.Run("unknown item is a no-op", func(t *testing.T) {
		_, ok := room.SelectItem("ctrl", "zzz")
		assert.False(t, ok)

		snap := room.Snapshot()
		require.NotNil(t, snap.CurrentItemID)
		assert.Equal(t, "a", *snap.CurrentItemID)
	})

	t.Run("selecting while running stops the countdown", func(t *testing.T) {
		_, _, started, ok := room.Start("ctrl")
		require.True(t, ok)
		require.True(t, started)

		snap, ok := room.SelectItem("ctrl", "b")
		require.True(t, ok)
		assert.False(t, snap.IsRunning)
		assert.Equal(t, 10, snap.CurrentTimeLeft)
	})
}

func TestRoom_StartPauseReset(t *testing.T) {
	t.Run("start requires a selection", func(t *testing.T) {
		room := newControlledRoom(t)

		_, _, _, ok := room.Start("ctrl")
		assert.False(t, ok)
	})

	t.Run("start requires time left", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "a")
		room.AdjustTime("ctrl", -1) // floors at zero

		_, _, _, ok := room.Start("ctrl")
		assert.False(t, ok)
	})

	t.Run("start is idempotent", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "a")

		_, seq1, started, ok := room.Start("ctrl")
		require.True(t, ok)
		assert.True(t, started)

		snap, seq2, started, ok := room.Start("ctrl")
		require.True(t, ok)
		assert.False(t, started, "second start must not spawn a second countdown")
		assert.Equal(t, seq1, seq2)
		assert.True(t, snap.IsRunning)
	})

	t.Run("pause keeps remaining time", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "b")
		_, seq, _, _ := room.Start("ctrl")
		room.Tick(seq)

		snap, ok := room.Pause("ctrl")
		require.True(t, ok)
		assert.False(t, snap.IsRunning)
		assert.Equal(t, 9, snap.CurrentTimeLeft)
	})

	t.Run("reset restores full duration stopped", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "b")
		_, seq, _, _ := room.Start("ctrl")
		room.Tick(seq)
		room.Tick(seq)

		snap, ok := room.Reset("ctrl")
		require.True(t, ok)
		assert.False(t, snap.IsRunning)
		assert.Equal(t, 10, snap.CurrentTimeLeft)
	})

	t.Run("reset without selection is a no-op", func(t *testing.T) {
		room := newControlledRoom(t)

		_, ok := room.Reset("ctrl")
		assert.False(t, ok)
	})
}

func TestRoom_AdjustTime(t *testing.T) {
	t.Run("floors at zero", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "b") // 10s left

		snap, stopped, ok := room.AdjustTime("ctrl", -1)

		require.True(t, ok)
		assert.False(t, stopped)
		assert.Equal(t, 0, snap.CurrentTimeLeft, "max(0, 10-60) = 0")
	})

	t.Run("may exceed nominal duration", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "a") // 5s

		snap, _, ok := room.AdjustTime("ctrl", 2)

		require.True(t, ok)
		assert.Equal(t, 125, snap.CurrentTimeLeft)
	})

	t.Run("flooring a running countdown pauses it", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "b")
		_, seq, _, _ := room.Start("ctrl")

		snap, stopped, ok := room.AdjustTime("ctrl", -1)

		require.True(t, ok)
		assert.True(t, stopped)
		assert.False(t, snap.IsRunning)
		assert.Equal(t, 0, snap.CurrentTimeLeft)

		// The old countdown generation is dead.
		res := room.Tick(seq)
		assert.Equal(t, models.TickStale, res.Kind)
	})
}

func TestRoom_Messages(t *testing.T) {
	room := newControlledRoom(t)

	snap, ok := room.SetMessage("ctrl", "5 minutes over")
	require.True(t, ok)
	require.NotNil(t, snap.Message)
	assert.Equal(t, "5 minutes over", *snap.Message)

	snap, ok = room.ClearMessage("ctrl")
	require.True(t, ok)
	assert.Nil(t, snap.Message)
}

func TestRoom_ReplaceAgenda(t *testing.T) {
	t.Run("wholesale replacement", func(t *testing.T) {
		room := newControlledRoom(t)

		snap, stopped, ok := room.ReplaceAgenda("ctrl", []models.TimerItem{
			{ID: "x", Name: "New", Duration: 60},
		})

		require.True(t, ok)
		assert.False(t, stopped)
		assert.Len(t, snap.Agenda, 1)
		assert.Equal(t, "x", snap.Agenda[0].ID)
	})

	t.Run("surviving selection is kept", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "b")

		snap, _, ok := room.ReplaceAgenda("ctrl", []models.TimerItem{
			{ID: "b", Name: "Keynote v2", Duration: 30},
		})

		require.True(t, ok)
		require.NotNil(t, snap.CurrentItemID)
		assert.Equal(t, "b", *snap.CurrentItemID)
		assert.Equal(t, 10, snap.CurrentTimeLeft, "remaining time is untouched by an agenda edit")
	})

	t.Run("vanished selection is cleared and the countdown stopped", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "a")
		_, seq, _, _ := room.Start("ctrl")

		snap, stopped, ok := room.ReplaceAgenda("ctrl", []models.TimerItem{
			{ID: "x", Name: "New", Duration: 60},
		})

		require.True(t, ok)
		assert.True(t, stopped)
		assert.Nil(t, snap.CurrentItemID)
		assert.Equal(t, 0, snap.CurrentTimeLeft)
		assert.False(t, snap.IsRunning)

		res := room.Tick(seq)
		assert.Equal(t, models.TickStale, res.Kind)
	})
}

func TestRoom_Tick(t *testing.T) {
	t.Run("counts down and broadcasts every second", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "b")
		_, seq, _, _ := room.Start("ctrl")

		for want := 9; want >= 1; want-- {
			res := room.Tick(seq)
			require.Equal(t, models.TickCounted, res.Kind)
			assert.Equal(t, want, res.Snapshot.CurrentTimeLeft)
			assert.True(t, res.Snapshot.IsRunning)
		}
	})

	t.Run("exhaustion auto-advances un-started", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "a") // 5s, next is "b"
		_, seq, _, _ := room.Start("ctrl")

		var res models.TickResult
		for i := 0; i < 5; i++ {
			res = room.Tick(seq)
		}

		require.Equal(t, models.TickExhausted, res.Kind)
		require.NotNil(t, res.Snapshot.CurrentItemID)
		assert.Equal(t, "a", *res.Snapshot.CurrentItemID)
		assert.Equal(t, 0, res.Snapshot.CurrentTimeLeft)
		assert.False(t, res.Snapshot.IsRunning)

		require.True(t, res.Advanced)
		require.NotNil(t, res.AdvanceSnapshot.CurrentItemID)
		assert.Equal(t, "b", *res.AdvanceSnapshot.CurrentItemID)
		assert.Equal(t, 10, res.AdvanceSnapshot.CurrentTimeLeft)
		assert.False(t, res.AdvanceSnapshot.IsRunning, "the next item must not auto-start")
	})

	t.Run("last item exhaustion is terminal", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "c") // 3s, last item
		_, seq, _, _ := room.Start("ctrl")

		var res models.TickResult
		for i := 0; i < 3; i++ {
			res = room.Tick(seq)
		}

		require.Equal(t, models.TickExhausted, res.Kind)
		assert.False(t, res.Advanced)

		snap := room.Snapshot()
		require.NotNil(t, snap.CurrentItemID)
		assert.Equal(t, "c", *snap.CurrentItemID)
		assert.Equal(t, 0, snap.CurrentTimeLeft)
		assert.False(t, snap.IsRunning)
	})

	t.Run("advance follows agenda sequence not Order values", func(t *testing.T) {
		room := models.NewRoom("demo", []models.TimerItem{
			{ID: "a", Name: "First", Duration: 1, Order: 99},
			{ID: "b", Name: "Second", Duration: 10, Order: 1},
		})
		room.Join("ctrl", models.RoleController)
		room.SelectItem("ctrl", "a")
		_, seq, _, _ := room.Start("ctrl")

		res := room.Tick(seq)

		require.Equal(t, models.TickExhausted, res.Kind)
		require.True(t, res.Advanced)
		assert.Equal(t, "b", *res.AdvanceSnapshot.CurrentItemID)
	})

	t.Run("stale sequence is rejected", func(t *testing.T) {
		room := newControlledRoom(t)
		room.SelectItem("ctrl", "b")
		_, seq, _, _ := room.Start("ctrl")
		room.Pause("ctrl")

		res := room.Tick(seq)
		assert.Equal(t, models.TickStale, res.Kind)

		snap := room.Snapshot()
		assert.Equal(t, 10, snap.CurrentTimeLeft, "a stale tick must not consume time")
	})
}

func TestRoom_AuthorizationByIdentity(t *testing.T) {
	room := newControlledRoom(t)
	room.Join("viewer", models.RoleViewer)
	room.SelectItem("ctrl", "a")
	before := room.Snapshot()

	t.Run("non-controller mutations leave state unchanged", func(t *testing.T) {
		_, _, ok := room.ReplaceAgenda("viewer", nil)
		assert.False(t, ok)
		_, ok = room.SelectItem("viewer", "b")
		assert.False(t, ok)
		_, _, _, ok = room.Start("viewer")
		assert.False(t, ok)
		_, ok = room.Pause("viewer")
		assert.False(t, ok)
		_, ok = room.Reset("viewer")
		assert.False(t, ok)
		_, _, ok = room.AdjustTime("viewer", 1)
		assert.False(t, ok)
		_, ok = room.SetMessage("viewer", "hi")
		assert.False(t, ok)
		_, ok = room.ClearMessage("viewer")
		assert.False(t, ok)

		assert.Equal(t, before, room.Snapshot())
	})

	t.Run("room without controller accepts no mutations", func(t *testing.T) {
		room := models.NewRoom("demo", sampleAgenda())
		room.Join("v1", models.RoleViewer)

		_, ok := room.SelectItem("", "a")
		assert.False(t, ok, "empty sender must not match an empty controller ref")
	})
}
