package services

import (
	"sync"
	"time"

	"github.com/Astrobubu/StageTimer/internal/models"
)

// roomClock is the cancellable 1 Hz ticker behind one running countdown.
// Stop is idempotent and immediate; a tick that races a stop is rejected by
// the room's sequence check, so no tick can land after pause, reset or
// destruction.
type roomClock struct {
	stop chan struct{}
	once sync.Once
}

func newRoomClock() *roomClock {
	return &roomClock{stop: make(chan struct{})}
}

func (c *roomClock) Stop() {
	c.once.Do(func() {
		close(c.stop)
	})
}

// runClock drives one countdown generation of one room. It exits when the
// countdown is stopped, goes stale, or exhausts its item.
func (c *Coordinator) runClock(room *models.Room, clk *roomClock, seq uint64) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()
	defer c.releaseClock(room.ID, clk)

	for {
		select {
		case <-clk.stop:
			return

		case <-ticker.C:
			res := room.Tick(seq)
			switch res.Kind {
			case models.TickStale:
				return

			case models.TickCounted:
				c.metrics.IncrementTicks()
				c.sender.BroadcastToRoom(room.ID, snapshotMessage(room.ID, res.Snapshot))

			case models.TickExhausted:
				c.metrics.IncrementTicks()
				c.sender.BroadcastToRoom(room.ID, snapshotMessage(room.ID, res.Snapshot))
				if res.Advanced {
					// Auto-advance: the next item arrives armed but not
					// running, as its own event right after the zero state.
					c.sender.BroadcastToRoom(room.ID, snapshotMessage(room.ID, res.AdvanceSnapshot))
				}
				return
			}
		}
	}
}

// startClock launches the clock for a countdown generation. Any clock still
// registered for the room belongs to an older generation and is replaced.
func (c *Coordinator) startClock(room *models.Room, seq uint64) {
	c.clocksMu.Lock()
	defer c.clocksMu.Unlock()

	if old, ok := c.clocks[room.ID]; ok {
		old.Stop()
	}
	clk := newRoomClock()
	c.clocks[room.ID] = clk
	go c.runClock(room, clk, seq)
}

// stopClock cancels the room's clock if one is registered. No-op otherwise.
func (c *Coordinator) stopClock(roomID string) {
	c.clocksMu.Lock()
	defer c.clocksMu.Unlock()

	if clk, ok := c.clocks[roomID]; ok {
		clk.Stop()
		delete(c.clocks, roomID)
	}
}

// releaseClock drops the registration of an exiting clock goroutine, unless
// a newer clock has already taken its slot.
func (c *Coordinator) releaseClock(roomID string, clk *roomClock) {
	c.clocksMu.Lock()
	defer c.clocksMu.Unlock()

	if c.clocks[roomID] == clk {
		delete(c.clocks, roomID)
	}
}
