package services

import (
	"log"
	"sync"
	"time"

	"github.com/Astrobubu/StageTimer/internal/config"
	"github.com/Astrobubu/StageTimer/internal/models"
	"github.com/Astrobubu/StageTimer/internal/security"
)

// Sender is the outbound side of the coordinator: full-snapshot fan-out to a
// room and directed delivery to one connection. The hub implements it; tests
// substitute a recorder.
type Sender interface {
	BroadcastToRoom(roomID string, msg *models.OutboundMessage)
	SendToConn(connID string, msg *models.OutboundMessage) bool
}

// Coordinator is the control surface for all rooms: it validates commands
// against the room's controller identity, applies state transitions, drives
// the per-room clocks and triggers broadcasts. Commands are synchronous state
// transitions; fan-out is asynchronous and never runs under a room lock.
//
// Authorization is identity equality only: whichever connection last joined
// as controller holds the single write lease for the room. Commands from
// anyone else are dropped silently, per the protocol contract — the sender's
// UI is expected to disable controls it doesn't hold.
type Coordinator struct {
	registry *Registry
	tracker  *Tracker
	sender   Sender
	metrics  *Metrics

	tickInterval time.Duration

	clocksMu sync.Mutex
	clocks   map[string]*roomClock
}

func NewCoordinator(registry *Registry, tracker *Tracker, sender Sender, metrics *Metrics) *Coordinator {
	return &Coordinator{
		registry:     registry,
		tracker:      tracker,
		sender:       sender,
		metrics:      metrics,
		tickInterval: config.TickInterval,
		clocks:       make(map[string]*roomClock),
	}
}

// SetTickInterval overrides the countdown resolution. Tests use this to run
// clocks at millisecond speed; production keeps the 1 Hz default.
func (c *Coordinator) SetTickInterval(d time.Duration) {
	c.tickInterval = d
}

// Dispatch decodes and routes one raw frame from a connection. Frames that
// fail boundary validation, or that target a room other than the one the
// connection was accepted for, are dropped.
func (c *Coordinator) Dispatch(connID, connRoomID string, data []byte) {
	msg, payload, err := security.ParseCommand(data)
	if err != nil {
		log.Printf("⚠️  Dropping invalid frame (conn=%s): %v", connID, err)
		return
	}
	if msg.RoomID != connRoomID {
		log.Printf("⚠️  Dropping cross-room frame (conn=%s, claimed=%s, actual=%s)", connID, msg.RoomID, connRoomID)
		return
	}

	switch msg.Type {
	case models.MsgTypeJoin:
		p := payload.(models.JoinPayload)
		c.Join(msg.RoomID, connID, p.Role)
	case models.MsgTypeReplaceAgenda:
		p := payload.(models.ReplaceAgendaPayload)
		c.ReplaceAgenda(msg.RoomID, connID, p.Agenda)
	case models.MsgTypeSelectItem:
		p := payload.(models.SelectItemPayload)
		c.SelectItem(msg.RoomID, connID, p.ItemID)
	case models.MsgTypeStart:
		c.Start(msg.RoomID, connID)
	case models.MsgTypePause:
		c.Pause(msg.RoomID, connID)
	case models.MsgTypeReset:
		c.Reset(msg.RoomID, connID)
	case models.MsgTypeAdjustTime:
		p := payload.(models.AdjustTimePayload)
		c.AdjustTime(msg.RoomID, connID, p.DeltaMinutes)
	case models.MsgTypeSetMessage:
		p := payload.(models.SetMessagePayload)
		c.SetMessage(msg.RoomID, connID, p.Text)
	case models.MsgTypeClearMessage:
		c.ClearMessage(msg.RoomID, connID)
	}
}

// Disconnect handles a transport-level close: the connection leaves every
// room it was a member of.
func (c *Coordinator) Disconnect(connID string) {
	c.Leave(connID)
}

// Join enters a connection into a room, creating the room on first use.
// The joiner always receives the full current snapshot as a direct reply,
// and the room receives a membership update. A controller claim displaces
// any existing controller, which is demoted to viewer and told so.
func (c *Coordinator) Join(roomID, connID string, role models.Role) {
	room := c.registry.GetOrCreate(roomID)

	snap, evicted := room.Join(connID, role)
	c.tracker.Add(connID, roomID, role)

	if evicted != "" {
		c.tracker.Add(evicted, roomID, models.RoleViewer)
		c.sender.SendToConn(evicted, &models.OutboundMessage{
			Type:   models.MsgTypeControllerEvicted,
			RoomID: roomID,
		})
		log.Printf("⚠️  Controller takeover in room %s: %s displaced %s", roomID, connID, evicted)
	}

	c.sender.SendToConn(connID, snapshotMessage(roomID, snap))
	c.broadcastMembership(roomID)
}

// Leave removes a connection from every room it is in. Rooms left with no
// controller and no viewers are destroyed, their clocks stopped first.
func (c *Coordinator) Leave(connID string) {
	for _, roomID := range c.tracker.RoomsOf(connID) {
		room, ok := c.registry.Get(roomID)
		if !ok {
			c.tracker.Remove(connID, roomID)
			continue
		}

		touched, empty := room.Leave(connID)
		c.tracker.Remove(connID, roomID)

		if empty {
			c.stopClock(roomID)
			c.registry.Remove(roomID)
			continue
		}
		if touched {
			c.broadcastMembership(roomID)
		}
	}
}

// ReplaceAgenda swaps a room's agenda wholesale. Controller only.
func (c *Coordinator) ReplaceAgenda(roomID, connID string, agenda []models.TimerItem) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}

	snap, stopped, ok := room.ReplaceAgenda(connID, agenda)
	if !ok {
		return
	}
	if stopped {
		c.stopClock(roomID)
	}
	c.sender.BroadcastToRoom(roomID, snapshotMessage(roomID, snap))
}

// SelectItem moves the cursor to an agenda item and arms its duration.
// Controller only; unknown item ids are dropped.
func (c *Coordinator) SelectItem(roomID, connID, itemID string) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}

	snap, ok := room.SelectItem(connID, itemID)
	if !ok {
		return
	}
	c.stopClock(roomID)
	c.sender.BroadcastToRoom(roomID, snapshotMessage(roomID, snap))
}

// Start begins the countdown for the selected item. Controller only.
func (c *Coordinator) Start(roomID, connID string) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}

	snap, seq, started, ok := room.Start(connID)
	if !ok {
		return
	}
	c.sender.BroadcastToRoom(roomID, snapshotMessage(roomID, snap))
	if started {
		c.startClock(room, seq)
	}
}

// Pause stops the countdown, keeping the remaining time. Controller only.
func (c *Coordinator) Pause(roomID, connID string) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}

	snap, ok := room.Pause(connID)
	if !ok {
		return
	}
	c.stopClock(roomID)
	c.sender.BroadcastToRoom(roomID, snapshotMessage(roomID, snap))
}

// Reset restores the selected item's full duration, stopped. Controller only.
func (c *Coordinator) Reset(roomID, connID string) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}

	snap, ok := room.Reset(connID)
	if !ok {
		return
	}
	c.stopClock(roomID)
	c.sender.BroadcastToRoom(roomID, snapshotMessage(roomID, snap))
}

// AdjustTime shifts the remaining time by whole minutes. Controller only.
func (c *Coordinator) AdjustTime(roomID, connID string, deltaMinutes int) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}

	snap, stopped, ok := room.AdjustTime(connID, deltaMinutes)
	if !ok {
		return
	}
	if stopped {
		c.stopClock(roomID)
	}
	c.sender.BroadcastToRoom(roomID, snapshotMessage(roomID, snap))
}

// SetMessage sets the overlay message. Controller only.
func (c *Coordinator) SetMessage(roomID, connID, text string) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}

	snap, ok := room.SetMessage(connID, text)
	if !ok {
		return
	}
	c.sender.BroadcastToRoom(roomID, snapshotMessage(roomID, snap))
}

// ClearMessage removes the overlay message. Controller only.
func (c *Coordinator) ClearMessage(roomID, connID string) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}

	snap, ok := room.ClearMessage(connID)
	if !ok {
		return
	}
	c.sender.BroadcastToRoom(roomID, snapshotMessage(roomID, snap))
}

// Counts exposes the membership aggregate for a room.
func (c *Coordinator) Counts(roomID string) models.MembershipStatus {
	return c.tracker.Counts(roomID)
}

// Shutdown stops every running clock. Called once at process teardown.
func (c *Coordinator) Shutdown() {
	c.clocksMu.Lock()
	defer c.clocksMu.Unlock()

	for roomID, clk := range c.clocks {
		clk.Stop()
		delete(c.clocks, roomID)
	}
}

func (c *Coordinator) broadcastMembership(roomID string) {
	c.sender.BroadcastToRoom(roomID, &models.OutboundMessage{
		Type:    models.MsgTypeMembershipStatus,
		RoomID:  roomID,
		Payload: c.tracker.Counts(roomID),
	})
}

func snapshotMessage(roomID string, snap models.StateSnapshot) *models.OutboundMessage {
	return &models.OutboundMessage{
		Type:    models.MsgTypeStateSnapshot,
		RoomID:  roomID,
		Payload: snap,
	}
}
