package models

import "sync"

// Room is the authoritative live state for a single room: the agenda, the
// timer cursor, the overlay message and the connection membership. It is
// ephemeral — created on first join, destroyed when the last connection
// leaves — and is never persisted; the agenda store is the system of record
// across restarts.
//
// All state transitions go through the methods below, each of which holds the
// room mutex for the whole transition. The mutex is the room's serialization
// point: no two mutations, and no mutation and clock tick, ever interleave.
// Rooms never share a lock, so one busy room cannot stall another.
type Room struct {
	ID string

	mu              sync.Mutex
	agenda          []TimerItem
	currentItemID   string // empty = nothing selected
	currentTimeLeft int
	isRunning       bool
	message         *string
	controller      string              // connection id, empty = no controller
	viewers         map[string]struct{} // connection ids

	// clockSeq invalidates in-flight ticks. Every transition that stops the
	// countdown bumps it, so a tick carrying a stale sequence is a no-op even
	// if its goroutine hasn't observed the stop yet.
	clockSeq uint64
}

// NewRoom creates a room with the given seeded agenda and nothing selected.
func NewRoom(id string, agenda []TimerItem) *Room {
	return &Room{
		ID:      id,
		agenda:  append([]TimerItem(nil), agenda...),
		viewers: make(map[string]struct{}),
	}
}

// TickKind classifies the outcome of a clock tick.
type TickKind int

const (
	// TickStale means the tick belonged to a countdown that has since been
	// stopped; nothing happened and the clock should exit.
	TickStale TickKind = iota
	// TickCounted means one second was consumed and time remains.
	TickCounted
	// TickExhausted means the countdown reached zero; the clock should exit.
	TickExhausted
)

// TickResult reports what a tick did so the caller can broadcast without
// re-locking the room.
type TickResult struct {
	Kind     TickKind
	Snapshot StateSnapshot

	// Advanced is set when exhaustion moved the cursor to the next agenda
	// item; AdvanceSnapshot is broadcast as a second event immediately after
	// the reached-zero snapshot.
	Advanced        bool
	AdvanceSnapshot StateSnapshot
}

// Join records a connection under the given role and returns the snapshot to
// reply with. A controller claim always wins: the previous controller, if
// any and different, is demoted to viewer and its id returned so the caller
// can notify it of the takeover.
func (r *Room) Join(connID string, role Role) (snap StateSnapshot, evicted string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch role {
	case RoleController:
		if r.controller != "" && r.controller != connID {
			evicted = r.controller
			r.viewers[evicted] = struct{}{}
		}
		r.controller = connID
		delete(r.viewers, connID)
	default:
		if r.controller == connID {
			r.controller = ""
		}
		r.viewers[connID] = struct{}{}
	}

	return r.snapshotLocked(), evicted
}

// Leave removes a connection from the room in whatever role it held.
// It reports whether the connection was present at all and whether the room
// is now empty and due for destruction.
func (r *Room) Leave(connID string) (touched, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.viewers[connID]; ok {
		delete(r.viewers, connID)
		touched = true
	}
	if r.controller == connID {
		r.controller = ""
		touched = true
	}

	empty = r.controller == "" && len(r.viewers) == 0
	if empty {
		r.haltLocked()
	}
	return touched, empty
}

// IsController reports whether connID holds the room's single write lease.
func (r *Room) IsController(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controller != "" && r.controller == connID
}

// Empty reports whether the room has no controller and no viewers.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controller == "" && len(r.viewers) == 0
}

// ReplaceAgenda swaps the agenda wholesale. If the selected item no longer
// exists in the new agenda the selection is cleared and any running countdown
// stopped, keeping the cursor invariant intact instead of carrying a stale
// reference. stopped tells the caller to cancel the room's clock.
func (r *Room) ReplaceAgenda(connID string, agenda []TimerItem) (snap StateSnapshot, stopped, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.controller != connID || r.controller == "" {
		return StateSnapshot{}, false, false
	}

	r.agenda = append([]TimerItem(nil), agenda...)

	if r.currentItemID != "" {
		if _, found := r.itemLocked(r.currentItemID); !found {
			stopped = r.isRunning
			r.currentItemID = ""
			r.currentTimeLeft = 0
			r.haltLocked()
		}
	}

	return r.snapshotLocked(), stopped, true
}

// SelectItem points the cursor at itemID, stopping any running countdown and
// arming the item's full duration. Unknown ids are a silent no-op.
func (r *Room) SelectItem(connID, itemID string) (snap StateSnapshot, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.controller != connID || r.controller == "" {
		return StateSnapshot{}, false
	}

	item, found := r.itemLocked(itemID)
	if !found {
		return StateSnapshot{}, false
	}

	r.haltLocked()
	r.currentItemID = item.ID
	r.currentTimeLeft = item.Duration
	return r.snapshotLocked(), true
}

// Start begins the countdown. started is true only when the room moved from
// stopped to running, in which case seq identifies the countdown generation
// the caller's clock must stamp on every tick. Starting an already-running
// room re-broadcasts state but starts no second clock.
func (r *Room) Start(connID string) (snap StateSnapshot, seq uint64, started, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.controller != connID || r.controller == "" {
		return StateSnapshot{}, 0, false, false
	}
	if r.currentItemID == "" || r.currentTimeLeft <= 0 {
		return StateSnapshot{}, 0, false, false
	}

	if !r.isRunning {
		r.isRunning = true
		r.clockSeq++
		started = true
	}
	return r.snapshotLocked(), r.clockSeq, started, true
}

// Pause stops the countdown without touching the remaining time.
func (r *Room) Pause(connID string) (snap StateSnapshot, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.controller != connID || r.controller == "" {
		return StateSnapshot{}, false
	}

	r.haltLocked()
	return r.snapshotLocked(), true
}

// Reset restores the selected item's full duration and stops the countdown.
// No-op when nothing is selected.
func (r *Room) Reset(connID string) (snap StateSnapshot, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.controller != connID || r.controller == "" {
		return StateSnapshot{}, false
	}

	item, found := r.itemLocked(r.currentItemID)
	if !found {
		return StateSnapshot{}, false
	}

	r.haltLocked()
	r.currentTimeLeft = item.Duration
	return r.snapshotLocked(), true
}

// AdjustTime shifts the remaining time by deltaMinutes, flooring at zero with
// no upper cap — the remaining time may exceed the item's nominal duration.
// stopped is true when the floor was hit while running: a countdown cannot
// stay running at zero, so it is paused in the same transition.
func (r *Room) AdjustTime(connID string, deltaMinutes int) (snap StateSnapshot, stopped, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.controller != connID || r.controller == "" {
		return StateSnapshot{}, false, false
	}

	r.currentTimeLeft += deltaMinutes * 60
	if r.currentTimeLeft <= 0 {
		r.currentTimeLeft = 0
		if r.isRunning {
			stopped = true
			r.haltLocked()
		}
	}
	return r.snapshotLocked(), stopped, true
}

// SetMessage sets the overlay message shown to every member.
func (r *Room) SetMessage(connID, text string) (snap StateSnapshot, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.controller != connID || r.controller == "" {
		return StateSnapshot{}, false
	}

	r.message = &text
	return r.snapshotLocked(), true
}

// ClearMessage removes the overlay message.
func (r *Room) ClearMessage(connID string) (snap StateSnapshot, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.controller != connID || r.controller == "" {
		return StateSnapshot{}, false
	}

	r.message = nil
	return r.snapshotLocked(), true
}

// Tick consumes one second of the countdown identified by seq. A tick whose
// sequence no longer matches, or that arrives while the room is not running,
// is stale and does nothing. On exhaustion the countdown stops and, when a
// next agenda item exists, the cursor advances to it un-started.
func (r *Room) Tick(seq uint64) TickResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq != r.clockSeq || !r.isRunning || r.currentTimeLeft <= 0 {
		return TickResult{Kind: TickStale}
	}

	r.currentTimeLeft--
	if r.currentTimeLeft > 0 {
		return TickResult{Kind: TickCounted, Snapshot: r.snapshotLocked()}
	}

	r.currentTimeLeft = 0
	r.haltLocked()
	res := TickResult{Kind: TickExhausted, Snapshot: r.snapshotLocked()}

	// Sequence position in the agenda decides "next", never the Order field.
	idx := -1
	for i := range r.agenda {
		if r.agenda[i].ID == r.currentItemID {
			idx = i
			break
		}
	}
	if idx >= 0 && idx+1 < len(r.agenda) {
		next := r.agenda[idx+1]
		r.currentItemID = next.ID
		r.currentTimeLeft = next.Duration
		res.Advanced = true
		res.AdvanceSnapshot = r.snapshotLocked()
	}
	return res
}

// Snapshot returns the current full state.
func (r *Room) Snapshot() StateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// haltLocked stops the countdown and invalidates any in-flight ticks.
// Callers must hold r.mu. Idempotent.
func (r *Room) haltLocked() {
	r.isRunning = false
	r.clockSeq++
}

func (r *Room) itemLocked(itemID string) (TimerItem, bool) {
	if itemID == "" {
		return TimerItem{}, false
	}
	for i := range r.agenda {
		if r.agenda[i].ID == itemID {
			return r.agenda[i], true
		}
	}
	return TimerItem{}, false
}

func (r *Room) snapshotLocked() StateSnapshot {
	snap := StateSnapshot{
		Agenda:          append([]TimerItem(nil), r.agenda...),
		CurrentTimeLeft: r.currentTimeLeft,
		IsRunning:       r.isRunning,
	}
	if r.currentItemID != "" {
		id := r.currentItemID
		snap.CurrentItemID = &id
	}
	if r.message != nil {
		text := *r.message
		snap.Message = &text
	}
	return snap
}
