package services

import (
	"sync"

	"github.com/Astrobubu/StageTimer/internal/models"
)

// Tracker records which connections are in which room, under which role.
// It is the sole source for the membership counts shown to clients, and it
// routes disconnects: a closing connection is looked up here to find every
// room it must be removed from.
type Tracker struct {
	mu    sync.RWMutex
	rooms map[string]map[string]models.Role // roomID -> connID -> role
	conns map[string]map[string]struct{}    // connID -> roomIDs
}

func NewTracker() *Tracker {
	return &Tracker{
		rooms: make(map[string]map[string]models.Role),
		conns: make(map[string]map[string]struct{}),
	}
}

// Add records (or re-records, on a role change) a connection's membership.
func (t *Tracker) Add(connID, roomID string, role models.Role) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rooms[roomID] == nil {
		t.rooms[roomID] = make(map[string]models.Role)
	}
	t.rooms[roomID][connID] = role

	if t.conns[connID] == nil {
		t.conns[connID] = make(map[string]struct{})
	}
	t.conns[connID][roomID] = struct{}{}
}

// Remove drops a connection's membership entry for one room.
func (t *Tracker) Remove(connID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if members, ok := t.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(t.rooms, roomID)
		}
	}
	if rooms, ok := t.conns[connID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(t.conns, connID)
		}
	}
}

// RoomsOf returns every room the connection is currently a member of.
func (t *Tracker) RoomsOf(connID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rooms := make([]string, 0, len(t.conns[connID]))
	for roomID := range t.conns[connID] {
		rooms = append(rooms, roomID)
	}
	return rooms
}

// Counts returns the aggregate membership for a room.
func (t *Tracker) Counts(roomID string) models.MembershipStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var status models.MembershipStatus
	for _, role := range t.rooms[roomID] {
		switch role {
		case models.RoleController:
			status.HasController = true
		case models.RoleViewer:
			status.ViewerCount++
		}
	}
	return status
}
