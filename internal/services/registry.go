package services

import (
	"log"
	"sync"

	"github.com/Astrobubu/StageTimer/internal/models"
)

// Registry owns the mapping from room identifier to live room state. It is
// constructed at process start and injected into the coordinator; there is no
// package-level room table. At most one Room instance exists per id.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*models.Room

	store   AgendaStore
	metrics *Metrics
}

func NewRegistry(store AgendaStore, metrics *Metrics) *Registry {
	return &Registry{
		rooms:   make(map[string]*models.Room),
		store:   store,
		metrics: metrics,
	}
}

// GetOrCreate returns the live room for roomID, creating it on first use.
// A freshly created room is seeded from the agenda store; a store failure
// degrades to an empty agenda rather than failing the join.
func (r *Registry) GetOrCreate(roomID string) *models.Room {
	r.mu.RLock()
	room, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if ok {
		return room
	}

	// Seed outside the lock; store reads can hit disk.
	agenda, err := r.store.LoadAgenda(roomID)
	if err != nil {
		log.Printf("⚠️  Failed to seed agenda for room %s: %v", roomID, err)
		agenda = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[roomID]; ok {
		return room
	}

	room = models.NewRoom(roomID, agenda)
	r.rooms[roomID] = room
	r.metrics.IncrementRooms()
	log.Printf("✓ Room created: %s (%d agenda items)", roomID, len(agenda))
	return room
}

// Get returns the live room for roomID without creating it.
func (r *Registry) Get(roomID string) (*models.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// Exists reports whether a live room is tracked for roomID.
func (r *Registry) Exists(roomID string) bool {
	_, ok := r.Get(roomID)
	return ok
}

// Remove destroys the live room for roomID. Only empty rooms may be removed;
// the call is a no-op otherwise. The caller is responsible for stopping the
// room's clock first.
func (r *Registry) Remove(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok || !room.Empty() {
		return false
	}

	delete(r.rooms, roomID)
	r.metrics.DecrementRooms()
	log.Printf("✓ Room destroyed: %s (empty)", roomID)
	return true
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
