package services

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"

	"github.com/Astrobubu/StageTimer/internal/models"
)

// AgendaStore is the external system of record for agendas. The coordinator
// only reads from it, once, when a room identifier is first joined; all
// writes happen through the HTTP agenda-editing API outside the
// coordinator's path.
type AgendaStore interface {
	LoadAgenda(roomID string) ([]models.TimerItem, error)
}

// PBAgendaStore persists rooms and their agendas in PocketBase collections.
type PBAgendaStore struct {
	app core.App
}

func NewPBAgendaStore(app core.App) *PBAgendaStore {
	return &PBAgendaStore{app: app}
}

// CreateRoom creates a persisted room record for the given slug.
func (s *PBAgendaStore) CreateRoom(slug, name, owner string) (*core.Record, error) {
	collection, err := s.app.FindCollectionByNameOrId("rooms")
	if err != nil {
		return nil, fmt.Errorf("failed to find rooms collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("slug", slug)
	record.Set("name", name)
	record.Set("owner", owner)

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("failed to save room record: %w", err)
	}
	return record, nil
}

// GetRoomBySlug retrieves the persisted room record for a slug.
func (s *PBAgendaStore) GetRoomBySlug(slug string) (*core.Record, error) {
	records, err := s.app.FindRecordsByFilter(
		"rooms",
		"slug = {:slug}",
		"",
		1,
		0,
		map[string]any{"slug": slug},
	)
	if err != nil || len(records) == 0 {
		return nil, fmt.Errorf("room not found")
	}
	return records[0], nil
}

// LoadAgenda returns the persisted agenda for a room slug in stored order.
// A slug with no persisted room yields an empty agenda, not an error: live
// rooms may exist that were never saved.
func (s *PBAgendaStore) LoadAgenda(roomID string) ([]models.TimerItem, error) {
	room, err := s.GetRoomBySlug(roomID)
	if err != nil {
		return nil, nil
	}

	records, err := s.app.FindRecordsByFilter(
		"agenda_items",
		"room_id = {:roomId}",
		"position",
		maxAgendaQuery,
		0,
		map[string]any{"roomId": room.Id},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load agenda: %w", err)
	}

	items := make([]models.TimerItem, 0, len(records))
	for _, rec := range records {
		items = append(items, models.TimerItem{
			ID:       rec.GetString("item_id"),
			Name:     rec.GetString("name"),
			Duration: rec.GetInt("duration"),
			Order:    rec.GetInt("position"),
			IsPause:  rec.GetBool("is_pause"),
		})
	}
	return items, nil
}

// SaveAgenda replaces the persisted agenda for a room slug wholesale,
// mirroring the live replaceAgenda semantics: no partial edits.
func (s *PBAgendaStore) SaveAgenda(slug string, items []models.TimerItem) error {
	room, err := s.GetRoomBySlug(slug)
	if err != nil {
		return err
	}

	existing, err := s.app.FindRecordsByFilter(
		"agenda_items",
		"room_id = {:roomId}",
		"",
		maxAgendaQuery,
		0,
		map[string]any{"roomId": room.Id},
	)
	if err == nil {
		for _, rec := range existing {
			if err := s.app.Delete(rec); err != nil {
				return fmt.Errorf("failed to clear agenda: %w", err)
			}
		}
	}

	collection, err := s.app.FindCollectionByNameOrId("agenda_items")
	if err != nil {
		return fmt.Errorf("failed to find agenda_items collection: %w", err)
	}

	for i, item := range items {
		rec := core.NewRecord(collection)
		rec.Set("room_id", room.Id)
		rec.Set("item_id", item.ID)
		rec.Set("name", item.Name)
		rec.Set("duration", item.Duration)
		rec.Set("position", i)
		rec.Set("is_pause", item.IsPause)

		if err := s.app.Save(rec); err != nil {
			return fmt.Errorf("failed to save agenda item %q: %w", item.ID, err)
		}
	}
	return nil
}

const maxAgendaQuery = 500
