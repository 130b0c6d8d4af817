package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"

	"github.com/Astrobubu/StageTimer/internal/models"
	"github.com/Astrobubu/StageTimer/internal/security"
	"github.com/Astrobubu/StageTimer/internal/services"
)

// RoomHandlers is the HTTP surface of the persisted agenda store: room
// records are created and their agendas edited here, outside the
// coordinator's write path. The live coordinator only ever reads this data,
// once, when seeding a fresh room.
type RoomHandlers struct {
	store *services.PBAgendaStore
}

func NewRoomHandlers(store *services.PBAgendaStore) *RoomHandlers {
	return &RoomHandlers{store: store}
}

func (h *RoomHandlers) CreateRoom(re *core.RequestEvent) error {
	if re.Auth == nil {
		return re.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	name := re.Request.FormValue("name")
	if name == "" {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "Room name is required"})
	}
	name, err := security.ValidateItemName(name)
	if err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": security.SanitizeErrorMessage(err)})
	}

	slug := uuid.New().String()
	record, err := h.store.CreateRoom(slug, name, re.Auth.Id)
	if err != nil {
		return re.JSON(http.StatusInternalServerError, map[string]string{"error": security.SanitizeErrorMessage(err)})
	}

	return re.JSON(http.StatusOK, map[string]string{
		"id":   record.Id,
		"slug": slug,
		"name": name,
	})
}

func (h *RoomHandlers) GetRoom(re *core.RequestEvent) error {
	slug := re.Request.PathValue("slug")
	if err := security.ValidateRoomID(slug); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid room id"})
	}

	record, err := h.store.GetRoomBySlug(slug)
	if err != nil {
		return re.JSON(http.StatusNotFound, map[string]string{"error": "Room not found"})
	}

	agenda, err := h.store.LoadAgenda(slug)
	if err != nil {
		return re.JSON(http.StatusInternalServerError, map[string]string{"error": security.SanitizeErrorMessage(err)})
	}

	return re.JSON(http.StatusOK, map[string]interface{}{
		"slug":   slug,
		"name":   record.GetString("name"),
		"agenda": agenda,
	})
}

// UpdateAgenda replaces the persisted agenda wholesale. This is the store's
// only write path; pushing the same agenda to the live room goes through the
// websocket replaceAgenda command separately.
func (h *RoomHandlers) UpdateAgenda(re *core.RequestEvent) error {
	if re.Auth == nil {
		return re.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	slug := re.Request.PathValue("slug")
	if err := security.ValidateRoomID(slug); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid room id"})
	}

	record, err := h.store.GetRoomBySlug(slug)
	if err != nil {
		return re.JSON(http.StatusNotFound, map[string]string{"error": "Room not found"})
	}
	if record.GetString("owner") != re.Auth.Id {
		return re.JSON(http.StatusForbidden, map[string]string{"error": "Not the room owner"})
	}

	var agenda []models.TimerItem
	if err := json.NewDecoder(re.Request.Body).Decode(&agenda); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "Malformed agenda"})
	}

	agenda, err = security.ValidateAgenda(agenda)
	if err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": security.SanitizeErrorMessage(err)})
	}

	if err := h.store.SaveAgenda(slug, agenda); err != nil {
		return re.JSON(http.StatusInternalServerError, map[string]string{"error": security.SanitizeErrorMessage(err)})
	}

	return re.JSON(http.StatusOK, map[string]interface{}{
		"slug":   slug,
		"agenda": agenda,
	})
}
