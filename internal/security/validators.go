package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Astrobubu/StageTimer/internal/config"
	"github.com/Astrobubu/StageTimer/internal/models"
)

var (
	// Room ids are URL path segments: short slugs, no injection surface.
	roomIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
	// PocketBase record ids are 15-character alphanumeric strings.
	pocketbaseIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]{15}$`)
	// Item/display names: Unicode letters and digits plus common punctuation.
	nameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s'\-_.,:!?()&]+$`)
)

// ValidateRoomID checks that a room identifier is a well-formed slug.
func ValidateRoomID(id string) error {
	if id == "" {
		return fmt.Errorf("room id cannot be empty")
	}
	if len(id) > config.MaxRoomIDLength {
		return fmt.Errorf("room id too long (max %d characters)", config.MaxRoomIDLength)
	}
	if !roomIDRegex.MatchString(id) {
		return fmt.Errorf("room id contains invalid characters")
	}
	return nil
}

// ValidateRecordID checks that an id is either a PocketBase record id or a
// UUID, the two formats this system issues.
func ValidateRecordID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if pocketbaseIDRegex.MatchString(id) {
		return nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid id format: %w", err)
	}
	return nil
}

// ValidateItemName validates a single agenda item label.
func ValidateItemName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("item name cannot be empty")
	}
	if len(name) > config.MaxItemNameLength {
		return "", fmt.Errorf("item name too long (max %d characters)", config.MaxItemNameLength)
	}
	if !nameRegex.MatchString(name) {
		return "", fmt.Errorf("item name contains invalid characters")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return "", fmt.Errorf("item name contains control characters")
		}
	}
	return name, nil
}

// ValidateAgenda validates a wholesale agenda replacement: item count,
// id uniqueness, positive bounded durations and clean labels. Returns the
// agenda with sanitized names.
func ValidateAgenda(agenda []models.TimerItem) ([]models.TimerItem, error) {
	if len(agenda) > config.MaxAgendaItems {
		return nil, fmt.Errorf("agenda too large (max %d items)", config.MaxAgendaItems)
	}

	seen := make(map[string]struct{}, len(agenda))
	out := make([]models.TimerItem, 0, len(agenda))
	for i, item := range agenda {
		if item.ID == "" {
			return nil, fmt.Errorf("agenda item %d has no id", i)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("duplicate agenda item id %q", item.ID)
		}
		seen[item.ID] = struct{}{}

		if item.Duration <= 0 {
			return nil, fmt.Errorf("agenda item %q has non-positive duration", item.ID)
		}
		if item.Duration > config.MaxItemDuration {
			return nil, fmt.Errorf("agenda item %q duration too large (max %d seconds)", item.ID, config.MaxItemDuration)
		}

		name, err := ValidateItemName(item.Name)
		if err != nil {
			return nil, fmt.Errorf("agenda item %q: %w", item.ID, err)
		}
		item.Name = name
		out = append(out, item)
	}
	return out, nil
}

// ValidateMessageText validates the overlay message set by the controller.
func ValidateMessageText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("message cannot be empty")
	}
	if len(text) > config.MaxMessageLength {
		return "", fmt.Errorf("message too long (max %d characters)", config.MaxMessageLength)
	}
	for _, r := range text {
		if (r < 32 && r != '\n') || r == 127 {
			return "", fmt.Errorf("message contains control characters")
		}
	}
	return text, nil
}

// SanitizeErrorMessage removes storage internals from error messages before
// they reach an HTTP response.
func SanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())
	sensitivePatterns := []string{
		"sql",
		"database",
		"record",
		"collection",
		"pocketbase",
		"constraint",
		"unique",
		"no rows",
	}
	for _, pattern := range sensitivePatterns {
		if strings.Contains(errStr, pattern) {
			return "An error occurred while processing your request"
		}
	}
	return err.Error()
}
