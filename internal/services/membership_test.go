package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Astrobubu/StageTimer/internal/models"
	"github.com/Astrobubu/StageTimer/internal/services"
)

func TestTracker_Counts(t *testing.T) {
	tracker := services.NewTracker()

	t.Run("empty room", func(t *testing.T) {
		status := tracker.Counts("demo")
		assert.Equal(t, 0, status.ViewerCount)
		assert.False(t, status.HasController)
	})

	t.Run("aggregates roles", func(t *testing.T) {
		tracker.Add("ctrl", "demo", models.RoleController)
		tracker.Add("v1", "demo", models.RoleViewer)
		tracker.Add("v2", "demo", models.RoleViewer)

		status := tracker.Counts("demo")
		assert.Equal(t, 2, status.ViewerCount)
		assert.True(t, status.HasController)
	})

	t.Run("role change is re-recorded not duplicated", func(t *testing.T) {
		tracker.Add("ctrl", "demo", models.RoleViewer)

		status := tracker.Counts("demo")
		assert.Equal(t, 3, status.ViewerCount)
		assert.False(t, status.HasController)
	})
}

func TestTracker_RoomsOf(t *testing.T) {
	tracker := services.NewTracker()
	tracker.Add("conn", "room1", models.RoleViewer)
	tracker.Add("conn", "room2", models.RoleController)

	assert.ElementsMatch(t, []string{"room1", "room2"}, tracker.RoomsOf("conn"))

	tracker.Remove("conn", "room1")
	assert.Equal(t, []string{"room2"}, tracker.RoomsOf("conn"))

	tracker.Remove("conn", "room2")
	assert.Empty(t, tracker.RoomsOf("conn"))
}
