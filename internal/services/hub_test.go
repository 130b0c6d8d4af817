package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Astrobubu/StageTimer/internal/services"
)

func TestHub_Initialization(t *testing.T) {
	t.Run("creates new hub", func(t *testing.T) {
		hub := services.NewHub(services.NewMetrics())

		assert.NotNil(t, hub)
	})

	t.Run("hub can be started", func(t *testing.T) {
		hub := services.NewHub(services.NewMetrics())

		// Start hub in background
		go hub.Run()

		// Broadcasting to an unknown room must not panic or block
		hub.BroadcastToRoom("nowhere", nil)
		assert.False(t, hub.SendToConn("nobody", nil))
	})
}
