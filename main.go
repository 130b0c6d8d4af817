package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"github.com/Astrobubu/StageTimer/internal/handlers"
	"github.com/Astrobubu/StageTimer/internal/security"
	"github.com/Astrobubu/StageTimer/internal/services"
	_ "github.com/Astrobubu/StageTimer/pb_migrations"
	"github.com/Astrobubu/StageTimer/utils"
)

func main() {
	pb := pocketbase.New()

	cfg := utils.LoadConfig()

	// The registry and coordinator live for the whole process and are torn
	// down on terminate; nothing here is package-level state.
	metrics := services.NewMetrics()
	hub := services.NewHub(metrics)
	store := services.NewPBAgendaStore(pb)
	registry := services.NewRegistry(store, metrics)
	tracker := services.NewTracker()
	coordinator := services.NewCoordinator(registry, tracker, hub, metrics)
	hub.SetDispatcher(coordinator)

	pb.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.Bind(utils.AuthCookieMiddleware())

		go hub.Run()

		origins := security.NewOriginValidator(cfg.AllowedOrigins)
		ws := handlers.NewWSHandler(hub, origins)
		rooms := handlers.NewRoomHandlers(store)

		se.Router.GET("/ws/{roomId}", ws.HandleWebSocket)
		se.Router.POST("/api/rooms", rooms.CreateRoom)
		se.Router.GET("/api/rooms/{slug}", rooms.GetRoom)
		se.Router.PUT("/api/rooms/{slug}/agenda", rooms.UpdateAgenda)
		se.Router.GET("/api/metrics", handlers.HandleMetrics(hub))
		se.Router.GET("/api/health", handlers.HandleHealth(hub))

		return se.Next()
	})

	pb.OnTerminate().BindFunc(func(te *core.TerminateEvent) error {
		coordinator.Shutdown()
		return te.Next()
	})

	if err := pb.Start(); err != nil {
		log.Fatal(err)
	}
}
