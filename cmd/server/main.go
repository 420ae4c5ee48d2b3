package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/perso-gg/arena-backend/internal/arena"
	"github.com/perso-gg/arena-backend/internal/broadcast"
	"github.com/perso-gg/arena-backend/internal/config"
	"github.com/perso-gg/arena-backend/internal/httpapi"
	"github.com/perso-gg/arena-backend/internal/hub"
	"github.com/perso-gg/arena-backend/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	arenas := make([]*arena.Arena, 0, len(cfg.Arenas))
	for _, ac := range cfg.Arenas {
		arenas = append(arenas, arena.New(ac.Channel, ac.Name, cfg.Tiers, cfg.SeatsPerTier))
	}
	registry := arena.NewRegistry(arenas...)

	render := httpapi.Renderer{}
	connections := hub.New(logger.Named("hub"))
	bcast := broadcast.New(registry, connections, render, logger.Named("broadcast"))

	streams := &ws.Streams{
		Registry:  registry,
		Hub:       connections,
		Broadcast: bcast,
		Render:    render,
		Origin:    httpapi.EmbedOrigin(cfg.EmbedParent),
		Log:       logger.Named("ws"),
	}
	handlers := &httpapi.Handlers{
		Registry:  registry,
		Hub:       connections,
		Broadcast: bcast,
		Log:       logger.Named("http"),
	}

	handler := httpapi.SetupRoutes(handlers, streams)

	logger.Info("listening", zap.String("addr", cfg.Addr), zap.Int("arenas", len(cfg.Arenas)))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
