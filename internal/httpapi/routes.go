package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/perso-gg/arena-backend/internal/session"
	"github.com/perso-gg/arena-backend/internal/ws"
)

func SetupRoutes(h *Handlers, s *ws.Streams) http.Handler {
	r := chi.NewRouter()
	r.Use(session.Middleware)

	r.Get("/", h.Home())
	r.Get("/healthz", Healthz)

	r.Get("/stream-list", s.ListingStream())
	r.Get("/arena/{channel}", h.EnterArena())
	r.Get("/arena-stream/{channel}", s.ArenaStream())
	r.Post("/move/{channel}/{seatID}", h.MoveSeat())
	r.Post("/emote/{channel}/{index}", h.SendEmote())

	return r
}
