package httpapi

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/perso-gg/arena-backend/internal/arena"
	"github.com/perso-gg/arena-backend/internal/broadcast"
	"github.com/perso-gg/arena-backend/internal/hub"
	"github.com/perso-gg/arena-backend/internal/session"
)

// Handlers maps requests onto the core's boundary operations. Invalid
// requests are swallowed without touching state or broadcasting, the
// way the clients expect: a misclick must never surface an error page.
type Handlers struct {
	Registry  *arena.Registry
	Hub       *hub.Hub
	Broadcast *broadcast.Service
	Log       *zap.Logger
}

// EmbedOrigin resolves the host the video embed is parameterized with:
// the configured override, or the request host with any port stripped.
func EmbedOrigin(override string) func(*http.Request) string {
	return func(r *http.Request) string {
		if override != "" {
			return override
		}
		if host, _, err := net.SplitHostPort(r.Host); err == nil {
			return host
		}
		return r.Host
	}
}

// EnterArena seats the visitor in the requested arena, vacating any
// seat they hold elsewhere, and re-broadcasts every surface the move
// touched. Unknown channels and full arenas redirect back home.
func (h *Handlers) EnterArena() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := session.UserID(r.Context())
		channel := chi.URLParam(r, "channel")
		log := h.Log.With(zap.String("user", userID), zap.String("channel", channel))

		if h.Registry.Arena(channel) == nil {
			log.Warn("enter refused, unknown channel")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		// Entering a venue ends the visitor's lobby stream.
		h.Hub.Drop(hub.Lobby, userID)

		seatID, left, err := h.Registry.JoinArena(userID, channel)
		for _, ch := range left {
			log.Info("auto-left other arena", zap.String("other", ch))
			h.Broadcast.Arena(ch)
		}
		if err != nil {
			// Removals from other arenas stand even when the target
			// join failed, so the listing may still have changed.
			if len(left) > 0 {
				h.Broadcast.Listing()
			}
			log.Warn("enter refused", zap.Error(err))
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		log.Info("entered arena", zap.String("seat", seatID))
		h.Broadcast.Arena(channel)
		h.Broadcast.Listing()

		writeArenaPage(w, channel)
	}
}

// MoveSeat applies a seat move. Every validation failure (unknown
// channel, missing or occupied seat, unseated mover) is a silent no-op.
func (h *Handlers) MoveSeat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := session.UserID(r.Context())
		channel := chi.URLParam(r, "channel")
		seatID := chi.URLParam(r, "seatID")

		a := h.Registry.Arena(channel)
		if a == nil {
			w.WriteHeader(http.StatusOK)
			return
		}
		if err := a.Move(userID, seatID); err != nil {
			h.Log.Warn("move refused",
				zap.String("user", userID),
				zap.String("channel", channel),
				zap.String("seat", seatID),
				zap.Error(err))
			w.WriteHeader(http.StatusOK)
			return
		}

		h.Log.Info("moved seat",
			zap.String("user", userID),
			zap.String("channel", channel),
			zap.String("seat", seatID))
		h.Broadcast.Arena(channel)
		w.WriteHeader(http.StatusOK)
	}
}

// SendEmote appends an emote for a seated visitor. The index must name
// one of the shipped emote assets; anything else stops here so the core
// only ever sees kinds as opaque values it chose to accept.
func (h *Handlers) SendEmote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := session.UserID(r.Context())
		channel := chi.URLParam(r, "channel")

		kind, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil || kind < 0 || kind >= arena.EmoteKinds {
			w.WriteHeader(http.StatusOK)
			return
		}
		a := h.Registry.Arena(channel)
		if a == nil {
			w.WriteHeader(http.StatusOK)
			return
		}
		if err := a.AddEmote(userID, kind); err != nil {
			if !errors.Is(err, arena.ErrNotSeated) {
				h.Log.Warn("emote refused", zap.String("user", userID), zap.Error(err))
			}
			w.WriteHeader(http.StatusOK)
			return
		}

		h.Log.Info("emote sent",
			zap.String("user", userID),
			zap.String("channel", channel),
			zap.Int("kind", kind))
		h.Broadcast.Emotes(channel)
		_, _ = w.Write([]byte("OK"))
	}
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
