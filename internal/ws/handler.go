// Package ws runs the delivery loops: one websocket per open stream,
// each draining its own hub mailbox and pushing fragments outward.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/perso-gg/arena-backend/internal/arena"
	"github.com/perso-gg/arena-backend/internal/broadcast"
	"github.com/perso-gg/arena-backend/internal/hub"
	"github.com/perso-gg/arena-backend/internal/session"
	"github.com/perso-gg/arena-backend/internal/view"
	"github.com/perso-gg/arena-backend/pkg/types"
)

const writeTimeout = 3 * time.Second

// FragmentRenderer serializes documents for the wire. Implemented by
// the httpapi renderer; the delivery loops never build markup
// themselves.
type FragmentRenderer interface {
	Arena(*view.Arena) string
	Listing(*view.Listing) string
}

// Streams owns the two stream endpoints.
type Streams struct {
	Registry  *arena.Registry
	Hub       *hub.Hub
	Broadcast *broadcast.Service
	Render    FragmentRenderer
	// Origin yields the host the video embed must be parameterized
	// with for this request.
	Origin func(*http.Request) string
	Log    *zap.Logger
}

// ListingStream streams lobby listing fragments to one visitor.
func (s *Streams) ListingStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := session.UserID(r.Context())
		if userID == "" {
			http.Error(w, "no session", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		log := s.Log.With(zap.String("user", userID))
		log.Info("listing stream opened")

		mb := s.Hub.Register(hub.Lobby, userID)
		defer s.Hub.Unregister(hub.Lobby, userID, mb)

		ctx := conn.CloseRead(r.Context())

		// Current listing goes out immediately so a fresh tab is never
		// blank until the next occupancy change.
		first := types.ServerMessage{Type: "listing", Fragment: s.Render.Listing(s.Registry.Listing())}
		if err := write(ctx, conn, first); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				log.Info("listing stream closed")
				return
			case u, ok := <-mb.Updates():
				if !ok {
					// Replaced by a newer registration.
					return
				}
				msg := types.ServerMessage{Type: string(u.Kind), Fragment: u.Fragment}
				if err := write(ctx, conn, msg); err != nil {
					return
				}
			}
		}
	}
}

// ArenaStream streams full and emote fragments for one arena to one
// viewer. A viewer arriving without a seat (page refresh, reconnect) is
// re-seated before the stream starts.
func (s *Streams) ArenaStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := session.UserID(r.Context())
		if userID == "" {
			http.Error(w, "no session", http.StatusBadRequest)
			return
		}
		channel := chi.URLParam(r, "channel")
		a := s.Registry.Arena(channel)
		if a == nil {
			http.Error(w, "unknown channel", http.StatusNotFound)
			return
		}

		log := s.Log.With(zap.String("user", userID), zap.String("channel", channel))

		if _, seated := a.Seat(userID); !seated {
			// Routed through the registry, not the arena: a stream
			// opened while seated elsewhere must vacate that seat, the
			// same rule enterArena enforces.
			_, left, err := s.Registry.JoinArena(userID, channel)
			for _, ch := range left {
				log.Info("auto-left other arena", zap.String("other", ch))
				s.Broadcast.Arena(ch)
			}
			if err != nil {
				if len(left) > 0 {
					s.Broadcast.Listing()
				}
				if errors.Is(err, arena.ErrArenaFull) {
					log.Warn("rejoin refused, arena full")
					http.Error(w, "arena full", http.StatusConflict)
					return
				}
				http.Error(w, "join failed", http.StatusInternalServerError)
				return
			}
			log.Info("re-seated on reconnect")
			s.Broadcast.Arena(channel)
			s.Broadcast.Listing()
		}

		origin := s.Origin(r)

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		log.Info("arena stream opened", zap.String("origin", origin))

		mb := s.Hub.Register(channel, userID)

		// Acquire/release pairing for the whole connection: whatever
		// way the loop exits, the seat is freed and both surfaces are
		// re-broadcast exactly once. The seat is released only if this
		// connection still holds the live registration — a reconnect
		// may have replaced it, and the successor owns the seat then.
		var cleanup sync.Once
		release := func() {
			cleanup.Do(func() {
				if !s.Hub.Unregister(channel, userID, mb) {
					log.Info("arena stream closed, superseded by reconnect")
					return
				}
				a.Leave(userID)
				log.Info("arena stream closed, seat released")
				s.Broadcast.Arena(channel)
				s.Broadcast.Listing()
			})
		}
		defer release()

		ctx := conn.CloseRead(r.Context())

		first := types.ServerMessage{Type: "arena", Fragment: s.Render.Arena(a.Render(userID, origin))}
		if err := write(ctx, conn, first); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-mb.Updates():
				if !ok {
					// Replaced by a reconnect; release sorts out that
					// the seat is no longer ours.
					return
				}
				msg := types.ServerMessage{Type: string(u.Kind), Fragment: u.Fragment}
				if u.Kind == hub.KindArena {
					// Full renders happen here, per recipient: the
					// own-seat flag and embed origin are ours alone.
					msg.Fragment = s.Render.Arena(a.Render(userID, origin))
				}
				if err := write(ctx, conn, msg); err != nil {
					return
				}
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}
