// Package broadcast decides what gets re-pushed, to whom, after a state
// mutation. Callers mutate an arena (or the registry) and then invoke
// the matching method here; failed mutations must never reach this
// package.
package broadcast

import (
	"time"

	"go.uber.org/zap"

	"github.com/perso-gg/arena-backend/internal/arena"
	"github.com/perso-gg/arena-backend/internal/hub"
	"github.com/perso-gg/arena-backend/internal/view"
)

// Renderer serializes the shared documents. The concrete markup lives
// entirely behind this interface; the core never sees it.
type Renderer interface {
	Overlay(*view.Overlay) string
	Listing(*view.Listing) string
}

// Service fans state changes out through the hub. Full arena renders
// are deferred: the update carries only the channel, and each delivery
// loop renders for its own recipient, because the own-seat flag and the
// embed origin differ per viewer. Emote overlays and the lobby listing
// are viewer-independent, so they are rendered once and shared.
type Service struct {
	reg    *arena.Registry
	hub    *hub.Hub
	render Renderer
	log    *zap.Logger
	now    func() time.Time
}

func New(reg *arena.Registry, h *hub.Hub, render Renderer, log *zap.Logger) *Service {
	return &Service{
		reg:    reg,
		hub:    h,
		render: render,
		log:    log,
		now:    time.Now,
	}
}

// Arena pushes a full re-render marker to every viewer of channel.
func (s *Service) Arena(channel string) {
	s.log.Info("broadcast arena", zap.String("channel", channel))
	s.hub.Publish(channel, hub.Update{Kind: hub.KindArena, Channel: channel})
}

// Emotes renders channel's emote overlay once and pushes the shared
// fragment to every viewer of that channel.
func (s *Service) Emotes(channel string) {
	a := s.reg.Arena(channel)
	if a == nil {
		return
	}
	doc := a.RenderOverlay(s.now())
	s.log.Info("broadcast emotes", zap.String("channel", channel), zap.Int("emotes", len(doc.Emotes)))
	s.hub.Publish(channel, hub.Update{
		Kind:     hub.KindEmotes,
		Channel:  channel,
		Fragment: s.render.Overlay(doc),
	})
}

// Listing renders the lobby listing once and pushes it to everyone on
// the lobby scope. Call it whenever any arena's occupancy changed.
func (s *Service) Listing() {
	doc := s.reg.Listing()
	s.log.Info("broadcast listing", zap.Int("arenas", len(doc.Entries)))
	s.hub.Publish(hub.Lobby, hub.Update{
		Kind:     hub.KindListing,
		Fragment: s.render.Listing(doc),
	})
}
