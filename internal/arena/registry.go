package arena

import (
	"sync"

	"github.com/perso-gg/arena-backend/internal/view"
)

// Registry holds the fixed set of arenas. Membership is decided once at
// startup; afterwards only seat state changes. The registry enforces
// the one global rule the arenas cannot see on their own: a user holds
// at most one seat across the whole set.
type Registry struct {
	mu     sync.Mutex
	arenas map[string]*Arena
	order  []string
}

// NewRegistry indexes the given arenas by channel id, preserving order
// for listings.
func NewRegistry(arenas ...*Arena) *Registry {
	r := &Registry{arenas: make(map[string]*Arena, len(arenas))}
	for _, a := range arenas {
		r.arenas[a.Channel()] = a
		r.order = append(r.order, a.Channel())
	}
	return r
}

// Arena returns the arena for channel, or nil when unknown.
func (r *Registry) Arena(channel string) *Arena {
	return r.arenas[channel]
}

// Channels returns the channel ids in configured order.
func (r *Registry) Channels() []string {
	return append([]string(nil), r.order...)
}

// JoinArena seats the user in the target arena, first vacating any seat
// they hold elsewhere. It returns the channels the user was removed
// from so the caller can re-broadcast them — those removals stand even
// when the target join then fails. Returns ErrUnknownChannel for an
// unknown target and propagates ErrArenaFull from the join.
//
// The registry lock serializes cross-arena joins so two concurrent
// joins by the same user cannot leave them seated twice.
func (r *Registry) JoinArena(userID, channel string) (seatID string, left []string, err error) {
	target := r.arenas[channel]
	if target == nil {
		return "", nil, ErrUnknownChannel
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.order {
		if ch == channel {
			continue
		}
		other := r.arenas[ch]
		if _, seated := other.Seat(userID); seated {
			other.Leave(userID)
			left = append(left, ch)
		}
	}

	seatID, err = target.Join(userID)
	if err != nil {
		return "", left, err
	}
	return seatID, left, nil
}

// Listing projects every arena's occupancy for the lobby view.
func (r *Registry) Listing() *view.Listing {
	doc := &view.Listing{Entries: make([]view.ListingEntry, 0, len(r.order))}
	for _, ch := range r.order {
		a := r.arenas[ch]
		doc.Entries = append(doc.Entries, view.ListingEntry{
			Channel:   ch,
			Name:      a.Name(),
			Occupants: a.Occupants(),
			Capacity:  a.MaxSeats(),
		})
	}
	return doc
}
