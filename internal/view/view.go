// Package view defines the structural documents the core emits after a
// state change. Nodes describe what a client should see; turning them
// into any concrete markup is the caller's problem.
package view

// Seat is one slot in the grid. Own marks the seat held by the user the
// document was rendered for.
type Seat struct {
	ID       string
	Occupied bool
	Own      bool
}

type Tier struct {
	Index int
	Seats []Seat
}

// Side is one half of the seating area, "left" or "right".
type Side struct {
	Name  string
	Tiers []Tier
}

// Embed references the external video player for a channel. Origin is
// the host the embed must be parameterized with.
type Embed struct {
	Channel string
	Origin  string
}

// Arena is the full per-recipient projection of an arena: seat grid,
// emote buttons and the video embed. The emote overlay travels
// separately (see Overlay) because it is not recipient-specific.
type Arena struct {
	Channel    string
	Embed      Embed
	EmoteKinds int
	Sides      []Side
}

// EmoteNode is one live emote, anchored to the sender's seat.
type EmoteNode struct {
	SeatID string
	Kind   int
	Scale  float64
}

// Overlay is the shared emote layer for an arena.
type Overlay struct {
	Channel string
	Emotes  []EmoteNode
}

type ListingEntry struct {
	Channel   string
	Name      string
	Occupants int
	Capacity  int
}

// Listing is the lobby view: one entry per arena, in configured order.
type Listing struct {
	Entries []ListingEntry
}
