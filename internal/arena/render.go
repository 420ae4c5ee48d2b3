package arena

import (
	"time"

	"github.com/perso-gg/arena-backend/internal/view"
)

// EmoteKinds is the size of the emote asset set clients can send.
const EmoteKinds = 8

// Render projects the arena into a structural document for one
// recipient: the seat grid with occupancy, the recipient's own seat
// flagged, and the video embed parameterized with origin.
func (a *Arena) Render(userID, origin string) *view.Arena {
	a.mu.Lock()
	defer a.mu.Unlock()

	own := a.userSeats[userID]

	doc := &view.Arena{
		Channel:    a.channel,
		Embed:      view.Embed{Channel: a.channel, Origin: origin},
		EmoteKinds: EmoteKinds,
		Sides:      make([]view.Side, 0, len(Sides)),
	}
	for _, side := range Sides {
		s := view.Side{Name: side, Tiers: make([]view.Tier, 0, a.tiers)}
		for tier := 0; tier < a.tiers; tier++ {
			t := view.Tier{Index: tier, Seats: make([]view.Seat, 0, a.seatsPerTier)}
			for seat := 0; seat < a.seatsPerTier; seat++ {
				id := SeatID(side, tier, seat)
				t.Seats = append(t.Seats, view.Seat{
					ID:       id,
					Occupied: a.seats[id] != "",
					Own:      own != "" && id == own,
				})
			}
			s.Tiers = append(s.Tiers, t)
		}
		doc.Sides = append(doc.Sides, s)
	}
	return doc
}

// RenderOverlay prunes the emote log, recomputes combo scales and
// projects the surviving entries into the shared overlay document.
// Anchoring is seat-relative, so one overlay serves every recipient.
func (a *Arena) RenderOverlay(now time.Time) *view.Overlay {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pruneEmotesLocked(now)
	scales := a.scalesLocked(now)

	doc := &view.Overlay{Channel: a.channel}
	for _, e := range a.emotes {
		seatID, ok := a.userSeats[e.UserID]
		if !ok {
			// Sender left their seat; their emotes have nothing to
			// anchor to.
			continue
		}
		scale, ok := scales[ScaleKey{UserID: e.UserID, Kind: e.Kind}]
		if !ok {
			scale = 1.0
		}
		doc.Emotes = append(doc.Emotes, view.EmoteNode{SeatID: seatID, Kind: e.Kind, Scale: scale})
	}
	return doc
}
