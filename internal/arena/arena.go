package arena

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var ErrUnknownChannel = errors.New("unknown channel")
var ErrArenaFull = errors.New("arena full")
var ErrInvalidSeat = errors.New("invalid seat")
var ErrNotSeated = errors.New("user not seated")

// Sides of the seating area, in render order.
var Sides = []string{"left", "right"}

// Emote is one entry in an arena's emote log.
type Emote struct {
	UserID string
	Kind   int
	At     time.Time
}

// Arena is a virtual venue bound to one external live-video channel.
// Seats and userSeats are exact mutual inverses at all times: a seat id
// maps to its occupant (empty string when vacant, every grid seat is
// always present as a key) and userSeats maps each seated user back to
// their seat.
type Arena struct {
	mu sync.Mutex

	channel      string
	name         string
	tiers        int
	seatsPerTier int
	maxSeats     int

	seats     map[string]string
	userSeats map[string]string
	emotes    []Emote

	now func() time.Time
}

// New builds an arena with every seat vacant. The grid holds
// tiers × seatsPerTier seats on each of the two sides.
func New(channel, name string, tiers, seatsPerTier int) *Arena {
	a := &Arena{
		channel:      channel,
		name:         name,
		tiers:        tiers,
		seatsPerTier: seatsPerTier,
		maxSeats:     tiers * seatsPerTier * 2,
		seats:        make(map[string]string, tiers*seatsPerTier*2),
		userSeats:    make(map[string]string),
		now:          time.Now,
	}
	for _, side := range Sides {
		for tier := 0; tier < tiers; tier++ {
			for seat := 0; seat < seatsPerTier; seat++ {
				a.seats[SeatID(side, tier, seat)] = ""
			}
		}
	}
	return a
}

// SeatID names one grid slot.
func SeatID(side string, tier, seat int) string {
	return fmt.Sprintf("%s_%d_%d", side, tier, seat)
}

func (a *Arena) Channel() string { return a.channel }
func (a *Arena) Name() string    { return a.name }
func (a *Arena) MaxSeats() int   { return a.maxSeats }

// Occupants reports the number of occupied seats.
func (a *Arena) Occupants() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.userSeats)
}

// Seat returns the seat held by user, if any.
func (a *Arena) Seat(userID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	seat, ok := a.userSeats[userID]
	return seat, ok
}

// Join seats the user at a uniformly random vacant seat and returns its
// id. A user already seated here is reseated. Returns ErrArenaFull when
// no vacant seat exists; state is untouched in that case.
func (a *Arena) Join(userID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	prior, seated := a.userSeats[userID]

	free := make([]string, 0, a.maxSeats)
	for seatID, occupant := range a.seats {
		if occupant == "" || (seated && seatID == prior) {
			free = append(free, seatID)
		}
	}
	if len(free) == 0 {
		return "", ErrArenaFull
	}

	if seated {
		delete(a.userSeats, userID)
		a.seats[prior] = ""
	}

	seatID := free[rand.Intn(len(free))]
	a.seats[seatID] = userID
	a.userSeats[userID] = seatID
	return seatID, nil
}

// Leave vacates the user's seat. No-op if the user holds none.
func (a *Arena) Leave(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	seatID, ok := a.userSeats[userID]
	if !ok {
		return
	}
	a.seats[seatID] = ""
	delete(a.userSeats, userID)
}

// Move reseats the user at seatID. Returns ErrInvalidSeat when the
// target does not exist or is occupied, ErrNotSeated when the mover
// holds no seat here. The vacate and the occupy are one step: no
// intermediate state is observable.
func (a *Arena) Move(userID, seatID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	occupant, exists := a.seats[seatID]
	if !exists || occupant != "" {
		return ErrInvalidSeat
	}
	current, ok := a.userSeats[userID]
	if !ok {
		return ErrNotSeated
	}

	a.seats[current] = ""
	a.seats[seatID] = userID
	a.userSeats[userID] = seatID
	return nil
}

// AddEmote appends a timestamped emote entry for a seated user. Kind is
// opaque to the arena; callers validate the range.
func (a *Arena) AddEmote(userID string, kind int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.userSeats[userID]; !ok {
		return ErrNotSeated
	}
	a.emotes = append(a.emotes, Emote{UserID: userID, Kind: kind, At: a.now()})
	return nil
}
