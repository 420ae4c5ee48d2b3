package httpapi

import (
	"fmt"
	"html"
	"strings"

	"github.com/perso-gg/arena-backend/internal/view"
)

// Renderer turns the core's structural documents into the HTML
// fragments clients swap in place. It is the only place markup exists;
// the core hands over typed nodes and nothing else.
type Renderer struct{}

// Arena serializes a per-recipient arena document. Vacant seats carry
// the click-to-move action; the recipient's own seat gets its own
// character class.
func (Renderer) Arena(doc *view.Arena) string {
	var b strings.Builder
	b.WriteString(`<div id="arena-root" class="arena-container">`)

	b.WriteString(`<div class="emote-buttons">`)
	for i := 0; i < doc.EmoteKinds; i++ {
		fmt.Fprintf(&b,
			`<div class="emote-button" data-on-click="@post('/emote/%s/%d')"><img src="/static/img/emotes/emote%d.png" alt="Emote %d"></div>`,
			doc.Channel, i, i, i)
	}
	b.WriteString(`</div>`)

	for _, side := range doc.Sides {
		fmt.Fprintf(&b, `<div class="seating-area %s-seats">`, side.Name)
		for _, tier := range side.Tiers {
			fmt.Fprintf(&b, `<div class="tier tier-%d">`, tier.Index)
			for _, seat := range tier.Seats {
				writeSeat(&b, doc.Channel, seat)
			}
			b.WriteString(`</div>`)
		}
		b.WriteString(`</div>`)

		if side.Name == "left" {
			fmt.Fprintf(&b,
				`<div class="stream-container"><iframe src="https://player.twitch.tv/?channel=%s&parent=%s" height="100%%" width="100%%" frameborder="0" allowfullscreen></iframe></div>`,
				doc.Embed.Channel, doc.Embed.Origin)
		}
	}

	b.WriteString(`<div class="footer">made with love by ᓚᘏᗢ</div>`)
	b.WriteString(`</div>`)
	return b.String()
}

func writeSeat(b *strings.Builder, channel string, seat view.Seat) {
	switch {
	case !seat.Occupied:
		fmt.Fprintf(b,
			`<div id="%s" class="empty-seat" style="anchor-name: --%s;" data-on-click="@post('/move/%s/%s')"></div>`,
			seat.ID, seat.ID, channel, seat.ID)
	case seat.Own:
		fmt.Fprintf(b,
			`<div id="%s" class="occupied-seat" style="anchor-name: --%s;"><div class="user-character"></div></div>`,
			seat.ID, seat.ID)
	default:
		fmt.Fprintf(b,
			`<div id="%s" class="occupied-seat" style="anchor-name: --%s;"><div class="visitor-character"></div></div>`,
			seat.ID, seat.ID)
	}
}

// Overlay serializes the shared emote layer. Each emote anchors to its
// sender's seat; combo scale only shows up once it exceeds 1.
func (Renderer) Overlay(doc *view.Overlay) string {
	var b strings.Builder
	b.WriteString(`<div id="emotes-overlay">`)
	for _, e := range doc.Emotes {
		scale := ""
		if e.Scale > 1.0 {
			scale = fmt.Sprintf(" scale: %.1f;", e.Scale)
		}
		fmt.Fprintf(&b,
			`<div class="emote" style="position-anchor: --%s;%s"><img src="/static/img/emotes/emote%d.png" alt="Emote %d"></div>`,
			e.SeatID, scale, e.Kind, e.Kind)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// Listing serializes the lobby's arena list.
func (Renderer) Listing(doc *view.Listing) string {
	var b strings.Builder
	b.WriteString(`<div id="index-div" class="streamer-list">`)
	for _, e := range doc.Entries {
		fmt.Fprintf(&b,
			`<a href="/arena/%s" class="streamer-button"><span class="streamer-name">%s</span><span class="occupancy">(%d/%d)</span></a>`,
			e.Channel, html.EscapeString(e.Name), e.Occupants, e.Capacity)
	}
	b.WriteString(`</div>`)
	return b.String()
}
