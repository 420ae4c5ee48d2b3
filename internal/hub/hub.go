// Package hub is the push-delivery registry: one mailbox per
// (scope, user) pair, where a scope is the lobby or one arena channel.
package hub

import (
	"sync"

	"go.uber.org/zap"
)

// Lobby is the scope carrying listing updates.
const Lobby = "streamlist"

// Kind tags what a mailbox update asks the delivery loop to push.
type Kind string

const (
	// KindArena asks for a full arena re-render. The fragment is empty:
	// full renders are recipient-specific and happen at delivery time.
	KindArena Kind = "arena"
	// KindEmotes carries an overlay fragment shared by every recipient.
	KindEmotes Kind = "emotes"
	// KindListing carries the lobby listing fragment.
	KindListing Kind = "listing"
)

// Update is one entry in a delivery mailbox.
type Update struct {
	Kind     Kind
	Channel  string
	Fragment string
}

const mailboxDepth = 16

// Mailbox is a single-consumer delivery queue. The hub closes it when
// the registration is replaced or dropped, which ends the consumer's
// delivery loop.
type Mailbox struct {
	ch   chan Update
	once sync.Once
}

func newMailbox() *Mailbox {
	return &Mailbox{ch: make(chan Update, mailboxDepth)}
}

// Updates is the receive side of the mailbox.
func (m *Mailbox) Updates() <-chan Update { return m.ch }

func (m *Mailbox) close() {
	m.once.Do(func() { close(m.ch) })
}

type key struct {
	scope  string
	userID string
}

// Hub keys live mailboxes by (scope, user). All map access and all
// sends and closes happen under mu, so a publish can never race a
// close.
type Hub struct {
	mu        sync.Mutex
	mailboxes map[key]*Mailbox
	log       *zap.Logger
}

func New(log *zap.Logger) *Hub {
	return &Hub{
		mailboxes: make(map[key]*Mailbox),
		log:       log,
	}
}

// Register creates the mailbox for (scope, user), replacing and closing
// any prior one so its delivery loop ends. At most one live mailbox
// exists per key.
func (h *Hub) Register(scope, userID string) *Mailbox {
	h.mu.Lock()
	defer h.mu.Unlock()

	k := key{scope: scope, userID: userID}
	if prior, ok := h.mailboxes[k]; ok {
		prior.close()
	}
	mb := newMailbox()
	h.mailboxes[k] = mb
	h.log.Info("mailbox registered", zap.String("scope", scope), zap.String("user", userID))
	return mb
}

// Unregister removes the registration for (scope, user) if it still
// refers to mb, and closes mb either way. It reports whether mb was the
// live registration: a replaced mailbox unregistering late cannot evict
// its successor, and callers use the result to decide whether the
// connection-scoped cleanup tied to the registration is still theirs to
// run. Idempotent; repeat calls report false.
func (h *Hub) Unregister(scope, userID string, mb *Mailbox) bool {
	if mb == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	k := key{scope: scope, userID: userID}
	if current, ok := h.mailboxes[k]; ok && current == mb {
		delete(h.mailboxes, k)
		h.log.Info("mailbox unregistered", zap.String("scope", scope), zap.String("user", userID))
		mb.close()
		return true
	}
	mb.close()
	return false
}

// Drop removes and closes whatever mailbox is registered for
// (scope, user). No-op when there is none.
func (h *Hub) Drop(scope, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	k := key{scope: scope, userID: userID}
	if mb, ok := h.mailboxes[k]; ok {
		delete(h.mailboxes, k)
		mb.close()
	}
}

// Publish enqueues u into every mailbox under scope. Never blocks: a
// full mailbox sheds its oldest update to make room. A consumer that
// stays stalled just sees a shorter history when it resumes.
func (h *Hub) Publish(scope string, u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for k, mb := range h.mailboxes {
		if k.scope != scope {
			continue
		}
		select {
		case mb.ch <- u:
		default:
			select {
			case <-mb.ch:
			default:
			}
			select {
			case mb.ch <- u:
			default:
			}
		}
		n++
	}
	h.log.Debug("published",
		zap.String("scope", scope),
		zap.String("kind", string(u.Kind)),
		zap.Int("mailboxes", n))
}
