package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/perso-gg/arena-backend/internal/arena"
	"github.com/perso-gg/arena-backend/internal/broadcast"
	"github.com/perso-gg/arena-backend/internal/httpapi"
	"github.com/perso-gg/arena-backend/internal/hub"
	"github.com/perso-gg/arena-backend/internal/ws"
	"github.com/perso-gg/arena-backend/pkg/types"
)

type fixture struct {
	reg    *arena.Registry
	hub    *hub.Hub
	server *httptest.Server
	client *http.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg := arena.NewRegistry(
		arena.New("x", "Arena X", 2, 2),
		arena.New("y", "Arena Y", 2, 2),
	)
	h := hub.New(zap.NewNop())
	render := httpapi.Renderer{}
	bcast := broadcast.New(reg, h, render, zap.NewNop())

	streams := &ws.Streams{
		Registry:  reg,
		Hub:       h,
		Broadcast: bcast,
		Render:    render,
		Origin:    httpapi.EmbedOrigin("localhost"),
		Log:       zap.NewNop(),
	}
	handlers := &httpapi.Handlers{Registry: reg, Hub: h, Broadcast: bcast, Log: zap.NewNop()}

	server := httptest.NewServer(httpapi.SetupRoutes(handlers, streams))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &fixture{
		reg:    reg,
		hub:    h,
		server: server,
		client: &http.Client{Jar: jar},
	}
}

func (f *fixture) wsURL(path string) string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + path
}

// dial opens a stream with the fixture client's session cookie.
func (f *fixture) dial(t *testing.T, ctx context.Context, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, f.wsURL(path), &websocket.DialOptions{
		HTTPClient: f.client,
	})
	require.NoError(t, err)
	return conn
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(rctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// waitOccupants polls until the arena reaches the wanted occupancy;
// stream cleanup runs on the server after the close frame lands, so a
// deadline poll is the only honest way to observe it.
func waitOccupants(t *testing.T, a *arena.Arena, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.Occupants() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("occupants never reached %d, at %d", want, a.Occupants())
}

func TestListingStream_PushesCurrentListingImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	conn := f.dial(t, ctx, "/stream-list")
	defer conn.Close(websocket.StatusNormalClosure, "")

	msg := readMessage(t, ctx, conn)
	require.Equal(t, "listing", msg.Type)
	require.Contains(t, msg.Fragment, `id="index-div"`)
	require.Contains(t, msg.Fragment, "(0/8)")
}

func TestListingStream_SeesOccupancyChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	conn := f.dial(t, ctx, "/stream-list")
	defer conn.Close(websocket.StatusNormalClosure, "")
	_ = readMessage(t, ctx, conn) // initial listing

	_, _, err := f.reg.JoinArena("someone", "x")
	require.NoError(t, err)
	// Mutations broadcast through the service, as the handlers do.
	bcast := broadcast.New(f.reg, f.hub, httpapi.Renderer{}, zap.NewNop())
	bcast.Listing()

	msg := readMessage(t, ctx, conn)
	require.Equal(t, "listing", msg.Type)
	require.Contains(t, msg.Fragment, "(1/8)")
}

func TestArenaStream_InitialFullRenderIsRecipientSpecific(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.client.Get(f.server.URL + "/arena/x")
	require.NoError(t, err)
	resp.Body.Close()

	conn := f.dial(t, ctx, "/arena-stream/x")
	defer conn.Close(websocket.StatusNormalClosure, "")

	msg := readMessage(t, ctx, conn)
	require.Equal(t, "arena", msg.Type)
	require.Contains(t, msg.Fragment, `id="arena-root"`)
	require.Contains(t, msg.Fragment, "user-character", "own seat must be flagged")
	require.Contains(t, msg.Fragment, "parent=localhost")
}

func TestArenaStream_ReseatsOnReconnect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No /arena/x visit first: the stream itself must seat the user,
	// as happens on a page refresh.
	conn := f.dial(t, ctx, "/arena-stream/x")
	defer conn.Close(websocket.StatusNormalClosure, "")

	msg := readMessage(t, ctx, conn)
	require.Equal(t, "arena", msg.Type)
	waitOccupants(t, f.reg.Arena("x"), 1)
}

func TestArenaStream_ReconnectWhileSeatedElsewhereVacatesOldSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.client.Get(f.server.URL + "/arena/x")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 1, f.reg.Arena("x").Occupants())

	watcherX := f.hub.Register("x", "watcher")

	// Opening the other arena's stream directly, without entering it
	// first, must move the seat, not add a second one.
	conn := f.dial(t, ctx, "/arena-stream/y")
	defer conn.Close(websocket.StatusNormalClosure, "")
	msg := readMessage(t, ctx, conn)
	require.Equal(t, "arena", msg.Type)

	waitOccupants(t, f.reg.Arena("y"), 1)
	require.Equal(t, 0, f.reg.Arena("x").Occupants(), "user seated in two arenas at once")

	// The vacated arena's viewers get a full re-render.
	select {
	case u := <-watcherX.Updates():
		require.Equal(t, hub.KindArena, u.Kind)
	case <-time.After(time.Second):
		t.Fatal("no re-broadcast for the vacated arena")
	}
}

func TestArenaStream_ReplacedStreamKeepsSuccessorSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.client.Get(f.server.URL + "/arena/x")
	require.NoError(t, err)
	resp.Body.Close()

	first := f.dial(t, ctx, "/arena-stream/x")
	_ = readMessage(t, ctx, first)

	// Same session reconnects: the new stream replaces the mailbox
	// while the seat carries over.
	second := f.dial(t, ctx, "/arena-stream/x")
	defer second.Close(websocket.StatusNormalClosure, "")
	_ = readMessage(t, ctx, second)

	// The superseded stream going away must not evict the seat the
	// successor still depends on, however late its cleanup runs.
	first.Close(websocket.StatusNormalClosure, "replaced")
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, 1, f.reg.Arena("x").Occupants(), "stale cleanup evicted the successor's seat")

	require.NoError(t, second.Close(websocket.StatusNormalClosure, "done"))
	waitOccupants(t, f.reg.Arena("x"), 0)
}

func TestArenaStream_AbruptDoubleCancellationCleansUpOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.client.Get(f.server.URL + "/arena/x")
	require.NoError(t, err)
	resp.Body.Close()

	conn := f.dial(t, ctx, "/arena-stream/x")
	_ = readMessage(t, ctx, conn)

	watcher := f.hub.Register("x", "watcher")
	lobby := f.hub.Register(hub.Lobby, "watcher")

	// Two cancellation signals land at once: the client drops the TCP
	// connection without a close frame and the server tears down every
	// client connection underneath the handler.
	go conn.CloseNow()
	f.server.CloseClientConnections()

	waitOccupants(t, f.reg.Arena("x"), 0)

	// Cleanup ran exactly once: one full re-render, one listing, and
	// nothing more however many signals fired.
	select {
	case u := <-watcher.Updates():
		require.Equal(t, hub.KindArena, u.Kind)
	case <-time.After(time.Second):
		t.Fatal("no arena re-broadcast after disconnect")
	}
	select {
	case u := <-lobby.Updates():
		require.Equal(t, hub.KindListing, u.Kind)
		require.Contains(t, u.Fragment, "(0/8)")
	case <-time.After(time.Second):
		t.Fatal("no listing re-broadcast after disconnect")
	}

	select {
	case u := <-watcher.Updates():
		t.Fatalf("cleanup broadcast the arena twice: %+v", u)
	case <-time.After(300 * time.Millisecond):
	}
	select {
	case u := <-lobby.Updates():
		t.Fatalf("cleanup broadcast the listing twice: %+v", u)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestArenaStream_DeliversEmoteOverlay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.client.Get(f.server.URL + "/arena/x")
	require.NoError(t, err)
	resp.Body.Close()

	conn := f.dial(t, ctx, "/arena-stream/x")
	defer conn.Close(websocket.StatusNormalClosure, "")
	_ = readMessage(t, ctx, conn) // initial full render

	resp, err = f.client.Post(f.server.URL+"/emote/x/5", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()

	msg := readMessage(t, ctx, conn)
	require.Equal(t, "emotes", msg.Type)
	require.Contains(t, msg.Fragment, `id="emotes-overlay"`)
	require.Contains(t, msg.Fragment, "emote5.png")
}

func TestArenaStream_CloseReleasesSeatAndRebroadcasts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.client.Get(f.server.URL + "/arena/x")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 1, f.reg.Arena("x").Occupants())

	conn := f.dial(t, ctx, "/arena-stream/x")
	_ = readMessage(t, ctx, conn)

	watcher := f.hub.Register("x", "watcher")
	lobby := f.hub.Register(hub.Lobby, "watcher")

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "done"))

	waitOccupants(t, f.reg.Arena("x"), 0)

	// Disconnect cleanup re-broadcasts the arena and the listing.
	select {
	case u := <-watcher.Updates():
		require.Equal(t, hub.KindArena, u.Kind)
	case <-time.After(time.Second):
		t.Fatal("no arena re-broadcast after disconnect")
	}
	select {
	case u := <-lobby.Updates():
		require.Equal(t, hub.KindListing, u.Kind)
		require.Contains(t, u.Fragment, "(0/8)")
	case <-time.After(time.Second):
		t.Fatal("no listing re-broadcast after disconnect")
	}
}

func TestArenaStream_UnknownChannelRefusesHandshake(t *testing.T) {
	f := newFixture(t)
	_, resp, err := websocket.Dial(context.Background(), f.wsURL("/arena-stream/nope"), &websocket.DialOptions{
		HTTPClient: f.client,
	})
	require.Error(t, err)
	if resp != nil {
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}
