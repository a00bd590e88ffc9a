package realtime

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openboard/openboard/pkg/model"
)

type fakeIdentity struct {
	tokens map[string]string
	delay  time.Duration
}

func (f *fakeIdentity) ValidateToken(token string) (string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	email, ok := f.tokens[token]
	if !ok {
		return "", fmt.Errorf("bad token")
	}
	return email, nil
}

type fakeDirectory struct {
	users map[string]*model.User
}

func (f *fakeDirectory) GetUserByEmail(email string) (*model.User, error) {
	return f.users[email], nil
}

type fakeBoards struct {
	boards map[int64]*model.Board
	access map[int64]map[int64]bool
}

func (f *fakeBoards) GetBoard(id int64) (*model.Board, error) {
	return f.boards[id], nil
}

func (f *fakeBoards) IsBoardAccessible(boardID, userID int64) (bool, error) {
	return f.access[boardID][userID], nil
}

type gatewayFixture struct {
	registry *Registry
	stats    *statsRecorder
	server   *httptest.Server
}

// newGatewayFixture serves a gatekeeper behind /ws/boards/{id} with two
// admitted users on board 7: alice (token-a, owner) and bob (token-b,
// member). carol (token-c) exists but has no access.
func newGatewayFixture(t *testing.T, cfg GatekeeperConfig, identityDelay time.Duration) *gatewayFixture {
	t.Helper()

	identity := &fakeIdentity{
		tokens: map[string]string{
			"token-a": "alice@example.com",
			"token-b": "bob@example.com",
			"token-c": "carol@example.com",
		},
		delay: identityDelay,
	}
	users := &fakeDirectory{users: map[string]*model.User{
		"alice@example.com": {ID: 1, Email: "alice@example.com"},
		"bob@example.com":   {ID: 2, Email: "bob@example.com"},
		"carol@example.com": {ID: 3, Email: "carol@example.com"},
	}}
	boards := &fakeBoards{
		boards: map[int64]*model.Board{7: {ID: 7, Title: "Launch", OwnerID: 1}},
		access: map[int64]map[int64]bool{7: {1: true, 2: true}},
	}

	registry := NewRegistry()
	stats := &statsRecorder{}
	gk := NewGatekeeper(identity, users, boards, registry, NewBroadcaster(registry, stats), stats, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/boards/", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/ws/boards/"), 10, 64)
		if err != nil {
			http.Error(w, "bad board id", http.StatusBadRequest)
			return
		}
		gk.Serve(w, r, id)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &gatewayFixture{registry: registry, stats: stats, server: srv}
}

func (f *gatewayFixture) dial(t *testing.T, boardID int64, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + fmt.Sprintf("/ws/boards/%d?token=%s", boardID, token)
	return websocket.DefaultDialer.Dial(url, nil)
}

func readEvent(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestGatewayJoinAndLeaveLifecycle(t *testing.T) {
	f := newGatewayFixture(t, GatekeeperConfig{}, 0)

	alice, _, err := f.dial(t, 7, "token-a")
	if err != nil {
		t.Fatalf("dial alice: %v", err)
	}
	defer alice.Close()

	// Alice hears her own join.
	msg := readEvent(t, alice)
	if msg.Type != EventUserJoined {
		t.Fatalf("first event = %q, want %q", msg.Type, EventUserJoined)
	}
	if got := msg.Data["email"]; got != "alice@example.com" {
		t.Errorf("join email = %v, want alice@example.com", got)
	}
	if got := msg.Data["board_id"]; got != float64(7) {
		t.Errorf("join board_id = %v, want 7", got)
	}

	bob, _, err := f.dial(t, 7, "token-b")
	if err != nil {
		t.Fatalf("dial bob: %v", err)
	}

	// Both members hear bob's join.
	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		msg := readEvent(t, conn)
		if msg.Type != EventUserJoined || msg.Data["user_id"] != float64(2) {
			t.Errorf("%s saw %q for user %v, want %q for user 2", name, msg.Type, msg.Data["user_id"], EventUserJoined)
		}
	}
	waitFor(t, "two sessions in room", func() bool { return f.registry.Count(7) == 2 })

	// Bob drops without a close handshake; alice is told he left.
	bob.Close()
	msg = readEvent(t, alice)
	if msg.Type != EventUserLeft {
		t.Fatalf("after disconnect alice saw %q, want %q", msg.Type, EventUserLeft)
	}
	if got := msg.Data["user_id"]; got != float64(2) {
		t.Errorf("leave user_id = %v, want 2", got)
	}

	waitFor(t, "bob's session to be reclaimed", func() bool { return f.registry.Count(7) == 1 })
}

func TestGatewayLastLeaveReclaimsRoom(t *testing.T) {
	f := newGatewayFixture(t, GatekeeperConfig{}, 0)

	alice, _, err := f.dial(t, 7, "token-a")
	if err != nil {
		t.Fatalf("dial alice: %v", err)
	}
	readEvent(t, alice)
	alice.Close()

	waitFor(t, "room reclamation", func() bool { return f.registry.Rooms() == 0 })
	waitFor(t, "connection close accounting", func() bool {
		f.stats.mu.Lock()
		defer f.stats.mu.Unlock()
		return f.stats.opened == 1 && f.stats.closed == 1
	})
}

func TestGatewayRefusalsHappenBeforeUpgrade(t *testing.T) {
	f := newGatewayFixture(t, GatekeeperConfig{}, 0)

	tcases := map[string]struct {
		boardID    int64
		token      string
		wantStatus int
	}{
		"invalid token":   {boardID: 7, token: "bogus", wantStatus: http.StatusUnauthorized},
		"missing token":   {boardID: 7, token: "", wantStatus: http.StatusUnauthorized},
		"no board access": {boardID: 7, token: "token-c", wantStatus: http.StatusForbidden},
		"unknown board":   {boardID: 99, token: "token-a", wantStatus: http.StatusNotFound},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			conn, resp, err := f.dial(t, tc.boardID, tc.token)
			if err == nil {
				conn.Close()
				t.Fatal("dial succeeded, want refusal before upgrade")
			}
			if resp == nil {
				t.Fatalf("dial error without HTTP response: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
		})
	}

	// No refused client ever entered a room.
	if got := f.registry.Rooms(); got != 0 {
		t.Errorf("Rooms() = %d after refusals, want 0", got)
	}
	f.stats.mu.Lock()
	defer f.stats.mu.Unlock()
	if f.stats.refused != len(tcases) {
		t.Errorf("refused = %d, want %d", f.stats.refused, len(tcases))
	}
	if f.stats.opened != 0 {
		t.Errorf("opened = %d, want 0", f.stats.opened)
	}
}

func TestGatewayAdmissionTimeout(t *testing.T) {
	f := newGatewayFixture(t, GatekeeperConfig{AdmissionTimeout: 50 * time.Millisecond}, 500*time.Millisecond)

	conn, resp, err := f.dial(t, 7, "token-a")
	if err == nil {
		conn.Close()
		t.Fatal("dial succeeded, want admission timeout")
	}
	if resp == nil || resp.StatusCode != http.StatusRequestTimeout {
		t.Fatalf("response = %v, want status %d", resp, http.StatusRequestTimeout)
	}
	if got := f.registry.Rooms(); got != 0 {
		t.Errorf("Rooms() = %d, want 0", got)
	}
}

func TestGatewayIdleTimeoutClosesSession(t *testing.T) {
	f := newGatewayFixture(t, GatekeeperConfig{IdleTimeout: 100 * time.Millisecond}, 0)

	alice, _, err := f.dial(t, 7, "token-a")
	if err != nil {
		t.Fatalf("dial alice: %v", err)
	}
	defer alice.Close()
	readEvent(t, alice)

	// Silence past the idle deadline evicts the session server-side.
	waitFor(t, "idle session eviction", func() bool { return f.registry.Count(7) == 0 })
}
