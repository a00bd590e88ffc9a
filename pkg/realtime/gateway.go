package realtime

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openboard/openboard/pkg/model"
)

// Admission failures. Each maps to a distinct rejection status so clients
// and operators can tell policy classes apart; none of them crash the
// gateway.
var ErrUnauthenticated = errors.New("realtime: invalid or missing token")
var ErrForbidden = errors.New("realtime: no access to this board")
var ErrBoardNotFound = errors.New("realtime: board not found")
var ErrAdmissionTimeout = errors.New("realtime: admission timed out")

// Identity validates a bearer token and yields the subject email.
type Identity interface {
	ValidateToken(token string) (string, error)
}

// Directory resolves an authenticated email to a stored user.
type Directory interface {
	GetUserByEmail(email string) (*model.User, error)
}

// BoardAccess answers existence and membership questions for boards.
type BoardAccess interface {
	GetBoard(id int64) (*model.Board, error)
	IsBoardAccessible(boardID, userID int64) (bool, error)
}

// GatekeeperConfig bounds the connection lifecycle.
type GatekeeperConfig struct {
	// AdmissionTimeout caps the authenticate+authorize sequence; a stalled
	// handshake is refused instead of holding resources open.
	AdmissionTimeout time.Duration
	// IdleTimeout closes an established session that shows no inbound
	// frames at all for the duration. There is no ping/pong probing: a
	// dead peer is otherwise only discovered when a broadcast fails.
	IdleTimeout time.Duration
	// WriteTimeout bounds each outbound frame write.
	WriteTimeout time.Duration
	// CheckOrigin overrides the websocket origin check (defaults to
	// same-origin per the transport library).
	CheckOrigin func(r *http.Request) bool
}

// DefaultGatekeeperConfig returns production defaults.
func DefaultGatekeeperConfig() GatekeeperConfig {
	return GatekeeperConfig{
		AdmissionTimeout: 10 * time.Second,
		IdleTimeout:      5 * time.Minute,
		WriteTimeout:     10 * time.Second,
	}
}

// Gatekeeper governs one connection's admission and teardown: authenticate,
// authorize, register, announce presence on the way in; unregister and
// announce departure on the way out.
type Gatekeeper struct {
	identity    Identity
	users       Directory
	boards      BoardAccess
	registry    *Registry
	broadcaster *Broadcaster
	stats       Stats
	cfg         GatekeeperConfig
	upgrader    websocket.Upgrader
}

// NewGatekeeper wires the gateway's collaborators. stats may be nil.
func NewGatekeeper(identity Identity, users Directory, boards BoardAccess, registry *Registry, broadcaster *Broadcaster, stats Stats, cfg GatekeeperConfig) *Gatekeeper {
	if stats == nil {
		stats = nopStats{}
	}
	def := DefaultGatekeeperConfig()
	if cfg.AdmissionTimeout <= 0 {
		cfg.AdmissionTimeout = def.AdmissionTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	return &Gatekeeper{
		identity:    identity,
		users:       users,
		boards:      boards,
		registry:    registry,
		broadcaster: broadcaster,
		stats:       stats,
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// Serve runs the full lifecycle of one realtime connection. The token
// travels as a query parameter because header-based bearer auth is awkward
// over the websocket handshake.
//
// Admission is validated BEFORE the transport upgrade: a rejected client is
// answered with a plain HTTP status and never handed a live websocket it
// could probe further.
func (g *Gatekeeper) Serve(w http.ResponseWriter, r *http.Request, boardID int64) {
	user, err := g.admit(r.URL.Query().Get("token"), boardID)
	if err != nil {
		g.refuse(w, boardID, err)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own HTTP error response.
		slog.Debug("websocket upgrade failed", "board", boardID, "user", user.Email, "err", err)
		return
	}

	sess := NewSession(user.ID, user.Email, boardID, conn, g.cfg.WriteTimeout)
	g.registry.Add(boardID, sess)
	g.stats.ConnectionOpened()
	slog.Info("session joined board", "board", boardID, "user", user.Email, "session", sess.Handle)

	// The join announcement goes to the full current membership, including
	// the session that just joined.
	g.broadcaster.Broadcast(boardID, UserJoined(user.ID, user.Email, boardID))

	g.readLoop(conn, sess)

	// Teardown: unregister before announcing, so the departing session
	// never hears its own leave and remaining members never see a leave
	// for someone still receiving messages.
	g.registry.Remove(boardID, sess)
	_ = conn.Close()
	g.broadcaster.Broadcast(boardID, UserLeft(user.ID, boardID))
	g.stats.ConnectionClosed()
	slog.Info("session left board", "board", boardID, "user", user.Email, "session", sess.Handle)
}

// admit runs authenticate+authorize under the admission timeout.
func (g *Gatekeeper) admit(token string, boardID int64) (*model.User, error) {
	type outcome struct {
		user *model.User
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		u, err := g.authorize(token, boardID)
		done <- outcome{u, err}
	}()

	select {
	case o := <-done:
		return o.user, o.err
	case <-time.After(g.cfg.AdmissionTimeout):
		return nil, ErrAdmissionTimeout
	}
}

func (g *Gatekeeper) authorize(token string, boardID int64) (*model.User, error) {
	email, err := g.identity.ValidateToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	user, err := g.users.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("realtime: resolve user: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}

	board, err := g.boards.GetBoard(boardID)
	if err != nil {
		return nil, fmt.Errorf("realtime: load board: %w", err)
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}
	ok, err := g.boards.IsBoardAccessible(boardID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("realtime: check board access: %w", err)
	}
	if !ok {
		return nil, ErrForbidden
	}
	return user, nil
}

func (g *Gatekeeper) refuse(w http.ResponseWriter, boardID int64, err error) {
	g.stats.AdmissionRefused()
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ErrBoardNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrAdmissionTimeout):
		status = http.StatusRequestTimeout
	}
	slog.Info("admission refused", "board", boardID, "status", status, "reason", err)
	http.Error(w, err.Error(), status)
}

// readLoop consumes inbound frames until the peer goes away. Frame content
// is reserved for future interactive events (cursor movement, live edits)
// and is ignored rather than treated as fatal; each received frame counts
// as a liveness signal and refreshes the idle deadline.
func (g *Gatekeeper) readLoop(conn *websocket.Conn, sess *Session) {
	for {
		if g.cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(g.cfg.IdleTimeout))
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("session read ended", "session", sess.Handle, "err", err)
			}
			return
		}
	}
}
