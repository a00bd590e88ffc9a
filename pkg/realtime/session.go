package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is the transport surface a Session writes to. *websocket.Conn
// satisfies it; tests substitute scripted fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is one accepted realtime connection bound to one authenticated
// user and one board. The originating goroutine owns the read side of the
// transport; writes from broadcasts are serialized through the session's
// write lock (the websocket transport permits a single concurrent writer).
type Session struct {
	Handle  string
	UserID  int64
	Email   string
	BoardID int64

	mu           sync.Mutex
	conn         Conn
	writeTimeout time.Duration
}

// NewSession wraps an accepted connection. writeTimeout bounds each send so
// a stalled peer fails its delivery instead of wedging a broadcast.
func NewSession(userID int64, email string, boardID int64, conn Conn, writeTimeout time.Duration) *Session {
	return &Session{
		Handle:       uuid.NewString(),
		UserID:       userID,
		Email:        email,
		BoardID:      boardID,
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// Send marshals msg and writes it as a single text frame.
func (s *Session) Send(msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("realtime: marshal %s: %w", msg.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("realtime: send %s to session %s: %w", msg.Type, s.Handle, err)
	}
	return nil
}

// Close closes the underlying transport. Safe to call from the pruning path
// while the session's read loop is still blocked; the read unblocks with an
// error and teardown proceeds normally.
func (s *Session) Close() error {
	return s.conn.Close()
}
