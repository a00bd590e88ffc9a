// Package realtime implements the collaboration gateway: board-scoped rooms
// of websocket sessions, presence broadcasts, and the admission state machine
// for new connections.
package realtime

// Event types broadcast to a board room. More kinds (cursor movement, card
// edits) will join these; receivers must ignore types they do not know.
const (
	EventUserJoined = "USER_JOINED"
	EventUserLeft   = "USER_LEFT"
)

// Message is the envelope delivered to every session in a room. Messages are
// ephemeral: never persisted, never replayed to late joiners.
type Message struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// UserJoined builds the presence event announcing a new session in a room.
func UserJoined(userID int64, email string, boardID int64) Message {
	return Message{
		Type: EventUserJoined,
		Data: map[string]any{
			"user_id":  userID,
			"email":    email,
			"board_id": boardID,
		},
	}
}

// UserLeft builds the presence event announcing a departed session.
func UserLeft(userID, boardID int64) Message {
	return Message{
		Type: EventUserLeft,
		Data: map[string]any{
			"user_id":  userID,
			"board_id": boardID,
		},
	}
}
