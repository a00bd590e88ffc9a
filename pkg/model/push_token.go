package model

import "time"

// PushToken is a device token registered for out-of-band push delivery.
// The gateway never sends through these; a separate relay consumes them.
type PushToken struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
