package model

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxBoardTitleLength = 128
	MaxBoardDescLength  = 1024
)

var ErrBoardTitleEmpty = errors.New("board title must not be empty")
var ErrBoardTitleTooLong = errors.New("board title too long")
var ErrBoardDescTooLong = errors.New("board description too long")
var ErrBoardColorInvalid = errors.New("board color must be a #rrggbb hex value")

// Board represents a kanban board owned by a user. Access is granted to the
// owner and to users listed in the board's membership.
type Board struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks board fields before persisting.
func (b *Board) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return ErrBoardTitleEmpty
	}
	if utf8.RuneCountInString(b.Title) > MaxBoardTitleLength {
		return ErrBoardTitleTooLong
	}
	if utf8.RuneCountInString(b.Description) > MaxBoardDescLength {
		return ErrBoardDescTooLong
	}
	if b.Color != "" {
		if err := validateHexColor(b.Color); err != nil {
			return err
		}
	}
	return nil
}

func validateHexColor(c string) error {
	if len(c) != 7 || c[0] != '#' {
		return ErrBoardColorInvalid
	}
	for _, r := range c[1:] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return ErrBoardColorInvalid
		}
	}
	return nil
}

// RandomBoardColor picks a random light color so that freshly created boards
// are visually distinguishable. Channels are kept in the 128-224 range to
// stay readable behind dark text.
func RandomBoardColor() string {
	c := func() int { return 128 + rand.Intn(97) }
	return fmt.Sprintf("#%02x%02x%02x", c(), c(), c())
}
