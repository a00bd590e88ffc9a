package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxListTitleLength = 128

var ErrListTitleEmpty = errors.New("list title must not be empty")
var ErrListTitleTooLong = errors.New("list title too long")

// List is a column on a board (e.g. "To Do", "In Progress").
type List struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	BoardID   int64     `json:"board_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks list fields before persisting.
func (l *List) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return ErrListTitleEmpty
	}
	if utf8.RuneCountInString(l.Title) > MaxListTitleLength {
		return ErrListTitleTooLong
	}
	return nil
}
