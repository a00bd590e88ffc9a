package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxCardTitleLength = 256
	MaxCardDescLength  = 4096
)

var ErrCardTitleEmpty = errors.New("card title must not be empty")
var ErrCardTitleTooLong = errors.New("card title too long")
var ErrCardDescTooLong = errors.New("card description too long")

// Card is a single task on a list.
type Card struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Position    int       `json:"position"`
	ListID      int64     `json:"list_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks card fields before persisting.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrCardTitleEmpty
	}
	if utf8.RuneCountInString(c.Title) > MaxCardTitleLength {
		return ErrCardTitleTooLong
	}
	if utf8.RuneCountInString(c.Description) > MaxCardDescLength {
		return ErrCardDescTooLong
	}
	return nil
}
