// Package model defines the core domain types for OpenBoard.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const MaxEmailLength = 254

var ErrEmailEmpty = errors.New("email must not be empty")
var ErrEmailTooLong = fmt.Errorf("email must not exceed %d characters", MaxEmailLength)
var ErrEmailInvalid = errors.New("email must contain a local part and a domain")
var ErrPasswordEmpty = errors.New("password must not be empty")

// User represents a registered user.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidateEmail checks that an email has a plausible shape. Full RFC 5322
// validation is deliberately not attempted; the address is only used as a
// login identifier.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailEmpty
	}
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return ErrEmailInvalid
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return ErrEmailInvalid
	}
	return nil
}
