package model

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid simple", "alice@example.com", nil},
		{"valid subdomain", "bob@mail.example.co", nil},
		{"valid plus tag", "a+tag@x.io", nil},
		{"empty", "", ErrEmailEmpty},
		{"too long", strings.Repeat("a", MaxEmailLength) + "@x.io", ErrEmailTooLong},
		{"no at sign", "alice.example.com", ErrEmailInvalid},
		{"missing local", "@example.com", ErrEmailInvalid},
		{"missing domain", "alice@", ErrEmailInvalid},
		{"contains space", "alice b@example.com", ErrEmailInvalid},
		{"contains newline", "alice\n@example.com", ErrEmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.input)
			if err != tt.wantErr {
				t.Errorf("ValidateEmail(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestBoardValidate(t *testing.T) {
	tests := []struct {
		name    string
		board   Board
		wantErr error
	}{
		{"valid minimal", Board{Title: "Sprint 12"}, nil},
		{"valid with color", Board{Title: "Ops", Color: "#a0b1c2"}, nil},
		{"valid uppercase color", Board{Title: "Ops", Color: "#A0B1C2"}, nil},
		{"empty title", Board{Title: ""}, ErrBoardTitleEmpty},
		{"whitespace title", Board{Title: "   "}, ErrBoardTitleEmpty},
		{"title too long", Board{Title: strings.Repeat("x", MaxBoardTitleLength+1)}, ErrBoardTitleTooLong},
		{"description too long", Board{Title: "ok", Description: strings.Repeat("d", MaxBoardDescLength+1)}, ErrBoardDescTooLong},
		{"color missing hash", Board{Title: "ok", Color: "a0b1c2d"}, ErrBoardColorInvalid},
		{"color too short", Board{Title: "ok", Color: "#abc"}, ErrBoardColorInvalid},
		{"color bad digit", Board{Title: "ok", Color: "#a0b1cg"}, ErrBoardColorInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.board.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRandomBoardColor(t *testing.T) {
	for i := 0; i < 50; i++ {
		c := RandomBoardColor()
		if err := validateHexColor(c); err != nil {
			t.Fatalf("RandomBoardColor() = %q, invalid: %v", c, err)
		}
	}
}

func TestListValidate(t *testing.T) {
	tests := []struct {
		name    string
		list    List
		wantErr error
	}{
		{"valid", List{Title: "To Do", BoardID: 1}, nil},
		{"empty title", List{Title: ""}, ErrListTitleEmpty},
		{"whitespace title", List{Title: "\t "}, ErrListTitleEmpty},
		{"too long", List{Title: strings.Repeat("x", MaxListTitleLength+1)}, ErrListTitleTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.list.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCardValidate(t *testing.T) {
	tests := []struct {
		name    string
		card    Card
		wantErr error
	}{
		{"valid", Card{Title: "Fix login redirect", ListID: 1}, nil},
		{"valid with description", Card{Title: "a", Description: "details"}, nil},
		{"empty title", Card{Title: ""}, ErrCardTitleEmpty},
		{"too long title", Card{Title: strings.Repeat("x", MaxCardTitleLength+1)}, ErrCardTitleTooLong},
		{"too long description", Card{Title: "a", Description: strings.Repeat("d", MaxCardDescLength+1)}, ErrCardDescTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.card.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
