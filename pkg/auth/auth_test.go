package auth

import (
	"errors"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("HashPassword returned plaintext")
	}
	if !CheckPassword(hash, "hunter2") {
		t.Error("CheckPassword rejected correct password")
	}
	if CheckPassword(hash, "hunter3") {
		t.Error("CheckPassword accepted wrong password")
	}
}

func TestHashPasswordEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("HashPassword(\"\") succeeded, want error")
	}
}

func TestNewServiceEmptySecret(t *testing.T) {
	if _, err := NewService("", 0); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("NewService(\"\") = %v, want ErrEmptySecret", err)
	}
}

func TestIssueAndValidateToken(t *testing.T) {
	svc, err := NewService("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	token, err := svc.IssueToken("alice@example.com")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	email, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if email != "alice@example.com" {
		t.Errorf("ValidateToken subject = %q, want %q", email, "alice@example.com")
	}
}

func TestValidateTokenFailures(t *testing.T) {
	svc, err := NewService("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	other, err := NewService("other-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	goodToken, err := svc.IssueToken("alice@example.com")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	foreignToken, err := other.IssueToken("alice@example.com")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"wrong secret", foreignToken},
		{"truncated", goodToken[:len(goodToken)-5]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken(%q) = %v, want ErrInvalidToken", tt.name, err)
			}
		})
	}
}

func TestZeroTTLFallsBackToDefault(t *testing.T) {
	svc, err := NewService("s", 0)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if svc.ttl != DefaultTokenTTL {
		t.Errorf("ttl = %v, want %v", svc.ttl, DefaultTokenTTL)
	}
}
