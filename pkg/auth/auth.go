// Package auth implements password hashing and session token issuance.
//
// Session tokens are HS256 JWTs carrying the user's email as subject.
// They expire after a configurable TTL (30 minutes by default) and are
// never persisted server-side; possession of a valid token is the only
// credential the realtime gateway and the REST surface accept.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL matches the access-token lifetime of the REST login flow.
const DefaultTokenTTL = 30 * time.Minute

var ErrInvalidToken = errors.New("auth: invalid or expired token")
var ErrEmptySecret = errors.New("auth: signing secret must not be empty")

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("auth: hash password: empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Service issues and validates session tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a token service. A zero ttl falls back to DefaultTokenTTL.
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{secret: []byte(secret), ttl: ttl}, nil
}

// IssueToken mints a signed token for the given user email.
func (s *Service) IssueToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry and returns the subject email.
// Every failure mode (malformed, expired, wrong key, wrong algorithm) maps
// to ErrInvalidToken; callers must not distinguish them to avoid oracle
// behavior toward unauthenticated clients.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
