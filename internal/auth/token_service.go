// Package auth issues bearer tokens to API clients. Clients are configured
// as "id=bcrypt-hash" pairs; there is no user store.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/middleware"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash is compared against when the client id is unknown so both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("ledger-unknown-client"), bcrypt.DefaultCost)

type TokenService struct {
	secret  []byte
	clients map[string][]byte
	ttl     time.Duration
	now     func() time.Time
}

func NewTokenService(secret []byte, clients map[string][]byte, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{secret: secret, clients: clients, ttl: ttl, now: time.Now}
}

// ParseClients reads "id=hash,id2=hash2". Every hash must be a bcrypt hash.
func ParseClients(s string) (map[string][]byte, error) {
	clients := make(map[string][]byte)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, hash, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("malformed client entry %q", pair)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("client %s: %w", id, err)
		}
		clients[id] = []byte(hash)
	}
	return clients, nil
}

// HashSecret produces the hash to configure for a client secret.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Issue signs a token for the client after checking its secret.
func (s *TokenService) Issue(cmd cqrs.IssueTokenCommand) (string, time.Time, error) {
	hash, known := s.clients[cmd.ClientID]
	if !known {
		hash = dummyHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(cmd.ClientSecret)); err != nil || !known {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.now()
	expires := now.Add(s.ttl)
	token, err := middleware.SignToken(s.secret, cmd.ClientID, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		Issuer:    "ledger-service",
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expires, nil
}
