package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scheme is the label prefixed to a token handed back to clients,
// e.g. "Bearer eyJhbGci...".
const Scheme = "Bearer"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoBearer     = errors.New("missing bearer token")
)

type Claims struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs an identity claim with the process-wide secret. The returned
// string is the raw token; callers present it to clients via Bearer().
func (m *Manager) Issue(userID, name, avatar string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		UserID: userID,
		Name:   name,
		Avatar: avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) Verify(tokenStr string) (claims *Claims, err error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Bearer prefixes a raw token with the scheme label.
func Bearer(raw string) string {
	return Scheme + " " + raw
}

// StripBearer extracts the raw token from an Authorization header value.
// The scheme match is case-insensitive, and the scheme label must be
// followed by whitespace: "Bearertok" is not a bearer credential.
func StripBearer(header string) (string, error) {
	if len(header) <= len(Scheme) || !strings.EqualFold(header[:len(Scheme)], Scheme) {
		return "", ErrNoBearer
	}

	rest := header[len(Scheme):]

	if rest[0] != ' ' && rest[0] != '\t' {
		return "", ErrNoBearer
	}

	raw := strings.TrimSpace(rest)

	if raw == "" {
		return "", ErrNoBearer
	}

	return raw, nil
}
