package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/trackivity/web-bff/internal/domain"
)

// ErrDecode is returned for any token that fails structural or signature
// validation. Freshness beyond exp and revocation are backend concerns.
var ErrDecode = errors.New("malformed session token")

type SessionClaims struct {
	User       domain.SessionUser `json:"user"`
	RememberMe bool               `json:"remember_me,omitempty"`
	jwt.RegisteredClaims
}

// SessionCodec encodes the identity carried by the session_token cookie.
// It is a pure boundary translation: no store access, no side effects.
type SessionCodec struct {
	issuer   string
	audience string
	secret   []byte
}

func NewSessionCodec(issuer, audience, secret string) *SessionCodec {
	return &SessionCodec{issuer: issuer, audience: audience, secret: []byte(secret)}
}

func (c *SessionCodec) Encode(user domain.SessionUser, ttl time.Duration, rememberMe bool) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		User:       user,
		RememberMe: rememberMe,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			Audience:  []string{c.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *SessionCodec) Decode(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing algorithm")
		}
		return c.secret, nil
	}, jwt.WithIssuer(c.issuer), jwt.WithAudience(c.audience))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if !tok.Valid {
		return nil, ErrDecode
	}
	return claims, nil
}
