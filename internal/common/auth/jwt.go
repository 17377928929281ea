// Package auth issues and verifies access tokens and hashes passwords.
package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"bizpilot/internal/common/config"
	"bizpilot/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = stderrors.New("INVALID_TOKEN")
	ErrTokenRevoked = stderrors.New("TOKEN_REVOKED")
)

// Claims is the JWT payload.
type Claims struct {
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues HS256 tokens and verifies them against the denylist.
type Tokens struct {
	secret   []byte
	issuer   string
	expiry   time.Duration
	denylist Denylist
	now      func() time.Time
}

func NewTokens(cfg config.AuthConfig, denylist Denylist) *Tokens {
	expiry := time.Duration(cfg.JWTExpiry) * time.Millisecond
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	if denylist == nil {
		denylist = NewMemoryDenylist()
	}
	return &Tokens{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		expiry:   expiry,
		denylist: denylist,
		now:      time.Now,
	}
}

// Issue signs a token for u and returns it with its expiry.
func (t *Tokens) Issue(u *models.User) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.expiry)
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a token and returns the session it carries.
func (t *Tokens) Verify(ctx context.Context, raw string) (*models.Session, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	revoked, err := t.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking denylist: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	s := &models.Session{
		ID:     claims.ID,
		UserID: claims.UserID,
		Role:   claims.Role,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Revoke denylists the session's token until it would have expired anyway.
func (t *Tokens) Revoke(ctx context.Context, s *models.Session) error {
	ttl := s.ExpiresAt.Sub(t.now())
	if ttl <= 0 {
		return nil
	}
	return t.denylist.Revoke(ctx, s.ID, ttl)
}
