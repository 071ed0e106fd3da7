package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
	"github.com/KirkDiggler/narrative-service/internal/uuid"
)

// DefaultSessionTTL is how long a session token stays valid
const DefaultSessionTTL = 12 * time.Hour

// SessionClaims are carried by service session tokens
type SessionClaims struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	jwt.RegisteredClaims
}

// SessionTokens signs and verifies service session tokens
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	ids    uuid.Generator
}

// SessionTokensConfig holds configuration for session tokens
type SessionTokensConfig struct {
	Secret        string           // Required
	TTL           time.Duration    // Optional, defaults to DefaultSessionTTL
	Now           func() time.Time // Optional
	UUIDGenerator uuid.Generator   // Optional
}

// NewSessionTokens creates a signer for HS256 session tokens
func NewSessionTokens(cfg *SessionTokensConfig) *SessionTokens {
	if cfg == nil || strings.TrimSpace(cfg.Secret) == "" {
		panic("session secret is required")
	}

	t := &SessionTokens{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		now:    cfg.Now,
		ids:    cfg.UUIDGenerator,
	}
	if t.ttl <= 0 {
		t.ttl = DefaultSessionTTL
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.ids == nil {
		t.ids = uuid.NewGoogleUUIDGenerator()
	}
	return t
}

// Sign issues a token for userID
func (t *SessionTokens) Sign(userID string) (string, error) {
	if userID == "" {
		return "", apperr.InvalidArgument("user id is required")
	}

	now := t.now()
	claims := SessionClaims{
		SessionID: "sess_" + t.ids.New(),
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its claims
func (t *SessionTokens) Verify(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeUnauthenticated, "invalid session token")
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, apperr.Unauthenticated("session token is missing claims")
	}
	return claims, nil
}
