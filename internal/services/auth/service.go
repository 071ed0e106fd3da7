package auth

//go:generate mockgen -destination=mock/mock_service.go -package=mockauth -source=service.go

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/KirkDiggler/narrative-service/internal/clients/spacetime"
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

const ensureUserReducer = "ensure_user"

// Service brokers federated logins into backend identities
type Service interface {
	LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error)

	// VerifySession checks a service session token. A "Bearer " prefix is accepted.
	VerifySession(ctx context.Context, token string) (*SessionClaims, error)
}

// LoginResult carries the backend token, the service session token and the backend user
type LoginResult struct {
	SpacetimeDBToken string          `json:"spacetimedb_token"`
	SessionToken     string          `json:"session_token"`
	User             json.RawMessage `json:"user"`
}

type ensureUserArgs struct {
	Provider    string `json:"provider"`
	ProviderSub string `json:"provider_sub"`
	Email       string `json:"email,omitempty"`
}

type service struct {
	backend  spacetime.Client
	tokens   *SessionTokens
	clientID string
	logger   *zap.Logger
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Backend  spacetime.Client // Required
	Tokens   *SessionTokens   // Required
	ClientID string           // Optional, audience is not checked when empty
	Logger   *zap.Logger      // Optional
}

// NewService creates a new auth service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Backend == nil {
		panic("backend is required")
	}
	if cfg.Tokens == nil {
		panic("session tokens are required")
	}

	svc := &service{
		backend:  cfg.Backend,
		tokens:   cfg.Tokens,
		clientID: cfg.ClientID,
		logger:   cfg.Logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

func (s *service) LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error) {
	claims, err := DecodeGoogleIDToken(idToken, s.clientID)
	if err != nil {
		return nil, err
	}

	identity, err := s.backend.CreateIdentity(ctx, &spacetime.IdentityRequest{
		Issuer:  GoogleIssuer,
		Subject: claims.Subject,
	})
	if err != nil {
		return nil, apperr.Wrap(err, "failed to create backend identity").
			WithMeta("subject", claims.Subject)
	}
	if identity.Token == "" {
		return nil, apperr.Unavailable("backend returned an identity without a token")
	}

	user, err := s.backend.CallReducer(ctx, ensureUserReducer, []any{ensureUserArgs{
		Provider:    "google",
		ProviderSub: claims.Subject,
		Email:       claims.Email,
	}}, identity.Token)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to ensure user").
			WithMeta("subject", claims.Subject)
	}

	userID := identity.Identity
	if userID == "" {
		userID = "google:" + claims.Subject
	}
	sessionToken, err := s.tokens.Sign(userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		zap.String("provider", "google"),
		zap.String("user_id", userID))

	return &LoginResult{
		SpacetimeDBToken: identity.Token,
		SessionToken:     sessionToken,
		User:             user,
	}, nil
}

func (s *service) VerifySession(_ context.Context, token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return nil, apperr.Unauthenticated("session token is required")
	}

	return s.tokens.Verify(token)
}
