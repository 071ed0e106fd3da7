package auth

import (
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

// GoogleIssuer is the issuer backend identities are minted for
const GoogleIssuer = "https://accounts.google.com"

// GoogleClaims are the Google ID token claims the login flow reads
type GoogleClaims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// DecodeGoogleIDToken reads the claims of a Google ID token.
// The signature is NOT verified; callers get the subject and email as presented.
// When clientID is set the audience must contain it.
func DecodeGoogleIDToken(idToken, clientID string) (*GoogleClaims, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, apperr.InvalidArgument("id token is required")
	}

	claims := &GoogleClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeUnauthenticated, "invalid Google token")
	}
	if claims.Subject == "" {
		return nil, apperr.Unauthenticated("invalid Google token: missing subject")
	}
	if clientID != "" && !slices.Contains(claims.Audience, clientID) {
		return nil, apperr.Unauthenticated("invalid Google token: audience mismatch").
			WithMeta("audience", strings.Join(claims.Audience, ","))
	}

	return claims, nil
}
