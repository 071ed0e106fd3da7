package spacetime

//go:generate mockgen -destination=mock/mock_client.go -package=mockspacetime -source=interface.go

import (
	"context"
	"encoding/json"
)

// IdentityRequest describes the external identity a backend identity is minted for
type IdentityRequest struct {
	Issuer  string `json:"iss"`
	Subject string `json:"sub"`
}

// Identity is a backend identity and the token that authenticates as it
type Identity struct {
	Identity string `json:"identity"`
	Token    string `json:"token"`
}

// Client talks to the real-time backend over its HTTP API
type Client interface {
	// CallReducer invokes a reducer. token may be empty, a bare token or a full
	// "Bearer ..." header value.
	CallReducer(ctx context.Context, reducer string, args any, token string) (json.RawMessage, error)
	CreateIdentity(ctx context.Context, req *IdentityRequest) (*Identity, error)
}
