package llm

//go:generate mockgen -destination=mock/mock_client.go -package=mockllm -source=interface.go

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no API key is available. Callers with a
// local fallback treat it like any other generation failure.
var ErrNotConfigured = errors.New("llm: no API key configured")

// Request asks for one structured completion
type Request struct {
	System     string
	User       string
	SchemaName string
	// Schema is the JSON schema the output must follow; nil asks for plain text
	Schema any
}

// Response carries the raw text the model produced
type Response struct {
	Text  string
	Model string
}

// Client generates text from a prompt pair
type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}
