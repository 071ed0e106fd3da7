package spacetime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

const errorBodyLimit = 4096

// Config configures the backend client
type Config struct {
	BaseURL    string
	Module     string
	HTTPClient *http.Client
}

type client struct {
	baseURL    string
	module     string
	httpClient *http.Client
}

// New creates a backend client
func New(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, apperr.InvalidArgument("config cannot be nil")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, apperr.InvalidArgument("base URL is required")
	}
	if strings.TrimSpace(cfg.Module) == "" {
		return nil, apperr.InvalidArgument("module is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		module:     cfg.Module,
		httpClient: httpClient,
	}, nil
}

func (c *client) CallReducer(ctx context.Context, reducer string, args any, token string) (json.RawMessage, error) {
	if reducer == "" {
		return nil, apperr.InvalidArgument("reducer is required")
	}

	endpoint := fmt.Sprintf("%s/v1/database/%s/call/%s", c.baseURL, url.PathEscape(c.module), url.PathEscape(reducer))
	body, err := c.post(ctx, endpoint, args, token)
	if err != nil {
		return nil, apperr.Wrapf(err, "failed to call reducer %s", reducer).
			WithMeta("reducer", reducer)
	}

	return body, nil
}

func (c *client) CreateIdentity(ctx context.Context, req *IdentityRequest) (*Identity, error) {
	if req == nil || req.Subject == "" {
		return nil, apperr.InvalidArgument("identity subject is required")
	}

	body, err := c.post(ctx, c.baseURL+"/v1/identity", req, "")
	if err != nil {
		return nil, apperr.Wrap(err, "failed to create identity")
	}

	var identity Identity
	if err := json.Unmarshal(body, &identity); err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to decode identity")
	}
	if identity.Token == "" {
		return nil, apperr.Unavailable("identity response missing token")
	}

	return &identity, nil
}

func (c *client) post(ctx context.Context, endpoint string, payload any, token string) (json.RawMessage, error) {
	var reader io.Reader = http.NoBody
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, apperr.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if header := authorizationHeader(token); header != "" {
		req.Header.Set("Authorization", header)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "backend request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(res.Body, errorBodyLimit))
		code := apperr.CodeUnavailable
		if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
			code = apperr.CodeUnauthenticated
		}
		return nil, apperr.Newf(code, "backend returned status %d: %s", res.StatusCode, strings.TrimSpace(string(errBody))).
			WithMeta("status", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to read backend response")
	}

	return body, nil
}

func authorizationHeader(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		return token
	}
	return "Bearer " + token
}
