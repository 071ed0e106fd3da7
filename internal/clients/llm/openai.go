package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	errorBodyLimit = 4096
)

// OpenAIConfig configures the Responses API client
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type openAIClient struct {
	apiKey       string
	model        string
	responsesURL string
	httpClient   *http.Client
}

// NewOpenAI creates a client for the OpenAI Responses API. An empty API key is
// allowed; every call then fails with ErrNotConfigured.
func NewOpenAI(cfg *OpenAIConfig) Client {
	if cfg == nil {
		cfg = &OpenAIConfig{}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &openAIClient{
		apiKey:       strings.TrimSpace(cfg.APIKey),
		model:        model,
		responsesURL: baseURL + "/responses",
		httpClient:   httpClient,
	}
}

type responsesRequest struct {
	Model string          `json:"model"`
	Input []inputMessage  `json:"input"`
	Text  *responseFormat `json:"text,omitempty"`
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Format jsonSchemaFormat `json:"format"`
}

type jsonSchemaFormat struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Schema any    `json:"schema"`
	Strict bool   `json:"strict"`
}

func (c *openAIClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if req == nil {
		return nil, fmt.Errorf("llm: request is required")
	}

	wire := responsesRequest{Model: c.model}
	if req.System != "" {
		wire.Input = append(wire.Input, inputMessage{Role: "system", Content: req.System})
	}
	wire.Input = append(wire.Input, inputMessage{Role: "user", Content: req.User})
	if req.Schema != nil {
		name := req.SchemaName
		if name == "" {
			name = "output"
		}
		wire.Text = &responseFormat{Format: jsonSchemaFormat{
			Type:   "json_schema",
			Name:   name,
			Schema: req.Schema,
		}}
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.responsesURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm: request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(res.Body, errorBodyLimit))
		return nil, fmt.Errorf("llm: status %d: %s", res.StatusCode, strings.TrimSpace(string(errBody)))
	}

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: read response: %w", err)
	}
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("llm: response is not JSON")
	}

	text := outputText(payload)
	if text == "" {
		return nil, fmt.Errorf("llm: response missing output text")
	}

	return &Response{
		Text:  text,
		Model: gjson.GetBytes(payload, "model").String(),
	}, nil
}

// outputText prefers the output_text convenience field and otherwise joins every
// text part of every output item.
func outputText(payload []byte) string {
	if text := strings.TrimSpace(gjson.GetBytes(payload, "output_text").String()); text != "" {
		return text
	}

	var parts []string
	for _, item := range gjson.GetBytes(payload, "output").Array() {
		for _, content := range item.Get("content").Array() {
			if text := content.Get("text").String(); strings.TrimSpace(text) != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}
