package interpret

//go:generate mockgen -destination=mock/mock_service.go -package=mockinterpret -source=service.go

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/KirkDiggler/narrative-service/internal/clients/llm"
	"github.com/KirkDiggler/narrative-service/internal/clients/spacetime"
	"github.com/KirkDiggler/narrative-service/internal/domain/intent"
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

const applyIntentReducer = "apply_intent"

// Service turns free text into an intent and forwards it to the backend
type Service interface {
	// Interpret never fails on generation or forwarding problems; it falls back to
	// keyword classification and logs forwarding failures.
	Interpret(ctx context.Context, input *Input, token string) (*Result, error)
}

type service struct {
	client     llm.Client
	structured *llm.Structured
	backend    spacetime.Client
	logger     *zap.Logger
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Client  llm.Client       // Optional, keyword classification only without it
	Backend spacetime.Client // Optional, intents are not forwarded without it
	Logger  *zap.Logger      // Optional
}

type modelOutput struct {
	Kind            string         `json:"kind"`
	Payload         map[string]any `json:"payload"`
	NarrativeOutput string         `json:"narrative_output"`
}

// NewService creates a new interpret service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		panic("config is required")
	}

	structured, err := llm.NewStructured("player_intent", intentSchema())
	if err != nil {
		panic(err)
	}

	svc := &service{
		client:     cfg.Client,
		structured: structured,
		backend:    cfg.Backend,
		logger:     cfg.Logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}

	return svc
}

func (s *service) Interpret(ctx context.Context, input *Input, token string) (*Result, error) {
	if input == nil {
		return nil, apperr.InvalidArgument("input cannot be nil")
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperr.InvalidArgument("text is required")
	}

	result, err := s.fromModel(ctx, input)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			s.logger.Debug("model not configured, classifying by keyword")
		} else {
			s.logger.Warn("model interpretation failed, classifying by keyword", zap.Error(err))
		}
		result = fallback(text)
	}

	if result.Intent.Payload == nil {
		result.Intent.Payload = make(map[string]any)
	}
	result.Intent.Payload["text"] = text
	if input.CharacterContext != nil {
		result.Intent.CharacterID = input.CharacterContext.ID
	}
	if strings.TrimSpace(result.NarrativeOutput) == "" {
		result.NarrativeOutput = intent.Narrate(result.Intent)
	}

	s.forward(ctx, &result.Intent, token)

	return result, nil
}

func (s *service) fromModel(ctx context.Context, input *Input) (*Result, error) {
	if s.client == nil {
		return nil, llm.ErrNotConfigured
	}

	resp, err := s.client.Generate(ctx, s.structured.Request(systemPrompt, userPrompt(input)))
	if err != nil {
		return nil, err
	}

	var out modelOutput
	if err := s.structured.Decode(resp.Text, &out); err != nil {
		return nil, err
	}
	kind, err := intent.ParseKind(out.Kind)
	if err != nil {
		return nil, err
	}

	return &Result{
		Intent:          intent.Intent{Kind: kind, Payload: out.Payload},
		NarrativeOutput: strings.TrimSpace(out.NarrativeOutput),
		Source:          SourceModel,
	}, nil
}

func fallback(text string) *Result {
	return &Result{
		Intent: intent.Intent{Kind: intent.Classify(text)},
		Source: SourceFallback,
	}
}

// forward sends the intent to the backend. Failures are logged only.
func (s *service) forward(ctx context.Context, in *intent.Intent, token string) {
	if s.backend == nil {
		return
	}

	if _, err := s.backend.CallReducer(ctx, applyIntentReducer, []any{in}, token); err != nil {
		s.logger.Warn("failed forwarding intent to backend",
			zap.String("kind", string(in.Kind)),
			zap.String("character_id", in.CharacterID),
			zap.Error(err))
	}
}
