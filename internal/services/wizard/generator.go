package wizard

//go:generate mockgen -destination=mock/mock_generator.go -package=mockwizard -source=generator.go Generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KirkDiggler/narrative-service/internal/clients/dnd5e"
	"github.com/KirkDiggler/narrative-service/internal/clients/llm"
	domain "github.com/KirkDiggler/narrative-service/internal/domain/wizard"
)

// Generation failures. Their text is the error code returned to clients.
var (
	ErrModelCall      = errors.New("model_call_failed")
	ErrMissingOptions = errors.New("model_missing_options")
)

// GenerateInput is everything the generator may use for one step
type GenerateInput struct {
	StepID  domain.StepID
	Action  domain.Action
	Message string
	Context map[string]any
	Staged  any
	Preview *domain.ProfessionPreview
}

// StepContent is validated, normalized content for the current step
type StepContent struct {
	Prompt  string
	Options []domain.Option
	Preview *domain.ProfessionPreview
}

// Generator produces content for the current step only
type Generator interface {
	Generate(ctx context.Context, input *GenerateInput) (*StepContent, error)
}

// GeneratorConfig holds configuration for the LLM backed generator
type GeneratorConfig struct {
	Client llm.Client   // Required
	Lore   dnd5e.Client // Optional, adds SRD names as inspiration
	Logger *zap.Logger  // Optional
}

type llmGenerator struct {
	client  llm.Client
	lore    dnd5e.Client
	logger  *zap.Logger
	step    *llm.Structured
	preview *llm.Structured
}

type stepOutput struct {
	Prompt  string                    `json:"prompt"`
	Options []any                     `json:"options"`
	Preview *domain.ProfessionPreview `json:"preview"`
}

// NewGenerator creates a generator backed by a structured-output model
func NewGenerator(cfg *GeneratorConfig) (Generator, error) {
	if cfg == nil || cfg.Client == nil {
		return nil, fmt.Errorf("llm client is required")
	}

	step, err := llm.NewStructured("wizard_step", stepSchema(false))
	if err != nil {
		return nil, err
	}
	preview, err := llm.NewStructured("wizard_profession", stepSchema(true))
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &llmGenerator{
		client:  cfg.Client,
		lore:    cfg.Lore,
		logger:  logger,
		step:    step,
		preview: preview,
	}, nil
}

func (g *llmGenerator) Generate(ctx context.Context, input *GenerateInput) (*StepContent, error) {
	if input == nil {
		return nil, fmt.Errorf("generate input is required")
	}

	structured := g.step
	if input.StepID == domain.StepProfessionPreview {
		structured = g.preview
	}

	req := structured.Request(systemPrompt(input.StepID), userPrompt(input, g.hints(input.StepID)))
	resp, err := g.client.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelCall, err)
	}

	var out stepOutput
	if err := structured.Decode(resp.Text, &out); err != nil {
		g.logger.Warn("model output rejected",
			zap.String("step_id", string(input.StepID)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMissingOptions, err)
	}

	return finishContent(input.StepID, &out)
}

// finishContent enforces the per-step option counts on normalized output
func finishContent(step domain.StepID, out *stepOutput) (*StepContent, error) {
	options := domain.NormalizeOptions(out.Options)
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: no usable options for %s", ErrMissingOptions, step)
	}

	content := &StepContent{
		Prompt: domain.StripEmbeddedJSON(out.Prompt),
	}

	switch step {
	case domain.StepArchetype:
		if len(options) < 2 {
			return nil, fmt.Errorf("%w: archetype needs 2 options, got %d", ErrMissingOptions, len(options))
		}
		options = options[:2]
	case domain.StepProfessionPreview:
		if err := out.Preview.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingOptions, err)
		}
		content.Preview = out.Preview.Clone()
		options = options[:1]
	default:
		if len(options) > maxOptions {
			options = options[:maxOptions]
		}
	}
	content.Options = options

	if strings.TrimSpace(content.Prompt) == "" {
		content.Prompt = defaultPrompts[step]
	}

	return content, nil
}

// hints returns SRD names for steps that benefit from them. Lookup failures only
// cost inspiration, so they are logged and dropped.
func (g *llmGenerator) hints(step domain.StepID) []string {
	if g.lore == nil {
		return nil
	}

	var (
		names []string
		err   error
	)
	switch step {
	case domain.StepRace:
		names, err = g.lore.ListRaceNames()
	case domain.StepProfessionPreview:
		names, err = g.lore.ListWeaponNames()
	default:
		return nil
	}
	if err != nil {
		g.logger.Warn("lore hints unavailable", zap.String("step_id", string(step)), zap.Error(err))
		return nil
	}
	return names
}
