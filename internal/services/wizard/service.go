package wizard

//go:generate mockgen -destination=mock/mock_service.go -package=mockwizard -source=service.go

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KirkDiggler/narrative-service/internal/clients/discord"
	"github.com/KirkDiggler/narrative-service/internal/clients/spacetime"
	"github.com/KirkDiggler/narrative-service/internal/domain/character"
	domain "github.com/KirkDiggler/narrative-service/internal/domain/wizard"
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
	"github.com/KirkDiggler/narrative-service/internal/repositories/wizard_sessions"
	"github.com/KirkDiggler/narrative-service/internal/uuid"
)

const addCharacterReducer = "add_character"

// Repository is an alias for the wizard session repository interface
type Repository = wizard_sessions.Repository

// Service runs the character creation wizard
type Service interface {
	// Step applies one player action and returns content for the current step
	Step(ctx context.Context, input *StepInput) (*StepResult, error)

	// Get returns the session state without generating anything
	Get(ctx context.Context, sessionID string) (*StepPayload, error)

	// Finalize sends a finished character to the backend
	Finalize(ctx context.Context, sessionID, token string) (*FinalizeResult, error)
}

// StepInput is one wizard request
type StepInput struct {
	SessionID string
	StepID    string
	Action    string
	Message   string
	Selection any
	Context   map[string]any
}

// StepPayload is the session view returned to clients
type StepPayload struct {
	StepID     domain.StepID             `json:"stepId"`
	StepNumber int                       `json:"stepNumber"`
	Prompt     string                    `json:"prompt"`
	Options    []domain.Option           `json:"options"`
	Preview    *domain.ProfessionPreview `json:"preview,omitempty"`
	Data       any                       `json:"data,omitempty"`
	Context    map[string]any            `json:"context"`
	Locked     bool                      `json:"locked"`
	CanAdvance bool                      `json:"canAdvance"`
	SessionID  string                    `json:"sessionId"`
	NextStepID *domain.StepID            `json:"nextStepId"`
}

// StepResult wraps a payload. A failed generation still carries the snapshot so
// the client can retry without losing state.
type StepResult struct {
	OK     bool         `json:"ok"`
	Error  string       `json:"error,omitempty"`
	Result *StepPayload `json:"result"`
}

// FinalizeResult is returned once the backend accepted the character
type FinalizeResult struct {
	Profile *character.Profile `json:"profile"`
	Backend json.RawMessage    `json:"backend,omitempty"`
}

type service struct {
	repository    Repository
	generator     Generator
	backend       spacetime.Client
	announcer     discord.Announcer
	uuidGenerator uuid.Generator
	logger        *zap.Logger
	locks         *keyedMutex
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository    Repository        // Required
	Generator     Generator         // Required
	Backend       spacetime.Client  // Optional, Finalize is unavailable without it
	Announcer     discord.Announcer // Optional
	UUIDGenerator uuid.Generator    // Optional, will use default if nil
	Logger        *zap.Logger       // Optional
}

// NewService creates a new wizard service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}
	if cfg.Generator == nil {
		panic("generator is required")
	}

	svc := &service{
		repository: cfg.Repository,
		generator:  cfg.Generator,
		backend:    cfg.Backend,
		announcer:  cfg.Announcer,
		logger:     cfg.Logger,
		locks:      newKeyedMutex(),
	}

	if cfg.UUIDGenerator != nil {
		svc.uuidGenerator = cfg.UUIDGenerator
	} else {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if svc.announcer == nil {
		svc.announcer = discord.NopAnnouncer{}
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}

	return svc
}

func (s *service) Step(ctx context.Context, input *StepInput) (*StepResult, error) {
	if input == nil {
		return nil, apperr.InvalidArgument("input cannot be nil")
	}

	action, err := domain.ParseAction(input.Action)
	if err != nil {
		return nil, err
	}

	var requested domain.StepID
	if strings.TrimSpace(input.StepID) != "" {
		if requested, err = domain.ParseStepID(input.StepID); err != nil {
			return nil, err
		}
	}

	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" || action == domain.ActionStartOver {
		sessionID = s.uuidGenerator.New()
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, isNew, err := s.resolveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if action == domain.ActionStartOver && input.SessionID != "" && input.SessionID != session.ID {
		s.discard(ctx, input.SessionID)
	}

	logger := s.logger.With(
		zap.String("session_id", session.ID),
		zap.String("step_id", string(session.CurrentStepID)),
		zap.String("action", string(action)))

	// A client that is behind gets the current step back instead of committing
	// a value meant for another step.
	if requested != "" && requested != session.CurrentStepID {
		logger.Debug("stale step in request", zap.String("requested_step_id", string(requested)))
		action = domain.ActionAssist
	}

	session.MergeContext(input.Context)

	if _, err := session.Apply(action, input.Selection, input.Message); err != nil {
		return nil, err
	}

	if err := s.save(ctx, session, isNew); err != nil {
		return nil, err
	}

	if session.CurrentStepID == domain.StepSummary {
		return &StepResult{OK: true, Result: s.summaryPayload(session, logger)}, nil
	}

	staged, _ := session.StagedValue()
	content, err := s.generator.Generate(ctx, &GenerateInput{
		StepID:  session.CurrentStepID,
		Action:  action,
		Message: input.Message,
		Context: session.Snapshot().Context,
		Staged:  staged,
		Preview: session.Preview.Clone(),
	})
	if err != nil {
		code := ErrModelCall
		if errors.Is(err, ErrMissingOptions) {
			code = ErrMissingOptions
		}
		logger.Warn("step generation failed", zap.String("code", code.Error()), zap.Error(err))
		return &StepResult{OK: false, Error: code.Error(), Result: payloadFor(session)}, nil
	}

	// The last generated preview is the one a lock commits, so it replaces any
	// stored preview and is the single option shown.
	if session.CurrentStepID == domain.StepProfessionPreview && content.Preview != nil {
		session.SetPreview(content.Preview)
		if err := s.save(ctx, session, false); err != nil {
			return nil, err
		}
	}

	payload := payloadFor(session)
	payload.Prompt = content.Prompt
	if payload.Preview == nil {
		payload.Options = content.Options
	}

	return &StepResult{OK: true, Result: payload}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*StepPayload, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.InvalidArgument("session ID is required")
	}

	session, err := s.repository.Get(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrapf(err, "failed to get session '%s'", sessionID).
			WithMeta("session_id", sessionID)
	}

	if session.CurrentStepID == domain.StepSummary {
		return s.summaryPayload(session, s.logger), nil
	}
	return payloadFor(session), nil
}

func (s *service) Finalize(ctx context.Context, sessionID, token string) (*FinalizeResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.InvalidArgument("session ID is required")
	}
	if strings.TrimSpace(token) == "" {
		return nil, apperr.Unauthenticated("authorization is required to save a character")
	}
	if s.backend == nil {
		return nil, apperr.Unavailable("character backend is not configured")
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.repository.Get(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrapf(err, "failed to get session '%s'", sessionID).
			WithMeta("session_id", sessionID)
	}
	if session.CurrentStepID != domain.StepSummary {
		return nil, apperr.FailedPreconditionf("session is on step '%s', not summary", session.CurrentStepID).
			WithMeta("session_id", sessionID)
	}

	profile, err := character.ProfileFromContext(session.Context)
	if err != nil {
		return nil, err
	}

	out, err := s.backend.CallReducer(ctx, addCharacterReducer, []any{profile.ToAddCharacterInput()}, token)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to save character").
			WithMeta("session_id", sessionID)
	}

	if err := s.announcer.Announce(ctx, profile); err != nil {
		s.logger.Warn("character announcement failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	s.discard(ctx, sessionID)

	s.logger.Info("character finalized",
		zap.String("session_id", sessionID),
		zap.String("name", profile.Name))

	return &FinalizeResult{Profile: profile, Backend: out}, nil
}

// resolveSession loads id, or starts a fresh session under it when unknown
func (s *service) resolveSession(ctx context.Context, id string) (*domain.Session, bool, error) {
	session, err := s.repository.Get(ctx, id)
	if err == nil {
		return session, false, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, false, apperr.Wrapf(err, "failed to get session '%s'", id).
			WithMeta("session_id", id)
	}

	return domain.NewSession(id, time.Now().UTC()), true, nil
}

func (s *service) save(ctx context.Context, session *domain.Session, isNew bool) error {
	var err error
	if isNew {
		err = s.repository.Create(ctx, session)
	} else {
		err = s.repository.Update(ctx, session)
	}
	if err != nil {
		return apperr.Wrap(err, "failed to save session").
			WithMeta("session_id", session.ID)
	}
	return nil
}

func (s *service) discard(ctx context.Context, id string) {
	if err := s.repository.Delete(ctx, id); err != nil && !apperr.IsNotFound(err) {
		s.logger.Warn("failed to delete session", zap.String("session_id", id), zap.Error(err))
	}
}

func (s *service) summaryPayload(session *domain.Session, logger *zap.Logger) *StepPayload {
	payload := payloadFor(session)
	payload.Prompt = "Your character is ready. Review the summary, then finalize or start over.\n\n" +
		domain.ContextSummary(session.Context)
	payload.Options = append([]domain.Option(nil), summaryOptions...)

	profile, err := character.ProfileFromContext(session.Context)
	if err != nil {
		logger.Warn("summary profile incomplete", zap.Error(err))
		return payload
	}
	payload.Data = profile
	return payload
}

var summaryOptions = []domain.Option{
	{Name: "Finalize", Description: "Send this character into the world.", Value: "finalize"},
	{Name: "Start over", Description: "Discard these choices and begin again.", Value: "start_over"},
}

func previewOption(p *domain.ProfessionPreview) domain.Option {
	return domain.Option{Name: p.Name, Description: p.Lore, Value: p.Name}
}

func payloadFor(session *domain.Session) *StepPayload {
	snap := session.Snapshot()

	payload := &StepPayload{
		StepID:     snap.CurrentStepID,
		StepNumber: domain.StepNumber(snap.CurrentStepID),
		Options:    []domain.Option{},
		Context:    snap.Context,
		Locked:     snap.IsLocked(snap.CurrentStepID),
		CanAdvance: snap.CanAdvance(),
		SessionID:  snap.ID,
	}
	if snap.CurrentStepID == domain.StepProfessionPreview && snap.Preview != nil {
		payload.Preview = snap.Preview
		payload.Options = []domain.Option{previewOption(snap.Preview)}
	}
	if next, ok := domain.NextStep(snap.CurrentStepID); ok {
		payload.NextStepID = &next
	}
	return payload
}
