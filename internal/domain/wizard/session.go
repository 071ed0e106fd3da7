package wizard

import (
	"strings"
	"time"

	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

// Session is one in-progress character-creation conversation
type Session struct {
	ID            string
	CurrentStepID StepID
	Context       map[string]any
	Staged        map[StepID]any
	Locked        map[StepID]bool
	Preview       *ProfessionPreview
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSession creates a session on the first step
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:            id,
		CurrentStepID: FirstStep(),
		Context:       make(map[string]any),
		Staged:        make(map[StepID]any),
		Locked:        make(map[StepID]bool),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// StartOver resets the session to the first step and forgets everything
func (s *Session) StartOver() {
	s.CurrentStepID = FirstStep()
	s.Context = make(map[string]any)
	s.Staged = make(map[StepID]any)
	s.Locked = make(map[StepID]bool)
	s.Preview = nil
}

// Select stages a tentative value for the current step
func (s *Session) Select(value any) error {
	if isBlank(value) {
		return apperr.InvalidArgument("selection is required").
			WithMeta("step_id", string(s.CurrentStepID))
	}
	s.ensureMaps()
	s.Staged[s.CurrentStepID] = value
	return nil
}

// Regenerate discards the staged value, and the preview on the profession step
func (s *Session) Regenerate() {
	s.ensureMaps()
	delete(s.Staged, s.CurrentStepID)
	if s.CurrentStepID == StepProfessionPreview {
		s.Preview = nil
	}
}

// Lock commits the current step and advances one step.
// The committed value is the staged value, else fallback; on the profession step the
// last generated preview wins over both. Locking at summary is a no-op.
func (s *Session) Lock(fallback any) (bool, error) {
	step := s.CurrentStepID
	next, ok := NextStep(step)
	if !ok {
		return false, nil
	}
	s.ensureMaps()

	if s.Locked[step] {
		return false, apperr.FailedPreconditionf("step '%s' is already locked", step).
			WithMeta("step_id", string(step))
	}

	value, staged := s.Staged[step]
	if !staged || isBlank(value) {
		value = fallback
	}
	if step == StepProfessionPreview && s.Preview != nil {
		value = s.Preview.Clone()
	}
	if isBlank(value) {
		return false, apperr.InvalidArgumentf("nothing to lock for step '%s'", step).
			WithMeta("step_id", string(step))
	}

	s.Context[ContextKey(step)] = value
	s.Locked[step] = true
	delete(s.Staged, step)

	s.CurrentStepID = next
	delete(s.Staged, next)
	if step == StepProfessionPreview {
		s.Preview = nil
	}
	return true, nil
}

// Apply dispatches an action. selection wins over message as the player's value.
func (s *Session) Apply(action Action, selection any, message string) (bool, error) {
	value := SelectionValue(selection)
	if isBlank(value) {
		value = SelectionValue(message)
	}

	switch action {
	case ActionStartOver:
		s.StartOver()
		return false, nil
	case ActionSelect:
		return false, s.Select(value)
	case ActionRegenerate:
		s.Regenerate()
		return false, nil
	case ActionLock:
		return s.Lock(value)
	case ActionAssist:
		return false, nil
	default:
		return false, apperr.InvalidArgumentf("unknown intent '%s'", action)
	}
}

// SetPreview records the generated preview. It is ignored off the profession step.
func (s *Session) SetPreview(preview *ProfessionPreview) {
	if s.CurrentStepID != StepProfessionPreview {
		return
	}
	s.Preview = preview.Clone()
}

// MergeContext copies client supplied context that does not belong to a step.
// Step keys are only ever written by Lock, so the server copy stays authoritative.
func (s *Session) MergeContext(in map[string]any) {
	if len(in) == 0 {
		return
	}
	s.ensureMaps()
	for key, value := range in {
		if _, isStepKey := stepForContextKey(key); isStepKey {
			continue
		}
		if isBlank(value) {
			continue
		}
		s.Context[key] = value
	}
}

// IsLocked reports whether step has been committed
func (s *Session) IsLocked(step StepID) bool {
	return s.Locked[step]
}

// StagedValue returns the tentative value for the current step
func (s *Session) StagedValue() (any, bool) {
	v, ok := s.Staged[s.CurrentStepID]
	return v, ok
}

// CanAdvance reports whether a lock right now would commit something
func (s *Session) CanAdvance() bool {
	if _, ok := NextStep(s.CurrentStepID); !ok {
		return false
	}
	if _, ok := s.StagedValue(); ok {
		return true
	}
	return s.CurrentStepID == StepProfessionPreview && s.Preview != nil
}

// Snapshot returns a copy safe to hand to callers
func (s *Session) Snapshot() *Session {
	snap := &Session{
		ID:            s.ID,
		CurrentStepID: s.CurrentStepID,
		Context:       make(map[string]any, len(s.Context)),
		Staged:        make(map[StepID]any, len(s.Staged)),
		Locked:        make(map[StepID]bool, len(s.Locked)),
		Preview:       s.Preview.Clone(),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	for k, v := range s.Context {
		if preview, ok := v.(*ProfessionPreview); ok {
			v = preview.Clone()
		}
		snap.Context[k] = v
	}
	for k, v := range s.Staged {
		snap.Staged[k] = v
	}
	for k, v := range s.Locked {
		snap.Locked[k] = v
	}
	return snap
}

func (s *Session) ensureMaps() {
	if s.Context == nil {
		s.Context = make(map[string]any)
	}
	if s.Staged == nil {
		s.Staged = make(map[StepID]any)
	}
	if s.Locked == nil {
		s.Locked = make(map[StepID]bool)
	}
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case *ProfessionPreview:
		return v == nil
	default:
		return false
	}
}
