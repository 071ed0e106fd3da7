package wizard_sessions

import (
	"time"

	"github.com/KirkDiggler/narrative-service/internal/domain/wizard"
)

// Data is the serialized form of a wizard session
type Data struct {
	ID            string                    `json:"id"`
	CurrentStepID wizard.StepID             `json:"current_step_id"`
	Context       map[string]any            `json:"context"`
	Staged        map[wizard.StepID]any     `json:"staged,omitempty"`
	Locked        map[wizard.StepID]bool    `json:"locked,omitempty"`
	Preview       *wizard.ProfessionPreview `json:"preview,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

func toData(session *wizard.Session) *Data {
	if session == nil {
		return nil
	}

	return &Data{
		ID:            session.ID,
		CurrentStepID: session.CurrentStepID,
		Context:       session.Context,
		Staged:        session.Staged,
		Locked:        session.Locked,
		Preview:       session.Preview,
		CreatedAt:     session.CreatedAt,
		UpdatedAt:     session.UpdatedAt,
	}
}

func toSession(data *Data) *wizard.Session {
	if data == nil {
		return nil
	}

	session := &wizard.Session{
		ID:            data.ID,
		CurrentStepID: data.CurrentStepID,
		Context:       data.Context,
		Staged:        data.Staged,
		Locked:        data.Locked,
		Preview:       data.Preview,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
	if session.Context == nil {
		session.Context = make(map[string]any)
	}
	if session.Staged == nil {
		session.Staged = make(map[wizard.StepID]any)
	}
	if session.Locked == nil {
		session.Locked = make(map[wizard.StepID]bool)
	}

	// A locked profession comes back from JSON as a plain map.
	key := wizard.ContextKey(wizard.StepProfessionPreview)
	if raw, ok := session.Context[key]; ok {
		if preview, isPreview := wizard.PreviewFromValue(raw); isPreview {
			session.Context[key] = preview
		}
	}

	return session
}
