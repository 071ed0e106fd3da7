package interpret

import (
	"github.com/KirkDiggler/narrative-service/internal/domain/intent"
)

// CharacterContext describes the acting character
type CharacterContext struct {
	ID    string         `json:"id" validate:"required"`
	Name  string         `json:"name,omitempty"`
	Class string         `json:"class,omitempty"`
	Stats map[string]any `json:"stats,omitempty"`
}

// WorldContext describes where and when the action happens
type WorldContext struct {
	Zone    string `json:"zone,omitempty"`
	Time    string `json:"time,omitempty"`
	Weather string `json:"weather,omitempty"`
}

// Input is one free-text player action
type Input struct {
	Text             string
	CharacterContext *CharacterContext
	WorldContext     *WorldContext
}

// Result is the interpreted intent and the line narrated back to the player
type Result struct {
	Intent          intent.Intent `json:"intent"`
	NarrativeOutput string        `json:"narrative_output"`

	// Source is "model" or "fallback"; it is not part of the response body
	Source string `json:"-"`
}

const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)
