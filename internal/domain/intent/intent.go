package intent

import (
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

// Kind is the closed set of things a player can try to do
type Kind string

const (
	KindMove         Kind = "move"
	KindCombatAction Kind = "combat_action"
	KindDialogue     Kind = "dialogue"
	KindQuestAction  Kind = "quest_action"
	KindSystemEvent  Kind = "system_event"
)

// Kinds lists every valid kind
var Kinds = []Kind{KindMove, KindCombatAction, KindDialogue, KindQuestAction, KindSystemEvent}

// ParseKind validates a raw kind
func ParseKind(raw string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", apperr.InvalidArgumentf("unknown intent kind '%s'", raw).WithMeta("kind", raw)
}

// Intent is what gets forwarded to the backend apply_intent reducer
type Intent struct {
	Kind        Kind           `json:"kind"`
	CharacterID string         `json:"characterId,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// Validate checks the intent kind
func (i *Intent) Validate() error {
	if i == nil {
		return apperr.InvalidArgument("intent cannot be nil")
	}
	_, err := ParseKind(string(i.Kind))
	return err
}
