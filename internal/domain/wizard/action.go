package wizard

import (
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

// Action is what the player asks the wizard to do with the current step
type Action string

const (
	// ActionAssist asks for narration without choosing anything
	ActionAssist Action = "assist"
	// ActionSelect stages a tentative choice
	ActionSelect Action = "select"
	// ActionLock commits the step and advances
	ActionLock Action = "lock"
	// ActionRegenerate discards the staged candidate and asks the generator again
	ActionRegenerate Action = "regenerate"
	// ActionStartOver resets the whole session
	ActionStartOver Action = "start_over"
)

// ParseAction validates a raw action. Empty defaults to assist.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case "":
		return ActionAssist, nil
	case ActionAssist, ActionSelect, ActionLock, ActionRegenerate, ActionStartOver:
		return Action(raw), nil
	default:
		return "", apperr.InvalidArgumentf("unknown intent '%s'", raw).WithMeta("intent", raw)
	}
}
