package wizard

import (
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

// StepID identifies one stage of character creation
type StepID string

const (
	StepRace              StepID = "race"
	StepArchetype         StepID = "archetype"
	StepProfessionPreview StepID = "profession_preview"
	StepName              StepID = "name"
	StepSummary           StepID = "summary"
)

// Steps is the fixed creation order. There is no branching.
var Steps = []StepID{
	StepRace,
	StepArchetype,
	StepProfessionPreview,
	StepName,
	StepSummary,
}

// FirstStep returns the step every new session starts on
func FirstStep() StepID {
	return Steps[0]
}

// NextStep returns the step after id. ok is false at summary and for unknown ids.
func NextStep(id StepID) (StepID, bool) {
	idx := stepIndex(id)
	if idx == -1 || idx == len(Steps)-1 {
		return "", false
	}
	return Steps[idx+1], true
}

// StepNumber returns the 1-based position of id, 1 for unknown ids
func StepNumber(id StepID) int {
	idx := stepIndex(id)
	if idx == -1 {
		return 1
	}
	return idx + 1
}

// ParseStepID validates a raw step id
func ParseStepID(raw string) (StepID, error) {
	id := StepID(raw)
	if stepIndex(id) == -1 {
		return "", apperr.InvalidArgumentf("unknown step '%s'", raw).WithMeta("step_id", raw)
	}
	return id, nil
}

// ContextKey is the key a step commits its locked value under. Summary commits nothing.
func ContextKey(id StepID) string {
	switch id {
	case StepRace:
		return "race"
	case StepArchetype:
		return "archetype"
	case StepProfessionPreview:
		return "profession"
	case StepName:
		return "name"
	default:
		return ""
	}
}

func stepForContextKey(key string) (StepID, bool) {
	for _, id := range Steps {
		if k := ContextKey(id); k != "" && k == key {
			return id, true
		}
	}
	return "", false
}

func stepIndex(id StepID) int {
	for i, step := range Steps {
		if step == id {
			return i
		}
	}
	return -1
}
