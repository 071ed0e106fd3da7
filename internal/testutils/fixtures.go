package testutils

import (
	"time"

	"github.com/KirkDiggler/narrative-service/internal/domain/wizard"
)

// FixedTime is the clock value fixtures are stamped with
var FixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// CreateTestPreview creates a valid profession preview
func CreateTestPreview() *wizard.ProfessionPreview {
	return &wizard.ProfessionPreview{
		Name: "Warden of the Green",
		Lore: "Sworn to the old forest roads.",
		Mechanics: map[string]any{
			"stats": map[string]any{
				"strength": 11.0,
				"agility":  14.0,
				"vitality": 12.0,
			},
		},
		Abilities:     []string{"Thornwall", "Pathfinder"},
		StarterWeapon: "Ashwood Bow",
	}
}

// CreateTestSession creates a session that has locked every step before stop
func CreateTestSession(id string, stop wizard.StepID) *wizard.Session {
	session := wizard.NewSession(id, FixedTime)

	values := map[wizard.StepID]any{
		wizard.StepRace:      "Elf",
		wizard.StepArchetype: "Guardian",
		wizard.StepName:      "Lyra",
	}

	for session.CurrentStepID != stop && session.CurrentStepID != wizard.StepSummary {
		if session.CurrentStepID == wizard.StepProfessionPreview {
			session.SetPreview(CreateTestPreview())
		} else {
			_ = session.Select(values[session.CurrentStepID])
		}
		if _, err := session.Lock(nil); err != nil {
			panic(err)
		}
	}

	return session
}
