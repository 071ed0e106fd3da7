package wizard

import (
	"fmt"
	"strings"

	domain "github.com/KirkDiggler/narrative-service/internal/domain/wizard"
)

const maxHints = 12

var stepGuidance = map[domain.StepID]string{
	domain.StepRace: "Offer between 3 and 6 playable races, each with a one line description.",
	domain.StepArchetype: "Offer exactly 2 archetypes: one martial and one arcane, " +
		"both flavored by the chosen race.",
	domain.StepProfessionPreview: "Invent exactly 1 profession that fits the race and archetype. " +
		"Return it as the single option and as a preview with name, lore, mechanics, " +
		"1 to 4 short abilities and a starterWeapon. Put a stats object in mechanics with " +
		"strength, agility, intellect, spirit and vitality between 0 and 30.",
	domain.StepName: "Suggest between 3 and 6 names that suit the character so far.",
}

var defaultPrompts = map[domain.StepID]string{
	domain.StepRace:              "Choose the people your character comes from.",
	domain.StepArchetype:         "Choose the path your character walks.",
	domain.StepProfessionPreview: "A profession has taken shape for your character.",
	domain.StepName:              "What is your character called?",
}

func systemPrompt(step domain.StepID) string {
	var b strings.Builder
	b.WriteString("You are the narrator of a character creation wizard for a fantasy world.\n")
	fmt.Fprintf(&b, "Current step: %s (step %d of %d).\n", step, domain.StepNumber(step), len(domain.Steps))
	b.WriteString("Rules:\n")
	b.WriteString("- Only address the current step. Never move on to or ask about later steps.\n")
	b.WriteString("- The committed choices are final. Never ask for them again or contradict them.\n")
	b.WriteString("- Reply with JSON holding a short \"prompt\" for the player and \"options\".\n")
	b.WriteString("- Each option has a name, a one line description and a value.\n")
	b.WriteString("- Never repeat the JSON inside the prompt text.\n")
	if guidance, ok := stepGuidance[step]; ok {
		b.WriteString("- ")
		b.WriteString(guidance)
		b.WriteString("\n")
	}
	return b.String()
}

func userPrompt(input *GenerateInput, hints []string) string {
	var b strings.Builder
	b.WriteString("Committed choices:\n")
	b.WriteString(domain.ContextSummary(input.Context))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Player action: %s\n", input.Action)
	message := strings.TrimSpace(input.Message)
	if message == "" {
		message = "(none)"
	}
	fmt.Fprintf(&b, "Player message: %s\n", message)

	if input.Staged != nil {
		fmt.Fprintf(&b, "Currently selected, not yet locked: %v\n", domain.SelectionValue(input.Staged))
	}
	if input.Preview != nil {
		fmt.Fprintf(&b, "Current profession: %s. Keep it unless the player asks for another.\n", input.Preview.Name)
	}

	if len(hints) > 0 {
		if len(hints) > maxHints {
			hints = hints[:maxHints]
		}
		fmt.Fprintf(&b, "For inspiration only: %s\n", strings.Join(hints, ", "))
	}

	return b.String()
}
