package interpret

import (
	"fmt"
	"sort"
	"strings"
)

const systemPrompt = `You interpret a player's free-text action in a fantasy world.
Classify it as exactly one kind: move, combat_action, dialogue, quest_action or system_event.
Put the details the game needs in "payload" (direction for move, ability and target for
combat_action, text for dialogue, action for quest_action).
Write "narrative_output" as one or two sentences in second person describing the attempt,
never its outcome.`

func userPrompt(input *Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Player action: %s\n", strings.TrimSpace(input.Text))

	if c := input.CharacterContext; c != nil {
		b.WriteString("Character:")
		if c.Name != "" {
			fmt.Fprintf(&b, " %s", c.Name)
		}
		if c.Class != "" {
			fmt.Fprintf(&b, " the %s", c.Class)
		}
		b.WriteString("\n")
		if len(c.Stats) > 0 {
			keys := make([]string, 0, len(c.Stats))
			for k := range c.Stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			stats := make([]string, 0, len(keys))
			for _, k := range keys {
				stats = append(stats, fmt.Sprintf("%s %v", k, c.Stats[k]))
			}
			fmt.Fprintf(&b, "Stats: %s\n", strings.Join(stats, ", "))
		}
	}

	if w := input.WorldContext; w != nil {
		var parts []string
		if w.Zone != "" {
			parts = append(parts, "zone "+w.Zone)
		}
		if w.Time != "" {
			parts = append(parts, "time "+w.Time)
		}
		if w.Weather != "" {
			parts = append(parts, "weather "+w.Weather)
		}
		if len(parts) > 0 {
			fmt.Fprintf(&b, "World: %s\n", strings.Join(parts, ", "))
		}
	}

	return b.String()
}
