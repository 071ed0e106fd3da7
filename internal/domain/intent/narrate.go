package intent

import (
	"fmt"
)

// Narrate renders the deterministic narrative line for an intent
func Narrate(i Intent) string {
	switch i.Kind {
	case KindMove:
		return fmt.Sprintf("You move to %s.", payloadString(i.Payload, "direction", "text"))
	case KindCombatAction:
		return fmt.Sprintf("You strike the foe with %s.", payloadString(i.Payload, "ability", "text"))
	case KindDialogue:
		return fmt.Sprintf("You say: %s", payloadString(i.Payload, "text"))
	case KindQuestAction:
		return fmt.Sprintf("Quest action: %s.", payloadString(i.Payload, "action", "text"))
	case KindSystemEvent:
		return "System event occurred."
	default:
		return "Unknown intent."
	}
}

func payloadString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return "nothing in particular"
}
