package wizard

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxPreviewAbilities = 4

// ProfessionPreview is the generated profession shown before the player commits to it
type ProfessionPreview struct {
	Name          string         `json:"name"`
	Lore          string         `json:"lore"`
	Mechanics     map[string]any `json:"mechanics"`
	Abilities     []string       `json:"abilities"`
	StarterWeapon string         `json:"starterWeapon"`
}

// Validate checks the fields every preview must carry
func (p *ProfessionPreview) Validate() error {
	if p == nil {
		return fmt.Errorf("preview is nil")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("preview name is required")
	}
	if strings.TrimSpace(p.Lore) == "" {
		return fmt.Errorf("preview lore is required")
	}
	if strings.TrimSpace(p.StarterWeapon) == "" {
		return fmt.Errorf("preview starter weapon is required")
	}
	if p.Mechanics == nil {
		return fmt.Errorf("preview mechanics are required")
	}
	if len(p.Abilities) < 1 || len(p.Abilities) > maxPreviewAbilities {
		return fmt.Errorf("preview must have between 1 and %d abilities, got %d", maxPreviewAbilities, len(p.Abilities))
	}
	return nil
}

// Clone returns a copy that shares nothing mutable with p
func (p *ProfessionPreview) Clone() *ProfessionPreview {
	if p == nil {
		return nil
	}
	clone := &ProfessionPreview{
		Name:          p.Name,
		Lore:          p.Lore,
		StarterWeapon: p.StarterWeapon,
		Abilities:     append([]string(nil), p.Abilities...),
	}
	if p.Mechanics != nil {
		clone.Mechanics = make(map[string]any, len(p.Mechanics))
		for k, v := range p.Mechanics {
			clone.Mechanics[k] = v
		}
	}
	return clone
}

// PreviewFromValue recovers a preview from a context value. Values that went through
// JSON storage come back as maps.
func PreviewFromValue(value any) (*ProfessionPreview, bool) {
	switch v := value.(type) {
	case *ProfessionPreview:
		return v, v != nil
	case ProfessionPreview:
		return &v, true
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		var preview ProfessionPreview
		if err := json.Unmarshal(raw, &preview); err != nil {
			return nil, false
		}
		if strings.TrimSpace(preview.Name) == "" {
			return nil, false
		}
		return &preview, true
	default:
		return nil, false
	}
}
