package character

import (
	"fmt"
	"math"
	"strings"

	"github.com/KirkDiggler/narrative-service/internal/domain/wizard"
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

const (
	defaultStat           = 10
	minStat               = 0
	maxStat               = 30
	defaultStartingRegion = "The Crossroads"
)

// StatBlock holds the five core stats, each 0-30
type StatBlock struct {
	Strength  int `json:"strength"`
	Agility   int `json:"agility"`
	Intellect int `json:"intellect"`
	Spirit    int `json:"spirit"`
	Vitality  int `json:"vitality"`
}

// Profile is a finished character assembled from locked wizard context
type Profile struct {
	Name           string                    `json:"name"`
	Race           string                    `json:"race"`
	Archetype      string                    `json:"archetype"`
	Profession     *wizard.ProfessionPreview `json:"profession"`
	StartingRegion string                    `json:"starting_region"`
	Description    string                    `json:"visual_description,omitempty"`
	Stats          StatBlock                 `json:"stats"`
}

// ProfileFromContext builds a profile from a session's committed context
func ProfileFromContext(ctx map[string]any) (*Profile, error) {
	profile := &Profile{
		Race:           contextString(ctx, "race"),
		Archetype:      contextString(ctx, "archetype"),
		Name:           contextString(ctx, "name"),
		StartingRegion: contextString(ctx, "starting_region"),
		Description:    contextString(ctx, "visual_description"),
	}

	if raw, ok := ctx["profession"]; ok && raw != nil {
		if preview, isPreview := wizard.PreviewFromValue(raw); isPreview {
			profile.Profession = preview.Clone()
		} else if name := strings.TrimSpace(fmt.Sprint(raw)); name != "" {
			profile.Profession = &wizard.ProfessionPreview{Name: name}
		}
	}

	var missing []string
	if profile.Race == "" {
		missing = append(missing, "race")
	}
	if profile.Archetype == "" {
		missing = append(missing, "archetype")
	}
	if profile.Profession == nil {
		missing = append(missing, "profession")
	}
	if profile.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return nil, apperr.InvalidArgumentf("character is missing %s", strings.Join(missing, ", ")).
			WithMeta("missing", missing)
	}

	if profile.StartingRegion == "" {
		profile.StartingRegion = defaultStartingRegion
	}
	profile.Stats = statsFromMechanics(profile.Profession.Mechanics)

	return profile, nil
}

// AddCharacterInput is the argument of the backend add_character reducer
type AddCharacterInput struct {
	Name                string `json:"Name"`
	Description         string `json:"Description"`
	Race                string `json:"Race"`
	Archetype           string `json:"Archetype"`
	Profession          string `json:"Profession"`
	StartingRegion      string `json:"StartingRegion"`
	Strength            int    `json:"Strength"`
	Dexterity           int    `json:"Dexterity"`
	Intelligence        int    `json:"Intelligence"`
	Constitution        int    `json:"Constitution"`
	Wisdom              int    `json:"Wisdom"`
	Charisma            int    `json:"Charisma"`
	MaxHealth           int    `json:"MaxHealth"`
	CurrentHealth       int    `json:"CurrentHealth"`
	MaxMana             int    `json:"MaxMana"`
	CurrentMana         int    `json:"CurrentMana"`
	RaceAbilities       string `json:"RaceAbilities"`
	ProfessionAbilities string `json:"ProfessionAbilities"`
	Level               int    `json:"Level"`
	XP                  int    `json:"XP"`
	EquippedWeapon      string `json:"EquippedWeapon"`
}

// ToAddCharacterInput maps the profile onto the backend character row
func (p *Profile) ToAddCharacterInput() *AddCharacterInput {
	health := 20 + p.Stats.Vitality*2
	mana := 10 + p.Stats.Spirit*2

	input := &AddCharacterInput{
		Name:           p.Name,
		Description:    p.Description,
		Race:           p.Race,
		Archetype:      p.Archetype,
		StartingRegion: p.StartingRegion,
		Strength:       p.Stats.Strength,
		Dexterity:      p.Stats.Agility,
		Intelligence:   p.Stats.Intellect,
		Constitution:   p.Stats.Vitality,
		Wisdom:         p.Stats.Spirit,
		Charisma:       defaultStat,
		MaxHealth:      health,
		CurrentHealth:  health,
		MaxMana:        mana,
		CurrentMana:    mana,
		Level:          1,
	}
	if p.Profession != nil {
		input.Profession = p.Profession.Name
		input.ProfessionAbilities = strings.Join(p.Profession.Abilities, ", ")
		input.EquippedWeapon = p.Profession.StarterWeapon
	}
	return input
}

func statsFromMechanics(mechanics map[string]any) StatBlock {
	stats := StatBlock{
		Strength:  defaultStat,
		Agility:   defaultStat,
		Intellect: defaultStat,
		Spirit:    defaultStat,
		Vitality:  defaultStat,
	}
	raw, ok := mechanics["stats"].(map[string]any)
	if !ok {
		return stats
	}

	assign := func(key string, dst *int) {
		if v, ok := toInt(raw[key]); ok {
			*dst = clamp(v)
		}
	}
	assign("strength", &stats.Strength)
	assign("agility", &stats.Agility)
	assign("intellect", &stats.Intellect)
	assign("spirit", &stats.Spirit)
	assign("vitality", &stats.Vitality)
	return stats
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(math.Round(n)), true
	default:
		return 0, false
	}
}

func clamp(v int) int {
	if v < minStat {
		return minStat
	}
	if v > maxStat {
		return maxStat
	}
	return v
}

func contextString(ctx map[string]any, key string) string {
	v, ok := ctx[key]
	if !ok || v == nil {
		return ""
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
