package wizard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KirkDiggler/narrative-service/internal/domain/wizard"
)

func TestStripEmbeddedJSON(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{
			name:   "plain prose untouched",
			prompt: "Choose the blood that runs in your veins.",
			want:   "Choose the blood that runs in your veins.",
		},
		{
			name:   "trailing object removed",
			prompt: "Choose your lineage.\n\n{\"prompt\":\"Choose your lineage.\",\"options\":[\"Elf\"]}",
			want:   "Choose your lineage.",
		},
		{
			name:   "fenced json removed",
			prompt: "Pick a path.\n```json\n{\"options\": [{\"name\": \"Guardian\"}]}\n```\nChoose wisely.",
			want:   "Pick a path.\n\nChoose wisely.",
		},
		{
			name:   "braces inside strings are respected",
			prompt: "Pick one. {\"note\": \"use } carefully\", \"n\": 1} Thanks.",
			want:   "Pick one.  Thanks.",
		},
		{
			name:   "placeholder braces stay",
			prompt: "Welcome, {name}. Choose.",
			want:   "Welcome, {name}. Choose.",
		},
		{
			name:   "fenced non-json stays",
			prompt: "```\nnot json\n```",
			want:   "```\nnot json\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wizard.StripEmbeddedJSON(tt.prompt))
		})
	}
}

func TestContextSummary(t *testing.T) {
	assert.Equal(t, "No choices have been locked yet.", wizard.ContextSummary(nil))

	summary := wizard.ContextSummary(map[string]any{
		"starting_region": "Emberfall",
		"name":            "Aria",
		"race":            "Elf",
		"profession": map[string]any{
			"name":          "Roadwarden",
			"lore":          "Keepers of the roads",
			"abilities":     []any{"Shield Wall"},
			"starterWeapon": "Spear",
		},
	})

	assert.Equal(t,
		"Race: Elf\n"+
			"Profession: Roadwarden (Keepers of the roads); abilities: Shield Wall; starter weapon: Spear\n"+
			"Name: Aria\n"+
			"starting_region: Emberfall",
		summary)
}
