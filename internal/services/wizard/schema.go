package wizard

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/KirkDiggler/narrative-service/internal/clients/llm"
)

const maxOptions = 8

func optionSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		// Models sometimes answer with bare strings; NormalizeOptions handles both.
		Types: []string{"object", "string"},
		Properties: map[string]*jsonschema.Schema{
			"name":        {Type: "string"},
			"description": {Type: "string"},
			"value":       {Type: "string"},
		},
	}
}

func previewSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name", "lore", "mechanics", "abilities", "starterWeapon"},
		Properties: map[string]*jsonschema.Schema{
			"name":      {Type: "string", MinLength: llm.IntPtr(1)},
			"lore":      {Type: "string", MinLength: llm.IntPtr(1)},
			"mechanics": {Type: "object"},
			"abilities": {
				Type:     "array",
				Items:    &jsonschema.Schema{Type: "string"},
				MinItems: llm.IntPtr(1),
				MaxItems: llm.IntPtr(4),
			},
			"starterWeapon": {Type: "string", MinLength: llm.IntPtr(1)},
		},
	}
}

// stepSchema describes {prompt, options[], preview?}. requirePreview is set on the
// profession step.
func stepSchema(requirePreview bool) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"prompt", "options"},
		Properties: map[string]*jsonschema.Schema{
			"prompt": {Type: "string"},
			"options": {
				Type:     "array",
				Items:    optionSchema(),
				MinItems: llm.IntPtr(1),
				MaxItems: llm.IntPtr(maxOptions),
			},
			"preview": previewSchema(),
		},
	}
	if requirePreview {
		schema.Required = append(schema.Required, "preview")
	} else {
		preview := schema.Properties["preview"]
		preview.Type = ""
		preview.Types = []string{"object", "null"}
	}
	return schema
}
