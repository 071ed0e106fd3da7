package interpret

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/KirkDiggler/narrative-service/internal/domain/intent"
)

func intentSchema() *jsonschema.Schema {
	kinds := make([]any, 0, len(intent.Kinds))
	for _, kind := range intent.Kinds {
		kinds = append(kinds, string(kind))
	}

	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"kind", "narrative_output"},
		Properties: map[string]*jsonschema.Schema{
			"kind":             {Type: "string", Enum: kinds},
			"payload":          {Type: "object"},
			"narrative_output": {Type: "string"},
		},
	}
}
