package llm_test

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/narrative-service/internal/clients/llm"
)

func testStructured(t *testing.T) *llm.Structured {
	t.Helper()
	structured, err := llm.NewStructured("greeting", &jsonschema.Schema{
		Type:     "object",
		Required: []string{"message", "tags"},
		Properties: map[string]*jsonschema.Schema{
			"message": {Type: "string"},
			"tags": {
				Type:     "array",
				Items:    &jsonschema.Schema{Type: "string"},
				MinItems: llm.IntPtr(1),
			},
		},
	})
	require.NoError(t, err)
	return structured
}

func TestStructured_Decode(t *testing.T) {
	structured := testStructured(t)

	var out struct {
		Message string   `json:"message"`
		Tags    []string `json:"tags"`
	}
	err := structured.Decode("```json\n{\"message\":\"hi\",\"tags\":[\"a\"]}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.Message)
	assert.Equal(t, []string{"a"}, out.Tags)
}

func TestStructured_Decode_RejectsSchemaViolations(t *testing.T) {
	structured := testStructured(t)

	var out map[string]any
	assert.Error(t, structured.Decode(`{"message":"hi","tags":[]}`, &out))
	assert.Error(t, structured.Decode(`{"message":3,"tags":["a"]}`, &out))
	assert.Error(t, structured.Decode(`not json`, &out))
}

func TestStructured_Request(t *testing.T) {
	structured := testStructured(t)

	req := structured.Request("sys", "user")
	assert.Equal(t, "greeting", req.SchemaName)
	assert.Equal(t, structured.Schema, req.Schema)
	assert.Equal(t, "sys", req.System)
}
