package schema_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/effective-security/weather-agent/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherQuery struct {
	Location string `json:"location" jsonschema:"description=City name"`
	Units    string `json:"units,omitempty"`
}

func TestNew(t *testing.T) {
	t.Parallel()

	sc, err := schema.New(reflect.TypeOf(weatherQuery{}))
	require.NoError(t, err)
	require.NotNil(t, sc.Parameters)
	assert.Equal(t, "object", sc.Parameters.Type)

	loc, ok := sc.Parameters.Properties.Get("location")
	require.True(t, ok)
	assert.Equal(t, "string", loc.Type)
	assert.Equal(t, "City name", loc.Description)
	assert.Equal(t, []string{"location"}, sc.Parameters.Required)

	// same type resolves to the cached schema
	again, err := schema.New(reflect.TypeOf(weatherQuery{}))
	require.NoError(t, err)
	assert.Same(t, sc, again)
}

func TestFromAny(t *testing.T) {
	t.Parallel()

	sc, err := schema.FromAny(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{"type": "string"},
		},
		"required": []string{"location"},
	})
	require.NoError(t, err)
	assert.Equal(t, "object", sc.Type)
	assert.Equal(t, []string{"location"}, sc.Required)

	loc, ok := sc.Properties.Get("location")
	require.True(t, ok)
	assert.Equal(t, "string", loc.Type)
}

func TestNewResponseFormatStrict(t *testing.T) {
	t.Parallel()

	rf, err := schema.NewResponseFormat(reflect.TypeOf(weatherQuery{}), true)
	require.NoError(t, err)
	assert.Equal(t, "json_schema", rf.Type)
	require.NotNil(t, rf.JSONSchema)
	assert.Equal(t, "weatherQuery", rf.JSONSchema.Name)
	assert.True(t, rf.JSONSchema.Strict)

	// strict mode lists every property as required
	assert.ElementsMatch(t, []string{"location", "units"}, rf.JSONSchema.Schema.Required)

	data, err := json.Marshal(rf)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"json_schema"`)
	assert.Contains(t, string(data), `"location"`)
}
